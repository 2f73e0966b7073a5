// Package problem renders RFC 9457 problem documents for HTTP error responses.
package problem

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

const (
	// MIMEProblemJSON is the media type of problem documents.
	MIMEProblemJSON = "application/problem+json"

	// TitleValidation is used for request validation failures.
	TitleValidation = "One or more validation errors occurred."
)

var typeURIs = map[int]string{
	http.StatusBadRequest:          "https://tools.ietf.org/html/rfc9110#section-15.5.1",
	http.StatusNotFound:            "https://tools.ietf.org/html/rfc9110#section-15.5.5",
	http.StatusMethodNotAllowed:    "https://tools.ietf.org/html/rfc9110#section-15.5.6",
	http.StatusConflict:            "https://tools.ietf.org/html/rfc9110#section-15.5.10",
	http.StatusUnprocessableEntity: "https://tools.ietf.org/html/rfc9110#section-15.5.21",
	http.StatusTooManyRequests:     "https://tools.ietf.org/html/rfc6585#section-4",
	http.StatusInternalServerError: "https://tools.ietf.org/html/rfc9110#section-15.6.1",
	http.StatusServiceUnavailable:  "https://tools.ietf.org/html/rfc9110#section-15.6.4",
}

// Details is a problem document.
type Details struct {
	Type    string              `json:"type"`
	Title   string              `json:"title"`
	Status  int                 `json:"status"`
	Detail  string              `json:"detail,omitempty"`
	TraceID string              `json:"traceId,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// New builds a problem document for status with the given title.
func New(status int, title string) Details {
	typ, ok := typeURIs[status]
	if !ok {
		typ = "about:blank"
	}
	if title == "" {
		title = http.StatusText(status)
	}
	return Details{Type: typ, Title: title, Status: status}
}

// Validation builds a 400 problem listing messages per invalid field.
func Validation(fields map[string][]string) Details {
	d := New(http.StatusBadRequest, TitleValidation)
	d.Errors = fields
	return d
}

// Write sends d as the response, tagging it with the request identifier if present.
func Write(c *fiber.Ctx, d Details) error {
	if id := c.GetRespHeader(fiber.HeaderXRequestID); id != "" {
		d.TraceID = id
	}
	return c.Status(d.Status).JSON(d, MIMEProblemJSON)
}
