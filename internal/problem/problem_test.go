package problem

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFillsTypeAndTitle(t *testing.T) {
	d := New(http.StatusServiceUnavailable, "")
	assert.Equal(t, "https://tools.ietf.org/html/rfc9110#section-15.6.4", d.Type)
	assert.Equal(t, "Service Unavailable", d.Title)

	d = New(http.StatusTeapot, "short and stout")
	assert.Equal(t, "about:blank", d.Type)
	assert.Equal(t, "short and stout", d.Title)
}

func TestWriteUsesProblemMediaTypeAndTraceID(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderXRequestID, "req-1")
		return Write(c, Validation(map[string][]string{"Amount": {"bad"}}))
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, MIMEProblemJSON, resp.Header.Get(fiber.HeaderContentType))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var d Details
	require.NoError(t, json.Unmarshal(body, &d))
	assert.Equal(t, TitleValidation, d.Title)
	assert.Equal(t, "req-1", d.TraceID)
	assert.Equal(t, []string{"bad"}, d.Errors["Amount"])
}
