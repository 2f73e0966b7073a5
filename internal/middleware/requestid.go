package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestIDKey is the Locals key holding the request identifier.
const RequestIDKey = "request_id"

// RequestID ensures each request carries an identifier, echoed on the
// response so error documents and logs can reference it.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(fiber.HeaderXRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}

		c.Set(fiber.HeaderXRequestID, reqID)
		c.Locals(RequestIDKey, reqID)

		return c.Next()
	}
}
