package utils

import "github.com/gofiber/fiber/v2"

// Envelope is the uniform JSON body every grader endpoint returns, success or not.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
}

func send(c *fiber.Ctx, status int, envelope Envelope) error {
	if status == 0 {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(envelope)
}

// SendSuccess responds 200 with the standard envelope.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus responds with the standard envelope under the given status,
// for endpoints that create resources or otherwise deviate from 200.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}

	return send(c, status, Envelope{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// SendError responds with a failure envelope; the data field is always omitted so
// partial results never leak alongside an error.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}

	return send(c, status, Envelope{
		Success: false,
		Message: message,
	})
}
