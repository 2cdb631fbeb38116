package utils

import "github.com/gofiber/fiber/v2"

// errorBody is the JSON envelope for a failed dispatch call.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// ErrorResponse writes a {"success": false, "error": {...}} envelope and
// sets the HTTP status to code.
func ErrorResponse(c *fiber.Ctx, code int, message string, err error) error {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error": errorBody{
			Code:    code,
			Message: message,
			Detail:  detail,
		},
	})
}

// SuccessResponse writes a {"success": true, "data": ...} envelope with
// HTTP 200.
func SuccessResponse(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}
