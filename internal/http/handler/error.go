package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"qdadoc/internal/http/middleware"
	"qdadoc/internal/logging"
	"qdadoc/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// serviceErrors maps service sentinels to their HTTP representation.
var serviceErrors = []struct {
	err     error
	status  int
	code    string
	message string
}{
	{service.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "document not found"},
	{service.ErrIDRequired, fiber.StatusBadRequest, "INVALID_ID", "id is required"},
	{service.ErrReaderNil, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required"},
	{service.ErrEmptyContent, fiber.StatusBadRequest, "EMPTY_FILE", "file is empty"},
	{service.ErrTooLarge, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds upload limit"},
	{service.ErrNotText, fiber.StatusUnsupportedMediaType, "NOT_TEXT", "only plain-text files are accepted"},
	{service.ErrInvalidSelection, fiber.StatusBadRequest, "INVALID_SELECTION", "selection is outside the document"},
	{service.ErrNothingToUpdate, fiber.StatusBadRequest, "NOTHING_TO_UPDATE", "nothing to update"},
	{service.ErrInvalidName, fiber.StatusBadRequest, "INVALID_NAME", "name must not be empty"},
	{service.ErrStorageUnavailable, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable"},
}

// classifyError returns the status, code and message for a service error.
// Unknown errors become 500 INTERNAL_ERROR.
func classifyError(err error) (int, errorEnvelope) {
	for _, e := range serviceErrors {
		if errors.Is(err, e.err) {
			return e.status, errorEnvelope{Code: e.code, Message: e.message}
		}
	}
	return fiber.StatusInternalServerError, errorEnvelope{Code: "INTERNAL_ERROR", Message: "internal server error"}
}

// writeServiceError translates err into the error envelope.
func writeServiceError(c *fiber.Ctx, err error) error {
	status, env := classifyError(err)
	logServerError(c, status, err)
	return writeError(c, status, env.Code, env.Message)
}

// logServerError records 5xx causes, which never reach the client.
func logServerError(c *fiber.Ctx, status int, err error) {
	if status < fiber.StatusInternalServerError {
		return
	}
	logging.Default().Error("request_failed", err, map[string]any{
		"component":  "http",
		"request_id": requestIDFromCtx(c),
		"method":     c.Method(),
		"path":       c.Path(),
	})
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else {
			return writeServiceError(c, err)
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "FILE_TOO_LARGE", "request body too large")
		case fiber.StatusUnsupportedMediaType:
			return writeError(c, status, "UNSUPPORTED_MEDIA_TYPE", "unsupported media type")
		case fiber.StatusServiceUnavailable:
			return writeError(c, status, "SERVICE_UNAVAILABLE", "dependency unavailable")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
