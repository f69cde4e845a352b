package api

import (
	"errors"

	apperrors "tradehub/internal/common/errors"

	"github.com/gofiber/fiber/v2"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      apperrors.ErrorCode `json:"code"`
	Message   string              `json:"message"`
	Details   string              `json:"details,omitempty"`
	Retryable bool                `json:"retryable"`
}

// handleError renders every error as {"error": {...}} with the status its code
// maps to. Internal details are logged, not returned.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := apperrors.ErrCodeInternal
		switch {
		case fe.Code == fiber.StatusNotFound:
			code = "ROUTE_NOT_FOUND"
		case fe.Code == fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		case fe.Code == fiber.StatusRequestEntityTooLarge:
			code = "PAYLOAD_TOO_LARGE"
		case fe.Code < 500:
			code = apperrors.ErrCodeInvalidInput
		}
		return c.Status(fe.Code).JSON(errorBody{Error: errorDetail{Code: code, Message: fe.Message}})
	}

	stdErr := apperrors.Normalize(err)
	status := apperrors.HTTPStatus(stdErr.Code)

	detail := errorDetail{
		Code:      stdErr.Code,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
	}
	if status >= 500 {
		s.logger.Error("Request error", map[string]interface{}{
			"path":      c.Path(),
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
		})
		detail.Details = ""
	}
	return c.Status(status).JSON(errorBody{Error: detail})
}
