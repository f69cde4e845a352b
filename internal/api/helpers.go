package api

import (
	"encoding/json"
	"strconv"

	apperrors "tradehub/internal/common/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// bind validates the body against schema and decodes it into dst.
func (s *Server) bind(c *fiber.Ctx, schema string, dst interface{}) error {
	body := c.Body()
	if err := s.deps.Validator.Validate(schema, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.NewInvalidInputError("malformed JSON body")
	}
	return nil
}

// bindFields validates a partial update and returns its raw fields. Numbers decode
// as float64, which the repositories' column encoders expect.
func (s *Server) bindFields(c *fiber.Ctx, schema string) (map[string]interface{}, error) {
	body := c.Body()
	if err := s.deps.Validator.Validate(schema, body); err != nil {
		return nil, err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, apperrors.NewInvalidInputError("malformed JSON body")
	}
	return fields, nil
}

// pathID reads a UUID path parameter.
func pathID(c *fiber.Ctx, name string) (string, error) {
	id := c.Params(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", apperrors.NewInvalidInputError(name + " must be a UUID")
	}
	return id, nil
}

func queryInt(c *fiber.Ctx, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.NewInvalidInputError(name + " must be a non-negative integer")
	}
	return n, nil
}
