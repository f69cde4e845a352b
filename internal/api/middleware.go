package api

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"tradehub/internal/common/auth"
	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/common/metrics"

	"github.com/gofiber/fiber/v2"
)

const (
	roleBuyer  = auth.RoleBuyer
	roleSeller = auth.RoleSeller
	roleAdmin  = auth.RoleAdmin

	localIdentity = "identity"
)

// observe logs each request and records its metrics. Errors are rendered here so
// the logged status is the one the client sees.
func (s *Server) observe(c *fiber.Ctx) error {
	start := time.Now()

	if err := c.Next(); err != nil {
		if herr := s.handleError(c, err); herr != nil {
			return herr
		}
	}

	status := c.Response().StatusCode()
	duration := time.Since(start)
	route := c.Route().Path

	metrics.HTTPRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(duration.Seconds())
	s.deps.Observability.Record(c.UserContext(), c.Method()+" "+route, statusClass(status), duration)

	fields := map[string]interface{}{
		"method":     c.Method(),
		"path":       c.Path(),
		"status":     status,
		"durationMs": duration.Milliseconds(),
		"requestId":  c.GetRespHeader(fiber.HeaderXRequestID),
	}
	switch {
	case status >= 500:
		s.logger.Error("Request failed", fields)
	case status >= 400:
		s.logger.Warn("Request rejected", fields)
	default:
		s.logger.Info("Request handled", fields)
	}
	return nil
}

func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}

// authenticate verifies the bearer token and stores the caller identity.
func (s *Server) authenticate(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return apperrors.NewUnauthorizedError("missing bearer token")
	}

	id, err := s.deps.Tokens.Verify(strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return apperrors.NewUnauthorizedError("token expired")
		}
		return apperrors.NewUnauthorizedError("invalid token")
	}

	c.Locals(localIdentity, id)
	return c.Next()
}

// requireRole admits the listed roles. Admins pass every role check.
func requireRole(roles ...auth.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := identity(c)
		if id == nil {
			return apperrors.NewUnauthorizedError("missing identity")
		}
		if id.Role == auth.RoleAdmin {
			return c.Next()
		}
		for _, r := range roles {
			if id.Role == r {
				return c.Next()
			}
		}
		return apperrors.NewForbiddenError("role " + string(id.Role) + " cannot access this resource")
	}
}

func identity(c *fiber.Ctx) *auth.Identity {
	id, _ := c.Locals(localIdentity).(*auth.Identity)
	return id
}
