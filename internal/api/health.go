package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// ready pings every registered dependency and reports 503 if any is down.
func (s *Server) ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(s.deps.Ready))
	healthy := true
	for name, p := range s.deps.Ready {
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			healthy = false
			s.logger.Warn("Readiness check failed", map[string]interface{}{"dependency": name, "error": err.Error()})
			continue
		}
		checks[name] = "ok"
	}

	status := fiber.StatusOK
	state := "ready"
	if !healthy {
		status = fiber.StatusServiceUnavailable
		state = "unavailable"
	}
	return c.Status(status).JSON(fiber.Map{"status": state, "checks": checks})
}
