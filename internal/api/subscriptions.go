package api

import (
	"time"

	"tradehub/internal/common/validation"

	"github.com/gofiber/fiber/v2"
)

type subscriptionRequest struct {
	Tier      string     `json:"tier"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// mySubscription reports the caller's effective tier. Invalid or expired
// subscriptions are returned as 403 errors.
func (s *Server) mySubscription(c *fiber.Ctx) error {
	status, err := s.deps.Subscription.Check(c.UserContext(), identity(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(status)
}

func (s *Server) upsertSubscription(c *fiber.Ctx) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	var req subscriptionRequest
	if err := s.bind(c, validation.SubscriptionUpsert, &req); err != nil {
		return err
	}
	if _, err := s.deps.Users.GetByID(c.UserContext(), userID); err != nil {
		return err
	}

	sub, err := s.deps.Subscriptions.Upsert(c.UserContext(), userID, req.Tier, req.ExpiresAt)
	if err != nil {
		return err
	}
	s.deps.Subscription.Invalidate(c.UserContext(), userID)
	return c.JSON(sub)
}
