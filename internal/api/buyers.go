package api

import (
	"context"

	"tradehub/internal/common/cache"
	"tradehub/internal/common/config"
	"tradehub/internal/common/validation"
	"tradehub/internal/models"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) getMyBuyer(c *fiber.Ctx) error {
	return s.sendBuyer(c, identity(c).UserID)
}

func (s *Server) getBuyer(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	return s.sendBuyer(c, id)
}

func (s *Server) sendBuyer(c *fiber.Ctx, id string) error {
	buyer, err := cache.Fetch(c.UserContext(), s.deps.Cache, "buyer", cache.BuyerKey(id),
		config.Seconds(s.deps.CacheConfig.BuyerTTL),
		func(ctx context.Context) (*models.Buyer, error) {
			return s.deps.Buyers.Get(ctx, id)
		})
	if err != nil {
		return err
	}
	return c.JSON(buyer)
}

// updateMyBuyer applies the whitelisted fields and drops the cached profile and
// matches, since interests feed matchmaking.
func (s *Server) updateMyBuyer(c *fiber.Ctx) error {
	fields, err := s.bindFields(c, validation.BuyerUpdate)
	if err != nil {
		return err
	}

	id := identity(c).UserID
	buyer, err := s.deps.Buyers.Update(c.UserContext(), id, fields)
	if err != nil {
		return err
	}
	s.deps.Cache.Invalidate(c.UserContext(), cache.BuyerKey(id), cache.MatchesKey(id))
	return c.JSON(buyer)
}

func (s *Server) myMatches(c *fiber.Ctx) error {
	resp, err := s.deps.Matcher.FindMatches(c.UserContext(), identity(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (s *Server) buyerMatches(c *fiber.Ctx) error {
	buyerID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	resp, err := s.deps.Matcher.FindMatches(c.UserContext(), buyerID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
