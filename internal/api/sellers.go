package api

import (
	"context"

	"tradehub/internal/common/cache"
	"tradehub/internal/common/config"
	"tradehub/internal/common/validation"
	"tradehub/internal/models"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) getMySeller(c *fiber.Ctx) error {
	return s.sendSeller(c, identity(c).UserID)
}

func (s *Server) getSeller(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	return s.sendSeller(c, id)
}

func (s *Server) sendSeller(c *fiber.Ctx, id string) error {
	seller, err := s.loadSeller(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(seller)
}

func (s *Server) loadSeller(ctx context.Context, id string) (*models.Seller, error) {
	return cache.Fetch(ctx, s.deps.Cache, "seller", cache.SellerKey(id),
		config.Seconds(s.deps.CacheConfig.SellerTTL),
		func(ctx context.Context) (*models.Seller, error) {
			return s.deps.Sellers.Get(ctx, id)
		})
}

func (s *Server) updateMySeller(c *fiber.Ctx) error {
	fields, err := s.bindFields(c, validation.SellerUpdate)
	if err != nil {
		return err
	}

	id := identity(c).UserID
	seller, err := s.deps.Sellers.Update(c.UserContext(), id, fields)
	if err != nil {
		return err
	}
	s.deps.Cache.Invalidate(c.UserContext(), cache.SellerKey(id))
	return c.JSON(seller)
}
