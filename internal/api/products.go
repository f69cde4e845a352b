package api

import (
	"context"

	"tradehub/internal/common/cache"
	"tradehub/internal/common/config"
	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/common/validation"
	"tradehub/internal/models"
	"tradehub/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type productRequest struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unit_price"`
	Currency    string  `json:"currency"`
	MinOrderQty int     `json:"min_order_qty"`
}

type productList struct {
	Products []models.Product `json:"products"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

func (s *Server) createProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := s.bind(c, validation.ProductCreate, &req); err != nil {
		return err
	}

	product, err := s.deps.Products.Create(c.UserContext(), models.Product{
		SellerID:    identity(c).UserID,
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
		Currency:    req.Currency,
		MinOrderQty: req.MinOrderQty,
	})
	if err != nil {
		return err
	}
	s.index(c.UserContext(), *product)
	return c.Status(fiber.StatusCreated).JSON(product)
}

func (s *Server) listProducts(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return err
	}
	sellerID := c.Query("seller_id")
	if sellerID != "" {
		if _, err := uuid.Parse(sellerID); err != nil {
			return apperrors.NewInvalidInputError("seller_id must be a UUID")
		}
	}

	products, err := s.deps.Products.List(c.UserContext(), repository.ProductFilter{
		SellerID: sellerID,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return err
	}
	if products == nil {
		products = []models.Product{}
	}
	return c.JSON(productList{Products: products, Limit: limit, Offset: offset})
}

// searchProducts queries the search index and degrades to SQL when it is down.
func (s *Server) searchProducts(c *fiber.Ctx) error {
	size, err := queryInt(c, "size", 20)
	if err != nil {
		return err
	}
	from, err := queryInt(c, "from", 0)
	if err != nil {
		return err
	}

	res, err := s.deps.Search.Search(c.UserContext(), repository.ProductFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Limit:    size,
		Offset:   from,
	})
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (s *Server) getProduct(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	product, err := s.loadProduct(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(product)
}

func (s *Server) loadProduct(ctx context.Context, id string) (*models.Product, error) {
	return cache.Fetch(ctx, s.deps.Cache, "product", cache.ProductKey(id),
		config.Seconds(s.deps.CacheConfig.ProductTTL),
		func(ctx context.Context) (*models.Product, error) {
			return s.deps.Products.Get(ctx, id)
		})
}

func (s *Server) updateProduct(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	fields, err := s.bindFields(c, validation.ProductUpdate)
	if err != nil {
		return err
	}

	product, err := s.deps.Products.Update(c.UserContext(), id, identity(c).UserID, fields)
	if err != nil {
		return err
	}
	s.deps.Cache.Invalidate(c.UserContext(), cache.ProductKey(id))
	s.index(c.UserContext(), *product)
	return c.JSON(product)
}

// deleteProduct soft-deletes an owned product and drops it from the index.
func (s *Server) deleteProduct(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.deps.Products.Deactivate(c.UserContext(), id, identity(c).UserID); err != nil {
		return err
	}
	s.deps.Cache.Invalidate(c.UserContext(), cache.ProductKey(id))
	if s.deps.Search != nil {
		if err := s.deps.Search.Delete(c.UserContext(), id); err != nil {
			s.logger.Warn("Failed to remove product from index", map[string]interface{}{"productId": id, "error": err.Error()})
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// index is best-effort; SQL stays the source of truth.
func (s *Server) index(ctx context.Context, p models.Product) {
	if s.deps.Search == nil {
		return
	}
	if err := s.deps.Search.Index(ctx, p); err != nil {
		s.logger.Warn("Failed to index product", map[string]interface{}{"productId": p.ID, "error": err.Error()})
	}
}
