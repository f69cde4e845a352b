package api

import (
	"time"

	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/common/validation"
	"tradehub/internal/models"
	"tradehub/internal/notify"

	"github.com/gofiber/fiber/v2"
)

const defaultQuoteValidDays = 7

type quoteRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Message   string `json:"message"`
}

type quoteResponse struct {
	UnitPrice float64 `json:"unit_price"`
	ValidDays int     `json:"valid_days"`
	Message   string  `json:"message"`
}

func (s *Server) requestQuote(c *fiber.Ctx) error {
	var req quoteRequest
	if err := s.bind(c, validation.QuoteRequest, &req); err != nil {
		return err
	}

	product, err := s.deps.Products.Get(c.UserContext(), req.ProductID)
	if err != nil {
		return err
	}

	quote, err := s.deps.Quotes.Create(c.UserContext(), models.Quote{
		BuyerID:   identity(c).UserID,
		SellerID:  product.SellerID,
		ProductID: product.ID,
		Quantity:  req.Quantity,
		Message:   req.Message,
	})
	if err != nil {
		return err
	}

	s.notify(notify.Request{
		RecipientID:   quote.SellerID,
		RecipientType: models.RoleSeller,
		Type:          models.NotifyQuoteRequest,
		Data: map[string]interface{}{
			"quote_id":     quote.ID,
			"product_name": product.Name,
			"quantity":     quote.Quantity,
			"message":      quote.Message,
		},
	})
	return c.Status(fiber.StatusCreated).JSON(quote)
}

func (s *Server) listQuotes(c *fiber.Ctx) error {
	id := identity(c)
	quotes, err := s.deps.Quotes.ListForUser(c.UserContext(), id.UserID, string(id.Role))
	if err != nil {
		return err
	}
	if quotes == nil {
		quotes = []models.Quote{}
	}
	return c.JSON(fiber.Map{"quotes": quotes})
}

// respondQuote prices a requested quote. It is valid for valid_days, 7 by default.
func (s *Server) respondQuote(c *fiber.Ctx) error {
	quoteID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req quoteResponse
	if err := s.bind(c, validation.QuoteRespond, &req); err != nil {
		return err
	}
	if req.ValidDays == 0 {
		req.ValidDays = defaultQuoteValidDays
	}

	quote, err := s.deps.Quotes.Get(c.UserContext(), quoteID)
	if err != nil {
		return err
	}
	id := identity(c)
	if id.Role != roleAdmin && quote.SellerID != id.UserID {
		return apperrors.NewNotFoundError(apperrors.ErrCodeQuoteNotFound, quoteID)
	}

	validUntil := time.Now().UTC().AddDate(0, 0, req.ValidDays)
	updated, err := s.deps.Quotes.Respond(c.UserContext(), quoteID, quote.SellerID, req.UnitPrice, validUntil, req.Message)
	if err != nil {
		return err
	}

	data := map[string]interface{}{
		"quote_id":    updated.ID,
		"unit_price":  req.UnitPrice,
		"valid_until": validUntil.Format(time.RFC3339),
	}
	if product, err := s.loadProduct(c.UserContext(), updated.ProductID); err == nil {
		data["product_name"] = product.Name
	}
	s.notify(notify.Request{
		RecipientID:   updated.BuyerID,
		RecipientType: models.RoleBuyer,
		Type:          models.NotifyQuoteResponse,
		Data:          data,
	})
	return c.JSON(updated)
}

func (s *Server) acceptQuote(c *fiber.Ctx) error {
	return s.decideQuote(c, models.QuoteAccepted)
}

func (s *Server) rejectQuote(c *fiber.Ctx) error {
	return s.decideQuote(c, models.QuoteRejected)
}

// decideQuote closes a quoted quote for its buyer. Expired quotes cannot be
// accepted but may still be rejected.
func (s *Server) decideQuote(c *fiber.Ctx, to string) error {
	quoteID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	quote, err := s.deps.Quotes.Get(c.UserContext(), quoteID)
	if err != nil {
		return err
	}
	id := identity(c)
	if id.Role != roleAdmin && quote.BuyerID != id.UserID {
		return apperrors.NewNotFoundError(apperrors.ErrCodeQuoteNotFound, quoteID)
	}
	if to == models.QuoteAccepted && quote.ValidUntil != nil && time.Now().After(*quote.ValidUntil) {
		expired := apperrors.NewInvalidStateTransitionError(quote.Status, to)
		expired.Details = "quote expired at " + quote.ValidUntil.UTC().Format(time.RFC3339)
		return expired
	}

	updated, err := s.deps.Quotes.Decide(c.UserContext(), quoteID, quote.BuyerID, to)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

