package api

import (
	"fmt"
	"math"

	"tradehub/internal/common/auth"
	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/common/validation"
	"tradehub/internal/models"
	"tradehub/internal/notify"

	"github.com/gofiber/fiber/v2"
)

type orderRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes"`
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

// orderTransitions maps from -> to -> the role allowed to drive the move.
var orderTransitions = map[string]map[string]auth.Role{
	models.OrderPending: {
		models.OrderAccepted:  roleSeller,
		models.OrderRejected:  roleSeller,
		models.OrderCancelled: roleBuyer,
	},
	models.OrderAccepted: {
		models.OrderShipped:   roleSeller,
		models.OrderCancelled: roleBuyer,
	},
	models.OrderShipped: {
		models.OrderDelivered: roleSeller,
	},
}

// createOrder prices the order from the product row and notifies the seller.
func (s *Server) createOrder(c *fiber.Ctx) error {
	var req orderRequest
	if err := s.bind(c, validation.OrderCreate, &req); err != nil {
		return err
	}

	product, err := s.deps.Products.Get(c.UserContext(), req.ProductID)
	if err != nil {
		return err
	}
	if req.Quantity < product.MinOrderQty {
		return apperrors.NewInvalidInputError(fmt.Sprintf("quantity must be at least %d", product.MinOrderQty))
	}

	order, err := s.deps.Orders.Create(c.UserContext(), models.Order{
		BuyerID:     identity(c).UserID,
		SellerID:    product.SellerID,
		ProductID:   product.ID,
		Quantity:    req.Quantity,
		UnitPrice:   product.UnitPrice,
		TotalAmount: math.Round(product.UnitPrice*float64(req.Quantity)*100) / 100,
		Currency:    product.Currency,
		Notes:       req.Notes,
	})
	if err != nil {
		return err
	}

	s.notify(notify.Request{
		RecipientID:   order.SellerID,
		RecipientType: models.RoleSeller,
		Type:          models.NotifyOrderPlaced,
		Data: map[string]interface{}{
			"order_id":     order.ID,
			"product_name": product.Name,
			"quantity":     order.Quantity,
			"total_amount": order.TotalAmount,
			"currency":     order.Currency,
		},
	})
	return c.Status(fiber.StatusCreated).JSON(order)
}

func (s *Server) listOrders(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return err
	}

	id := identity(c)
	orders, err := s.deps.Orders.ListForUser(c.UserContext(), id.UserID, string(id.Role), limit, offset)
	if err != nil {
		return err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return c.JSON(fiber.Map{"orders": orders})
}

func (s *Server) getOrder(c *fiber.Ctx) error {
	order, err := s.participantOrder(c)
	if err != nil {
		return err
	}
	return c.JSON(order)
}

// updateOrderStatus applies one state machine step. The seller's first move out
// of pending stamps responded_at.
func (s *Server) updateOrderStatus(c *fiber.Ctx) error {
	var req orderStatusRequest
	if err := s.bind(c, validation.OrderStatus, &req); err != nil {
		return err
	}

	order, err := s.participantOrder(c)
	if err != nil {
		return err
	}

	actor, ok := orderTransitions[order.Status][req.Status]
	if !ok {
		return apperrors.NewInvalidStateTransitionError(order.Status, req.Status)
	}
	id := identity(c)
	if id.Role != roleAdmin && id.Role != actor {
		return apperrors.NewForbiddenError(fmt.Sprintf("only the %s may move an order to %s", actor, req.Status))
	}

	stamp := actor == roleSeller && order.Status == models.OrderPending
	updated, err := s.deps.Orders.Transition(c.UserContext(), order.ID, order.Status, req.Status, stamp)
	if err != nil {
		return err
	}

	recipient, recipientType := updated.BuyerID, models.RoleBuyer
	if actor == roleBuyer {
		recipient, recipientType = updated.SellerID, models.RoleSeller
	}
	s.notify(notify.Request{
		RecipientID:   recipient,
		RecipientType: recipientType,
		Type:          models.NotifyOrderStatus,
		Data:          map[string]interface{}{"order_id": updated.ID, "status": updated.Status},
	})
	return c.JSON(updated)
}

// participantOrder loads the :id order and hides it from non-participants.
func (s *Server) participantOrder(c *fiber.Ctx) (*models.Order, error) {
	orderID, err := pathID(c, "id")
	if err != nil {
		return nil, err
	}
	order, err := s.deps.Orders.Get(c.UserContext(), orderID)
	if err != nil {
		return nil, err
	}
	id := identity(c)
	if id.Role != roleAdmin && id.UserID != order.BuyerID && id.UserID != order.SellerID {
		return nil, apperrors.NewNotFoundError(apperrors.ErrCodeOrderNotFound, orderID)
	}
	return order, nil
}

func (s *Server) notify(req notify.Request) {
	if s.deps.Notifier == nil {
		return
	}
	s.deps.Notifier.SendAsync(req)
}
