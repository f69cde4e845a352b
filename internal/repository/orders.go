package repository

import (
	"context"
	"database/sql"
	"time"

	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/models"

	"github.com/google/uuid"
)

const orderSelect = `
	SELECT id, buyer_id, seller_id, product_id, quantity, unit_price, total_amount,
	       currency, status, notes, responded_at, created_at, updated_at
	FROM orders`

type Orders struct {
	db *sql.DB
}

func NewOrders(db *sql.DB) *Orders {
	return &Orders{db: db}
}

func (r *Orders) Create(ctx context.Context, o models.Order) (*models.Order, error) {
	now := time.Now().UTC()
	o.ID = uuid.NewString()
	o.Status = models.OrderPending
	o.CreatedAt, o.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (id, buyer_id, seller_id, product_id, quantity, unit_price,
		                    total_amount, currency, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
		o.ID, o.BuyerID, o.SellerID, o.ProductID, o.Quantity, o.UnitPrice,
		o.TotalAmount, o.Currency, o.Status, o.Notes, now)
	if err != nil {
		return nil, writeErr("create_order", err)
	}
	return &o, nil
}

func (r *Orders) Get(ctx context.Context, id string) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, orderSelect+` WHERE id = $1`, id))
	if err != nil {
		return nil, lookupErr(apperrors.ErrCodeOrderNotFound, id, "get_order", err)
	}
	return o, nil
}

// ListForUser returns orders where the user is the buyer or the seller.
func (r *Orders) ListForUser(ctx context.Context, userID, role string, limit, offset int) ([]models.Order, error) {
	col := "buyer_id"
	if role == models.RoleSeller {
		col = "seller_id"
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		orderSelect+` WHERE `+col+` = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, apperrors.StoreError("list_orders", err)
	}
	defer rows.Close()

	out := make([]models.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, apperrors.StoreError("list_orders", err)
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreError("list_orders", err)
	}
	return out, nil
}

// Transition moves an order from one status to another. The update only applies
// while the order is still in from; otherwise a concurrent change won and the
// caller gets INVALID_STATE_TRANSITION. stampResponse sets responded_at the first
// time a seller acts on the order.
func (r *Orders) Transition(ctx context.Context, id, from, to string, stampResponse bool) (*models.Order, error) {
	query := `UPDATE orders SET status = $1, updated_at = NOW()`
	if stampResponse {
		query += `, responded_at = COALESCE(responded_at, NOW())`
	}
	query += ` WHERE id = $2 AND status = $3`

	res, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return nil, writeErr("transition_order", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, apperrors.StoreError("transition_order", err)
	}
	if n == 0 {
		return nil, apperrors.NewInvalidStateTransitionError(from, to)
	}
	return r.Get(ctx, id)
}

func scanOrder(s scanner) (*models.Order, error) {
	var (
		o         models.Order
		responded sql.NullTime
	)
	err := s.Scan(&o.ID, &o.BuyerID, &o.SellerID, &o.ProductID, &o.Quantity, &o.UnitPrice,
		&o.TotalAmount, &o.Currency, &o.Status, &o.Notes, &responded, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.RespondedAt = nullTime(responded)
	return &o, nil
}
