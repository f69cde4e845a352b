package repository

import (
	"context"
	"database/sql"
	"time"

	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/models"

	"github.com/google/uuid"
)

const quoteSelect = `
	SELECT id, buyer_id, seller_id, product_id, quantity, message, status, unit_price,
	       seller_message, valid_until, responded_at, created_at, updated_at
	FROM quotes`

type Quotes struct {
	db *sql.DB
}

func NewQuotes(db *sql.DB) *Quotes {
	return &Quotes{db: db}
}

func (r *Quotes) Create(ctx context.Context, q models.Quote) (*models.Quote, error) {
	now := time.Now().UTC()
	q.ID = uuid.NewString()
	q.Status = models.QuoteRequested
	q.CreatedAt, q.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO quotes (id, buyer_id, seller_id, product_id, quantity, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		q.ID, q.BuyerID, q.SellerID, q.ProductID, q.Quantity, q.Message, q.Status, now)
	if err != nil {
		return nil, writeErr("create_quote", err)
	}
	return &q, nil
}

func (r *Quotes) Get(ctx context.Context, id string) (*models.Quote, error) {
	q, err := scanQuote(r.db.QueryRowContext(ctx, quoteSelect+` WHERE id = $1`, id))
	if err != nil {
		return nil, lookupErr(apperrors.ErrCodeQuoteNotFound, id, "get_quote", err)
	}
	return q, nil
}

func (r *Quotes) ListForUser(ctx context.Context, userID, role string) ([]models.Quote, error) {
	col := "buyer_id"
	if role == models.RoleSeller {
		col = "seller_id"
	}
	rows, err := r.db.QueryContext(ctx, quoteSelect+` WHERE `+col+` = $1 ORDER BY created_at DESC LIMIT 100`, userID)
	if err != nil {
		return nil, apperrors.StoreError("list_quotes", err)
	}
	defer rows.Close()

	out := make([]models.Quote, 0)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, apperrors.StoreError("list_quotes", err)
		}
		out = append(out, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreError("list_quotes", err)
	}
	return out, nil
}

// Respond records the seller's price on a requested quote.
func (r *Quotes) Respond(ctx context.Context, id, sellerID string, unitPrice float64, validUntil time.Time, message string) (*models.Quote, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE quotes
		SET status = $1, unit_price = $2, valid_until = $3, seller_message = $4,
		    responded_at = NOW(), updated_at = NOW()
		WHERE id = $5 AND seller_id = $6 AND status = $7`,
		models.QuoteQuoted, unitPrice, validUntil, message, id, sellerID, models.QuoteRequested)
	if err != nil {
		return nil, writeErr("respond_quote", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, apperrors.StoreError("respond_quote", err)
	}
	if n == 0 {
		return nil, apperrors.NewInvalidStateTransitionError(models.QuoteRequested, models.QuoteQuoted)
	}
	return r.Get(ctx, id)
}

// Decide accepts or rejects a quoted quote on behalf of its buyer.
func (r *Quotes) Decide(ctx context.Context, id, buyerID, to string) (*models.Quote, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE quotes SET status = $1, updated_at = NOW()
		WHERE id = $2 AND buyer_id = $3 AND status = $4`,
		to, id, buyerID, models.QuoteQuoted)
	if err != nil {
		return nil, writeErr("decide_quote", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, apperrors.StoreError("decide_quote", err)
	}
	if n == 0 {
		return nil, apperrors.NewInvalidStateTransitionError(models.QuoteQuoted, to)
	}
	return r.Get(ctx, id)
}

func scanQuote(s scanner) (*models.Quote, error) {
	var (
		q          models.Quote
		unitPrice  sql.NullFloat64
		validUntil sql.NullTime
		responded  sql.NullTime
	)
	err := s.Scan(&q.ID, &q.BuyerID, &q.SellerID, &q.ProductID, &q.Quantity, &q.Message, &q.Status,
		&unitPrice, &q.SellerMessage, &validUntil, &responded, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if unitPrice.Valid {
		v := unitPrice.Float64
		q.UnitPrice = &v
	}
	q.ValidUntil = nullTime(validUntil)
	q.RespondedAt = nullTime(responded)
	return &q, nil
}
