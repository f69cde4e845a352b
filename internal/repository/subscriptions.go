package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/models"
)

type Subscriptions struct {
	db *sql.DB
}

func NewSubscriptions(db *sql.DB) *Subscriptions {
	return &Subscriptions{db: db}
}

// Get returns the stored subscription, or nil when the user has none.
func (r *Subscriptions) Get(ctx context.Context, userID string) (*models.Subscription, error) {
	var (
		s       models.Subscription
		expires sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, tier, is_valid, expires_at, updated_at FROM user_subscriptions WHERE user_id = $1`,
		userID).Scan(&s.UserID, &s.Tier, &s.IsValid, &expires, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewSubscriptionCheckFailedError(err)
	}
	s.ExpiresAt = nullTime(expires)
	return &s, nil
}

func (r *Subscriptions) Upsert(ctx context.Context, userID, tier string, expiresAt *time.Time) (*models.Subscription, error) {
	var exp interface{}
	if expiresAt != nil {
		exp = expiresAt.UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_subscriptions (user_id, tier, is_valid, expires_at, updated_at)
		VALUES ($1, $2, TRUE, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET tier = EXCLUDED.tier, is_valid = TRUE, expires_at = EXCLUDED.expires_at, updated_at = NOW()`,
		userID, tier, exp)
	if err != nil {
		return nil, writeErr("upsert_subscription", err)
	}
	return r.Get(ctx, userID)
}
