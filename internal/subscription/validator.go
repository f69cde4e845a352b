// Package subscription checks whether a user's subscription allows access.
package subscription

import (
	"context"
	"strings"
	"time"

	"tradehub/internal/common/cache"
	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/common/logger"
	"tradehub/internal/models"
)

var validTiers = map[string]bool{
	models.TierFree:       true,
	models.TierBasic:      true,
	models.TierPremium:    true,
	models.TierEnterprise: true,
}

// ValidTier reports whether tier is a known subscription tier.
func ValidTier(tier string) bool {
	return validTiers[tier]
}

// Store reads the stored subscription; nil without error means the user has none.
type Store interface {
	Get(ctx context.Context, userID string) (*models.Subscription, error)
}

type Status struct {
	UserID    string     `json:"userId"`
	IsValid   bool       `json:"isValid"`
	TierLevel string     `json:"tierLevel"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type Validator struct {
	store  Store
	cache  *cache.Cache
	ttl    time.Duration
	now    func() time.Time
	logger logger.Logger
}

func NewValidator(store Store, c *cache.Cache, ttl time.Duration, log logger.Logger) *Validator {
	return &Validator{
		store:  store,
		cache:  c,
		ttl:    ttl,
		now:    time.Now,
		logger: log.WithFields(map[string]interface{}{"component": "subscription"}),
	}
}

// Check loads the subscription through sub_<userId> and validates it. A user
// without a row is on the free tier. Invalid rows, unknown tiers and past expiry
// dates are rejected with SUBSCRIPTION_INVALID or SUBSCRIPTION_EXPIRED.
func (v *Validator) Check(ctx context.Context, userID string) (*Status, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.NewInvalidInputError("userId is required")
	}

	sub, err := cache.Fetch(ctx, v.cache, "subscription", cache.SubscriptionKey(userID), v.ttl,
		func(ctx context.Context) (models.Subscription, error) {
			stored, err := v.store.Get(ctx, userID)
			if err != nil {
				return models.Subscription{}, err
			}
			if stored == nil {
				return models.Subscription{UserID: userID, Tier: models.TierFree, IsValid: true}, nil
			}
			return *stored, nil
		})
	if err != nil {
		return nil, err
	}

	if !sub.IsValid {
		return nil, apperrors.NewSubscriptionInvalidError("subscription is marked invalid")
	}
	if !ValidTier(sub.Tier) {
		v.logger.Warn("Unknown subscription tier", map[string]interface{}{
			"userId": userID,
			"tier":   sub.Tier,
		})
		return nil, apperrors.NewSubscriptionInvalidError("unknown tier " + sub.Tier)
	}
	if sub.ExpiresAt != nil && v.now().After(*sub.ExpiresAt) {
		return nil, apperrors.NewSubscriptionExpiredError("expired at " + sub.ExpiresAt.UTC().Format(time.RFC3339))
	}

	return &Status{UserID: userID, IsValid: true, TierLevel: sub.Tier, ExpiresAt: sub.ExpiresAt}, nil
}

// Invalidate drops the cached subscription after a write.
func (v *Validator) Invalidate(ctx context.Context, userID string) {
	v.cache.Invalidate(ctx, cache.SubscriptionKey(userID))
}
