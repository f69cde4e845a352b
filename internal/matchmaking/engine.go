package matchmaking

import (
	"context"
	"time"

	"tradehub/internal/common/cache"
	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/common/logger"
	"tradehub/internal/common/metrics"

	"github.com/google/uuid"
)

// InterestSource loads a buyer's stored interests as-is. A missing buyer must be
// reported as BUYER_NOT_FOUND.
type InterestSource interface {
	RawInterests(ctx context.Context, buyerID string) (interface{}, error)
}

// SellerCatalog returns folded seller records.
type SellerCatalog interface {
	FetchSellers(ctx context.Context) ([]SellerRecord, error)
}

type EngineConfig struct {
	MaxResults int
	CacheTTL   time.Duration
}

// Engine runs normalize, fetch, score and rank for one buyer per call. It holds no
// per-request state.
type Engine struct {
	buyers     InterestSource
	catalog    SellerCatalog
	normalizer *Normalizer
	cache      *cache.Cache
	config     EngineConfig
	logger     logger.Logger
}

func NewEngine(buyers InterestSource, catalog SellerCatalog, c *cache.Cache, cfg EngineConfig, log logger.Logger) *Engine {
	return &Engine{
		buyers:     buyers,
		catalog:    catalog,
		normalizer: NewNormalizer(log),
		cache:      c,
		config:     cfg,
		logger:     log.WithFields(map[string]interface{}{"component": "match-engine"}),
	}
}

// FindMatches serves matches_<buyerId> from cache when present and computes and
// caches it otherwise. Cache failures fall through to live computation.
func (e *Engine) FindMatches(ctx context.Context, buyerID string) (*MatchResponse, error) {
	if err := validateBuyerID(buyerID); err != nil {
		metrics.MatchRequests.WithLabelValues("invalid").Inc()
		return nil, err
	}

	resp, err := cache.Fetch(ctx, e.cache, "matches", cache.MatchesKey(buyerID), e.config.CacheTTL,
		func(ctx context.Context) (*MatchResponse, error) {
			return e.compute(ctx, buyerID)
		})
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Matches == nil {
		resp = &MatchResponse{Matches: []MatchResult{}}
	}
	return resp, nil
}

// Compute always runs against the store, bypassing the cache.
func (e *Engine) Compute(ctx context.Context, buyerID string) (*MatchResponse, error) {
	if err := validateBuyerID(buyerID); err != nil {
		metrics.MatchRequests.WithLabelValues("invalid").Inc()
		return nil, err
	}
	return e.compute(ctx, buyerID)
}

func (e *Engine) compute(ctx context.Context, buyerID string) (*MatchResponse, error) {
	raw, err := e.buyers.RawInterests(ctx, buyerID)
	if err != nil {
		e.recordFailure(err)
		return nil, err
	}

	interests := e.normalizer.Normalize(raw)
	if len(interests) == 0 {
		metrics.MatchRequests.WithLabelValues("no_interests").Inc()
		e.logger.Info("buyer has no usable interests", map[string]interface{}{"buyerId": buyerID})
		return &MatchResponse{Matches: []MatchResult{}}, nil
	}

	sellers, err := e.catalog.FetchSellers(ctx)
	if err != nil {
		e.recordFailure(err)
		return nil, err
	}
	metrics.MatchCandidates.Observe(float64(len(sellers)))

	scored := make([]MatchResult, 0, len(sellers))
	for _, s := range sellers {
		scored = append(scored, Score(interests, s))
	}
	resp := Rank(scored, e.config.MaxResults)

	metrics.MatchRequests.WithLabelValues("ok").Inc()
	e.logger.Info("matches computed", map[string]interface{}{
		"buyerId":    buyerID,
		"interests":  len(interests),
		"candidates": len(sellers),
		"matches":    len(resp.Matches),
	})
	return &resp, nil
}

func (e *Engine) recordFailure(err error) {
	stdErr := apperrors.Normalize(err)
	switch {
	case stdErr.Code == apperrors.ErrCodeBuyerNotFound:
		metrics.MatchRequests.WithLabelValues("not_found").Inc()
	case stdErr.Retryable:
		metrics.MatchRequests.WithLabelValues("unavailable").Inc()
	default:
		metrics.MatchRequests.WithLabelValues("error").Inc()
	}
}

func validateBuyerID(buyerID string) error {
	if buyerID == "" {
		return apperrors.NewInvalidInputError("buyer id is required")
	}
	if _, err := uuid.Parse(buyerID); err != nil {
		return apperrors.NewInvalidInputError("buyer id must be a UUID")
	}
	return nil
}
