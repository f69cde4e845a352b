package matchmaking

import (
	"context"
	"errors"
	"testing"
	"time"

	"tradehub/internal/common/cache"
	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBuyerID = "7f2c1a9e-3b4d-4e5f-8a6b-1c2d3e4f5a6b"

type fakeInterests struct {
	raw   interface{}
	err   error
	calls int
}

func (f *fakeInterests) RawInterests(_ context.Context, _ string) (interface{}, error) {
	f.calls++
	return f.raw, f.err
}

type fakeCatalog struct {
	sellers []SellerRecord
	err     error
	calls   int
}

func (f *fakeCatalog) FetchSellers(_ context.Context) ([]SellerRecord, error) {
	f.calls++
	return f.sellers, f.err
}

func exampleCatalog() *fakeCatalog {
	return &fakeCatalog{sellers: []SellerRecord{
		{SellerID: "S1", CompanyName: "Bean Co", Offerings: []string{"coffee", "spices"}},
		{SellerID: "S2", CompanyName: "Leaf & Bean", Offerings: []string{"tea", "coffee"}},
		{SellerID: "S3", CompanyName: "Bloom", Offerings: []string{"flowers"}},
	}}
}

func newTestEngine(t *testing.T, buyers InterestSource, catalog SellerCatalog, c *cache.Cache) *Engine {
	return NewEngine(buyers, catalog, c, EngineConfig{CacheTTL: time.Minute}, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestEngine_EndToEndExample(t *testing.T) {
	buyers := &fakeInterests{raw: `["Coffee", "Tea"]`}
	engine := newTestEngine(t, buyers, exampleCatalog(), nil)

	resp, err := engine.FindMatches(context.Background(), testBuyerID)
	require.NoError(t, err)
	require.Len(t, resp.Matches, 2)

	assert.Equal(t, "S2", resp.Matches[0].SellerID)
	assert.Equal(t, []string{"coffee", "tea"}, resp.Matches[0].SharedProducts)
	assert.Equal(t, "S1", resp.Matches[1].SellerID)
	assert.Equal(t, []string{"coffee"}, resp.Matches[1].SharedProducts)
	assert.Greater(t, resp.Matches[0].Score, resp.Matches[1].Score)

	for _, m := range resp.Matches {
		assert.NotEqual(t, "S3", m.SellerID)
	}
}

func TestEngine_EmptyInterestsShortCircuit(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
	}{
		{"empty list", `[]`},
		{"null", nil},
		{"unparseable", `{{{`},
		{"only blanks", []string{" ", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := exampleCatalog()
			engine := newTestEngine(t, &fakeInterests{raw: tt.raw}, catalog, nil)

			resp, err := engine.FindMatches(context.Background(), testBuyerID)
			require.NoError(t, err)
			assert.NotNil(t, resp.Matches)
			assert.Empty(t, resp.Matches)
			assert.Equal(t, 0, catalog.calls, "catalog is not queried without interests")
		})
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestEngine_InvalidBuyerIDNeverTouchesStore(t *testing.T) {
	for _, id := range []string{"", "not-a-uuid", "123"} {
		buyers := &fakeInterests{raw: `["coffee"]`}
		catalog := exampleCatalog()
		engine := newTestEngine(t, buyers, catalog, nil)

		_, err := engine.FindMatches(context.Background(), id)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput), id)
		assert.Equal(t, 0, buyers.calls)
		assert.Equal(t, 0, catalog.calls)
	}
}

func TestEngine_BuyerNotFound(t *testing.T) {
	buyers := &fakeInterests{err: apperrors.NewBuyerNotFoundError(testBuyerID)}
	engine := newTestEngine(t, buyers, exampleCatalog(), nil)

	_, err := engine.FindMatches(context.Background(), testBuyerID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeBuyerNotFound))
}

func TestEngine_CatalogUnavailable(t *testing.T) {
	catalog := &fakeCatalog{err: apperrors.NewQueryTimeoutError("seller_catalog")}
	engine := newTestEngine(t, &fakeInterests{raw: `["coffee"]`}, catalog, nil)

	_, err := engine.FindMatches(context.Background(), testBuyerID)
	stdErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeQueryTimeout, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

// ==========================
// Cache Behavior Tests
// ==========================

func TestEngine_ReadThroughCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	buyers := &fakeInterests{raw: `["coffee"]`}
	catalog := exampleCatalog()
	engine := newTestEngine(t, buyers, catalog, cache.New(rdb, logger.NewTestLogger(t)))

	first, err := engine.FindMatches(context.Background(), testBuyerID)
	require.NoError(t, err)
	assert.True(t, mr.Exists("matches_"+testBuyerID))

	second, err := engine.FindMatches(context.Background(), testBuyerID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, catalog.calls)

	_, err = engine.Compute(context.Background(), testBuyerID)
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.calls, "Compute bypasses the cache")
}

func TestEngine_CacheDownFallsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.Close()

	engine := newTestEngine(t, &fakeInterests{raw: `["tea"]`}, exampleCatalog(), cache.New(rdb, logger.NewTestLogger(t)))

	resp, err := engine.FindMatches(context.Background(), testBuyerID)
	require.NoError(t, err)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "S2", resp.Matches[0].SellerID)
}

func TestEngine_ErrorsAreNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	catalog := &fakeCatalog{err: errors.New("boom")}
	engine := newTestEngine(t, &fakeInterests{raw: `["tea"]`}, catalog, cache.New(rdb, logger.NewTestLogger(t)))

	_, err := engine.FindMatches(context.Background(), testBuyerID)
	require.Error(t, err)
	assert.False(t, mr.Exists("matches_"+testBuyerID))
}

func TestEngine_MatchesOnProductNamesOnly(t *testing.T) {
	db, mock := setupMockDB(t)
	catalog := NewCatalogFetcher(db, time.Second, logger.NewTestLogger(t))

	mock.ExpectQuery("SELECT s.user_id").WillReturnRows(sqlmock.NewRows(catalogColumns).
		AddRow("s1", "Bean Co", 0, "Arabica Beans", nil, nil, nil).
		AddRow("s2", "Leaf Co", 0, "Beverages", nil, nil, nil))

	engine := newTestEngine(t, &fakeInterests{raw: `["beverages"]`}, catalog, nil)
	resp, err := engine.Compute(context.Background(), testBuyerID)
	require.NoError(t, err)

	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "s2", resp.Matches[0].SellerID)
	assert.Equal(t, []string{"beverages"}, resp.Matches[0].SharedProducts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
