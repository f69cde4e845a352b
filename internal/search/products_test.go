package search

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/common/logger"
	"tradehub/internal/models"
	"tradehub/internal/repository"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type stubTransport struct {
	mu       sync.Mutex
	status   int
	queue    []int
	body     string
	err      error
	requests []*http.Request
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	status := s.status
	if len(s.queue) > 0 {
		status, s.queue = s.queue[0], s.queue[1:]
	}
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"X-Elastic-Product": []string{"Elasticsearch"}, "Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(s.body)),
	}, nil
}

func newTestClient(t *testing.T, tr *stubTransport) *elasticsearch.Client {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{"http://es.test:9200"},
		Transport:    tr,
		DisableRetry: true,
	})
	require.NoError(t, err)
	return es
}

type stubFallback struct {
	products []models.Product
	err      error
	calls    int
}

func (s *stubFallback) Search(ctx context.Context, f repository.ProductFilter) ([]models.Product, error) {
	s.calls++
	return s.products, s.err
}

const hitsBody = `{
  "took": 3,
  "hits": {
    "total": {"value": 1, "relation": "eq"},
    "hits": [{"_id": "p1", "_source": {"id": "p1", "seller_id": "s1", "name": "Arabica Beans", "category": "coffee", "is_active": true}}]
  }
}`

// ==========================
// Search
// ==========================

func TestSearch_UsesIndex(t *testing.T) {
	tr := &stubTransport{status: 200, body: hitsBody}
	fb := &stubFallback{}
	s := NewProductSearch(newTestClient(t, tr), "products", time.Second, fb, logger.NewTestLogger(t))

	res, err := s.Search(context.Background(), repository.ProductFilter{Query: "beans", Limit: 5})
	require.NoError(t, err)

	assert.Equal(t, SourceElasticsearch, res.Source)
	assert.Equal(t, int64(1), res.Total)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "Arabica Beans", res.Products[0].Name)
	assert.Equal(t, 0, fb.calls)

	require.Len(t, tr.requests, 1)
	assert.Contains(t, tr.requests[0].URL.Path, "/products/_search")
	assert.Equal(t, "5", tr.requests[0].URL.Query().Get("size"))
}

func TestSearch_FallsBackOnBackendError(t *testing.T) {
	tests := []struct {
		name string
		tr   *stubTransport
	}{
		{name: "transport error", tr: &stubTransport{err: errors.New("connection refused")}},
		{name: "error status", tr: &stubTransport{status: 500, body: `{"error":"boom"}`}},
		{name: "garbage body", tr: &stubTransport{status: 200, body: `not json`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := &stubFallback{products: []models.Product{{ID: "p9", Name: "Tea"}}}
			s := NewProductSearch(newTestClient(t, tt.tr), "products", time.Second, fb, logger.NewTestLogger(t))

			res, err := s.Search(context.Background(), repository.ProductFilter{Query: "tea"})
			require.NoError(t, err)
			assert.Equal(t, SourceDatabase, res.Source)
			assert.Equal(t, 1, fb.calls)
			assert.Equal(t, "p9", res.Products[0].ID)
		})
	}
}

func TestSearch_WithoutClientGoesToDatabase(t *testing.T) {
	fb := &stubFallback{products: []models.Product{}}
	s := NewProductSearch(nil, "products", time.Second, fb, logger.NewNoOpLogger())

	res, err := s.Search(context.Background(), repository.ProductFilter{Query: "x"})
	require.NoError(t, err)
	assert.Equal(t, SourceDatabase, res.Source)
	assert.NotNil(t, res.Products)

	assert.NoError(t, s.Index(context.Background(), models.Product{ID: "p1"}))
	assert.NoError(t, s.Delete(context.Background(), "p1"))
}

func TestSearch_FallbackErrorPropagates(t *testing.T) {
	fb := &stubFallback{err: apperrors.NewQueryTimeoutError("search_products")}
	s := NewProductSearch(nil, "products", time.Second, fb, logger.NewNoOpLogger())

	_, err := s.Search(context.Background(), repository.ProductFilter{Query: "x"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeQueryTimeout))
}

// ==========================
// Indexing
// ==========================

func TestIndex_ReportsBackendFailure(t *testing.T) {
	tr := &stubTransport{status: 400, body: `{"error":"mapper_parsing_exception"}`}
	s := NewProductSearch(newTestClient(t, tr), "products", time.Second, &stubFallback{}, logger.NewNoOpLogger())

	err := s.Index(context.Background(), models.Product{ID: "p1", Name: "Beans"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSearchQueryFailed))
	require.Len(t, tr.requests, 1)
	assert.Equal(t, "/products/_doc/p1", tr.requests[0].URL.Path)
}

func TestDelete_IgnoresMissingDocument(t *testing.T) {
	tr := &stubTransport{status: 404, body: `{"result":"not_found"}`}
	s := NewProductSearch(newTestClient(t, tr), "products", time.Second, &stubFallback{}, logger.NewNoOpLogger())

	assert.NoError(t, s.Delete(context.Background(), "p1"))
}

// ==========================
// Query builder
// ==========================

func TestBuildProductQuery(t *testing.T) {
	q := BuildProductQuery(repository.ProductFilter{Query: " beans ", Category: "coffee", SellerID: "s1"})
	data, err := json.Marshal(q)
	require.NoError(t, err)

	body := string(data)
	assert.Contains(t, body, `"multi_match"`)
	assert.Contains(t, body, `"query":"beans"`)
	assert.Contains(t, body, `"seller_id":"s1"`)
	assert.Contains(t, body, `"category":"coffee"`)

	empty, err := json.Marshal(BuildProductQuery(repository.ProductFilter{}))
	require.NoError(t, err)
	assert.Contains(t, string(empty), `"match_all"`)
	assert.NotContains(t, string(empty), `"multi_match"`)
}

// ==========================
// EnsureIndex
// ==========================

func TestEnsureIndex(t *testing.T) {
	tests := []struct {
		name         string
		queue        []int
		wantErr      bool
		wantRequests int
	}{
		{name: "index exists", queue: []int{200}, wantRequests: 1},
		{name: "index created", queue: []int{404, 200}, wantRequests: 2},
		{name: "create rejected", queue: []int{404, 400}, wantErr: true, wantRequests: 2},
		{name: "cluster unhealthy", queue: []int{503}, wantErr: true, wantRequests: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &stubTransport{status: 200, queue: tt.queue, body: `{}`}
			s := NewProductSearch(newTestClient(t, tr), "products", time.Second, &stubFallback{}, logger.NewTestLogger(t))

			err := s.EnsureIndex(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSearchQueryFailed))
			} else {
				require.NoError(t, err)
			}

			require.Len(t, tr.requests, tt.wantRequests)
			assert.Equal(t, http.MethodHead, tr.requests[0].Method)
			if tt.wantRequests > 1 {
				assert.Equal(t, http.MethodPut, tr.requests[1].Method)
				assert.Equal(t, "/products", tr.requests[1].URL.Path)
			}
		})
	}
}

func TestEnsureIndex_WithoutClient(t *testing.T) {
	s := NewProductSearch(nil, "products", time.Second, &stubFallback{}, logger.NewTestLogger(t))
	assert.NoError(t, s.EnsureIndex(context.Background()))
}
