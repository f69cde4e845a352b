// Package search indexes products in Elasticsearch and serves product search,
// falling back to SQL when the search backend is disabled or failing.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/common/logger"
	"tradehub/internal/models"
	"tradehub/internal/repository"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	SourceElasticsearch = "elasticsearch"
	SourceDatabase      = "database"
)

// Fallback is the SQL product search.
type Fallback interface {
	Search(ctx context.Context, f repository.ProductFilter) ([]models.Product, error)
}

type Result struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
	Source   string           `json:"source"`
}

type ProductSearch struct {
	es       *elasticsearch.Client
	index    string
	timeout  time.Duration
	fallback Fallback
	logger   logger.Logger
}

// NewProductSearch builds the searcher. es may be nil, in which case every query goes
// to the fallback and indexing is a no-op.
func NewProductSearch(es *elasticsearch.Client, index string, timeout time.Duration, fallback Fallback, log logger.Logger) *ProductSearch {
	return &ProductSearch{
		es:       es,
		index:    index,
		timeout:  timeout,
		fallback: fallback,
		logger:   log.WithFields(map[string]interface{}{"component": "product_search"}),
	}
}

// productMapping keeps seller_id and category filterable as keywords while name and
// description stay full-text.
var productMapping = map[string]interface{}{
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"id":            map[string]interface{}{"type": "keyword"},
			"seller_id":     map[string]interface{}{"type": "keyword"},
			"name":          map[string]interface{}{"type": "text"},
			"category":      map[string]interface{}{"type": "text", "fields": map[string]interface{}{"raw": map[string]interface{}{"type": "keyword"}}},
			"description":   map[string]interface{}{"type": "text"},
			"unit_price":    map[string]interface{}{"type": "double"},
			"currency":      map[string]interface{}{"type": "keyword"},
			"min_order_qty": map[string]interface{}{"type": "integer"},
			"is_active":     map[string]interface{}{"type": "boolean"},
			"created_at":    map[string]interface{}{"type": "date"},
			"updated_at":    map[string]interface{}{"type": "date"},
		},
	},
}

// EnsureIndex creates the product index with its mapping when it does not exist.
func (s *ProductSearch) EnsureIndex(ctx context.Context) error {
	if s.es == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	exists, err := esapi.IndicesExistsRequest{Index: []string{s.index}}.Do(ctx, s.es)
	if err != nil {
		return apperrors.NewSearchQueryFailedError(s.index, err)
	}
	exists.Body.Close()

	switch exists.StatusCode {
	case 200:
		return nil
	case 404:
	default:
		return apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("check index: %s", exists.Status()))
	}

	body, err := json.Marshal(productMapping)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	res, err := esapi.IndicesCreateRequest{Index: s.index, Body: bytes.NewReader(body)}.Do(ctx, s.es)
	if err != nil {
		return apperrors.NewSearchQueryFailedError(s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("create index: %s", res.Status()))
	}
	s.logger.Info("Product index created", map[string]interface{}{"index": s.index})
	return nil
}

// Index upserts the product document.
func (s *ProductSearch) Index(ctx context.Context, p models.Product) error {
	if s.es == nil {
		return nil
	}
	body, err := json.Marshal(p)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: p.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		return apperrors.NewSearchQueryFailedError(s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("index document: %s", res.Status()))
	}
	return nil
}

// Delete removes the product document. A missing document is not an error.
func (s *ProductSearch) Delete(ctx context.Context, id string) error {
	if s.es == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := esapi.DeleteRequest{Index: s.index, DocumentID: id}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		return apperrors.NewSearchQueryFailedError(s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("delete document: %s", res.Status()))
	}
	return nil
}

// Search runs the query against Elasticsearch and degrades to SQL on any backend
// failure.
func (s *ProductSearch) Search(ctx context.Context, f repository.ProductFilter) (*Result, error) {
	if s.es != nil {
		res, err := s.searchIndex(ctx, f)
		if err == nil {
			return res, nil
		}
		s.logger.Warn("Search backend failed, using database fallback", map[string]interface{}{
			"index": s.index,
			"error": err.Error(),
		})
	}

	products, err := s.fallback.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	return &Result{Products: products, Total: int64(len(products)), Source: SourceDatabase}, nil
}

func (s *ProductSearch) searchIndex(ctx context.Context, f repository.ProductFilter) (*Result, error) {
	body, err := json.Marshal(BuildProductQuery(f))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	from, size := f.Offset, f.Limit
	if size <= 0 || size > 100 {
		size = 20
	}
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		From:  &from,
		Size:  &size,
	}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search failed: %s", res.Status())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	products := make([]models.Product, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		products = append(products, h.Source)
	}
	return &Result{Products: products, Total: r.Hits.Total.Value, Source: SourceElasticsearch}, nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source models.Product `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// BuildProductQuery renders the bool query for a product search.
func BuildProductQuery(f repository.ProductFilter) map[string]interface{} {
	must := []interface{}{}
	if q := strings.TrimSpace(f.Query); q != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q,
				"fields": []string{"name^3", "category^2", "description"},
				"type":   "best_fields",
			},
		})
	} else {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	filter := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"is_active": true}},
	}
	if f.Category != "" {
		filter = append(filter, map[string]interface{}{
			"match": map[string]interface{}{"category": f.Category},
		})
	}
	if f.SellerID != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"seller_id": f.SellerID},
		})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
	}
}
