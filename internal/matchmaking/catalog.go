package matchmaking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/common/logger"
)

const catalogQueryName = "seller_catalog"

// sellerCatalogQuery fans out one row per active seller/active product pair, with
// the seller's order aggregates repeated on every row.
const sellerCatalogQuery = `
	SELECT s.user_id, s.company_name, s.years_experience,
	       p.name,
	       perf.total_orders, perf.successful_orders, perf.avg_response_hours
	FROM sellers s
	JOIN products p ON p.seller_id = s.user_id AND p.is_active = TRUE
	LEFT JOIN (
		SELECT seller_id,
		       COUNT(*) AS total_orders,
		       COUNT(*) FILTER (WHERE status IN ('accepted', 'shipped', 'delivered')) AS successful_orders,
		       AVG(EXTRACT(EPOCH FROM (responded_at - created_at)) / 3600.0) AS avg_response_hours
		FROM orders
		GROUP BY seller_id
	) perf ON perf.seller_id = s.user_id
	WHERE s.is_active = TRUE
	ORDER BY s.user_id, p.created_at`

// CatalogFetcher reads the active seller catalog in a single round trip.
type CatalogFetcher struct {
	db      *sql.DB
	timeout time.Duration
	logger  logger.Logger
}

func NewCatalogFetcher(db *sql.DB, timeout time.Duration, log logger.Logger) *CatalogFetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CatalogFetcher{
		db:      db,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "seller-catalog"}),
	}
}

type catalogRow struct {
	sellerID         string
	companyName      sql.NullString
	yearsExperience  sql.NullInt64
	productName      sql.NullString
	totalOrders      sql.NullInt64
	successfulOrders sql.NullInt64
	avgResponseHours sql.NullFloat64
}

// FetchSellers returns one folded record per active seller that offers at least
// one active product. A deadline surfaces as QUERY_TIMEOUT, any other failure as
// QUERY_EXECUTION_FAILED; partial results are never returned.
func (f *CatalogFetcher) FetchSellers(ctx context.Context) ([]SellerRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	rows, err := f.db.QueryContext(ctx, sellerCatalogQuery)
	if err != nil {
		return nil, f.storeError(ctx, err)
	}
	defer rows.Close()

	var scanned []catalogRow
	for rows.Next() {
		var r catalogRow
		if err := rows.Scan(
			&r.sellerID, &r.companyName, &r.yearsExperience,
			&r.productName,
			&r.totalOrders, &r.successfulOrders, &r.avgResponseHours,
		); err != nil {
			return nil, f.storeError(ctx, err)
		}
		scanned = append(scanned, r)
	}
	if err := rows.Err(); err != nil {
		return nil, f.storeError(ctx, err)
	}

	sellers := foldRows(scanned)
	f.logger.Debug("seller catalog fetched", map[string]interface{}{
		"rows":       len(scanned),
		"sellers":    len(sellers),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return sellers, nil
}

func (f *CatalogFetcher) storeError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		f.logger.Warn("seller catalog fetch timed out", map[string]interface{}{"timeout": f.timeout.String()})
		return apperrors.NewQueryTimeoutError(catalogQueryName)
	}
	f.logger.Error("seller catalog fetch failed", map[string]interface{}{"error": err.Error()})
	return apperrors.NewQueryExecutionFailedError(catalogQueryName, err)
}

// foldRows groups rows by seller id in first-seen order. The first row of a group
// supplies name, experience and performance; every row contributes its product
// name to the offerings.
func foldRows(rows []catalogRow) []SellerRecord {
	index := make(map[string]int)
	raw := make([][]string, 0)
	sellers := make([]SellerRecord, 0)

	for _, r := range rows {
		i, ok := index[r.sellerID]
		if !ok {
			i = len(sellers)
			index[r.sellerID] = i
			sellers = append(sellers, SellerRecord{
				SellerID:         r.sellerID,
				CompanyName:      r.companyName.String,
				YearsExperience:  int(r.yearsExperience.Int64),
				TotalOrders:      int(r.totalOrders.Int64),
				SuccessfulOrders: int(r.successfulOrders.Int64),
				AvgResponseHours: r.avgResponseHours.Float64,
			})
			raw = append(raw, nil)
		}
		if r.productName.Valid {
			raw[i] = append(raw[i], r.productName.String)
		}
	}

	out := sellers[:0]
	for i, s := range sellers {
		s.Offerings = NormalizeTerms(raw[i])
		if len(s.Offerings) == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}
