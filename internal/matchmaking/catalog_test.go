package matchmaking

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var catalogColumns = []string{
	"user_id", "company_name", "years_experience",
	"name",
	"total_orders", "successful_orders", "avg_response_hours",
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// ==========================
// Fold-back
// ==========================

func TestFetchSellers_FoldsFanOutRows(t *testing.T) {
	db, mock := setupMockDB(t)
	fetcher := NewCatalogFetcher(db, time.Second, logger.NewTestLogger(t))

	rows := sqlmock.NewRows(catalogColumns).
		AddRow("s1", "Bean Co", 4, "Coffee", 10, 8, 6.5).
		AddRow("s1", "Renamed Later", 9, "Tea ", 99, 99, 99.0).
		AddRow("s1", "Bean Co", 4, "coffee", 10, 8, 6.5).
		AddRow("s2", "Spice Route", nil, "Cardamom", nil, nil, nil).
		AddRow("s3", nil, 2, nil, 1, 1, 1.0)

	mock.ExpectQuery("SELECT s.user_id, s.company_name").WillReturnRows(rows)

	sellers, err := fetcher.FetchSellers(context.Background())
	require.NoError(t, err)
	require.Len(t, sellers, 2, "a seller with no offering terms is dropped")

	s1 := sellers[0]
	assert.Equal(t, "s1", s1.SellerID)
	assert.Equal(t, "Bean Co", s1.CompanyName, "first-seen values win")
	assert.Equal(t, 4, s1.YearsExperience)
	assert.Equal(t, 10, s1.TotalOrders)
	assert.Equal(t, 8, s1.SuccessfulOrders)
	assert.Equal(t, 6.5, s1.AvgResponseHours)
	assert.Equal(t, []string{"coffee", "tea"}, s1.Offerings)

	s2 := sellers[1]
	assert.Equal(t, "s2", s2.SellerID)
	assert.Equal(t, 0, s2.YearsExperience, "null experience defaults to zero")
	assert.Equal(t, 0, s2.TotalOrders)
	assert.Equal(t, 0.0, s2.AvgResponseHours)
	assert.Equal(t, []string{"cardamom"}, s2.Offerings)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchSellers_QueryReadsProductNamesOnly(t *testing.T) {
	assert.NotContains(t, sellerCatalogQuery, "category")
}

func TestFetchSellers_EmptyCatalog(t *testing.T) {
	db, mock := setupMockDB(t)
	fetcher := NewCatalogFetcher(db, time.Second, logger.NewTestLogger(t))

	mock.ExpectQuery("SELECT s.user_id").WillReturnRows(sqlmock.NewRows(catalogColumns))

	sellers, err := fetcher.FetchSellers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sellers)
}

// ==========================
// Failure Handling
// ==========================

func TestFetchSellers_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	fetcher := NewCatalogFetcher(db, time.Second, logger.NewTestLogger(t))

	mock.ExpectQuery("SELECT s.user_id").WillReturnError(errors.New("connection reset"))

	_, err := fetcher.FetchSellers(context.Background())
	require.Error(t, err)

	stdErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeQueryExecutionFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestFetchSellers_Timeout(t *testing.T) {
	db, mock := setupMockDB(t)
	fetcher := NewCatalogFetcher(db, 20*time.Millisecond, logger.NewTestLogger(t))

	mock.ExpectQuery("SELECT s.user_id").
		WillDelayFor(500 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows(catalogColumns))

	_, err := fetcher.FetchSellers(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeQueryTimeout))
}

func TestFetchSellers_RowError(t *testing.T) {
	db, mock := setupMockDB(t)
	fetcher := NewCatalogFetcher(db, time.Second, logger.NewTestLogger(t))

	rows := sqlmock.NewRows(catalogColumns).
		AddRow("s1", "Bean Co", 4, "Coffee", 1, 1, 1.0).
		RowError(0, errors.New("network blip"))
	mock.ExpectQuery("SELECT s.user_id").WillReturnRows(rows)

	sellers, err := fetcher.FetchSellers(context.Background())
	assert.Nil(t, sellers, "no partial results")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeQueryExecutionFailed))
}
