package repository

import (
	"context"
	"database/sql"

	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/models"
)

var sellerColumns = map[string]column{
	"company_name":     plain("company_name"),
	"description":      plain("description"),
	"location":         plain("location"),
	"years_experience": integer("years_experience"),
}

type Sellers struct {
	db *sql.DB
}

func NewSellers(db *sql.DB) *Sellers {
	return &Sellers{db: db}
}

// Get returns the seller with performance aggregates recomputed from orders.
func (r *Sellers) Get(ctx context.Context, id string) (*models.Seller, error) {
	var s models.Seller
	err := r.db.QueryRowContext(ctx, `
		SELECT s.user_id, u.email, s.company_name, s.description, s.location,
		       s.years_experience, s.is_active, s.created_at, s.updated_at,
		       COUNT(o.id),
		       COUNT(o.id) FILTER (WHERE o.status IN ('accepted', 'shipped', 'delivered')),
		       COALESCE(AVG(EXTRACT(EPOCH FROM (o.responded_at - o.created_at)) / 3600.0), 0)
		FROM sellers s
		JOIN users u ON u.id = s.user_id
		LEFT JOIN orders o ON o.seller_id = s.user_id
		WHERE s.user_id = $1
		GROUP BY s.user_id, u.email`, id).Scan(
		&s.UserID, &s.Email, &s.CompanyName, &s.Description, &s.Location,
		&s.YearsExperience, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
		&s.Performance.TotalOrders, &s.Performance.SuccessfulOrders, &s.Performance.AvgResponseHours,
	)
	if err != nil {
		return nil, lookupErr(apperrors.ErrCodeSellerNotFound, id, "get_seller", err)
	}
	return &s, nil
}

func (r *Sellers) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Seller, error) {
	query, args, err := buildUpdate("sellers", sellerColumns, fields, []string{"user_id"}, id)
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, writeErr("update_seller", err)
	}
	if err := requireAffected(res, apperrors.ErrCodeSellerNotFound, id, "update_seller"); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}
