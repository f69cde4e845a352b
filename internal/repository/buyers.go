package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/models"
)

var buyerColumns = map[string]column{
	"company_name":      plain("company_name"),
	"location":          plain("location"),
	"product_interests": jsonList("product_interests"),
}

type Buyers struct {
	db *sql.DB
}

func NewBuyers(db *sql.DB) *Buyers {
	return &Buyers{db: db}
}

func (r *Buyers) Get(ctx context.Context, id string) (*models.Buyer, error) {
	var (
		b         models.Buyer
		interests sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT b.user_id, u.email, b.company_name, b.location, b.product_interests,
		       b.created_at, b.updated_at
		FROM buyers b
		JOIN users u ON u.id = b.user_id
		WHERE b.user_id = $1`, id).Scan(
		&b.UserID, &b.Email, &b.CompanyName, &b.Location, &interests, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, lookupErr(apperrors.ErrCodeBuyerNotFound, id, "get_buyer", err)
	}
	b.ProductInterests = decodeInterests(interests)
	return &b, nil
}

// decodeInterests returns the stored list as written. Matching applies its own
// normalization to RawInterests.
func decodeInterests(raw sql.NullString) []string {
	terms := []string{}
	if !raw.Valid {
		return terms
	}
	if err := json.Unmarshal([]byte(raw.String), &terms); err != nil || terms == nil {
		return []string{}
	}
	return terms
}

// RawInterests returns product_interests exactly as stored, for the match engine.
func (r *Buyers) RawInterests(ctx context.Context, id string) (interface{}, error) {
	var interests sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT product_interests FROM buyers WHERE user_id = $1`, id).Scan(&interests)
	if err != nil {
		return nil, lookupErr(apperrors.ErrCodeBuyerNotFound, id, "get_buyer_interests", err)
	}
	return interests, nil
}

// Update applies an allow-listed partial update and returns the fresh profile.
func (r *Buyers) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Buyer, error) {
	query, args, err := buildUpdate("buyers", buyerColumns, fields, []string{"user_id"}, id)
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, writeErr("update_buyer", err)
	}
	if err := requireAffected(res, apperrors.ErrCodeBuyerNotFound, id, "update_buyer"); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}
