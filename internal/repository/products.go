package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/models"

	"github.com/google/uuid"
)

var productColumns = map[string]column{
	"name":          plain("name"),
	"category":      plain("category"),
	"description":   plain("description"),
	"unit_price":    plain("unit_price"),
	"currency":      plain("currency"),
	"min_order_qty": integer("min_order_qty"),
}

const productSelect = `
	SELECT id, seller_id, name, category, description, unit_price, currency,
	       min_order_qty, is_active, created_at, updated_at
	FROM products`

type ProductFilter struct {
	SellerID string
	Query    string
	Category string
	Limit    int
	Offset   int
}

func (f ProductFilter) limit() int {
	if f.Limit <= 0 || f.Limit > 100 {
		return 20
	}
	return f.Limit
}

type Products struct {
	db *sql.DB
}

func NewProducts(db *sql.DB) *Products {
	return &Products{db: db}
}

func (r *Products) Create(ctx context.Context, p models.Product) (*models.Product, error) {
	now := time.Now().UTC()
	p.ID = uuid.NewString()
	p.IsActive = true
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Currency == "" {
		p.Currency = "USD"
	}
	if p.MinOrderQty <= 0 {
		p.MinOrderQty = 1
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, seller_id, name, category, description, unit_price,
		                      currency, min_order_qty, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9, $9)`,
		p.ID, p.SellerID, p.Name, p.Category, p.Description, p.UnitPrice,
		p.Currency, p.MinOrderQty, now)
	if err != nil {
		return nil, writeErr("create_product", err)
	}
	return &p, nil
}

// Get returns an active product.
func (r *Products) Get(ctx context.Context, id string) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx, productSelect+` WHERE id = $1 AND is_active = TRUE`, id)
	p, err := scanProduct(row)
	if err != nil {
		return nil, lookupErr(apperrors.ErrCodeProductNotFound, id, "get_product", err)
	}
	return p, nil
}

// List returns active products, newest first, optionally for one seller.
func (r *Products) List(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	conds := []string{"is_active = TRUE"}
	args := []interface{}{}
	if f.SellerID != "" {
		args = append(args, f.SellerID)
		conds = append(conds, "seller_id = $1")
	}
	args = append(args, f.limit(), f.Offset)
	n := len(args)

	query := productSelect + " WHERE " + strings.Join(conds, " AND ") +
		" ORDER BY created_at DESC LIMIT $" + itoa(n-1) + " OFFSET $" + itoa(n)
	return r.query(ctx, "list_products", query, args...)
}

// Search is the SQL fallback for product search: case-insensitive substring match
// on name, category and description. The category filter is an exact,
// case-insensitive comparison.
func (r *Products) Search(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(f.Query)) + "%"
	args := []interface{}{pattern}
	cond := "is_active = TRUE AND (name ILIKE $1 OR category ILIKE $1 OR description ILIKE $1)"
	if category := strings.TrimSpace(f.Category); category != "" {
		args = append(args, category)
		cond += " AND lower(category) = lower($2)"
	}
	args = append(args, f.limit(), f.Offset)
	n := len(args)

	query := productSelect + " WHERE " + cond +
		" ORDER BY name ASC LIMIT $" + itoa(n-1) + " OFFSET $" + itoa(n)
	return r.query(ctx, "search_products", query, args...)
}

func (r *Products) Update(ctx context.Context, id, sellerID string, fields map[string]interface{}) (*models.Product, error) {
	query, args, err := buildUpdate("products", productColumns, fields, []string{"id", "seller_id"}, id, sellerID)
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx, query+" AND is_active = TRUE", args...)
	if err != nil {
		return nil, writeErr("update_product", err)
	}
	if err := requireAffected(res, apperrors.ErrCodeProductNotFound, id, "update_product"); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Deactivate soft-deletes a product owned by sellerID.
func (r *Products) Deactivate(ctx context.Context, id, sellerID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND seller_id = $2 AND is_active = TRUE`,
		id, sellerID)
	if err != nil {
		return writeErr("deactivate_product", err)
	}
	return requireAffected(res, apperrors.ErrCodeProductNotFound, id, "deactivate_product")
}

func (r *Products) query(ctx context.Context, name, query string, args ...interface{}) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.StoreError(name, err)
	}
	defer rows.Close()

	out := make([]models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, apperrors.StoreError(name, err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreError(name, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(s scanner) (*models.Product, error) {
	var p models.Product
	err := s.Scan(&p.ID, &p.SellerID, &p.Name, &p.Category, &p.Description, &p.UnitPrice,
		&p.Currency, &p.MinOrderQty, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
