package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"tradehub/internal/common/database"
	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/models"

	"github.com/google/uuid"
)

type Users struct {
	db *sql.DB
}

func NewUsers(db *sql.DB) *Users {
	return &Users{db: db}
}

// Register creates the user, its empty buyer or seller profile and a free
// subscription in one transaction.
func (r *Users) Register(ctx context.Context, email, passwordHash, role, companyName, phone string) (*models.User, error) {
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		Role:         role,
		CompanyName:  companyName,
		Phone:        strings.TrimSpace(phone),
		CreatedAt:    time.Now().UTC(),
	}

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, email, password_hash, phone, role, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			u.ID, u.Email, u.PasswordHash, u.Phone, u.Role, u.CreatedAt); err != nil {
			return err
		}

		var profile string
		switch role {
		case models.RoleBuyer:
			profile = `INSERT INTO buyers (user_id, company_name, product_interests) VALUES ($1, $2, '[]')`
		case models.RoleSeller:
			profile = `INSERT INTO sellers (user_id, company_name) VALUES ($1, $2)`
		}
		if profile != "" {
			if _, err := tx.ExecContext(ctx, profile, u.ID, companyName); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO user_subscriptions (user_id, tier, is_valid) VALUES ($1, $2, TRUE)`,
			u.ID, models.TierFree)
		return err
	})
	if err != nil {
		return nil, writeErr("register_user", err)
	}
	return u, nil
}

func (r *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.get(ctx, "u.email = $1", strings.ToLower(strings.TrimSpace(email)))
}

func (r *Users) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.get(ctx, "u.id = $1", id)
}

func (r *Users) get(ctx context.Context, cond string, arg string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.password_hash, u.phone, u.role,
		       COALESCE(b.company_name, s.company_name, ''), u.created_at
		FROM users u
		LEFT JOIN buyers b ON b.user_id = u.id
		LEFT JOIN sellers s ON s.user_id = u.id
		WHERE `+cond, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Phone, &u.Role, &u.CompanyName, &u.CreatedAt)
	if err != nil {
		return nil, lookupErr(apperrors.ErrCodeUserNotFound, arg, "get_user", err)
	}
	return &u, nil
}
