package models

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone,omitempty"`
	Role         string    `json:"role"`
	CompanyName  string    `json:"company_name"`
	CreatedAt    time.Time `json:"created_at"`
}

type Buyer struct {
	UserID           string    `json:"id"`
	Email            string    `json:"email,omitempty"`
	CompanyName      string    `json:"company_name"`
	Location         string    `json:"location"`
	ProductInterests []string  `json:"product_interests"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// SellerPerformance is derived from order history at read time.
type SellerPerformance struct {
	TotalOrders      int     `json:"total_orders"`
	SuccessfulOrders int     `json:"successful_orders"`
	AvgResponseHours float64 `json:"avg_response_hours"`
}

type Seller struct {
	UserID          string            `json:"id"`
	Email           string            `json:"email,omitempty"`
	CompanyName     string            `json:"company_name"`
	Description     string            `json:"description"`
	Location        string            `json:"location"`
	YearsExperience int               `json:"years_experience"`
	IsActive        bool              `json:"is_active"`
	Performance     SellerPerformance `json:"performance"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Subscription tiers, lowest first.
const (
	TierFree       = "free"
	TierBasic      = "basic"
	TierPremium    = "premium"
	TierEnterprise = "enterprise"
)

type Subscription struct {
	UserID    string     `json:"user_id"`
	Tier      string     `json:"tier"`
	IsValid   bool       `json:"is_valid"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Roles as stored in users.role.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)
