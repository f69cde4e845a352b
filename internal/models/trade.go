package models

import "time"

type Product struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"seller_id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	UnitPrice   float64   `json:"unit_price"`
	Currency    string    `json:"currency"`
	MinOrderQty int       `json:"min_order_qty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Order statuses.
const (
	OrderPending   = "pending"
	OrderAccepted  = "accepted"
	OrderRejected  = "rejected"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

type Order struct {
	ID          string     `json:"id"`
	BuyerID     string     `json:"buyer_id"`
	SellerID    string     `json:"seller_id"`
	ProductID   string     `json:"product_id"`
	Quantity    int        `json:"quantity"`
	UnitPrice   float64    `json:"unit_price"`
	TotalAmount float64    `json:"total_amount"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	Notes       string     `json:"notes,omitempty"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Quote statuses.
const (
	QuoteRequested = "requested"
	QuoteQuoted    = "quoted"
	QuoteAccepted  = "accepted"
	QuoteRejected  = "rejected"
)

type Quote struct {
	ID            string     `json:"id"`
	BuyerID       string     `json:"buyer_id"`
	SellerID      string     `json:"seller_id"`
	ProductID     string     `json:"product_id"`
	Quantity      int        `json:"quantity"`
	Message       string     `json:"message,omitempty"`
	Status        string     `json:"status"`
	UnitPrice     *float64   `json:"unit_price,omitempty"`
	SellerMessage string     `json:"seller_message,omitempty"`
	ValidUntil    *time.Time `json:"valid_until,omitempty"`
	RespondedAt   *time.Time `json:"responded_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type Message struct {
	ID          string    `json:"id"`
	Room        string    `json:"room"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

// Conversation summarizes the latest exchange with one peer.
type Conversation struct {
	PeerID        string    `json:"peer_id"`
	PeerCompany   string    `json:"peer_company"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
}
