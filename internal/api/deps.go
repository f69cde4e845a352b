package api

import (
	"context"
	"time"

	"tradehub/internal/common/auth"
	"tradehub/internal/common/cache"
	"tradehub/internal/common/config"
	"tradehub/internal/common/logger"
	"tradehub/internal/common/observability"
	"tradehub/internal/common/validation"
	"tradehub/internal/matchmaking"
	"tradehub/internal/models"
	"tradehub/internal/notify"
	"tradehub/internal/repository"
	"tradehub/internal/search"
	"tradehub/internal/subscription"

	"github.com/gofiber/fiber/v2"
)

type UserStore interface {
	Register(ctx context.Context, email, passwordHash, role, companyName, phone string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type BuyerStore interface {
	Get(ctx context.Context, id string) (*models.Buyer, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Buyer, error)
}

type SellerStore interface {
	Get(ctx context.Context, id string) (*models.Seller, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Seller, error)
}

type ProductStore interface {
	Create(ctx context.Context, p models.Product) (*models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context, f repository.ProductFilter) ([]models.Product, error)
	Update(ctx context.Context, id, sellerID string, fields map[string]interface{}) (*models.Product, error)
	Deactivate(ctx context.Context, id, sellerID string) error
}

type ProductSearcher interface {
	Search(ctx context.Context, f repository.ProductFilter) (*search.Result, error)
	Index(ctx context.Context, p models.Product) error
	Delete(ctx context.Context, id string) error
}

type OrderStore interface {
	Create(ctx context.Context, o models.Order) (*models.Order, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	ListForUser(ctx context.Context, userID, role string, limit, offset int) ([]models.Order, error)
	Transition(ctx context.Context, id, from, to string, stampResponse bool) (*models.Order, error)
}

type QuoteStore interface {
	Create(ctx context.Context, q models.Quote) (*models.Quote, error)
	Get(ctx context.Context, id string) (*models.Quote, error)
	ListForUser(ctx context.Context, userID, role string) ([]models.Quote, error)
	Respond(ctx context.Context, id, sellerID string, unitPrice float64, validUntil time.Time, message string) (*models.Quote, error)
	Decide(ctx context.Context, id, buyerID, to string) (*models.Quote, error)
}

type MessageStore interface {
	History(ctx context.Context, room string, limit int) ([]models.Message, error)
	Conversations(ctx context.Context, userID string) ([]models.Conversation, error)
}

type SubscriptionStore interface {
	Upsert(ctx context.Context, userID, tier string, expiresAt *time.Time) (*models.Subscription, error)
}

type Matcher interface {
	FindMatches(ctx context.Context, buyerID string) (*matchmaking.MatchResponse, error)
}

type SubscriptionChecker interface {
	Check(ctx context.Context, userID string) (*subscription.Status, error)
	Invalidate(ctx context.Context, userID string)
}

type MessageDelivery interface {
	Deliver(ctx context.Context, senderID, recipientID, body string) (*models.Message, error)
}

type Broadcaster interface {
	Broadcast(room, event string, payload interface{})
}

type Notifier interface {
	SendAsync(req notify.Request)
}

// Pinger is a readiness dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps wires the server. Chat, Notifier and Observability are optional.
type Deps struct {
	Config        config.ServerConfig
	CacheConfig   config.CacheConfig
	HistoryLimit  int
	Logger        logger.Logger
	Tokens        *auth.TokenManager
	Passwords     *auth.PasswordHasher
	Validator     *validation.Validator
	Cache         *cache.Cache
	Observability *observability.Observability

	Users         UserStore
	Buyers        BuyerStore
	Sellers       SellerStore
	Products      ProductStore
	Search        ProductSearcher
	Orders        OrderStore
	Quotes        QuoteStore
	Messages      MessageStore
	Subscriptions SubscriptionStore
	Matcher       Matcher
	Subscription  SubscriptionChecker
	Delivery      MessageDelivery
	Broadcaster   Broadcaster
	Notifier      Notifier
	Ready         map[string]Pinger

	// Realtime mounts the socket.io endpoint when set.
	Realtime Mounter
}

type Mounter interface {
	Mount(app *fiber.App)
}
