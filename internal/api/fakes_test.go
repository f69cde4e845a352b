package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"tradehub/internal/chat"
	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/matchmaking"
	"tradehub/internal/models"
	"tradehub/internal/notify"
	"tradehub/internal/repository"
	"tradehub/internal/search"
	"tradehub/internal/subscription"

	"github.com/google/uuid"
)

// ==========================
// In-memory stores
// ==========================

type fakeUsers struct {
	mu   sync.Mutex
	byID map[string]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[string]*models.User)}
}

func (f *fakeUsers) Register(ctx context.Context, email, hash, role, company, phone string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return nil, apperrors.NewConflictError("register_user")
		}
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Phone:        phone,
		Role:         role,
		CompanyName:  company,
		CreatedAt:    time.Now().UTC(),
	}
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.NewNotFoundError(apperrors.ErrCodeUserNotFound, email)
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, apperrors.NewNotFoundError(apperrors.ErrCodeUserNotFound, id)
}

type fakeBuyers struct {
	buyers map[string]*models.Buyer
	gets   int
}

func (f *fakeBuyers) Get(ctx context.Context, id string) (*models.Buyer, error) {
	f.gets++
	if b, ok := f.buyers[id]; ok {
		return b, nil
	}
	return nil, apperrors.NewBuyerNotFoundError(id)
}

func (f *fakeBuyers) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Buyer, error) {
	b, ok := f.buyers[id]
	if !ok {
		return nil, apperrors.NewBuyerNotFoundError(id)
	}
	if v, ok := fields["company_name"].(string); ok {
		b.CompanyName = v
	}
	if v, ok := fields["location"].(string); ok {
		b.Location = v
	}
	return b, nil
}

type fakeSellers struct {
	sellers map[string]*models.Seller
}

func (f *fakeSellers) Get(ctx context.Context, id string) (*models.Seller, error) {
	if s, ok := f.sellers[id]; ok {
		return s, nil
	}
	return nil, apperrors.NewNotFoundError(apperrors.ErrCodeSellerNotFound, id)
}

func (f *fakeSellers) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Seller, error) {
	s, ok := f.sellers[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(apperrors.ErrCodeSellerNotFound, id)
	}
	if v, ok := fields["years_experience"].(float64); ok {
		s.YearsExperience = int(v)
	}
	return s, nil
}

type fakeProducts struct {
	products map[string]*models.Product
}

func (f *fakeProducts) Create(ctx context.Context, p models.Product) (*models.Product, error) {
	p.ID = uuid.NewString()
	p.IsActive = true
	if p.Currency == "" {
		p.Currency = "USD"
	}
	if p.MinOrderQty <= 0 {
		p.MinOrderQty = 1
	}
	f.products[p.ID] = &p
	return &p, nil
}

func (f *fakeProducts) Get(ctx context.Context, id string) (*models.Product, error) {
	if p, ok := f.products[id]; ok && p.IsActive {
		return p, nil
	}
	return nil, apperrors.NewNotFoundError(apperrors.ErrCodeProductNotFound, id)
}

func (f *fakeProducts) List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, error) {
	var out []models.Product
	for _, p := range f.products {
		if p.IsActive && (filter.SellerID == "" || p.SellerID == filter.SellerID) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProducts) Update(ctx context.Context, id, sellerID string, fields map[string]interface{}) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok || p.SellerID != sellerID || !p.IsActive {
		return nil, apperrors.NewNotFoundError(apperrors.ErrCodeProductNotFound, id)
	}
	if v, ok := fields["unit_price"].(float64); ok {
		p.UnitPrice = v
	}
	return p, nil
}

func (f *fakeProducts) Deactivate(ctx context.Context, id, sellerID string) error {
	p, ok := f.products[id]
	if !ok || p.SellerID != sellerID || !p.IsActive {
		return apperrors.NewNotFoundError(apperrors.ErrCodeProductNotFound, id)
	}
	p.IsActive = false
	return nil
}

type fakeSearch struct {
	indexed []string
	deleted []string
	last    repository.ProductFilter
}

func (f *fakeSearch) Search(ctx context.Context, filter repository.ProductFilter) (*search.Result, error) {
	f.last = filter
	return &search.Result{Products: []models.Product{}, Source: search.SourceDatabase}, nil
}

func (f *fakeSearch) Index(ctx context.Context, p models.Product) error {
	f.indexed = append(f.indexed, p.ID)
	return nil
}

func (f *fakeSearch) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeOrders struct {
	orders map[string]*models.Order
}

func (f *fakeOrders) Create(ctx context.Context, o models.Order) (*models.Order, error) {
	o.ID = uuid.NewString()
	o.Status = models.OrderPending
	f.orders[o.ID] = &o
	return &o, nil
}

func (f *fakeOrders) Get(ctx context.Context, id string) (*models.Order, error) {
	if o, ok := f.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, apperrors.NewNotFoundError(apperrors.ErrCodeOrderNotFound, id)
}

func (f *fakeOrders) ListForUser(ctx context.Context, userID, role string, limit, offset int) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if (role == models.RoleSeller && o.SellerID == userID) || (role != models.RoleSeller && o.BuyerID == userID) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrders) Transition(ctx context.Context, id, from, to string, stamp bool) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return nil, apperrors.NewInvalidStateTransitionError(from, to)
	}
	o.Status = to
	if stamp && o.RespondedAt == nil {
		now := time.Now().UTC()
		o.RespondedAt = &now
	}
	cp := *o
	return &cp, nil
}

type fakeQuotes struct {
	quotes map[string]*models.Quote
}

func (f *fakeQuotes) Create(ctx context.Context, q models.Quote) (*models.Quote, error) {
	q.ID = uuid.NewString()
	q.Status = models.QuoteRequested
	f.quotes[q.ID] = &q
	return &q, nil
}

func (f *fakeQuotes) Get(ctx context.Context, id string) (*models.Quote, error) {
	if q, ok := f.quotes[id]; ok {
		cp := *q
		return &cp, nil
	}
	return nil, apperrors.NewNotFoundError(apperrors.ErrCodeQuoteNotFound, id)
}

func (f *fakeQuotes) ListForUser(ctx context.Context, userID, role string) ([]models.Quote, error) {
	var out []models.Quote
	for _, q := range f.quotes {
		if q.BuyerID == userID || q.SellerID == userID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (f *fakeQuotes) Respond(ctx context.Context, id, sellerID string, price float64, validUntil time.Time, msg string) (*models.Quote, error) {
	q, ok := f.quotes[id]
	if !ok || q.SellerID != sellerID || q.Status != models.QuoteRequested {
		return nil, apperrors.NewInvalidStateTransitionError(models.QuoteRequested, models.QuoteQuoted)
	}
	q.Status = models.QuoteQuoted
	q.UnitPrice = &price
	q.ValidUntil = &validUntil
	q.SellerMessage = msg
	cp := *q
	return &cp, nil
}

func (f *fakeQuotes) Decide(ctx context.Context, id, buyerID, to string) (*models.Quote, error) {
	q, ok := f.quotes[id]
	if !ok || q.BuyerID != buyerID || q.Status != models.QuoteQuoted {
		return nil, apperrors.NewInvalidStateTransitionError(models.QuoteQuoted, to)
	}
	q.Status = to
	cp := *q
	return &cp, nil
}

type fakeMessages struct {
	lastRoom  string
	lastLimit int
}

func (f *fakeMessages) History(ctx context.Context, room string, limit int) ([]models.Message, error) {
	f.lastRoom, f.lastLimit = room, limit
	return nil, nil
}

func (f *fakeMessages) Conversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	return []models.Conversation{{PeerID: "peer", LastMessage: "hi"}}, nil
}

type fakeSubscriptions struct {
	upserts []string
}

func (f *fakeSubscriptions) Upsert(ctx context.Context, userID, tier string, expiresAt *time.Time) (*models.Subscription, error) {
	f.upserts = append(f.upserts, userID+":"+tier)
	return &models.Subscription{UserID: userID, Tier: tier, IsValid: true, ExpiresAt: expiresAt}, nil
}

// ==========================
// Service fakes
// ==========================

type fakeMatcher struct {
	resp *matchmaking.MatchResponse
	err  error
	ids  []string
}

func (f *fakeMatcher) FindMatches(ctx context.Context, buyerID string) (*matchmaking.MatchResponse, error) {
	f.ids = append(f.ids, buyerID)
	return f.resp, f.err
}

type fakeChecker struct {
	status      *subscription.Status
	err         error
	invalidated []string
}

func (f *fakeChecker) Check(ctx context.Context, userID string) (*subscription.Status, error) {
	return f.status, f.err
}

func (f *fakeChecker) Invalidate(ctx context.Context, userID string) {
	f.invalidated = append(f.invalidated, userID)
}

type fakeDelivery struct{}

func (fakeDelivery) Deliver(ctx context.Context, senderID, recipientID, body string) (*models.Message, error) {
	return &models.Message{
		ID:          uuid.NewString(),
		Room:        chat.RoomFor(senderID, recipientID),
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

type broadcast struct {
	room  string
	event string
}

type fakeBroadcaster struct {
	sent []broadcast
}

func (f *fakeBroadcaster) Broadcast(room, event string, payload interface{}) {
	f.sent = append(f.sent, broadcast{room: room, event: event})
}

type fakeNotifier struct {
	mu   sync.Mutex
	reqs []notify.Request
}

func (f *fakeNotifier) SendAsync(req notify.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
}

func (f *fakeNotifier) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.reqs))
	for _, r := range f.reqs {
		out = append(out, r.Type)
	}
	sort.Strings(out)
	return out
}

type pingerFunc func(ctx context.Context) error

func (p pingerFunc) Ping(ctx context.Context) error { return p(ctx) }
