package chat

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"tradehub/internal/common/auth"
	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/common/logger"
	"tradehub/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const (
	buyerID  = "11111111-1111-1111-1111-111111111111"
	sellerID = "22222222-2222-2222-2222-222222222222"
	otherID  = "33333333-3333-3333-3333-333333333333"
)

type memoryStore struct {
	mu       sync.Mutex
	messages []models.Message
}

func (m *memoryStore) Insert(ctx context.Context, room, senderID, recipientID, body string) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := models.Message{
		ID:          "m" + string(rune('0'+len(m.messages))),
		Room:        room,
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		CreatedAt:   time.Now(),
	}
	m.messages = append(m.messages, msg)
	return &msg, nil
}

func (m *memoryStore) History(ctx context.Context, room string, limit int) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Message{}
	for _, msg := range m.messages {
		if msg.Room == room {
			out = append(out, msg)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type fixture struct {
	hub    *Hub
	store  *memoryStore
	tokens *auth.TokenManager
	mr     *miniredis.Miniredis
}

func newFixture(t *testing.T, cfg HubConfig) *fixture {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	tokens := auth.NewTokenManager("chat-test-secret-0123456789", "tradehub", time.Hour)
	store := &memoryStore{}
	return &fixture{
		hub:    NewHub(tokens, store, NewPresence(rdb), cfg, logger.NewTestLogger(t)),
		store:  store,
		tokens: tokens,
		mr:     mr,
	}
}

func (f *fixture) token(t *testing.T, userID string, role auth.Role) string {
	tok, _, err := f.tokens.Issue(auth.Identity{UserID: userID, Role: role})
	require.NoError(t, err)
	return tok
}

// ==========================
// Rooms
// ==========================

func TestRoomFor_IsSymmetric(t *testing.T) {
	assert.Equal(t, RoomFor(buyerID, sellerID), RoomFor(sellerID, buyerID))
	assert.Equal(t, "dm:"+buyerID+":"+sellerID, RoomFor(sellerID, buyerID))

	a, b, ok := Participants(RoomFor(sellerID, buyerID))
	require.True(t, ok)
	assert.Equal(t, buyerID, a)
	assert.Equal(t, sellerID, b)

	_, _, ok = Participants("lobby")
	assert.False(t, ok)
}

// ==========================
// Join / send / leave
// ==========================

func TestHub_JoinSendAndHistory(t *testing.T) {
	f := newFixture(t, HubConfig{})
	ctx := context.Background()

	res, err := f.hub.Join(ctx, "sock-b", f.token(t, buyerID, auth.RoleBuyer), sellerID)
	require.NoError(t, err)
	assert.Equal(t, RoomFor(buyerID, sellerID), res.Room)
	assert.Empty(t, res.History)
	assert.Equal(t, []string{buyerID}, res.Presence.Online)

	msg, err := f.hub.Send(ctx, "sock-b", res.Room, "  Do you ship to Accra?  ")
	require.NoError(t, err)
	assert.Equal(t, "Do you ship to Accra?", msg.Body)
	assert.Equal(t, sellerID, msg.RecipientID)

	res2, err := f.hub.Join(ctx, "sock-s", f.token(t, sellerID, auth.RoleSeller), buyerID)
	require.NoError(t, err)
	assert.Equal(t, res.Room, res2.Room)
	require.Len(t, res2.History, 1)
	assert.Equal(t, []string{buyerID, sellerID}, res2.Presence.Online)

	update, err := f.hub.Leave(ctx, "sock-b", res.Room)
	require.NoError(t, err)
	assert.Equal(t, []string{sellerID}, update.Online)
}

func TestHub_HistoryLimit(t *testing.T) {
	f := newFixture(t, HubConfig{HistoryLimit: 3})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.hub.Deliver(ctx, buyerID, sellerID, "hello")
		require.NoError(t, err)
	}

	res, err := f.hub.Join(ctx, "sock", f.token(t, sellerID, auth.RoleSeller), buyerID)
	require.NoError(t, err)
	assert.Len(t, res.History, 3)
}

func TestHub_JoinRejections(t *testing.T) {
	f := newFixture(t, HubConfig{})
	ctx := context.Background()

	tests := []struct {
		name     string
		token    string
		peer     string
		wantCode apperrors.ErrorCode
	}{
		{name: "missing token", token: "", peer: sellerID, wantCode: apperrors.ErrCodeUnauthorized},
		{name: "garbage token", token: "not-a-jwt", peer: sellerID, wantCode: apperrors.ErrCodeUnauthorized},
		{name: "self chat", token: f.token(t, buyerID, auth.RoleBuyer), peer: buyerID, wantCode: apperrors.ErrCodeInvalidInput},
		{name: "no peer", token: f.token(t, buyerID, auth.RoleBuyer), peer: " ", wantCode: apperrors.ErrCodeInvalidInput},
		{name: "peer not a uuid", token: f.token(t, buyerID, auth.RoleBuyer), peer: "garbage", wantCode: apperrors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.hub.Join(ctx, "sock", tt.token, tt.peer)
			assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)

			_, err = f.hub.Send(ctx, "sock", RoomFor(buyerID, strings.TrimSpace(tt.peer)), "hi")
			assert.Error(t, err, "a rejected join leaves no room membership")
		})
	}
}

func TestHub_CannotUseForeignRoom(t *testing.T) {
	f := newFixture(t, HubConfig{})
	ctx := context.Background()

	_, err := f.hub.Send(ctx, "unknown-sock", RoomFor(buyerID, sellerID), "hi")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnauthorized))

	_, err = f.hub.Join(ctx, "sock-o", f.token(t, otherID, auth.RoleBuyer), sellerID)
	require.NoError(t, err)

	_, err = f.hub.Send(ctx, "sock-o", RoomFor(buyerID, sellerID), "let me in")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeForbidden))

	_, err = f.hub.Typing("sock-o", RoomFor(buyerID, sellerID))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeForbidden))
}

func TestHub_DeliverValidation(t *testing.T) {
	f := newFixture(t, HubConfig{MaxBodyLen: 10})
	ctx := context.Background()

	_, err := f.hub.Deliver(ctx, buyerID, sellerID, "   ")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))

	_, err = f.hub.Deliver(ctx, buyerID, sellerID, strings.Repeat("x", 11))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))

	_, err = f.hub.Deliver(ctx, buyerID, buyerID, "hi")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))

	_, err = f.hub.Deliver(ctx, buyerID, "garbage", "hi")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))

	_, err = f.hub.Deliver(ctx, buyerID, sellerID, "héllo wörld")
	assert.Error(t, err, "11 runes is over the limit")

	_, err = f.hub.Deliver(ctx, buyerID, sellerID, "héllo")
	assert.NoError(t, err)
}

// ==========================
// Presence
// ==========================

func TestHub_DisconnectClearsPresence(t *testing.T) {
	f := newFixture(t, HubConfig{})
	ctx := context.Background()

	_, err := f.hub.Join(ctx, "sock-b", f.token(t, buyerID, auth.RoleBuyer), sellerID)
	require.NoError(t, err)
	_, err = f.hub.Join(ctx, "sock-b", f.token(t, buyerID, auth.RoleBuyer), otherID)
	require.NoError(t, err)

	key := "presence_" + RoomFor(buyerID, sellerID)
	members, err := f.mr.HKeys(key)
	require.NoError(t, err)
	assert.Equal(t, []string{buyerID}, members)
	assert.Greater(t, f.mr.TTL(key), time.Duration(0))

	updates := f.hub.Disconnect(ctx, "sock-b")
	assert.Len(t, updates, 2)
	for _, u := range updates {
		assert.Empty(t, u.Online)
	}
	assert.False(t, f.mr.Exists(key))

	assert.Nil(t, f.hub.Disconnect(ctx, "sock-b"))
}

func TestHub_PresenceCountsSockets(t *testing.T) {
	f := newFixture(t, HubConfig{})
	ctx := context.Background()
	room := RoomFor(buyerID, sellerID)
	key := "presence_" + room

	_, err := f.hub.Join(ctx, "tab-1", f.token(t, buyerID, auth.RoleBuyer), sellerID)
	require.NoError(t, err)
	_, err = f.hub.Join(ctx, "tab-1", f.token(t, buyerID, auth.RoleBuyer), sellerID)
	require.NoError(t, err)
	res, err := f.hub.Join(ctx, "tab-2", f.token(t, buyerID, auth.RoleBuyer), sellerID)
	require.NoError(t, err)
	assert.Equal(t, []string{buyerID}, res.Presence.Online)
	assert.Equal(t, "2", f.mr.HGet(key, buyerID), "rejoining from the same socket is not counted twice")

	updates := f.hub.Disconnect(ctx, "tab-1")
	require.Len(t, updates, 1)
	assert.Equal(t, []string{buyerID}, updates[0].Online, "still online through tab-2")

	update, err := f.hub.Leave(ctx, "tab-2", room)
	require.NoError(t, err)
	assert.Empty(t, update.Online)
	assert.False(t, f.mr.Exists(key))
}

func TestHub_Authorize(t *testing.T) {
	f := newFixture(t, HubConfig{})
	assert.True(t, f.hub.Authorize(f.token(t, sellerID, auth.RoleSeller)))
	assert.False(t, f.hub.Authorize(""))
}
