// Package chat runs direct-message rooms between buyers and sellers over
// socket.io. Hub holds the transport-independent rules; Server binds them to
// socket events.
package chat

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"tradehub/internal/common/auth"
	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/common/logger"
	"tradehub/internal/common/metrics"
	"tradehub/internal/models"

	"github.com/google/uuid"
)

// Event names.
const (
	EventJoin     = "chat:join"
	EventLeave    = "chat:leave"
	EventMessage  = "chat:message"
	EventTyping   = "chat:typing"
	EventHistory  = "chat:history"
	EventPresence = "presence:update"
	EventError    = "chat:error"
)

type TokenVerifier interface {
	Verify(token string) (*auth.Identity, error)
}

type MessageStore interface {
	Insert(ctx context.Context, room, senderID, recipientID, body string) (*models.Message, error)
	History(ctx context.Context, room string, limit int) ([]models.Message, error)
}

// RoomFor names the direct-message room of two users. The ids are sorted so both
// sides get the same room.
func RoomFor(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "dm:" + a + ":" + b
}

// Participants splits a room name into its two user ids.
func Participants(room string) (string, string, bool) {
	parts := strings.Split(room, ":")
	if len(parts) != 3 || parts[0] != "dm" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

type JoinResult struct {
	Room     string           `json:"room"`
	History  []models.Message `json:"history"`
	Presence PresenceUpdate   `json:"-"`
}

type PresenceUpdate struct {
	Room   string   `json:"room"`
	Online []string `json:"online"`
}

type TypingEvent struct {
	Room   string `json:"room"`
	UserID string `json:"user_id"`
}

type session struct {
	identity auth.Identity
	rooms    map[string]string // room -> peer id
}

type HubConfig struct {
	HistoryLimit int
	MaxBodyLen   int
}

type Hub struct {
	tokens   TokenVerifier
	store    MessageStore
	presence *Presence
	config   HubConfig
	logger   logger.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func NewHub(tokens TokenVerifier, store MessageStore, presence *Presence, cfg HubConfig, log logger.Logger) *Hub {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 50
	}
	if cfg.MaxBodyLen <= 0 {
		cfg.MaxBodyLen = 4000
	}
	return &Hub{
		tokens:   tokens,
		store:    store,
		presence: presence,
		config:   cfg,
		logger:   log.WithFields(map[string]interface{}{"component": "chat"}),
		sessions: make(map[string]*session),
	}
}

// Authorize checks a handshake token.
func (h *Hub) Authorize(token string) bool {
	_, err := h.tokens.Verify(token)
	return err == nil
}

// Connect registers a socket.
func (h *Hub) Connect(socketID string) {
	metrics.ChatConnections.Inc()
	h.logger.Debug("Socket connected", map[string]interface{}{"socketId": socketID})
}

// Join verifies the token, places the socket in the caller's room with peerID and
// returns the room history, oldest first.
func (h *Hub) Join(ctx context.Context, socketID, token, peerID string) (*JoinResult, error) {
	id, err := h.tokens.Verify(token)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError(err.Error())
	}
	peerID = strings.TrimSpace(peerID)
	if peerID == "" || peerID == id.UserID {
		return nil, apperrors.NewInvalidInputError("peer_id must name another user")
	}
	if _, err := uuid.Parse(peerID); err != nil {
		return nil, apperrors.NewInvalidInputError("peer_id must be a UUID")
	}

	room := RoomFor(id.UserID, peerID)

	h.mu.Lock()
	s, ok := h.sessions[socketID]
	if !ok || s.identity.UserID != id.UserID {
		s = &session{identity: *id, rooms: make(map[string]string)}
		h.sessions[socketID] = s
	}
	_, rejoined := s.rooms[room]
	s.rooms[room] = peerID
	h.mu.Unlock()

	history, err := h.store.History(ctx, room, h.config.HistoryLimit)
	if err != nil {
		return nil, err
	}

	if !rejoined {
		if err := h.presence.Add(ctx, room, id.UserID); err != nil {
			h.logger.Warn("Presence update failed", map[string]interface{}{"room": room, "error": err.Error()})
		}
	}

	return &JoinResult{Room: room, History: history, Presence: h.presenceOf(ctx, room)}, nil
}

// Send stores a message from the socket's user into a room it joined.
func (h *Hub) Send(ctx context.Context, socketID, room, body string) (*models.Message, error) {
	id, peer, err := h.member(socketID, room)
	if err != nil {
		return nil, err
	}
	return h.Deliver(ctx, id.UserID, peer, body)
}

// Deliver validates and stores a message from senderID to recipientID. The REST
// send endpoint calls it directly.
func (h *Hub) Deliver(ctx context.Context, senderID, recipientID, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewInvalidInputError("message body is empty")
	}
	if utf8.RuneCountInString(body) > h.config.MaxBodyLen {
		return nil, apperrors.NewInvalidInputError("message body is too long")
	}
	if recipientID == "" || recipientID == senderID {
		return nil, apperrors.NewInvalidInputError("recipient must be another user")
	}
	if _, err := uuid.Parse(recipientID); err != nil {
		return nil, apperrors.NewInvalidInputError("recipient must be a UUID")
	}

	msg, err := h.store.Insert(ctx, RoomFor(senderID, recipientID), senderID, recipientID, body)
	if err != nil {
		return nil, err
	}
	metrics.ChatMessages.Inc()
	return msg, nil
}

func (h *Hub) Typing(socketID, room string) (*TypingEvent, error) {
	id, _, err := h.member(socketID, room)
	if err != nil {
		return nil, err
	}
	return &TypingEvent{Room: room, UserID: id.UserID}, nil
}

// Leave removes the socket from a room and returns the new presence.
func (h *Hub) Leave(ctx context.Context, socketID, room string) (*PresenceUpdate, error) {
	id, _, err := h.member(socketID, room)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	if s, ok := h.sessions[socketID]; ok {
		delete(s.rooms, room)
	}
	h.mu.Unlock()

	if err := h.presence.Remove(ctx, room, id.UserID); err != nil {
		h.logger.Warn("Presence update failed", map[string]interface{}{"room": room, "error": err.Error()})
	}
	update := h.presenceOf(ctx, room)
	return &update, nil
}

// Disconnect forgets the socket and returns a presence update per room it was in.
func (h *Hub) Disconnect(ctx context.Context, socketID string) []PresenceUpdate {
	metrics.ChatConnections.Dec()

	h.mu.Lock()
	s, ok := h.sessions[socketID]
	delete(h.sessions, socketID)
	h.mu.Unlock()
	if !ok {
		return nil
	}

	updates := make([]PresenceUpdate, 0, len(s.rooms))
	for room := range s.rooms {
		if err := h.presence.Remove(ctx, room, s.identity.UserID); err != nil {
			h.logger.Warn("Presence update failed", map[string]interface{}{"room": room, "error": err.Error()})
		}
		updates = append(updates, h.presenceOf(ctx, room))
	}
	return updates
}

func (h *Hub) member(socketID, room string) (auth.Identity, string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[socketID]
	if !ok {
		return auth.Identity{}, "", apperrors.NewUnauthorizedError("join a room first")
	}
	peer, ok := s.rooms[room]
	if !ok {
		return auth.Identity{}, "", apperrors.NewForbiddenError("not a member of " + room)
	}
	return s.identity, peer, nil
}

func (h *Hub) presenceOf(ctx context.Context, room string) PresenceUpdate {
	online, err := h.presence.Online(ctx, room)
	if err != nil {
		h.logger.Warn("Presence read failed", map[string]interface{}{"room": room, "error": err.Error()})
		online = []string{}
	}
	return PresenceUpdate{Room: room, Online: online}
}
