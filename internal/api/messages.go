package api

import (
	"tradehub/internal/chat"
	"tradehub/internal/common/auth"
	"tradehub/internal/common/validation"
	"tradehub/internal/models"
	"tradehub/internal/notify"

	"github.com/gofiber/fiber/v2"
)

const previewLen = 140

type messageRequest struct {
	Body string `json:"body"`
}

func (s *Server) listConversations(c *fiber.Ctx) error {
	convs, err := s.deps.Messages.Conversations(c.UserContext(), identity(c).UserID)
	if err != nil {
		return err
	}
	if convs == nil {
		convs = []models.Conversation{}
	}
	return c.JSON(fiber.Map{"conversations": convs})
}

// conversationHistory returns the last messages with a peer, oldest first.
func (s *Server) conversationHistory(c *fiber.Ctx) error {
	peerID, err := pathID(c, "peerId")
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", s.deps.HistoryLimit)
	if err != nil {
		return err
	}
	if limit == 0 || limit > s.deps.HistoryLimit {
		limit = s.deps.HistoryLimit
	}

	room := chat.RoomFor(identity(c).UserID, peerID)
	msgs, err := s.deps.Messages.History(c.UserContext(), room, limit)
	if err != nil {
		return err
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return c.JSON(fiber.Map{"room": room, "messages": msgs})
}

// sendMessage stores the message, pushes it to sockets in the room and notifies
// the recipient out of band.
func (s *Server) sendMessage(c *fiber.Ctx) error {
	peerID, err := pathID(c, "peerId")
	if err != nil {
		return err
	}
	var req messageRequest
	if err := s.bind(c, validation.MessageSend, &req); err != nil {
		return err
	}

	id := identity(c)
	msg, err := s.deps.Delivery.Deliver(c.UserContext(), id.UserID, peerID, req.Body)
	if err != nil {
		return err
	}
	if s.deps.Broadcaster != nil {
		s.deps.Broadcaster.Broadcast(msg.Room, chat.EventMessage, msg)
	}

	sender := id.Email
	if user, err := s.deps.Users.GetByID(c.UserContext(), id.UserID); err == nil && user.CompanyName != "" {
		sender = user.CompanyName
	}
	s.notify(notify.Request{
		RecipientID:   peerID,
		RecipientType: recipientType(id.Role),
		Type:          models.NotifyNewMessage,
		Data: map[string]interface{}{
			"sender_company": sender,
			"preview":        preview(msg.Body),
			"room":           msg.Room,
		},
	})
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// recipientType guesses the peer's side from the sender's role.
func recipientType(senderRole auth.Role) string {
	if senderRole == roleSeller {
		return models.RoleBuyer
	}
	return models.RoleSeller
}

func preview(body string) string {
	r := []rune(body)
	if len(r) <= previewLen {
		return body
	}
	return string(r[:previewLen]) + "..."
}
