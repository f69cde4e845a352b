// Package notify delivers templated email (SES) and SMS (SNS) notifications.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/common/logger"
	"tradehub/internal/models"

	"github.com/google/uuid"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"

	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

type EmailSender interface {
	SendEmail(ctx context.Context, from, to, subject, body string) (string, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

// ContactLookup resolves a recipient's email and phone.
type ContactLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type Request struct {
	RecipientID   string                 `json:"recipientId"`
	RecipientType string                 `json:"recipientType"`
	Type          string                 `json:"notificationType"`
	Data          map[string]interface{} `json:"metadata"`
}

type Notifier struct {
	contacts ContactLookup
	email    EmailSender
	sms      SMSSender
	from     string
	timeout  time.Duration
	logger   logger.Logger
}

// New builds a notifier. A nil email or sms sender disables that channel.
func New(contacts ContactLookup, email EmailSender, sms SMSSender, from string, log logger.Logger) *Notifier {
	return &Notifier{
		contacts: contacts,
		email:    email,
		sms:      sms,
		from:     from,
		timeout:  10 * time.Second,
		logger:   log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

// Send renders the template for req.Type and delivers it on every enabled channel
// the recipient has contact details for. It fails only when every attempted
// channel failed.
func (n *Notifier) Send(ctx context.Context, req Request) ([]models.Notification, error) {
	tmpl, ok := Template(req.Type)
	if !ok {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("unknown notification type %q", req.Type))
	}
	if strings.TrimSpace(req.RecipientID) == "" {
		return nil, apperrors.NewInvalidInputError("recipientId is required")
	}

	user, err := n.contacts.GetByID(ctx, req.RecipientID)
	if err != nil {
		return nil, err
	}

	data := make(map[string]interface{}, len(req.Data)+1)
	data["company_name"] = user.CompanyName
	for k, v := range req.Data {
		data[k] = v
	}
	msg, err := render(tmpl, data)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	var (
		results  []models.Notification
		attempts int
		failures []error
	)
	record := func(channel, status string) {
		results = append(results, models.Notification{
			ID:            uuid.NewString(),
			RecipientID:   req.RecipientID,
			RecipientType: req.RecipientType,
			Type:          req.Type,
			Channel:       channel,
			Status:        status,
			Payload:       req.Data,
			SentAt:        time.Now().UTC().Format(time.RFC3339),
		})
	}

	switch {
	case n.email == nil || user.Email == "":
		record(ChannelEmail, StatusDisabled)
	default:
		attempts++
		if _, err := n.email.SendEmail(ctx, n.from, user.Email, msg.Subject, msg.Body); err != nil {
			failures = append(failures, fmt.Errorf("email: %w", err))
			record(ChannelEmail, StatusFailed)
		} else {
			record(ChannelEmail, StatusSent)
		}
	}

	switch {
	case n.sms == nil || user.Phone == "" || msg.SMS == "":
		record(ChannelSMS, StatusDisabled)
	default:
		attempts++
		if _, err := n.sms.SendSMS(ctx, user.Phone, msg.SMS); err != nil {
			failures = append(failures, fmt.Errorf("sms: %w", err))
			record(ChannelSMS, StatusFailed)
		} else {
			record(ChannelSMS, StatusSent)
		}
	}

	if attempts > 0 && len(failures) == attempts {
		return results, apperrors.NewNotificationSendFailedError(tmpl.Type, errors.Join(failures...))
	}
	if len(failures) > 0 {
		n.logger.Warn("Notification partially delivered", map[string]interface{}{
			"recipientId": req.RecipientID,
			"type":        req.Type,
			"error":       errors.Join(failures...).Error(),
		})
	}
	return results, nil
}

// SendAsync delivers in the background and only logs the outcome. Request
// handlers use it so a slow mail provider never delays the response.
func (n *Notifier) SendAsync(req Request) {
	if n == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if _, err := n.Send(ctx, req); err != nil {
			n.logger.Error("Notification failed", map[string]interface{}{
				"recipientId": req.RecipientID,
				"type":        req.Type,
				"error":       err.Error(),
			})
		}
	}()
}
