package sendnotification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tradehub/internal/common/camunda"
	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/common/logger"
	"tradehub/internal/models"
	"tradehub/internal/notify"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-notification"
)

type Sender interface {
	Send(ctx context.Context, req notify.Request) ([]models.Notification, error)
}

type Handler struct {
	config *Config
	sender Sender
	errors *apperrors.ErrorHandler
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, sender Sender, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		sender: sender,
		errors: apperrors.NewErrorHandler(log),
		logger: log,
		now:    time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errors.HandleJobError(ctx, client, job, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

// Execute sends the notification on every channel the recipient can receive.
// It fails with NOTIFICATION_SEND_FAILED only when every attempted channel failed.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.RecipientType != models.RoleBuyer && input.RecipientType != models.RoleSeller {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("unknown recipientType %q", input.RecipientType))
	}

	channels, err := h.sender.Send(ctx, *input)
	if err != nil {
		return nil, err
	}

	out := &Output{
		NotificationID: uuid.NewString(),
		Status:         overallStatus(channels),
		SentAt:         h.now().UTC().Format(time.RFC3339),
		Channels:       channels,
	}
	h.logger.Info("notification processed", map[string]interface{}{
		"recipientId":      input.RecipientID,
		"notificationType": input.Type,
		"status":           out.Status,
		"channels":         len(channels),
	})
	return out, nil
}

// overallStatus is sent when any channel delivered and disabled when none was
// attempted.
func overallStatus(channels []models.Notification) string {
	status := StatusDisabled
	for _, c := range channels {
		switch c.Status {
		case StatusSent:
			return StatusSent
		case StatusFailed:
			status = StatusFailed
		}
	}
	return status
}
