package validatesubscription

import (
	"context"
	"encoding/json"
	"fmt"

	"tradehub/internal/common/camunda"
	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/common/logger"
	"tradehub/internal/subscription"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "validate-subscription"
)

type Checker interface {
	Check(ctx context.Context, userID string) (*subscription.Status, error)
}

type Handler struct {
	config  *Config
	checker Checker
	errors  *apperrors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(config *Config, checker Checker, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		checker: checker,
		errors:  apperrors.NewErrorHandler(log),
		logger:  log,
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

// Execute checks the user's subscription. SUBSCRIPTION_INVALID and
// SUBSCRIPTION_EXPIRED become BPMN errors; SUBSCRIPTION_CHECK_FAILED is retried.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserID == "" {
		return nil, apperrors.NewInvalidInputError("userId is required")
	}
	if _, err := uuid.Parse(input.UserID); err != nil {
		return nil, apperrors.NewInvalidInputError("userId must be a UUID")
	}

	status, err := h.checker.Check(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("subscription validated", map[string]interface{}{
		"userId":    input.UserID,
		"tierLevel": status.TierLevel,
	})
	return &Output{
		IsValid:   status.IsValid,
		TierLevel: status.TierLevel,
		ExpiresAt: status.ExpiresAt,
	}, nil
}
