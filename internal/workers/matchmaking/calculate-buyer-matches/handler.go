package calculatebuyermatches

import (
	"context"
	"encoding/json"
	"fmt"

	"tradehub/internal/common/camunda"
	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/common/logger"
	"tradehub/internal/matchmaking"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "calculate-buyer-matches"
)

type Matcher interface {
	FindMatches(ctx context.Context, buyerID string) (*matchmaking.MatchResponse, error)
}

type Handler struct {
	config  *Config
	matcher Matcher
	errors  *apperrors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(config *Config, matcher Matcher, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		matcher: matcher,
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

// Execute runs the match engine for one buyer. Missing buyers surface as
// BUYER_NOT_FOUND and store failures stay retryable.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	resp, err := h.matcher.FindMatches(ctx, input.BuyerID)
	if err != nil {
		return nil, err
	}

	out := &Output{Matches: resp.Matches, MatchCount: len(resp.Matches)}
	if out.Matches == nil {
		out.Matches = []matchmaking.MatchResult{}
	}
	if len(out.Matches) > 0 {
		out.TopSellerID = out.Matches[0].SellerID
	}

	h.logger.Info("buyer matches calculated", map[string]interface{}{
		"buyerId":    input.BuyerID,
		"matchCount": out.MatchCount,
	})
	return out, nil
}
