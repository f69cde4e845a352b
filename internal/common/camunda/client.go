// Package camunda connects to the Zeebe gateway and runs job workers against it.
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tradehub/internal/common/config"
	"tradehub/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// RetryConfig bounds the connection backoff.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = RetryConfig{
	MaxRetries: 5,
	BaseDelay:  time.Second,
	MaxDelay:   10 * time.Second,
}

// Connect opens a plaintext gateway connection and waits for the broker topology,
// retrying transient failures with exponential backoff.
func Connect(ctx context.Context, cfg config.CamundaConfig, retry RetryConfig, log logger.Logger) (zbc.Client, error) {
	if cfg.BrokerAddress == "" {
		return nil, fmt.Errorf("camunda.broker_address is required")
	}

	client, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	err = withBackoff(ctx, retry, log, "zeebe topology", func(ctx context.Context) error {
		reqCtx, cancel := context.WithTimeout(ctx, config.GetDuration(cfg.RequestTimeout))
		defer cancel()
		_, err := client.NewTopologyCommand().Send(reqCtx)
		return err
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", cfg.BrokerAddress, err)
	}
	return client, nil
}

func withBackoff(ctx context.Context, retry RetryConfig, log logger.Logger, op string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= retry.MaxRetries; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) || attempt == retry.MaxRetries {
			break
		}

		delay := backoff(retry, attempt)
		log.Warn("Operation failed, retrying", map[string]interface{}{
			"operation": op,
			"attempt":   attempt + 1,
			"delayMs":   delay.Milliseconds(),
			"error":     lastErr.Error(),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func backoff(retry RetryConfig, attempt int) time.Duration {
	delay := retry.BaseDelay * time.Duration(1<<attempt)
	if delay > retry.MaxDelay {
		delay = retry.MaxDelay
	}
	return delay
}

var retryablePhrases = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"deadline exceeded",
	"unavailable",
	"unreachable",
	"broken pipe",
}

// IsRetryable reports whether a gateway error looks transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range retryablePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
