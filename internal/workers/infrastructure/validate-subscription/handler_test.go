package validatesubscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"tradehub/internal/common/config"
	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/common/logger"
	"tradehub/internal/subscription"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockChecker struct {
	mock.Mock
}

func (m *MockChecker) Check(ctx context.Context, userID string) (*subscription.Status, error) {
	args := m.Called(ctx, userID)
	status, _ := args.Get(0).(*subscription.Status)
	return status, args.Error(1)
}

// ==========================
// Test Helper Functions
// ==========================

const userID = "3f2504e0-4f89-11d3-9a0c-0305e82c3301"

func newTestHandler(t *testing.T, c Checker) *Handler {
	return NewHandler(LoadConfig(config.WorkerConfig{}), c, logger.NewTestLogger(t))
}

// ==========================
// Execute
// ==========================

func TestExecute_ValidSubscription(t *testing.T) {
	expires := time.Now().Add(24 * time.Hour).UTC()
	c := new(MockChecker)
	c.On("Check", mock.Anything, userID).Return(&subscription.Status{
		UserID: userID, IsValid: true, TierLevel: "premium", ExpiresAt: &expires,
	}, nil)

	out, err := newTestHandler(t, c).Execute(context.Background(), &Input{UserID: userID})
	require.NoError(t, err)
	assert.True(t, out.IsValid)
	assert.Equal(t, "premium", out.TierLevel)
	assert.Equal(t, &expires, out.ExpiresAt)
	c.AssertExpectations(t)
}

func TestExecute_InputValidation(t *testing.T) {
	tests := []struct {
		name   string
		userID string
	}{
		{name: "empty", userID: ""},
		{name: "not a uuid", userID: "user-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := new(MockChecker)
			_, err := newTestHandler(t, c).Execute(context.Background(), &Input{UserID: tt.userID})
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
			c.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
		})
	}
}

func TestExecute_CheckerErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    apperrors.ErrorCode
		retries int
	}{
		{name: "invalid", err: apperrors.NewSubscriptionInvalidError("is_valid=false"), code: apperrors.ErrCodeSubscriptionInvalid},
		{name: "expired", err: apperrors.NewSubscriptionExpiredError("expired"), code: apperrors.ErrCodeSubscriptionExpired},
		{
			name:    "check failed",
			err:     apperrors.NewSubscriptionCheckFailedError(errors.New("connection reset")),
			code:    apperrors.ErrCodeSubscriptionCheckFailed,
			retries: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := new(MockChecker)
			c.On("Check", mock.Anything, userID).Return(nil, tt.err)

			_, err := newTestHandler(t, c).Execute(context.Background(), &Input{UserID: userID})
			require.Error(t, err)
			bpmn := apperrors.ConvertToBPMNError(apperrors.Normalize(err))
			assert.Equal(t, string(tt.code), bpmn.Code)
			assert.Equal(t, tt.retries, bpmn.Retries)
		})
	}
}
