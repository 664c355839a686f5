package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	emailInfra "pointshop-backend/internal/infrastructure/email"
	"pointshop-backend/internal/shared"
)

type recordingEmail struct {
	sent []emailInfra.EmailRequest
	err  error
}

func (r *recordingEmail) SendEmail(_ context.Context, req emailInfra.EmailRequest) error {
	r.sent = append(r.sent, req)
	return r.err
}

func confirmationTask(t *testing.T, p shared.OrderConfirmationPayload) *asynq.Task {
	b, err := json.Marshal(p)
	require.NoError(t, err)
	return asynq.NewTask(shared.TypeSendOrderConfirmation, b)
}

func TestSendOrderConfirmation_SendsSummary(t *testing.T) {
	mail := &recordingEmail{}
	h := NewSendOrderConfirmationHandler(mail)

	err := h.ProcessTask(context.Background(), confirmationTask(t, shared.OrderConfirmationPayload{
		OrderID:      "o-1",
		Email:        "buyer@example.com",
		Username:     "buyer",
		TotalAmount:  "35.00",
		CouponAmount: "15.00",
		PointsEarned: 20,
		ItemCount:    2,
	}))

	require.NoError(t, err)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, []string{"buyer@example.com"}, mail.sent[0].To)
	assert.Contains(t, mail.sent[0].Body, "Total paid: 35.00")
	assert.Contains(t, mail.sent[0].Body, "Points earned: 20")
	assert.NotContains(t, mail.sent[0].Body, "Points redeemed")
}

func TestSendOrderConfirmation_BadPayloadSkipsRetry(t *testing.T) {
	h := NewSendOrderConfirmationHandler(&recordingEmail{})

	err := h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeSendOrderConfirmation, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = h.ProcessTask(context.Background(), confirmationTask(t, shared.OrderConfirmationPayload{OrderID: "o-1"}))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSendOrderConfirmation_MailFailureRetries(t *testing.T) {
	mail := &recordingEmail{err: errors.New("smtp down")}
	h := NewSendOrderConfirmationHandler(mail)

	err := h.ProcessTask(context.Background(), confirmationTask(t, shared.OrderConfirmationPayload{
		OrderID: "o-1",
		Email:   "buyer@example.com",
	}))

	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
