package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	emailInfra "pointshop-backend/internal/infrastructure/email"
	"pointshop-backend/internal/shared"
	"pointshop-backend/internal/shared/utils"
	"pointshop-backend/pkg/logger"
)

// SendOrderConfirmationHandler mails the buyer a summary of a settled order
type SendOrderConfirmationHandler struct {
	emailService emailInfra.EmailService
}

func NewSendOrderConfirmationHandler(emailService emailInfra.EmailService) *SendOrderConfirmationHandler {
	return &SendOrderConfirmationHandler{
		emailService: emailService,
	}
}

func (h *SendOrderConfirmationHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload shared.OrderConfirmationPayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if payload.OrderID == "" || payload.Email == "" {
		return fmt.Errorf("order confirmation without order id or email: %w", asynq.SkipRetry)
	}

	logger.Info("Processing send order confirmation task", map[string]interface{}{
		"order_id": payload.OrderID,
		"email":    payload.Email,
	})

	emailReq := emailInfra.EmailRequest{
		To:      []string{payload.Email},
		Subject: fmt.Sprintf("Order %s confirmed", payload.OrderID),
		Body:    buildConfirmationBody(payload),
	}

	if err := h.emailService.SendEmail(ctx, emailReq); err != nil {
		logger.Info("Failed to send order confirmation email", map[string]interface{}{
			"order_id": payload.OrderID,
			"email":    payload.Email,
			"error":    err.Error(),
		})
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("Sent order confirmation email successfully", map[string]interface{}{
		"order_id": payload.OrderID,
		"email":    payload.Email,
	})
	return nil
}

func buildConfirmationBody(p shared.OrderConfirmationPayload) string {
	name := p.Username
	if name == "" {
		name = "there"
	}

	body := fmt.Sprintf(`Hi %s,

Thanks for your order!

Order: %s
Items: %d
Total paid: %s
Coupon discount: %s
`, name, p.OrderID, p.ItemCount, p.TotalAmount, p.CouponAmount)

	if p.PointsUsed > 0 {
		body += fmt.Sprintf("Points redeemed: %d\n", p.PointsUsed)
	}
	if p.PointsEarned > 0 {
		body += fmt.Sprintf("Points earned: %d\n", p.PointsEarned)
	}

	return body + "\nPoints Shop Team\n"
}
