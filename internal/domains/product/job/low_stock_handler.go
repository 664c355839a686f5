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

// LowStockHandler warns the shop admin that a product is running out.
// With no admin address configured the alert is only logged.
type LowStockHandler struct {
	emailService emailInfra.EmailService
	adminEmail   string
}

func NewLowStockHandler(emailService emailInfra.EmailService, adminEmail string) *LowStockHandler {
	return &LowStockHandler{
		emailService: emailService,
		adminEmail:   adminEmail,
	}
}

func (h *LowStockHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload shared.LowStockPayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if payload.ProductID == "" {
		return fmt.Errorf("low stock alert without product id: %w", asynq.SkipRetry)
	}

	logger.Warn("Product stock is low", map[string]interface{}{
		"product_id": payload.ProductID,
		"name":       payload.ProductName,
		"stock":      payload.Stock,
		"threshold":  payload.Threshold,
	})

	if h.adminEmail == "" {
		return nil
	}

	req := emailInfra.EmailRequest{
		To:      []string{h.adminEmail},
		Subject: fmt.Sprintf("Low stock: %s", payload.ProductName),
		Body: fmt.Sprintf("%s (%s) has %d left, threshold is %d.\n",
			payload.ProductName, payload.ProductID, payload.Stock, payload.Threshold),
	}
	if err := h.emailService.SendEmail(ctx, req); err != nil {
		return fmt.Errorf("send low stock email: %w", err)
	}
	return nil
}
