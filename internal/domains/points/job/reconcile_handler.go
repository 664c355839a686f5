package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"pointshop-backend/internal/domains/points/service"
	"pointshop-backend/internal/shared"
	"pointshop-backend/internal/shared/utils"
	"pointshop-backend/pkg/logger"
)

// ReconcileHandler compares stored points with the ledger sum.
// It only reports, balances are never rewritten.
type ReconcileHandler struct {
	points       service.PointsService
	defaultLimit int
}

func NewReconcileHandler(points service.PointsService, defaultLimit int) *ReconcileHandler {
	return &ReconcileHandler{
		points:       points,
		defaultLimit: defaultLimit,
	}
}

func (h *ReconcileHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	payload := shared.ReconcilePayload{Limit: h.defaultLimit}
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	drift, err := h.points.Reconcile(ctx, payload.Limit)
	if err != nil {
		return fmt.Errorf("reconcile points: %w", err)
	}

	logger.Info("Points reconciliation finished", map[string]interface{}{
		"drifted_users": len(drift),
		"limit":         payload.Limit,
	})
	return nil
}
