package main

import (
	"github.com/hibiken/asynq"

	orderJob "pointshop-backend/internal/domains/order/job"
	pointsJob "pointshop-backend/internal/domains/points/job"
	productJob "pointshop-backend/internal/domains/product/job"
	"pointshop-backend/internal/shared"
	"pointshop-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	// Order follow ups
	sendOrderConfirmation *orderJob.SendOrderConfirmationHandler

	// Inventory
	lowStock *productJob.LowStockHandler

	// Maintenance
	reconcilePoints *pointsJob.ReconcileHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		sendOrderConfirmation: orderJob.NewSendOrderConfirmationHandler(c.Email),
		lowStock:              productJob.NewLowStockHandler(c.Email, c.Config.Email.AdminEmail),
		reconcilePoints:       pointsJob.NewReconcileHandler(c.PointsService, c.Config.Jobs.ReconcileLimit),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeSendOrderConfirmation, h.sendOrderConfirmation.ProcessTask)
	mux.HandleFunc(shared.TypeProductLowStock, h.lowStock.ProcessTask)
	mux.HandleFunc(shared.TypePointsReconcile, h.reconcilePoints.ProcessTask)
}
