// cmd/worker/startup.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pointshop-backend/pkg/container"
	"pointshop-backend/pkg/logger"
)

// HealthChecker performs startup health checks
type HealthChecker struct {
	c *container.Container
}

// startServices checks the backing services and exposes the probe endpoints
func startServices(c *container.Container) error {
	logger.Info("Points shop worker starting", map[string]interface{}{
		"env": c.Config.App.Environment,
	})

	checker := &HealthChecker{c: c}
	if err := checker.checkAll(); err != nil {
		return err
	}

	go startHealthCheckServer(c.Config.Jobs.HealthPort)
	return nil
}

func (h *HealthChecker) checkAll() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"Redis Connection", h.checkRedis},
		{"Database Connection", h.checkDatabase},
	}

	for _, check := range checks {
		if err := check.fn(); err != nil {
			logger.Error(check.name+" check failed", err)
			return fmt.Errorf("%s failed: %w", check.name, err)
		}
		logger.Info(check.name+" OK", nil)
	}
	return nil
}

// checkRedis: the worker cannot run without the queue backend
func (h *HealthChecker) checkRedis() error {
	if h.c.Redis == nil {
		return fmt.Errorf("redis not connected")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.c.Redis.HealthCheck(ctx)
}

func (h *HealthChecker) checkDatabase() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.c.DB.HealthCheck(ctx)
}

// startHealthCheckServer serves /health and /ready for the orchestrator
func startHealthCheckServer(port string) {
	r := gin.New()
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "service": "pointshop-worker"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "READY"})
	})

	logger.Info("[Health] Starting health check server", map[string]interface{}{"port": port})
	if err := r.Run(":" + port); err != nil {
		logger.Error("[Health] Failed to start", err)
	}
}
