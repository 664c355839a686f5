package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pointshop-backend/internal/domains/points/model"
	"pointshop-backend/internal/domains/points/service"
	"pointshop-backend/internal/shared/middleware"
	"pointshop-backend/internal/shared/response"
	"pointshop-backend/pkg/logger"
)

const (
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	rateVersionHeader = "X-Rate-Table-Version"
)

// =====================================================
// POINTS HANDLER
// =====================================================
type PointsHandler struct {
	service service.PointsService
}

func NewPointsHandler(service service.PointsService) *PointsHandler {
	return &PointsHandler{service: service}
}

// RegisterRoutes mounts /points on a group already behind the auth gate
func (h *PointsHandler) RegisterRoutes(router *gin.RouterGroup) {
	points := router.Group("/points")
	{
		points.GET("/balance", h.GetBalance)
		points.GET("/transactions", h.ListTransactions)
		points.GET("/transactions/export", h.ExportTransactions)
		points.GET("/products", h.ListRedeemableProducts)
		points.GET("/coupon-rates", h.CouponRates)
		points.POST("/exchange-coupon", h.ExchangeCoupon)
		points.GET("/coupons", h.ListCoupons)
	}
}

// GetBalance - GET /api/points/balance
func (h *PointsHandler) GetBalance(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	balance, err := h.service.GetBalance(c.Request.Context(), userID)
	if err != nil {
		handlePointsError(c, err)
		return
	}
	response.Success(c, http.StatusOK, balance)
}

// ListTransactions - GET /api/points/transactions?limit=&offset=&from=2024-01-01&to=2024-01-31
func (h *PointsHandler) ListTransactions(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	var filter model.TransactionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid query parameters")
		return
	}

	txs, err := h.service.ListTransactions(c.Request.Context(), userID, filter)
	if err != nil {
		handlePointsError(c, err)
		return
	}
	response.Success(c, http.StatusOK, txs)
}

// ExportTransactions - GET /api/points/transactions/export
// Streams the ledger as an xlsx attachment.
func (h *PointsHandler) ExportTransactions(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	var filter model.TransactionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid query parameters")
		return
	}

	f, err := h.service.ExportTransactions(c.Request.Context(), userID, filter)
	if err != nil {
		handlePointsError(c, err)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Error("Failed to close ledger export", err)
		}
	}()

	filename := fmt.Sprintf("points-ledger-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	if err := f.Write(c.Writer); err != nil {
		logger.Error("Failed to write ledger export", err)
	}
}

// ListRedeemableProducts - GET /api/points/products
func (h *PointsHandler) ListRedeemableProducts(c *gin.Context) {
	products, err := h.service.ListRedeemableProducts(c.Request.Context())
	if err != nil {
		handlePointsError(c, err)
		return
	}
	response.Success(c, http.StatusOK, products)
}

// CouponRates - GET /api/points/coupon-rates
// Body is the rate list, the table version travels in a header.
func (h *PointsHandler) CouponRates(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	rates, err := h.service.CouponRates(c.Request.Context(), userID)
	if err != nil {
		handlePointsError(c, err)
		return
	}
	c.Header(rateVersionHeader, rates.Version)
	response.Success(c, http.StatusOK, rates.Rates)
}

// ExchangeCoupon - POST /api/points/exchange-coupon
func (h *PointsHandler) ExchangeCoupon(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	var req model.ExchangeCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidExchangeAmount, "Invalid request body")
		return
	}

	result, err := h.service.ExchangeCoupon(c.Request.Context(), userID, req)
	if err != nil {
		handlePointsError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}

// ListCoupons - GET /api/points/coupons
func (h *PointsHandler) ListCoupons(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	coupons, err := h.service.ListCoupons(c.Request.Context(), userID)
	if err != nil {
		handlePointsError(c, err)
		return
	}
	response.Success(c, http.StatusOK, coupons)
}

func handlePointsError(c *gin.Context, err error) {
	var pointsErr *model.PointsError
	if !errors.As(err, &pointsErr) {
		logger.Error("Points request failed", err)
		response.InternalServerError(c)
		return
	}

	switch pointsErr.Code {
	case model.ErrCodeUserNotFound:
		response.ErrorResponse(c, http.StatusNotFound, pointsErr.Code, pointsErr.Message)
	case model.ErrCodeInvalidExchangeAmount, model.ErrCodeInsufficientPoints, model.ErrCodeValidation:
		response.ErrorResponse(c, http.StatusBadRequest, pointsErr.Code, pointsErr.Message)
	default:
		logger.Error("Points request failed", err)
		response.InternalServerError(c)
	}
}
