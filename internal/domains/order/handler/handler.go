package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"pointshop-backend/internal/domains/order/model"
	"pointshop-backend/internal/domains/order/service"
	"pointshop-backend/internal/shared/middleware"
	"pointshop-backend/internal/shared/response"
	"pointshop-backend/pkg/logger"
)

// =====================================================
// ORDER HANDLER
// =====================================================
type OrderHandler struct {
	orderService service.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// =====================================================
// ROUTES REGISTRATION
// =====================================================

// RegisterRoutes registers order routes on a group already behind the auth gate
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders")
	{
		orders.POST("", h.CreateOrder)                   // POST /api/orders
		orders.GET("", h.ListOrders)                     // GET /api/orders?limit=20&offset=0
		orders.GET("/:id", h.GetOrderDetail)             // GET /api/orders/:id
		orders.PATCH("/:id/status", h.UpdateOrderStatus) // PATCH /api/orders/:id/status
	}
}

// =====================================================
// CREATE ORDER
// =====================================================

// CreateOrder settles the cart in the body against the caller's wallet
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.ErrorResponse(c, http.StatusUnauthorized, model.ErrCodeUnauthorized, "Unauthorized")
		return
	}

	var req model.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid request body")
		return
	}

	result, err := h.orderService.CreateOrder(c.Request.Context(), userID, req)
	if err != nil {
		// every checkout rejection is a 400, including an unknown product
		var orderErr *model.OrderError
		if errors.As(err, &orderErr) && orderErr.Code == model.ErrCodeProductNotFound {
			response.ErrorResponse(c, http.StatusBadRequest, orderErr.Code, orderErr.Message)
			return
		}
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// =====================================================
// READS
// =====================================================

func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.ErrorResponse(c, http.StatusUnauthorized, model.ErrCodeUnauthorized, "Unauthorized")
		return
	}

	var req model.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid query parameters")
		return
	}

	orders, err := h.orderService.ListOrders(c.Request.Context(), userID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, orders)
}

func (h *OrderHandler) GetOrderDetail(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.ErrorResponse(c, http.StatusUnauthorized, model.ErrCodeUnauthorized, "Unauthorized")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid order ID")
		return
	}

	order, err := h.orderService.GetOrderDetail(c.Request.Context(), orderID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, order)
}

// =====================================================
// UPDATE STATUS
// =====================================================

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.ErrorResponse(c, http.StatusUnauthorized, model.ErrCodeUnauthorized, "Unauthorized")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid order ID")
		return
	}

	var req model.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid request body")
		return
	}

	result, err := h.orderService.UpdateOrderStatus(c.Request.Context(), orderID, userID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// =====================================================
// HELPER METHODS
// =====================================================

// handleServiceError maps service errors to HTTP responses
func (h *OrderHandler) handleServiceError(c *gin.Context, err error) {
	var orderErr *model.OrderError
	if errors.As(err, &orderErr) {
		status := getHTTPStatusFromErrorCode(orderErr.Code)
		if status == http.StatusInternalServerError {
			logger.Error("Order request failed", err)
			response.InternalServerError(c)
			return
		}

		var fieldErrs validation.Errors
		if errors.As(orderErr.Err, &fieldErrs) {
			response.ErrorWithDetails(c, status, orderErr.Code, orderErr.Message, fieldErrs)
			return
		}
		response.ErrorResponse(c, status, orderErr.Code, orderErr.Message)
		return
	}

	if errors.Is(err, model.ErrOrderNotFound) {
		response.ErrorResponse(c, http.StatusNotFound, model.ErrCodeOrderNotFound, "Order not found")
		return
	}

	logger.Error("Order request failed", err)
	response.InternalServerError(c)
}

// statusByCode maps business error codes to HTTP status codes
var statusByCode = map[string]int{
	model.ErrCodeOrderNotFound:           http.StatusNotFound,
	model.ErrCodeUnauthorized:            http.StatusUnauthorized,
	model.ErrCodeOutOfStock:              http.StatusBadRequest,
	model.ErrCodeInvalidCoupon:           http.StatusBadRequest,
	model.ErrCodeInsufficientFunds:       http.StatusBadRequest,
	model.ErrCodeInsufficientPoints:      http.StatusBadRequest,
	model.ErrCodeNotRedeemable:           http.StatusBadRequest,
	model.ErrCodeEmptyCart:               http.StatusBadRequest,
	model.ErrCodeInvalidQuantity:         http.StatusBadRequest,
	model.ErrCodeInvalidStatusTransition: http.StatusBadRequest,
	model.ErrCodeValidation:              http.StatusBadRequest,
}

func getHTTPStatusFromErrorCode(code string) int {
	if status, exists := statusByCode[code]; exists {
		return status
	}
	return http.StatusInternalServerError
}
