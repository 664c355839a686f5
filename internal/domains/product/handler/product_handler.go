package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"pointshop-backend/internal/domains/product/model"
	"pointshop-backend/internal/domains/product/service"
	"pointshop-backend/internal/shared/response"
	"pointshop-backend/pkg/logger"
)

// Handler serves the catalog
type Handler struct {
	service service.ServiceInterface
}

func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts public reads on public and catalog writes on admin.
// admin must already sit behind the auth and admin gates.
func (h *Handler) RegisterRoutes(public, admin *gin.RouterGroup) {
	products := public.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/categories", h.ListCategories)
		products.GET("/category/:categoryId", h.ListByCategory)
		products.GET("/:id", h.GetProduct)
	}

	adminProducts := admin.Group("/products")
	{
		adminProducts.POST("", h.CreateProduct)
		adminProducts.PUT("/:id", h.UpdateProduct)
		adminProducts.DELETE("/:id", h.DeleteProduct)
	}
}

// ListProducts - GET /api/products
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		handleProductError(c, err)
		return
	}
	response.Success(c, http.StatusOK, products)
}

// ListCategories - GET /api/products/categories
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		handleProductError(c, err)
		return
	}
	response.Success(c, http.StatusOK, categories)
}

// ListByCategory - GET /api/products/category/:categoryId
func (h *Handler) ListByCategory(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("categoryId"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid category ID")
		return
	}

	products, err := h.service.ListByCategory(c.Request.Context(), categoryID)
	if err != nil {
		handleProductError(c, err)
		return
	}
	response.Success(c, http.StatusOK, products)
}

// GetProduct - GET /api/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid product ID")
		return
	}

	product, err := h.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		handleProductError(c, err)
		return
	}
	response.Success(c, http.StatusOK, product)
}

// CreateProduct - POST /api/products (admin)
func (h *Handler) CreateProduct(c *gin.Context) {
	var req model.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid request data")
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), req)
	if err != nil {
		handleProductError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, product)
}

// UpdateProduct - PUT /api/products/:id (admin)
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid product ID")
		return
	}

	var req model.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid request data")
		return
	}

	product, err := h.service.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		handleProductError(c, err)
		return
	}
	response.Success(c, http.StatusOK, product)
}

// DeleteProduct - DELETE /api/products/:id (admin)
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid product ID")
		return
	}

	if err := h.service.DeleteProduct(c.Request.Context(), id); err != nil {
		handleProductError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

func handleProductError(c *gin.Context, err error) {
	var productErr *model.ProductError
	if !errors.As(err, &productErr) {
		logger.Error("Product request failed", err)
		response.InternalServerError(c)
		return
	}

	status := http.StatusBadRequest
	if productErr.Code == model.ErrCodeProductNotFound {
		status = http.StatusNotFound
	}

	var fieldErrs validation.Errors
	if errors.As(productErr.Err, &fieldErrs) {
		response.ErrorWithDetails(c, status, productErr.Code, productErr.Message, fieldErrs)
		return
	}
	response.ErrorResponse(c, status, productErr.Code, productErr.Message)
}
