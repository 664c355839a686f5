package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pointshop-backend/internal/domains/order/service"
	productModel "pointshop-backend/internal/domains/product/model"
	userModel "pointshop-backend/internal/domains/user/model"
	"pointshop-backend/internal/shared"
	"pointshop-backend/internal/shared/middleware"
	"pointshop-backend/internal/shared/response"
	"pointshop-backend/internal/testutil/memstore"
	"pointshop-backend/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
	decimal.MarshalJSONWithoutQuotes = true
}

type harness struct {
	router *gin.Engine
	store  *memstore.Store
	token  string
	userID uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := memstore.New()
	tokens := jwt.NewManager("handler-test-secret", time.Hour)

	u := userModel.User{
		ID:       uuid.New(),
		Username: "shopper",
		Email:    "shopper@example.com",
		Role:     shared.RoleUser,
		Balance:  decimal.NewFromInt(40),
	}
	store.PutUser(u)
	token, err := tokens.GenerateAccessToken(u.ID.String(), u.Email, u.Role)
	require.NoError(t, err)

	svc := service.NewOrderService(store, store.Orders(), store.Users(), store.Products(), store.Points(), nil, 0)

	r := gin.New()
	protected := r.Group("/api", middleware.AuthMiddleware(tokens))
	NewOrderHandler(svc).RegisterRoutes(protected)

	return &harness{router: r, store: store, token: token, userID: u.ID}
}

func (h *harness) do(method, path string, body interface{}, auth bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.Error {
	t.Helper()
	var body response.Error
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func (h *harness) product(price string, stock int) uuid.UUID {
	id := uuid.New()
	h.store.PutProduct(productModel.Product{
		ID:    id,
		Name:  "Item " + id.String()[:6],
		Price: decimal.RequireFromString(price),
		Stock: stock,
	})
	return id
}

func TestCreateOrder_RequiresToken(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/orders", gin.H{"items": []gin.H{}}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.CodeUnauthorized, decodeError(t, w).Code)
}

func TestCreateOrder_Settles(t *testing.T) {
	h := newHarness(t)
	id := h.product("12.50", 3)

	w := h.do(http.MethodPost, "/api/orders", gin.H{
		"items": []gin.H{{"product_id": id, "quantity": 2}},
	}, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 25.0, body["total_amount"])
	assert.Equal(t, 15.0, body["user_balance"])
	assert.Equal(t, "paid", body["status"])
	assert.NotEmpty(t, body["order_id"])

	detail := h.do(http.MethodGet, fmt.Sprintf("/api/orders/%s", body["order_id"]), nil, true)
	assert.Equal(t, http.StatusOK, detail.Code)
}

func TestCreateOrder_ErrorMapping(t *testing.T) {
	h := newHarness(t)
	scarce := h.product("1.00", 1)
	pricey := h.product("100.00", 5)

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"empty cart", gin.H{"items": []gin.H{}}, http.StatusBadRequest, "EmptyCart"},
		{"zero quantity", gin.H{"items": []gin.H{{"product_id": scarce, "quantity": 0}}}, http.StatusBadRequest, "InvalidQuantity"},
		{"out of stock", gin.H{"items": []gin.H{{"product_id": scarce, "quantity": 2}}}, http.StatusBadRequest, "OutOfStock"},
		{"insufficient funds", gin.H{"items": []gin.H{{"product_id": pricey, "quantity": 1}}}, http.StatusBadRequest, "InsufficientFunds"},
		{"unknown product", gin.H{"items": []gin.H{{"product_id": uuid.New(), "quantity": 1}}}, http.StatusBadRequest, "NotFound"},
		{"malformed body", `{"items": "nope"`, http.StatusBadRequest, "ValidationError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(http.MethodPost, "/api/orders", tt.body, true)
			assert.Equal(t, tt.status, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
	assert.Equal(t, 0, h.store.OrderCount())
}

func TestGetOrderDetail_Errors(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/api/orders/not-a-uuid", nil, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/api/orders/"+uuid.NewString(), nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NotFound", decodeError(t, w).Code)
}

func TestListOrders_FlatArray(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/api/orders", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	var orders []interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &orders))
	assert.Empty(t, orders)
}

func TestUpdateOrderStatus_InvalidTransition(t *testing.T) {
	h := newHarness(t)
	id := h.product("1.00", 5)

	w := h.do(http.MethodPost, "/api/orders", gin.H{"items": []gin.H{{"product_id": id, "quantity": 1}}}, true)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		OrderID string `json:"order_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = h.do(http.MethodPatch, "/api/orders/"+created.OrderID+"/status", gin.H{"status": "delivered"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "InvalidStatusTransition", decodeError(t, w).Code)

	w = h.do(http.MethodPatch, "/api/orders/"+created.OrderID+"/status", gin.H{"status": "shipped"}, true)
	assert.Equal(t, http.StatusOK, w.Code)
}
