package shared

// Task types
const (
	TypeSendOrderConfirmation = "order:confirmation"
	TypeProductLowStock       = "product:low_stock"
	TypePointsReconcile       = "points:reconcile"
)

// Queue names, weights live in cmd/worker
const (
	QueueOrder       = "order"
	QueueInventory   = "inventory"
	QueueMaintenance = "maintenance"
)

// Context keys set by the auth middleware
const (
	ContextUserID = "user_id"
	ContextEmail  = "user_email"
	ContextRole   = "user_role"
)

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// OrderConfirmationPayload is enqueued after a checkout commits
type OrderConfirmationPayload struct {
	OrderID      string `json:"order_id"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	TotalAmount  string `json:"total_amount"`
	CouponAmount string `json:"coupon_amount"`
	PointsUsed   int    `json:"points_used"`
	PointsEarned int    `json:"points_earned"`
	ItemCount    int    `json:"item_count"`
}

// LowStockPayload is enqueued when a checkout leaves a product at or below threshold
type LowStockPayload struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Stock       int    `json:"stock"`
	Threshold   int    `json:"threshold"`
}

// ReconcilePayload drives the periodic ledger reconciliation
type ReconcilePayload struct {
	Limit int `json:"limit"`
}
