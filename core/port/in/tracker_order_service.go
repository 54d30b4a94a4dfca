// Package in defines inbound ports (driving ports) for the application.
package in

import (
	"context"
	"time"

	"tracker_server/core/domain"

	"github.com/google/uuid"
)

// OrderService defines the interface for order operations
type OrderService interface {
	// === Order CRUD ===
	GetOrder(ctx context.Context, userID uuid.UUID, orderID int64) (*domain.Order, error)
	ListOrders(ctx context.Context, filter *domain.OrderFilter) (*OrderListResponse, error)
	CreateOrder(ctx context.Context, userID uuid.UUID, req *CreateOrderRequest) (*domain.Order, error)
	UpdateOrder(ctx context.Context, userID uuid.UUID, orderID int64, req *UpdateOrderRequest) (*domain.Order, error)
	DeleteOrder(ctx context.Context, userID uuid.UUID, orderID int64) error

	// === Dashboards ===
	GetSummary(ctx context.Context, userID uuid.UUID) (*domain.OrderSummary, error)
}

// SyncService runs the mailbox-to-store pipeline for one user.
type SyncService interface {
	// Sync searches the mailbox, parses new order emails and upserts the
	// results. The response carries the user's full current order set.
	Sync(ctx context.Context, userID uuid.UUID) (*domain.SyncResult, error)
}

type OrderListResponse struct {
	Orders []*domain.Order `json:"orders"`
	Total  int             `json:"total"`
}

type CreateOrderRequest struct {
	ItemLabel string             `json:"item_label"`
	ShopName  string             `json:"shop_name,omitempty"`
	Variant   string             `json:"variant,omitempty"`
	Quantity  int                `json:"quantity,omitempty"`
	Amount    float64            `json:"amount,omitempty"`
	Category  string             `json:"category,omitempty"`
	Tracking  string             `json:"tracking_number,omitempty"`
	Carrier   string             `json:"carrier,omitempty"`
	Status    domain.OrderStatus `json:"status,omitempty"`
	OrderedAt *time.Time         `json:"ordered_at,omitempty"`
}

type UpdateOrderRequest struct {
	ItemLabel *string             `json:"item_label,omitempty"`
	ShopName  *string             `json:"shop_name,omitempty"`
	Variant   *string             `json:"variant,omitempty"`
	Quantity  *int                `json:"quantity,omitempty"`
	Amount    *float64            `json:"amount,omitempty"`
	Category  *string             `json:"category,omitempty"`
	Tracking  *string             `json:"tracking_number,omitempty"`
	Carrier   *string             `json:"carrier,omitempty"`
	Status    *domain.OrderStatus `json:"status,omitempty"`
	OrderedAt *time.Time          `json:"ordered_at,omitempty"`
}
