package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the delivery lifecycle of an order.
// The progression is Ordered -> Shipped -> OutForDelivery -> Arrived.
type OrderStatus string

const (
	OrderStatusOrdered        OrderStatus = "ordered"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusArrived        OrderStatus = "arrived"
)

// statusRank maps each status to its position in the lifecycle.
var statusRank = map[OrderStatus]int{
	OrderStatusOrdered:        0,
	OrderStatusShipped:        1,
	OrderStatusOutForDelivery: 2,
	OrderStatusArrived:        3,
}

// Rank returns the lifecycle position of the status, 0 for unknown values.
func (s OrderStatus) Rank() int {
	return statusRank[s]
}

// AtLeast reports whether the status has reached the given stage.
func (s OrderStatus) AtLeast(other OrderStatus) bool {
	return s.Rank() >= other.Rank()
}

// Valid reports whether the status is one of the known lifecycle values.
func (s OrderStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// OrderOrigin distinguishes how an order record entered the system.
type OrderOrigin string

const (
	OriginEmail  OrderOrigin = "email"
	OriginManual OrderOrigin = "manual"
)

// Order represents a tracked purchase, either extracted from an order
// notification email or entered by the user.
type Order struct {
	ID     int64     `json:"id"`
	UserID uuid.UUID `json:"user_id"`

	// Identity. OrderKey is the durable dedup key within a user's order
	// set: the platform order number when one was extracted, otherwise a
	// synthesized key that cannot collide with the numeric space.
	OrderKey        string `json:"order_key"`
	PlatformOrderID string `json:"platform_order_id,omitempty"`
	SourceMessageID string `json:"source_message_id,omitempty"`

	// Extracted fields
	ItemLabel   string      `json:"item_label"`
	ShopName    string      `json:"shop_name,omitempty"`
	Variant     string      `json:"variant,omitempty"`
	Quantity    int         `json:"quantity"`
	Amount      float64     `json:"amount"`
	Category    string      `json:"category"`
	Tracking    string      `json:"tracking_number,omitempty"`
	Carrier     string      `json:"carrier,omitempty"`
	Status      OrderStatus `json:"status"`
	OrderedAt   time.Time   `json:"ordered_at"`
	Origin      OrderOrigin `json:"origin"`
	ExtractedAt time.Time   `json:"extracted_at"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasPlatformID reports whether the order carries a platform order number.
func (o *Order) HasPlatformID() bool {
	return o.PlatformOrderID != ""
}

// OrderFilter represents filter options for listing orders
type OrderFilter struct {
	UserID   uuid.UUID
	Statuses []OrderStatus // Multiple statuses (OR)
	Category *string
	Origin   *OrderOrigin

	// Search matches item label and shop name
	Search *string

	// Pagination
	Limit  int
	Offset int
}

// CategoryTotal is one row of the per-category spend breakdown.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// StatusCount is one row of the shipping-progress breakdown.
type StatusCount struct {
	Status OrderStatus `json:"status"`
	Count  int         `json:"count"`
}

// OrderSummary aggregates a user's orders for the spend and shipping
// dashboards.
type OrderSummary struct {
	TotalSpend   float64         `json:"total_spend"`
	OrderCount   int             `json:"order_count"`
	AverageSpend float64         `json:"average_spend"`
	ByCategory   []CategoryTotal `json:"by_category"`
	ByStatus     []StatusCount   `json:"by_status"`
}

// SyncResult is what a sync invocation returns: the authoritative current
// order set for the user plus counters describing the run.
type SyncResult struct {
	Orders   []*Order `json:"orders"`
	Fetched  int      `json:"fetched"`
	Parsed   int      `json:"parsed"`
	Upserted int      `json:"upserted"`
	Skipped  int      `json:"skipped"`
}
