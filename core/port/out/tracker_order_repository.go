package out

import (
	"context"

	"tracker_server/core/domain"

	"github.com/google/uuid"
)

// OrderRepository defines the outbound port for order persistence.
// Upsert is keyed by (user_id, order_key).
type OrderRepository interface {
	// Upsert inserts the order or, when the identity key already exists
	// for the user, overwrites the extractable field set while keeping
	// the row id and creation timestamp. Returns the stored row.
	Upsert(ctx context.Context, order *domain.Order) (*domain.Order, error)

	// Create inserts a new order and fails on an identity-key conflict.
	Create(ctx context.Context, order *domain.Order) error

	GetByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.Order, error)
	List(ctx context.Context, filter *domain.OrderFilter) ([]*domain.Order, int, error)
	Update(ctx context.Context, order *domain.Order) error
	Delete(ctx context.Context, userID uuid.UUID, id int64) error

	// Summary aggregates spend and shipping stats for a user.
	Summary(ctx context.Context, userID uuid.UUID) (*domain.OrderSummary, error)
}
