// Package order implements order CRUD and the dashboard aggregates.
package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"tracker_server/core/domain"
	"tracker_server/core/port/in"
	"tracker_server/core/port/out"
	"tracker_server/core/service/parse"
	"tracker_server/pkg/snowflake"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrUnauthorized  = errors.New("unauthorized access")
)

// Service implements in.OrderService
type Service struct {
	orderRepo out.OrderRepository
	cache     OrderCache
}

// OrderCache is a read-through cache for the dashboard summary and the
// unfiltered first order page, invalidated after every write. May be nil.
type OrderCache interface {
	GetSummary(ctx context.Context, userID uuid.UUID) (*domain.OrderSummary, bool)
	SetSummary(ctx context.Context, userID uuid.UUID, summary *domain.OrderSummary)
	GetList(ctx context.Context, userID uuid.UUID) ([]*domain.Order, int, bool)
	SetList(ctx context.Context, userID uuid.UUID, orders []*domain.Order, total int)
	InvalidateUser(ctx context.Context, userID uuid.UUID)
}

// NewService creates a new OrderService
func NewService(orderRepo out.OrderRepository, cache OrderCache) in.OrderService {
	return &Service{
		orderRepo: orderRepo,
		cache:     cache,
	}
}

func (s *Service) GetOrder(ctx context.Context, userID uuid.UUID, orderID int64) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, userID, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, filter *domain.OrderFilter) (*in.OrderListResponse, error) {
	// Only the unfiltered first page is cached; filtered queries go to
	// the store directly.
	cacheable := s.cache != nil && isDefaultPage(filter)
	if cacheable {
		if orders, total, ok := s.cache.GetList(ctx, filter.UserID); ok {
			return &in.OrderListResponse{Orders: orders, Total: total}, nil
		}
	}

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	if cacheable {
		s.cache.SetList(ctx, filter.UserID, orders, total)
	}
	return &in.OrderListResponse{
		Orders: orders,
		Total:  total,
	}, nil
}

// defaultPageLimit matches the repository's default page size.
const defaultPageLimit = 50

func isDefaultPage(filter *domain.OrderFilter) bool {
	return len(filter.Statuses) == 0 &&
		filter.Category == nil &&
		filter.Origin == nil &&
		filter.Search == nil &&
		filter.Offset == 0 &&
		(filter.Limit == 0 || filter.Limit == defaultPageLimit)
}

// CreateOrder records a manually entered order. The identity key is
// minted from a snowflake so it can never collide with a platform order
// number or a message-derived key.
func (s *Service) CreateOrder(ctx context.Context, userID uuid.UUID, req *in.CreateOrderRequest) (*domain.Order, error) {
	if req.ItemLabel == "" {
		return nil, errors.New("item label is required")
	}

	status := req.Status
	if status == "" {
		status = domain.OrderStatusOrdered
	}
	if !status.Valid() {
		return nil, fmt.Errorf("invalid status %q", status)
	}

	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	if req.Amount < 0 {
		return nil, errors.New("amount must not be negative")
	}

	category := req.Category
	if category == "" {
		category = parse.DefaultCategory
	}

	orderedAt := time.Now()
	if req.OrderedAt != nil {
		orderedAt = *req.OrderedAt
	}

	now := time.Now()
	order := &domain.Order{
		UserID:      userID,
		OrderKey:    parse.ManualKeyPrefix + strconv.FormatInt(snowflake.ID(), 10),
		ItemLabel:   req.ItemLabel,
		ShopName:    req.ShopName,
		Variant:     req.Variant,
		Quantity:    quantity,
		Amount:      req.Amount,
		Category:    category,
		Tracking:    req.Tracking,
		Carrier:     req.Carrier,
		Status:      status,
		OrderedAt:   orderedAt,
		Origin:      domain.OriginManual,
		ExtractedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.invalidate(ctx, userID)
	return order, nil
}

func (s *Service) UpdateOrder(ctx context.Context, userID uuid.UUID, orderID int64, req *in.UpdateOrderRequest) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if req.ItemLabel != nil {
		order.ItemLabel = *req.ItemLabel
	}
	if req.ShopName != nil {
		order.ShopName = *req.ShopName
	}
	if req.Variant != nil {
		order.Variant = *req.Variant
	}
	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return nil, errors.New("quantity must be positive")
		}
		order.Quantity = *req.Quantity
	}
	if req.Amount != nil {
		if *req.Amount < 0 {
			return nil, errors.New("amount must not be negative")
		}
		order.Amount = *req.Amount
	}
	if req.Category != nil {
		order.Category = *req.Category
	}
	if req.Tracking != nil {
		order.Tracking = *req.Tracking
	}
	if req.Carrier != nil {
		order.Carrier = *req.Carrier
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, fmt.Errorf("invalid status %q", *req.Status)
		}
		order.Status = *req.Status
	}
	if req.OrderedAt != nil {
		order.OrderedAt = *req.OrderedAt
	}
	order.UpdatedAt = time.Now()

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	s.invalidate(ctx, userID)
	return order, nil
}

// DeleteOrder is the only way an order leaves the store; the sync
// pipeline never deletes.
func (s *Service) DeleteOrder(ctx context.Context, userID uuid.UUID, orderID int64) error {
	if _, err := s.GetOrder(ctx, userID, orderID); err != nil {
		return err
	}
	if err := s.orderRepo.Delete(ctx, userID, orderID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *Service) GetSummary(ctx context.Context, userID uuid.UUID) (*domain.OrderSummary, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetSummary(ctx, userID); ok {
			return cached, nil
		}
	}

	summary, err := s.orderRepo.Summary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("order summary: %w", err)
	}

	if s.cache != nil {
		s.cache.SetSummary(ctx, userID, summary)
	}
	return summary, nil
}

func (s *Service) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.cache != nil {
		s.cache.InvalidateUser(ctx, userID)
	}
}
