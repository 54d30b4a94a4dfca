// Package persistence provides database adapters.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tracker_server/core/domain"
	"tracker_server/core/port/out"
	"tracker_server/pkg/snowflake"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// OrderAdapter implements out.OrderRepository using PostgreSQL.
type OrderAdapter struct {
	db *sqlx.DB
}

// NewOrderAdapter creates a new OrderAdapter.
func NewOrderAdapter(db *sqlx.DB) out.OrderRepository {
	return &OrderAdapter{db: db}
}

const orderColumns = `id, user_id, order_key, platform_order_id, source_message_id,
       item_label, shop_name, variant, quantity, amount, category,
       tracking_number, carrier, status, ordered_at, origin,
       extracted_at, created_at, updated_at`

// Upsert inserts the order or, on an (user_id, order_key) conflict,
// overwrites the extractable fields while keeping the row id and
// creation timestamp.
func (r *OrderAdapter) Upsert(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if order.ID == 0 {
		order.ID = snowflake.ID()
	}
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	query := fmt.Sprintf(`
		INSERT INTO orders (
			id, user_id, order_key, platform_order_id, source_message_id,
			item_label, shop_name, variant, quantity, amount, category,
			tracking_number, carrier, status, ordered_at, origin,
			extracted_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19
		)
		ON CONFLICT (user_id, order_key) DO UPDATE SET
			platform_order_id = EXCLUDED.platform_order_id,
			source_message_id = EXCLUDED.source_message_id,
			item_label        = EXCLUDED.item_label,
			shop_name         = EXCLUDED.shop_name,
			variant           = EXCLUDED.variant,
			quantity          = EXCLUDED.quantity,
			amount            = EXCLUDED.amount,
			category          = EXCLUDED.category,
			tracking_number   = EXCLUDED.tracking_number,
			carrier           = EXCLUDED.carrier,
			status            = EXCLUDED.status,
			ordered_at        = EXCLUDED.ordered_at,
			origin            = EXCLUDED.origin,
			extracted_at      = EXCLUDED.extracted_at,
			updated_at        = EXCLUDED.updated_at
		RETURNING %s`, orderColumns)

	var row orderRow
	err := r.db.GetContext(ctx, &row, query,
		order.ID, order.UserID, order.OrderKey,
		nullString(order.PlatformOrderID), nullString(order.SourceMessageID),
		order.ItemLabel, nullString(order.ShopName), nullString(order.Variant),
		order.Quantity, order.Amount, order.Category,
		nullString(order.Tracking), nullString(order.Carrier), order.Status,
		order.OrderedAt, order.Origin, order.ExtractedAt,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert order: %w", err)
	}

	return row.toDomain(), nil
}

// Create inserts a new order and fails on an identity-key conflict.
func (r *OrderAdapter) Create(ctx context.Context, order *domain.Order) error {
	if order.ID == 0 {
		order.ID = snowflake.ID()
	}
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	query := `
		INSERT INTO orders (
			id, user_id, order_key, platform_order_id, source_message_id,
			item_label, shop_name, variant, quantity, amount, category,
			tracking_number, carrier, status, ordered_at, origin,
			extracted_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19
		)`

	_, err := r.db.ExecContext(ctx, query,
		order.ID, order.UserID, order.OrderKey,
		nullString(order.PlatformOrderID), nullString(order.SourceMessageID),
		order.ItemLabel, nullString(order.ShopName), nullString(order.Variant),
		order.Quantity, order.Amount, order.Category,
		nullString(order.Tracking), nullString(order.Carrier), order.Status,
		order.OrderedAt, order.Origin, order.ExtractedAt,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *OrderAdapter) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE user_id = $1 AND id = $2`, orderColumns)

	var row orderRow
	if err := r.db.GetContext(ctx, &row, query, userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return row.toDomain(), nil
}

func (r *OrderAdapter) List(ctx context.Context, filter *domain.OrderFilter) ([]*domain.Order, int, error) {
	var conditions []string
	var args []interface{}
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIdx))
	args = append(args, filter.UserID)
	argIdx++

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", argIdx))
		args = append(args, pq.Array(statuses))
		argIdx++
	}

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, *filter.Category)
		argIdx++
	}

	if filter.Origin != nil {
		conditions = append(conditions, fmt.Sprintf("origin = $%d", argIdx))
		args = append(args, *filter.Origin)
		argIdx++
	}

	if filter.Search != nil && *filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(item_label ILIKE $%d OR shop_name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+*filter.Search+"%")
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM orders WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		WHERE %s
		ORDER BY ordered_at DESC, id DESC
		LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, argIdx, argIdx+1)

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)

	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	orders := make([]*domain.Order, len(rows))
	for i, row := range rows {
		orders[i] = row.toDomain()
	}
	return orders, total, nil
}

func (r *OrderAdapter) Update(ctx context.Context, order *domain.Order) error {
	order.UpdatedAt = time.Now()

	query := `
		UPDATE orders SET
			item_label = $3, shop_name = $4, variant = $5, quantity = $6,
			amount = $7, category = $8, tracking_number = $9, carrier = $10,
			status = $11, ordered_at = $12, updated_at = $13
		WHERE user_id = $1 AND id = $2`

	res, err := r.db.ExecContext(ctx, query,
		order.UserID, order.ID,
		order.ItemLabel, nullString(order.ShopName), nullString(order.Variant),
		order.Quantity, order.Amount, order.Category,
		nullString(order.Tracking), nullString(order.Carrier), order.Status,
		order.OrderedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *OrderAdapter) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM orders WHERE user_id = $1 AND id = $2", userID, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Summary aggregates spend and shipping stats for a user.
func (r *OrderAdapter) Summary(ctx context.Context, userID uuid.UUID) (*domain.OrderSummary, error) {
	summary := &domain.OrderSummary{}

	totalsQuery := `
		SELECT COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count
		FROM orders
		WHERE user_id = $1`

	var totals struct {
		Total float64 `db:"total"`
		Count int     `db:"count"`
	}
	if err := r.db.GetContext(ctx, &totals, totalsQuery, userID); err != nil {
		return nil, fmt.Errorf("order totals: %w", err)
	}
	summary.TotalSpend = totals.Total
	summary.OrderCount = totals.Count
	if totals.Count > 0 {
		summary.AverageSpend = totals.Total / float64(totals.Count)
	}

	categoryQuery := `
		SELECT category, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count
		FROM orders
		WHERE user_id = $1
		GROUP BY category
		ORDER BY total DESC`

	type categoryRow struct {
		Category string  `db:"category"`
		Total    float64 `db:"total"`
		Count    int     `db:"count"`
	}
	var categories []categoryRow
	if err := r.db.SelectContext(ctx, &categories, categoryQuery, userID); err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	for _, c := range categories {
		summary.ByCategory = append(summary.ByCategory, domain.CategoryTotal{
			Category: c.Category,
			Total:    c.Total,
			Count:    c.Count,
		})
	}

	statusQuery := `
		SELECT status, COUNT(*) AS count
		FROM orders
		WHERE user_id = $1
		GROUP BY status`

	type statusRow struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	var statuses []statusRow
	if err := r.db.SelectContext(ctx, &statuses, statusQuery, userID); err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}

	counts := make(map[domain.OrderStatus]int, len(statuses))
	for _, s := range statuses {
		counts[domain.OrderStatus(s.Status)] = s.Count
	}
	// Stable lifecycle order for the shipping dashboard.
	for _, status := range []domain.OrderStatus{
		domain.OrderStatusOrdered,
		domain.OrderStatusShipped,
		domain.OrderStatusOutForDelivery,
		domain.OrderStatusArrived,
	} {
		summary.ByStatus = append(summary.ByStatus, domain.StatusCount{
			Status: status,
			Count:  counts[status],
		})
	}

	return summary, nil
}

// =============================================================================
// Row Types
// =============================================================================

type orderRow struct {
	ID              int64          `db:"id"`
	UserID          uuid.UUID      `db:"user_id"`
	OrderKey        string         `db:"order_key"`
	PlatformOrderID sql.NullString `db:"platform_order_id"`
	SourceMessageID sql.NullString `db:"source_message_id"`
	ItemLabel       string         `db:"item_label"`
	ShopName        sql.NullString `db:"shop_name"`
	Variant         sql.NullString `db:"variant"`
	Quantity        int            `db:"quantity"`
	Amount          float64        `db:"amount"`
	Category        string         `db:"category"`
	Tracking        sql.NullString `db:"tracking_number"`
	Carrier         sql.NullString `db:"carrier"`
	Status          string         `db:"status"`
	OrderedAt       time.Time      `db:"ordered_at"`
	Origin          string         `db:"origin"`
	ExtractedAt     time.Time      `db:"extracted_at"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (r *orderRow) toDomain() *domain.Order {
	return &domain.Order{
		ID:              r.ID,
		UserID:          r.UserID,
		OrderKey:        r.OrderKey,
		PlatformOrderID: r.PlatformOrderID.String,
		SourceMessageID: r.SourceMessageID.String,
		ItemLabel:       r.ItemLabel,
		ShopName:        r.ShopName.String,
		Variant:         r.Variant.String,
		Quantity:        r.Quantity,
		Amount:          r.Amount,
		Category:        r.Category,
		Tracking:        r.Tracking.String,
		Carrier:         r.Carrier.String,
		Status:          domain.OrderStatus(r.Status),
		OrderedAt:       r.OrderedAt,
		Origin:          domain.OrderOrigin(r.Origin),
		ExtractedAt:     r.ExtractedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
