package http

import (
	"errors"
	"strconv"
	"strings"

	"tracker_server/core/domain"
	"tracker_server/core/port/in"
	"tracker_server/core/service/order"
	"tracker_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler exposes order CRUD and the dashboard summary.
type OrderHandler struct {
	orderService in.OrderService
}

func NewOrderHandler(orderService in.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) Register(router fiber.Router) {
	orders := router.Group("/orders")
	orders.Get("/", h.List)
	orders.Get("/summary", h.Summary)
	orders.Get("/:id", h.Get)
	orders.Post("/", h.Create)
	orders.Put("/:id", h.Update)
	orders.Patch("/:id", h.Update)
	orders.Delete("/:id", h.Delete)
}

// List returns the user's orders with optional filters.
// Filters: status (comma separated), category, origin, search, limit, offset.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusUnauthorized, "Not authenticated")
	}

	pagination := GetPaginationParams(c, 50)
	filter := &domain.OrderFilter{
		UserID:   userID,
		Category: QueryString(c, "category"),
		Search:   QueryString(c, "search"),
		Limit:    pagination.Limit,
		Offset:   pagination.Offset,
	}

	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := domain.OrderStatus(strings.TrimSpace(s))
			if !status.Valid() {
				return ErrorResponse(c, fiber.StatusBadRequest, "Invalid status: "+string(status))
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	if raw := c.Query("origin"); raw != "" {
		origin := domain.OrderOrigin(raw)
		if origin != domain.OriginEmail && origin != domain.OriginManual {
			return ErrorResponse(c, fiber.StatusBadRequest, "Invalid origin: "+raw)
		}
		filter.Origin = &origin
	}

	resp, err := h.orderService.ListOrders(c.Context(), filter)
	if err != nil {
		return InternalErrorResponse(c, err, "list_orders")
	}

	return SuccessResponse(c, resp)
}

// Summary returns the spend and shipping dashboard aggregates.
func (h *OrderHandler) Summary(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusUnauthorized, "Not authenticated")
	}

	summary, err := h.orderService.GetSummary(c.Context(), userID)
	if err != nil {
		return InternalErrorResponse(c, err, "order_summary")
	}

	return SuccessResponse(c, summary)
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusUnauthorized, "Not authenticated")
	}

	orderID, err := parseOrderID(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid order id")
	}

	o, err := h.orderService.GetOrder(c.Context(), userID, orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return ErrorResponse(c, fiber.StatusNotFound, "Order not found")
		}
		return InternalErrorResponse(c, err, "get_order")
	}

	return SuccessResponse(c, o)
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusUnauthorized, "Not authenticated")
	}

	var req in.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	o, err := h.orderService.CreateOrder(c.Context(), userID, &req)
	if err != nil {
		if apperr.IsAppError(err) {
			return AppErrorResponse(c, err)
		}
		return ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	c.Status(fiber.StatusCreated)
	return SuccessResponse(c, o)
}

func (h *OrderHandler) Update(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusUnauthorized, "Not authenticated")
	}

	orderID, err := parseOrderID(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid order id")
	}

	var req in.UpdateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	o, err := h.orderService.UpdateOrder(c.Context(), userID, orderID, &req)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return ErrorResponse(c, fiber.StatusNotFound, "Order not found")
		}
		return ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	return SuccessResponse(c, o)
}

func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusUnauthorized, "Not authenticated")
	}

	orderID, err := parseOrderID(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid order id")
	}

	if err := h.orderService.DeleteOrder(c.Context(), userID, orderID); err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return ErrorResponse(c, fiber.StatusNotFound, "Order not found")
		}
		return InternalErrorResponse(c, err, "delete_order")
	}

	return SuccessResponse(c, fiber.Map{"deleted": true})
}

func parseOrderID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}
