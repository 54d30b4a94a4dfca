package http

import (
	"tracker_server/core/port/in"
	"tracker_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// SyncHandler triggers the mailbox sync pipeline.
type SyncHandler struct {
	syncService in.SyncService
}

func NewSyncHandler(syncService in.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

func (h *SyncHandler) Register(router fiber.Router) {
	router.Post("/orders/sync", h.Sync)
}

// Sync runs one mailbox sweep for the caller. Concurrent sweeps for the
// same user are rejected with 409 by the sync lock.
func (h *SyncHandler) Sync(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusUnauthorized, "Not authenticated")
	}

	result, err := h.syncService.Sync(c.Context(), userID)
	if err != nil {
		if apperr.IsAppError(err) {
			return AppErrorResponse(c, err)
		}
		return InternalErrorResponse(c, err, "sync")
	}

	return SuccessResponse(c, result)
}
