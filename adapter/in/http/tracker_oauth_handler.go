package http

import (
	"tracker_server/core/port/in"
	"tracker_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// OAuthHandler exposes the Google mailbox connection endpoints.
type OAuthHandler struct {
	oauthService in.OAuthService
}

func NewOAuthHandler(oauthService in.OAuthService) *OAuthHandler {
	return &OAuthHandler{oauthService: oauthService}
}

// Register wires the authenticated OAuth routes. The callback is hit by
// Google's redirect with no Authorization header, so it is registered
// separately on the public router.
func (h *OAuthHandler) Register(router fiber.Router) {
	router.Get("/auth/google", h.Connect)
	router.Get("/auth/status", h.Status)
	router.Delete("/auth/google", h.Disconnect)
}

// Connect starts the OAuth flow and returns the consent URL.
func (h *OAuthHandler) Connect(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusUnauthorized, "Not authenticated")
	}

	authURL, err := h.oauthService.GetAuthURL(c.Context(), userID)
	if err != nil {
		if apperr.IsAppError(err) {
			return AppErrorResponse(c, err)
		}
		return InternalErrorResponse(c, err, "oauth_connect")
	}

	return SuccessResponse(c, fiber.Map{"auth_url": authURL})
}

// Callback completes the OAuth flow after Google redirects back.
func (h *OAuthHandler) Callback(c *fiber.Ctx) error {
	if errParam := c.Query("error"); errParam != "" {
		return ErrorResponse(c, fiber.StatusBadRequest, "Authorization was denied: "+errParam)
	}

	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return ErrorResponse(c, fiber.StatusBadRequest, "Missing code or state parameter")
	}

	email, err := h.oauthService.HandleCallback(c.Context(), state, code)
	if err != nil {
		if apperr.IsAppError(err) {
			return AppErrorResponse(c, err)
		}
		return InternalErrorResponse(c, err, "oauth_callback")
	}

	return SuccessResponse(c, fiber.Map{
		"connected": true,
		"email":     email,
	})
}

// Status reports whether the user's mailbox is connected.
func (h *OAuthHandler) Status(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusUnauthorized, "Not authenticated")
	}

	status, err := h.oauthService.Status(c.Context(), userID)
	if err != nil {
		if apperr.IsAppError(err) {
			return AppErrorResponse(c, err)
		}
		return InternalErrorResponse(c, err, "oauth_status")
	}

	return SuccessResponse(c, status)
}

// Disconnect removes the stored mailbox credential.
func (h *OAuthHandler) Disconnect(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusUnauthorized, "Not authenticated")
	}

	if err := h.oauthService.Disconnect(c.Context(), userID); err != nil {
		if apperr.IsAppError(err) {
			return AppErrorResponse(c, err)
		}
		return InternalErrorResponse(c, err, "oauth_disconnect")
	}

	return SuccessResponse(c, fiber.Map{"disconnected": true})
}
