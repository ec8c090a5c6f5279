package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	authmw "github.com/exportai/backend/internal/middleware/auth"
	"github.com/exportai/backend/internal/notify"
	"github.com/exportai/backend/internal/storage/models"
	"github.com/exportai/backend/internal/storage/sqlite"
)

type NotificationHandler struct {
	store *sqlite.Client
	hub   *notify.Hub
}

func NewNotificationHandler(store *sqlite.Client, hub *notify.Hub) *NotificationHandler {
	return &NotificationHandler{store: store, hub: hub}
}

func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	userID := authmw.UserID(c)

	limit := c.QueryInt("limit", 10)
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	unreadOnly := c.Query("unread_only") == "true"

	notifications, total, unread, err := h.store.ListNotifications(userID, limit, offset, unreadOnly)
	if err != nil {
		return respondError(c, err, "Failed to fetch notifications")
	}

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"total":         total,
		"unread_count":  unread,
		"has_more":      offset+limit < total,
	})
}

// CreateNotification persists the row and pushes it to the user's open
// websockets.
func (h *NotificationHandler) CreateNotification(c *fiber.Ctx) error {
	userID := authmw.UserID(c)

	var req struct {
		Type    string          `json:"type"`
		Title   string          `json:"title"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}

	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	if req.Type == "" || req.Title == "" || req.Message == "" {
		return badRequest(c, "type, title, and message are required")
	}

	notification := models.Notification{
		UserID:  userID,
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
		Data:    req.Data,
	}

	if err := h.store.InsertNotification(&notification); err != nil {
		return respondError(c, err, "Failed to create notification")
	}

	if h.hub != nil {
		h.hub.Push(&notification)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"notification": notification})
}

// MarkNotifications flips read flags for the given ids. The reported
// count covers rows that actually changed state, so re-marking an
// already-read notification is a no-op.
func (h *NotificationHandler) MarkNotifications(c *fiber.Ctx) error {
	userID := authmw.UserID(c)

	var req struct {
		NotificationIDs []int64 `json:"notification_ids"`
		MarkAsRead      *bool   `json:"mark_as_read"`
	}

	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	if req.NotificationIDs == nil {
		return badRequest(c, "notification_ids must be an array")
	}

	markAsRead := true
	if req.MarkAsRead != nil {
		markAsRead = *req.MarkAsRead
	}

	updated, err := h.store.MarkNotifications(userID, req.NotificationIDs, markAsRead)
	if err != nil {
		return respondError(c, err, "Failed to update notifications")
	}

	unread, err := h.store.UnreadCount(userID)
	if err != nil {
		return respondError(c, err, "Failed to update notifications")
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"updated":      updated,
		"unread_count": unread,
	})
}
