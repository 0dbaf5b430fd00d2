package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nirmaan-tracker/nirmaan-api/internal/services"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
	logger              *zap.Logger
}

func NewNotificationHandler(notificationService *services.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// ListNotifications returns the caller's latest notifications. unread=true
// limits the list to unread ones.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}

	items, err := h.notificationService.List(viewer.UserID, c.Query("unread") == "true")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": items,
	})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(viewer.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkRead marks one of the caller's notifications read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "notification")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(id, viewer.UserID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}

	updated, err := h.notificationService.MarkAllRead(viewer.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
