package handlers

import (
	"github.com/gin-gonic/gin"
	apierrors "github.com/nirmaan-tracker/nirmaan-api/internal/errors"
	"github.com/nirmaan-tracker/nirmaan-api/internal/middleware"
	"github.com/nirmaan-tracker/nirmaan-api/internal/realtime"
	"go.uber.org/zap"
)

// SocketHandler upgrades authenticated requests to the real-time channel.
type SocketHandler struct {
	server *realtime.Server
	logger *zap.Logger
}

func NewSocketHandler(server *realtime.Server, logger *zap.Logger) *SocketHandler {
	return &SocketHandler{
		server: server,
		logger: logger,
	}
}

// Connect blocks for the lifetime of the socket.
func (h *SocketHandler) Connect(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	// Serve writes its own HTTP error when the upgrade fails
	if err := h.server.Serve(c.Writer, c.Request, user); err != nil {
		h.logger.Debug("socket upgrade failed", zap.Uint64("user_id", user.ID), zap.Error(err))
	}
}
