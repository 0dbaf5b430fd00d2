package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nirmaan-tracker/nirmaan-api/internal/dto"
	"github.com/nirmaan-tracker/nirmaan-api/internal/services"
	"go.uber.org/zap"
)

type CommentHandler struct {
	commentService *services.CommentService
	logger         *zap.Logger
}

func NewCommentHandler(commentService *services.CommentService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		logger:         logger,
	}
}

// ListComments returns a task's comments, oldest first
func (h *CommentHandler) ListComments(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "taskId", "task")
	if !ok {
		return
	}

	comments, err := h.commentService.ListComments(taskID, viewer)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": dto.ToCommentDTOs(comments),
	})
}

// CreateComment posts a comment or a reply to a top-level comment
func (h *CommentHandler) CreateComment(c *gin.Context) {
	type CreateCommentRequest struct {
		TaskID          uint64  `json:"task_id" binding:"required"`
		Message         string  `json:"message"`
		ParentCommentID *uint64 `json:"parent_comment_id"`
	}

	viewer, ok := requireViewer(c)
	if !ok {
		return
	}

	var req CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.commentService.CreateComment(services.CreateCommentInput{
		TaskID:          req.TaskID,
		Message:         req.Message,
		ParentCommentID: req.ParentCommentID,
		Actor:           viewer,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}
