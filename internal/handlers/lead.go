package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/nirmaan-tracker/nirmaan-api/internal/errors"
	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
	"github.com/nirmaan-tracker/nirmaan-api/internal/repository"
	"github.com/nirmaan-tracker/nirmaan-api/internal/services"
	"github.com/nirmaan-tracker/nirmaan-api/internal/utils"
	"go.uber.org/zap"
)

type LeadHandler struct {
	leadService *services.LeadService
	logger      *zap.Logger
}

func NewLeadHandler(leadService *services.LeadService, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
		logger:      logger,
	}
}

type leadRequest struct {
	Name    *string            `json:"name"`
	Phone   *string            `json:"phone"`
	Email   *string            `json:"email"`
	Address *string            `json:"address"`
	Source  *string            `json:"source"`
	Status  *models.LeadStatus `json:"status"`
	Notes   *string            `json:"notes"`
}

func (r leadRequest) input() services.LeadInput {
	return services.LeadInput{
		Name:    r.Name,
		Phone:   r.Phone,
		Email:   r.Email,
		Address: r.Address,
		Source:  r.Source,
		Status:  r.Status,
		Notes:   r.Notes,
	}
}

// ListLeads returns a page of leads, optionally filtered by status and q
func (h *LeadHandler) ListLeads(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	filter := repository.LeadFilter{
		Search:   c.Query("q"),
		Page:     params.Page,
		PageSize: params.Limit,
	}
	if raw := c.Query("status"); raw != "" {
		status := models.LeadStatus(raw)
		if !status.Valid() {
			apierrors.BadRequest(c, "Invalid status")
			return
		}
		filter.Status = &status
	}

	leads, total, err := h.leadService.ListLeads(filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leads": leads,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

func (h *LeadHandler) GetLead(c *gin.Context) {
	id, ok := paramID(c, "id", "lead")
	if !ok {
		return
	}

	lead, err := h.leadService.GetLead(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, lead)
}

func (h *LeadHandler) CreateLead(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}

	var req leadRequest
	if !bindJSON(c, &req) {
		return
	}
	input := req.input()
	input.Actor = viewer

	lead, err := h.leadService.CreateLead(input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, lead)
}

func (h *LeadHandler) UpdateLead(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "lead")
	if !ok {
		return
	}

	var req leadRequest
	if !bindJSON(c, &req) {
		return
	}
	input := req.input()
	input.Actor = viewer

	lead, err := h.leadService.UpdateLead(id, input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, lead)
}

// DeleteLead removes a lead no pending task refers to. Admin only.
func (h *LeadHandler) DeleteLead(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "lead")
	if !ok {
		return
	}

	if err := h.leadService.DeleteLead(id, viewer); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Lead deleted successfully",
	})
}
