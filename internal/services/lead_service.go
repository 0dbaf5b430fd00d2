package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nirmaan-tracker/nirmaan-api/internal/access"
	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
	"github.com/nirmaan-tracker/nirmaan-api/internal/repository"
	"gorm.io/gorm"
)

var ErrLeadNotFound = errors.New("lead not found")

// LeadService manages sales leads
type LeadService struct {
	leadRepo repository.LeadRepository
	taskRepo repository.TaskRepository
}

// NewLeadService creates a new LeadService
func NewLeadService(leadRepo repository.LeadRepository, taskRepo repository.TaskRepository) *LeadService {
	return &LeadService{leadRepo: leadRepo, taskRepo: taskRepo}
}

// LeadInput represents lead fields; nil pointers are left unchanged on update
type LeadInput struct {
	Name    *string
	Phone   *string
	Email   *string
	Address *string
	Source  *string
	Status  *models.LeadStatus
	Notes   *string
	Actor   access.Viewer
}

// ListLeads lists leads with pagination
func (s *LeadService) ListLeads(filter repository.LeadFilter) ([]models.Lead, int64, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	leads, total, err := s.leadRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, total, nil
}

// GetLead returns one lead
func (s *LeadService) GetLead(id uint64) (*models.Lead, error) {
	return s.findLead(id)
}

// CreateLead stores a new lead owned by the actor
func (s *LeadService) CreateLead(input LeadInput) (*models.Lead, error) {
	lead := &models.Lead{
		Status:    models.LeadStatusNew,
		CreatedBy: input.Actor.UserID,
	}
	applyLeadInput(lead, input)

	if err := validateLead(lead); err != nil {
		return nil, err
	}
	if err := s.leadRepo.Create(lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}
	return lead, nil
}

// UpdateLead applies a partial edit
func (s *LeadService) UpdateLead(id uint64, input LeadInput) (*models.Lead, error) {
	lead, err := s.findLead(id)
	if err != nil {
		return nil, err
	}
	applyLeadInput(lead, input)

	if err := validateLead(lead); err != nil {
		return nil, err
	}
	if err := s.leadRepo.Update(lead); err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}
	return lead, nil
}

// DeleteLead hard deletes a lead. Admin only; leads with pending tasks are refused.
func (s *LeadService) DeleteLead(id uint64, actor access.Viewer) error {
	if !actor.IsAdmin() {
		return ErrAdminRequired
	}

	lead, err := s.findLead(id)
	if err != nil {
		return err
	}

	tasks, err := s.taskRepo.FindPendingByLead(lead.ID)
	if err != nil {
		return fmt.Errorf("failed to check pending tasks: %w", err)
	}
	if dep := LeadGuard(lead.ID, tasks); dep != nil {
		return dep
	}

	if err := s.leadRepo.Delete(lead.ID); err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	return nil
}

func (s *LeadService) findLead(id uint64) (*models.Lead, error) {
	lead, err := s.leadRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to find lead: %w", err)
	}
	return lead, nil
}

func applyLeadInput(lead *models.Lead, input LeadInput) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&lead.Name, input.Name)
	set(&lead.Phone, input.Phone)
	set(&lead.Email, input.Email)
	set(&lead.Address, input.Address)
	set(&lead.Source, input.Source)
	set(&lead.Notes, input.Notes)
	if input.Status != nil {
		lead.Status = *input.Status
	}
	lead.Email = strings.ToLower(lead.Email)
}

func validateLead(lead *models.Lead) error {
	errs := fieldErrors{}
	if lead.Name == "" {
		errs.add("name", "Lead name is required")
	}
	if !lead.Status.Valid() {
		errs.add("status", fmt.Sprintf("Unknown status %q", lead.Status))
	}
	if lead.Email != "" && !validEmail(lead.Email) {
		errs.add("email", "Email is not a valid address")
	}
	return errs.err()
}
