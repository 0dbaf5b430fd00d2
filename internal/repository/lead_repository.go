package repository

import (
	"strings"

	"github.com/nirmaan-tracker/nirmaan-api/internal/database"
	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
	"github.com/nirmaan-tracker/nirmaan-api/internal/utils"
	"gorm.io/gorm"
)

// GormLeadRepository is a GORM implementation of LeadRepository
type GormLeadRepository struct {
	db *gorm.DB
}

// NewLeadRepository creates a new LeadRepository
func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &GormLeadRepository{db: db}
}

// Create creates a new lead
func (r *GormLeadRepository) Create(lead *models.Lead) error {
	return r.db.Create(lead).Error
}

// FindByID finds a lead by ID
func (r *GormLeadRepository) FindByID(id uint64) (*models.Lead, error) {
	var lead models.Lead
	if err := r.db.First(&lead, id).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

// List retrieves leads newest first with filtering and pagination
func (r *GormLeadRepository) List(filter LeadFilter) ([]models.Lead, int64, error) {
	var leads []models.Lead
	query := r.db.Model(&models.Lead{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + s + "%"
		query = query.Where("(name LIKE ? OR phone LIKE ? OR email LIKE ?)", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("created_at DESC").Order("id DESC").
		Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))

	if err := listQuery.Find(&leads).Error; err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

// Update updates a lead
func (r *GormLeadRepository) Update(lead *models.Lead) error {
	return r.db.Save(lead).Error
}

// Delete hard deletes a lead
func (r *GormLeadRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Lead{}, id).Error
}
