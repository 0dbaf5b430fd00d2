package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nirmaan-tracker/nirmaan-api/internal/constants"
	"github.com/nirmaan-tracker/nirmaan-api/internal/database"
	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
	"github.com/nirmaan-tracker/nirmaan-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskPreloads are the relations needed to render a task with names.
var TaskPreloads = []string{"Assignee", "Assigner", "Lead"}

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// FormatTaskNumber renders a sequence value as a display number
func FormatTaskNumber(n uint64) string {
	return fmt.Sprintf("%s%d", constants.TaskNumberPrefix, n)
}

// CreateWithNumber allocates the next task number and inserts the task.
// The sequence row stays locked by the UPDATE until commit, so concurrent
// creates are serialized; a duplicate number (first-row race) is retried.
func (r *GormTaskRepository) CreateWithNumber(task *models.Task) error {
	var err error
	for attempt := 0; attempt < constants.TaskNumberRetries; attempt++ {
		err = r.db.Transaction(func(tx *gorm.DB) error {
			n, err := nextSequenceValue(tx, models.SequenceTask, constants.TaskNumberStart)
			if err != nil {
				return err
			}
			task.TaskNumber = FormatTaskNumber(n)
			return tx.Omit(clause.Associations).Create(task).Error
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		task.ID = 0
	}
	return fmt.Errorf("task number allocation failed after %d attempts: %w", constants.TaskNumberRetries, err)
}

// nextSequenceValue increments a named counter and returns the new value.
func nextSequenceValue(tx *gorm.DB, name string, start uint64) (uint64, error) {
	res := tx.Model(&models.Sequence{}).
		Where("name = ?", name).
		UpdateColumn("value", gorm.Expr("value + ?", 1))
	if res.Error != nil {
		return 0, res.Error
	}

	if res.RowsAffected == 0 {
		seq := models.Sequence{Name: name, Value: start}
		if err := tx.Create(&seq).Error; err != nil {
			return 0, err
		}
		return seq.Value, nil
	}

	var seq models.Sequence
	if err := tx.Where("name = ?", name).Take(&seq).Error; err != nil {
		return 0, err
	}
	return seq.Value, nil
}

// PeekNextNumber returns the number the next create would receive
func (r *GormTaskRepository) PeekNextNumber() (uint64, error) {
	var seq models.Sequence
	err := r.db.Where("name = ?", models.SequenceTask).Take(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return constants.TaskNumberStart, nil
	}
	if err != nil {
		return 0, err
	}
	return seq.Value + 1, nil
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	// Apply preloading if specified
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{})

	// Apply filters
	if filter.ParticipantID != nil {
		query = query.Where("(tasks.assign_to = ? OR tasks.assign_by = ?)", *filter.ParticipantID, *filter.ParticipantID)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.RelatedTo != nil {
		query = query.Where("tasks.related_to = ?", *filter.RelatedTo)
	}
	if filter.LeadID != nil {
		query = query.Where("tasks.lead_id = ?", *filter.LeadID)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + s + "%"
		query = query.Where("(tasks.name LIKE ? OR tasks.task_number LIKE ?)", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("tasks.created_at DESC").Order("tasks.id DESC").
		Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))

	for _, p := range TaskPreloads {
		listQuery = listQuery.Preload(p)
	}

	if err := listQuery.Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update updates a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Omit(clause.Associations).Save(task).Error
}

// Delete hard deletes a task and its comments, detaching notifications
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Notification{}).
			Where("task_id = ?", id).
			Update("task_id", nil).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// FindPendingByUser lists non-terminal tasks where the user is either party
func (r *GormTaskRepository) FindPendingByUser(userID uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.Preload("Assignee").Preload("Assigner").
		Where("(assign_to = ? OR assign_by = ?)", userID, userID).
		Where("status IN ?", models.PendingTaskStatuses()).
		Order("id ASC").
		Find(&tasks).Error
	return tasks, err
}

// FindPendingByLead lists non-terminal tasks related to a lead
func (r *GormTaskRepository) FindPendingByLead(leadID uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.Preload("Assignee").Preload("Assigner").
		Where("related_to = ? AND lead_id = ?", models.TaskRelationLead, leadID).
		Where("status IN ?", models.PendingTaskStatuses()).
		Order("id ASC").
		Find(&tasks).Error
	return tasks, err
}
