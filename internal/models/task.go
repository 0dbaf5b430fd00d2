package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusNew       TaskStatus = "New"
	TaskStatusWorking   TaskStatus = "Working"
	TaskStatusCompleted TaskStatus = "Completed"
	TaskStatusOnHold    TaskStatus = "On Hold"
	TaskStatusCancelled TaskStatus = "Cancelled"
)

// TaskStatuses lists every task status.
var TaskStatuses = []TaskStatus{
	TaskStatusNew,
	TaskStatusWorking,
	TaskStatusCompleted,
	TaskStatusOnHold,
	TaskStatusCancelled,
}

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	for _, status := range TaskStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Terminal reports whether s no longer blocks dependency guards.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

// PendingTaskStatuses are the statuses that block deletion of referenced records.
func PendingTaskStatuses() []TaskStatus {
	pending := make([]TaskStatus, 0, len(TaskStatuses))
	for _, s := range TaskStatuses {
		if !s.Terminal() {
			pending = append(pending, s)
		}
	}
	return pending
}

type TaskPriority string

const (
	TaskPriorityHigh   TaskPriority = "High"
	TaskPriorityMedium TaskPriority = "Medium"
	TaskPriorityLow    TaskPriority = "Low"
)

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	return p == TaskPriorityHigh || p == TaskPriorityMedium || p == TaskPriorityLow
}

type TaskRelation string

const (
	TaskRelationNone    TaskRelation = ""
	TaskRelationProject TaskRelation = "Project"
	TaskRelationLead    TaskRelation = "Lead"
)

// Valid reports whether r is a known relation.
func (r TaskRelation) Valid() bool {
	return r == TaskRelationNone || r == TaskRelationProject || r == TaskRelationLead
}

type Task struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	TaskNumber  string       `gorm:"type:varchar(20);uniqueIndex;not null" json:"task_number"`
	Name        string       `gorm:"type:varchar(255);not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;default:'New';index" json:"status"`
	Priority    TaskPriority `gorm:"type:varchar(10);not null" json:"priority"`
	AssignTo    uint64       `gorm:"not null;index" json:"assign_to"`
	AssignBy    uint64       `gorm:"not null;index" json:"assign_by"`
	DueDate     time.Time    `gorm:"not null" json:"due_date"`
	RelatedTo   TaskRelation `gorm:"type:varchar(20)" json:"related_to"`
	ProjectName string       `gorm:"type:varchar(255)" json:"project_name"`
	LeadID      *uint64      `gorm:"index" json:"lead_id"`
	CreatedAt   time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Relations
	Assignee User  `gorm:"foreignKey:AssignTo" json:"-"`
	Assigner User  `gorm:"foreignKey:AssignBy" json:"-"`
	Lead     *Lead `gorm:"foreignKey:LeadID" json:"-"`
}
