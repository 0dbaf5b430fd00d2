// Package testutil provides in-memory databases and fixtures for tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/nirmaan-tracker/nirmaan-api/internal/database"
	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite database. A single connection keeps
// every query on the same in-memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig(logger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser inserts an active user with the given username and role.
func CreateUser(t *testing.T, db *gorm.DB, username string, role models.UserRole) *models.User {
	t.Helper()

	user := &models.User{
		FirstName:    username,
		LastName:     "Tester",
		Email:        fmt.Sprintf("%s@example.com", username),
		Username:     username,
		Role:         role,
		Status:       models.UserStatusActive,
		PasswordHash: "hashedpassword",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateLead inserts a lead.
func CreateLead(t *testing.T, db *gorm.DB, name string, createdBy uint64) *models.Lead {
	t.Helper()

	lead := &models.Lead{
		Name:      name,
		Phone:     "9800000000",
		Status:    models.LeadStatusNew,
		CreatedBy: createdBy,
	}
	require.NoError(t, db.Create(lead).Error)
	return lead
}

// CreateTask inserts a task directly, bypassing numbering and validation.
func CreateTask(t *testing.T, db *gorm.DB, name string, assignTo, assignBy uint64, status models.TaskStatus) *models.Task {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.Task{}).Count(&count).Error)

	task := &models.Task{
		TaskNumber: fmt.Sprintf("FIX-%d", count+1),
		Name:       name,
		Status:     status,
		Priority:   models.TaskPriorityMedium,
		AssignTo:   assignTo,
		AssignBy:   assignBy,
		DueDate:    time.Now().Add(48 * time.Hour),
	}
	require.NoError(t, db.Omit("Assignee", "Assigner", "Lead").Create(task).Error)
	return task
}
