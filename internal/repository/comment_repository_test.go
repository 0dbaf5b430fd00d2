package repository

import (
	"testing"
	"time"

	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
	"github.com/nirmaan-tracker/nirmaan-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListByTask_OrderedByCreatedAtRegardlessOfInsertOrder(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCommentRepository(db)

	user := testutil.CreateUser(t, db, "rep", models.RoleFieldRep)
	task := testutil.CreateTask(t, db, "Pour foundation", user.ID, user.ID, models.TaskStatusNew)
	otherTask := testutil.CreateTask(t, db, "Other", user.ID, user.ID, models.TaskStatusNew)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for _, offset := range []int{3, 1, 2, 0} {
		require.NoError(t, repo.Create(&models.Comment{
			TaskID:    task.ID,
			UserID:    user.ID,
			Message:   "m",
			CreatedAt: base.Add(time.Duration(offset) * time.Minute),
		}))
	}
	require.NoError(t, repo.Create(&models.Comment{TaskID: otherTask.ID, UserID: user.ID, Message: "elsewhere"}))

	comments, err := repo.ListByTask(task.ID)
	require.NoError(t, err)
	require.Len(t, comments, 4)
	for i := 1; i < len(comments); i++ {
		assert.False(t, comments[i].CreatedAt.Before(comments[i-1].CreatedAt))
	}
	assert.Equal(t, user.ID, comments[0].Author.ID)
}
