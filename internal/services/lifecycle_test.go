package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition_AllowsEveryMove(t *testing.T) {
	for _, from := range models.TaskStatuses {
		for _, to := range models.TaskStatuses {
			assert.True(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, CanTransition(models.TaskStatusNew, "Archived"))
}

func guardTask(id uint64, name string, status models.TaskStatus, assignTo, assignBy models.User) models.Task {
	return models.Task{
		ID:         id,
		TaskNumber: fmt.Sprintf("TSK-%d", 10000+id),
		Name:       name,
		Status:     status,
		AssignTo:   assignTo.ID,
		AssignBy:   assignBy.ID,
		Assignee:   assignTo,
		Assigner:   assignBy,
	}
}

func TestUserGuard(t *testing.T) {
	asha := models.User{ID: 1, FirstName: "Asha", LastName: "Rao"}
	vikram := models.User{ID: 2, FirstName: "Vikram"}
	other := models.User{ID: 3, FirstName: "Om"}

	tasks := []models.Task{
		guardTask(1, "Pour foundation", models.TaskStatusNew, vikram, asha),
		guardTask(2, "Order cement", models.TaskStatusWorking, asha, vikram),
		guardTask(3, "Old survey", models.TaskStatusCompleted, vikram, asha),
		guardTask(4, "Unrelated", models.TaskStatusNew, other, asha),
	}

	dep := UserGuard(vikram.ID, tasks)
	require.NotNil(t, dep)
	require.Len(t, dep.Blocking, 2)

	assert.Equal(t, RelationAssignedTo, dep.Blocking[0].Relation)
	assert.Equal(t, "Asha Rao", dep.Blocking[0].CounterpartName)
	assert.Equal(t, `"Pour foundation" assigned by Asha Rao`, dep.Blocking[0].Summary)

	assert.Equal(t, RelationAssignedBy, dep.Blocking[1].Relation)
	assert.Equal(t, `"Order cement" assigned to Asha Rao`, dep.Blocking[1].Summary)
	assert.Contains(t, dep.Error(), "user 2 has 2 pending task(s)")

	assert.Nil(t, UserGuard(vikram.ID, tasks[2:3]))
}

func TestTaskGuard(t *testing.T) {
	asha := models.User{ID: 1, FirstName: "Asha"}
	task := guardTask(1, "Fix leak", models.TaskStatusOnHold, asha, asha)

	dep := TaskGuard(task)
	require.NotNil(t, dep)
	assert.Equal(t, RelationSelf, dep.Blocking[0].Relation)

	task.Status = models.TaskStatusCancelled
	assert.Nil(t, TaskGuard(task))
}

func TestLeadGuard_FallsBackToUserID(t *testing.T) {
	leadID := uint64(9)
	task := models.Task{ID: 5, Name: "Quote", Status: models.TaskStatusNew, AssignTo: 42, LeadID: &leadID}

	dep := LeadGuard(leadID, []models.Task{task})
	require.NotNil(t, dep)
	assert.Equal(t, "user #42", dep.Blocking[0].CounterpartName)

	assert.Nil(t, LeadGuard(10, []models.Task{task}))
}

func TestDueDateInPast_DayGranularity(t *testing.T) {
	assert.False(t, dueDateInPast(fixedNow.Add(-9*time.Hour), fixedNow))
	assert.True(t, dueDateInPast(fixedNow.Add(-11*time.Hour), fixedNow))
	assert.False(t, dueDateInPast(fixedNow.AddDate(0, 0, 1), fixedNow))
}

func TestDueDateInPast_ServerBehindUTC(t *testing.T) {
	pacific := time.FixedZone("PDT", -7*60*60)
	now := time.Date(2025, 6, 10, 17, 30, 0, 0, pacific)

	// "2025-06-10" parses to UTC midnight
	assert.False(t, dueDateInPast(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), now))
	assert.True(t, dueDateInPast(time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), now))
	assert.True(t, sameDay(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), now))
}

func TestParseGeneratedTasks_ToleratesCodeFence(t *testing.T) {
	tasks, err := parseGeneratedTasks("```json\n[{\"name\":\"Check shuttering\",\"priority\":\"High\",\"due_date\":null}]\n```")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Check shuttering", tasks[0].Name)
	assert.Equal(t, models.TaskPriorityHigh, tasks[0].Priority)
	assert.Nil(t, tasks[0].DueDate)

	_, err = parseGeneratedTasks("not json")
	assert.Error(t, err)
}
