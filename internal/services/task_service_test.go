package services

import (
	"context"
	"testing"
	"time"

	"github.com/nirmaan-tracker/nirmaan-api/internal/dto"
	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
	"github.com/nirmaan-tracker/nirmaan-api/internal/testutil"
	"github.com/stretchr/testify/suite"
)

type TaskServiceTestSuite struct {
	serviceSuite
}

func TestTaskService(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}

func (s *TaskServiceTestSuite) TestCreateTask_AssignsSequentialNumbers() {
	first, err := s.tasks.CreateTask(s.validTaskInput("Pour foundation", s.manager.ID, s.admin))
	s.Require().NoError(err)
	second, err := s.tasks.CreateTask(s.validTaskInput("Order rebar", s.manager.ID, s.admin))
	s.Require().NoError(err)

	s.Equal("TSK-10001", first.TaskNumber)
	s.Equal("TSK-10002", second.TaskNumber)
	s.Equal(s.admin.ID, first.AssignBy)
	s.Equal("ravi Tester", first.Assignee.DisplayName())
	s.Equal([]string{dto.EventTaskCreated, dto.EventTaskCreated}, s.events.names())

	managerNotes, err := s.notices.List(s.manager.ID, false)
	s.Require().NoError(err)
	s.Len(managerNotes, 2)
	s.Equal(models.NotificationTaskAssigned, managerNotes[0].Type)

	adminNotes, err := s.notices.List(s.admin.ID, false)
	s.Require().NoError(err)
	s.Empty(adminNotes)
}

func (s *TaskServiceTestSuite) TestCreateTask_AccumulatesFieldErrors() {
	input := CreateTaskInput{
		Name:      "  ",
		Priority:  models.TaskPriorityLow,
		AssignTo:  s.manager.ID,
		DueDate:   ptr(fixedNow.Add(-48 * time.Hour)),
		RelatedTo: models.TaskRelationProject,
		Actor:     viewerOf(s.admin),
	}

	_, err := s.tasks.CreateTask(input)

	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal(map[string]string{
		"name":         "Task name is required",
		"status":       "Status is required",
		"project_name": "Project name is required when the task relates to a project",
		"due_date":     "Due date cannot be in the past",
	}, verr.Fields)

	var count int64
	s.Require().NoError(s.db.Model(&models.Task{}).Count(&count).Error)
	s.Zero(count)
	s.Empty(s.events.names())
}

func (s *TaskServiceTestSuite) TestCreateTask_RequiredBeatsDateCheck() {
	input := s.validTaskInput("Inspect scaffolding", s.manager.ID, s.admin)
	input.DueDate = nil

	_, err := s.tasks.CreateTask(input)

	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal("Due date is required", verr.Fields["due_date"])
}

func (s *TaskServiceTestSuite) TestCreateTask_LeadRelation() {
	input := s.validTaskInput("Site visit", s.manager.ID, s.admin)
	input.RelatedTo = models.TaskRelationLead
	input.LeadID = ptr(uint64(999))
	input.ProjectName = "ignored"

	_, err := s.tasks.CreateTask(input)
	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal("Lead does not exist", verr.Fields["lead_id"])

	lead := testutil.CreateLead(s.T(), s.db, "Sharma Residence", s.admin.ID)
	input.LeadID = &lead.ID

	task, err := s.tasks.CreateTask(input)
	s.Require().NoError(err)
	s.Equal(lead.ID, *task.LeadID)
	s.Empty(task.ProjectName)
	s.Equal("Sharma Residence", dto.ToTaskDTO(*task).LeadName)
}

func (s *TaskServiceTestSuite) TestCreateTask_DueTodayAllowed() {
	input := s.validTaskInput("Cure slab", s.manager.ID, s.admin)
	input.DueDate = ptr(fixedNow.Add(-2 * time.Hour))

	_, err := s.tasks.CreateTask(input)
	s.NoError(err)
}

func (s *TaskServiceTestSuite) TestCreateTask_DueTodayAllowedWhenServerBehindUTC() {
	pacific := time.FixedZone("PDT", -7*60*60)
	s.tasks.SetClock(func() time.Time { return time.Date(2025, 6, 10, 8, 0, 0, 0, pacific) })

	input := s.validTaskInput("Cure slab", s.manager.ID, s.admin)
	input.DueDate = ptr(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))

	_, err := s.tasks.CreateTask(input)
	s.NoError(err)

	input = s.validTaskInput("Backfill trench", s.manager.ID, s.admin)
	input.DueDate = ptr(time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC))
	_, err = s.tasks.CreateTask(input)

	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal("Due date cannot be in the past", verr.Fields["due_date"])
}

func (s *TaskServiceTestSuite) TestCreateTask_InactiveAssignee() {
	s.Require().NoError(s.db.Model(s.fieldRep).Update("status", models.UserStatusInactive).Error)

	_, err := s.tasks.CreateTask(s.validTaskInput("Collect payment", s.fieldRep.ID, s.admin))

	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal("Assignee is inactive", verr.Fields["assign_to"])
}

func (s *TaskServiceTestSuite) TestUpdateTask_PastDueCheckedOnlyWhenChanged() {
	task := testutil.CreateTask(s.T(), s.db, "Old task", s.manager.ID, s.admin.ID, models.TaskStatusWorking)
	s.Require().NoError(s.db.Model(task).Update("due_date", fixedNow.Add(-72*time.Hour)).Error)

	updated, err := s.tasks.UpdateTask(task.ID, UpdateTaskInput{
		Name:  ptr("Old task, renamed"),
		Actor: viewerOf(s.manager),
	})
	s.Require().NoError(err)
	s.Equal("Old task, renamed", updated.Name)

	_, err = s.tasks.UpdateTask(task.ID, UpdateTaskInput{
		DueDate: ptr(fixedNow.Add(-24 * time.Hour)),
		Actor:   viewerOf(s.manager),
	})
	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal("Due date cannot be in the past", verr.Fields["due_date"])
}

func (s *TaskServiceTestSuite) TestUpdateTask_PermissionAndReassignment() {
	task := testutil.CreateTask(s.T(), s.db, "Tile bathroom", s.manager.ID, s.admin.ID, models.TaskStatusNew)

	_, err := s.tasks.UpdateTask(task.ID, UpdateTaskInput{
		Status: ptr(models.TaskStatusWorking),
		Actor:  viewerOf(s.fieldRep),
	})
	s.ErrorIs(err, ErrTaskPermissionDenied)

	updated, err := s.tasks.UpdateTask(task.ID, UpdateTaskInput{
		AssignTo: &s.fieldRep.ID,
		Actor:    viewerOf(s.admin),
	})
	s.Require().NoError(err)
	s.Equal(s.fieldRep.ID, updated.AssignTo)

	s.Require().Len(s.events.events, 1)
	s.Equal(dto.EventTaskUpdated, s.events.events[0].name)
	s.Equal(s.manager.ID, s.events.events[0].previousAssignTo)

	notes, err := s.notices.List(s.fieldRep.ID, true)
	s.Require().NoError(err)
	s.Require().Len(notes, 1)
	s.Equal(models.NotificationTaskAssigned, notes[0].Type)
}

func (s *TaskServiceTestSuite) TestUpdateTask_NotFound() {
	_, err := s.tasks.UpdateTask(404, UpdateTaskInput{Actor: viewerOf(s.admin)})
	s.ErrorIs(err, ErrTaskNotFound)
}

func (s *TaskServiceTestSuite) TestListTasks_Visibility() {
	testutil.CreateTask(s.T(), s.db, "Admin to manager", s.manager.ID, s.admin.ID, models.TaskStatusNew)
	testutil.CreateTask(s.T(), s.db, "Admin to rep", s.fieldRep.ID, s.admin.ID, models.TaskStatusNew)
	testutil.CreateTask(s.T(), s.db, "Manager to rep", s.fieldRep.ID, s.manager.ID, models.TaskStatusNew)

	names := func(tasks []models.Task) []string {
		out := make([]string, len(tasks))
		for i, t := range tasks {
			out[i] = t.Name
		}
		return out
	}

	managerTasks, total, err := s.tasks.ListTasks(ListTasksInput{
		Viewer: viewerOf(s.manager),
		UserID: &s.admin.ID,
	})
	s.Require().NoError(err)
	s.EqualValues(2, total)
	s.ElementsMatch([]string{"Admin to manager", "Manager to rep"}, names(managerTasks))

	all, total, err := s.tasks.ListTasks(ListTasksInput{Viewer: viewerOf(s.admin)})
	s.Require().NoError(err)
	s.EqualValues(3, total)
	s.Len(all, 3)

	repTasks, _, err := s.tasks.ListTasks(ListTasksInput{
		Viewer: viewerOf(s.admin),
		UserID: &s.fieldRep.ID,
	})
	s.Require().NoError(err)
	s.ElementsMatch([]string{"Admin to rep", "Manager to rep"}, names(repTasks))
}

func (s *TaskServiceTestSuite) TestGetTask_HiddenTaskReadsAsNotFound() {
	task := testutil.CreateTask(s.T(), s.db, "Private", s.manager.ID, s.admin.ID, models.TaskStatusNew)

	_, err := s.tasks.GetTask(task.ID, viewerOf(s.fieldRep))
	s.ErrorIs(err, ErrTaskNotFound)

	got, err := s.tasks.GetTask(task.ID, viewerOf(s.manager))
	s.Require().NoError(err)
	s.Equal("admin Tester", got.Assigner.DisplayName())
}

func (s *TaskServiceTestSuite) TestDeleteTask_Guarded() {
	task := testutil.CreateTask(s.T(), s.db, "Paint walls", s.manager.ID, s.admin.ID, models.TaskStatusOnHold)

	s.ErrorIs(s.tasks.DeleteTask(task.ID, viewerOf(s.manager)), ErrAdminRequired)

	err := s.tasks.DeleteTask(task.ID, viewerOf(s.admin))
	var dep *DependencyError
	s.Require().ErrorAs(err, &dep)
	s.Require().Len(dep.Blocking, 1)
	s.Equal(RelationSelf, dep.Blocking[0].Relation)
	s.Equal("ravi Tester", dep.Blocking[0].CounterpartName)

	s.Require().NoError(s.db.Model(task).Update("status", models.TaskStatusCancelled).Error)
	s.Require().NoError(s.tasks.DeleteTask(task.ID, viewerOf(s.admin)))

	_, err = s.tasks.GetTask(task.ID, viewerOf(s.admin))
	s.ErrorIs(err, ErrTaskNotFound)
	s.Equal([]string{dto.EventTaskDeleted}, s.events.names())

	notes, err := s.notices.List(s.manager.ID, false)
	s.Require().NoError(err)
	s.Require().Len(notes, 1)
	s.Equal(models.NotificationTaskDeleted, notes[0].Type)
	s.Nil(notes[0].TaskID)
}

func (s *TaskServiceTestSuite) TestNextNumber_DoesNotReserve() {
	n, err := s.tasks.NextNumber()
	s.Require().NoError(err)
	s.Equal("TSK-10001", n)

	n, err = s.tasks.NextNumber()
	s.Require().NoError(err)
	s.Equal("TSK-10001", n)

	_, err = s.tasks.CreateTask(s.validTaskInput("Pour foundation", s.manager.ID, s.admin))
	s.Require().NoError(err)

	n, err = s.tasks.NextNumber()
	s.Require().NoError(err)
	s.Equal("TSK-10002", n)
}

func (s *TaskServiceTestSuite) TestGenerateTasks_NotConfigured() {
	_, err := s.tasks.GenerateTasks(context.Background(), GenerateTasksInput{Text: "notes"})
	s.ErrorIs(err, ErrAIServiceNotConfigured)
}

// A user who is a party to a pending task cannot be deleted until the task is finished.
func (s *TaskServiceTestSuite) TestScenario_UserDeleteBlockedByPendingTask() {
	s.Require().EqualValues(3, s.fieldRep.ID)

	task, err := s.tasks.CreateTask(s.validTaskInput("Pour foundation", s.fieldRep.ID, s.admin))
	s.Require().NoError(err)
	s.Equal("TSK-10001", task.TaskNumber)

	err = s.users.DeleteUser(3, viewerOf(s.admin))
	var dep *DependencyError
	s.Require().ErrorAs(err, &dep)
	s.Require().Len(dep.Blocking, 1)
	s.Equal("Pour foundation", dep.Blocking[0].TaskName)
	s.Equal(RelationAssignedTo, dep.Blocking[0].Relation)
	s.Equal("admin Tester", dep.Blocking[0].CounterpartName)
	s.Contains(dep.Error(), `"Pour foundation" assigned by admin Tester`)

	_, err = s.tasks.UpdateTask(task.ID, UpdateTaskInput{
		Status: ptr(models.TaskStatusCompleted),
		Actor:  viewerOf(s.fieldRep),
	})
	s.Require().NoError(err)

	s.NoError(s.users.DeleteUser(3, viewerOf(s.admin)))
}
