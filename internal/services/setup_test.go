package services

import (
	"sync"
	"time"

	"github.com/nirmaan-tracker/nirmaan-api/internal/access"
	"github.com/nirmaan-tracker/nirmaan-api/internal/dto"
	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
	"github.com/nirmaan-tracker/nirmaan-api/internal/repository"
	"github.com/nirmaan-tracker/nirmaan-api/internal/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)

type recordedEvent struct {
	name             string
	task             dto.TaskDTO
	comment          dto.CommentDTO
	previousAssignTo uint64
}

// recordingPublisher keeps every event for assertions
type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) add(e recordedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) TaskCreated(t dto.TaskDTO) {
	p.add(recordedEvent{name: dto.EventTaskCreated, task: t})
}

func (p *recordingPublisher) TaskUpdated(t dto.TaskDTO, prev uint64) {
	p.add(recordedEvent{name: dto.EventTaskUpdated, task: t, previousAssignTo: prev})
}

func (p *recordingPublisher) TaskDeleted(t dto.TaskDTO) {
	p.add(recordedEvent{name: dto.EventTaskDeleted, task: t})
}

func (p *recordingPublisher) CommentCreated(c dto.CommentDTO) {
	p.add(recordedEvent{name: dto.EventNewComment, comment: c})
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, len(p.events))
	for i, e := range p.events {
		names[i] = e.name
	}
	return names
}

// serviceSuite wires every service against an in-memory database
type serviceSuite struct {
	suite.Suite
	db       *gorm.DB
	events   *recordingPublisher
	tasks    *TaskService
	comments *CommentService
	users    *UserService
	leads    *LeadService
	notices  *NotificationService
	taskRepo repository.TaskRepository
	admin    *models.User
	manager  *models.User
	fieldRep *models.User
}

func (s *serviceSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.events = &recordingPublisher{}

	taskRepo := repository.NewTaskRepository(s.db)
	userRepo := repository.NewUserRepository(s.db)
	leadRepo := repository.NewLeadRepository(s.db)
	commentRepo := repository.NewCommentRepository(s.db)
	notificationRepo := repository.NewNotificationRepository(s.db)

	logger := zap.NewNop()
	s.taskRepo = taskRepo
	s.notices = NewNotificationService(notificationRepo, logger)
	s.tasks = NewTaskService(taskRepo, userRepo, leadRepo, s.notices, s.events, nil, logger)
	s.tasks.SetClock(func() time.Time { return fixedNow })
	s.comments = NewCommentService(commentRepo, taskRepo, s.notices, s.events)
	s.users = NewUserService(userRepo, taskRepo)
	s.leads = NewLeadService(leadRepo, taskRepo)

	s.admin = testutil.CreateUser(s.T(), s.db, "admin", models.RoleAdmin)
	s.manager = testutil.CreateUser(s.T(), s.db, "ravi", models.RoleSiteManager)
	s.fieldRep = testutil.CreateUser(s.T(), s.db, "meena", models.RoleFieldRep)
}

func viewerOf(u *models.User) access.Viewer {
	return access.Viewer{UserID: u.ID, Role: u.Role}
}

func ptr[T any](v T) *T {
	return &v
}

// validTaskInput returns a create request that passes validation
func (s *serviceSuite) validTaskInput(name string, assignTo uint64, actor *models.User) CreateTaskInput {
	return CreateTaskInput{
		Name:     name,
		Status:   models.TaskStatusNew,
		Priority: models.TaskPriorityHigh,
		AssignTo: assignTo,
		DueDate:  ptr(fixedNow.Add(72 * time.Hour)),
		Actor:    viewerOf(actor),
	}
}
