package services

import (
	"errors"
	"fmt"

	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
	"github.com/nirmaan-tracker/nirmaan-api/internal/repository"
	"go.uber.org/zap"
)

var ErrNotificationNotFound = errors.New("notification not found")

const defaultNotificationLimit = 50

// NotificationService stores and serves in-app notifications
type NotificationService struct {
	repo   repository.NotificationRepository
	logger *zap.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(repo repository.NotificationRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, logger: logger}
}

// Notify stores notifications for every recipient except the actor.
// Failures are logged and never fail the mutation that caused them.
func (s *NotificationService) Notify(actorID uint64, notifications ...models.Notification) {
	seen := make(map[uint64]struct{}, len(notifications))
	batch := make([]models.Notification, 0, len(notifications))
	for _, n := range notifications {
		if n.UserID == 0 || n.UserID == actorID {
			continue
		}
		if _, dup := seen[n.UserID]; dup {
			continue
		}
		seen[n.UserID] = struct{}{}
		batch = append(batch, n)
	}

	if err := s.repo.CreateBatch(batch); err != nil {
		s.logger.Warn("failed to store notifications", zap.Int("count", len(batch)), zap.Error(err))
	}
}

// List returns a user's notifications, newest first
func (s *NotificationService) List(userID uint64, unreadOnly bool) ([]models.Notification, error) {
	items, err := s.repo.ListByUser(userID, unreadOnly, defaultNotificationLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, nil
}

// UnreadCount counts a user's unread notifications
func (s *NotificationService) UnreadCount(userID uint64) (int64, error) {
	count, err := s.repo.CountUnread(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one of the user's notifications read
func (s *NotificationService) MarkRead(id, userID uint64) error {
	found, err := s.repo.MarkRead(id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if !found {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks every notification of the user read
func (s *NotificationService) MarkAllRead(userID uint64) (int64, error) {
	n, err := s.repo.MarkAllRead(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}
