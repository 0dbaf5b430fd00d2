package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nirmaan-tracker/nirmaan-api/internal/access"
	"github.com/nirmaan-tracker/nirmaan-api/internal/constants"
	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
	"github.com/nirmaan-tracker/nirmaan-api/internal/repository"
	"github.com/nirmaan-tracker/nirmaan-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrUserExists             = errors.New("a user with this email or username already exists")
	ErrCannotDeleteSelf       = errors.New("you cannot delete your own account")
	ErrCannotDeactivateSelf   = errors.New("you cannot deactivate your own account")
	ErrUserManagerRequired    = errors.New("only admin or HR can manage users")
	ErrFailedToHashPassword   = errors.New("failed to hash password")
	ErrFailedToCreatePassword = errors.New("failed to generate temporary password")
)

// UserService manages staff accounts
type UserService struct {
	userRepo repository.UserRepository
	taskRepo repository.TaskRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository, taskRepo repository.TaskRepository) *UserService {
	return &UserService{userRepo: userRepo, taskRepo: taskRepo}
}

// CreateUserInput represents a new staff account. An empty password generates a temporary one.
type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Username  string
	Phone     string
	Role      models.UserRole
	Password  string
	Actor     access.Viewer
}

// UpdateUserInput represents a partial account edit
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Username  *string
	Phone     *string
	Role      *models.UserRole
	Status    *models.UserStatus
	Password  *string
	Actor     access.Viewer
}

// ListUsers lists accounts matching the filter
func (s *UserService) ListUsers(filter repository.UserFilter) ([]models.User, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	users, err := s.userRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetUser returns one account
func (s *UserService) GetUser(id uint64) (*models.User, error) {
	return s.findUser(id)
}

// CreateUser stores a new account and returns it with the plain password when one was generated
func (s *UserService) CreateUser(input CreateUserInput) (*models.User, string, error) {
	if !canManageUsers(input.Actor) {
		return nil, "", ErrUserManagerRequired
	}

	user := &models.User{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Username:     strings.TrimSpace(input.Username),
		Phone:        strings.TrimSpace(input.Phone),
		Role:         input.Role,
		Status:       models.UserStatusActive,
		TempPassword: true,
	}

	errs := validateUserFields(user)
	if input.Password != "" && len(input.Password) < constants.MinPasswordLength {
		errs.add("password", fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	}
	if err := errs.err(); err != nil {
		return nil, "", err
	}

	if err := s.ensureUnique(user.Email, user.Username, 0); err != nil {
		return nil, "", err
	}

	var generated string
	password := input.Password
	if password == "" {
		var err error
		generated, err = utils.GenerateTempPassword(constants.TempPasswordLength)
		if err != nil {
			return nil, "", ErrFailedToCreatePassword
		}
		password = generated
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", ErrFailedToHashPassword
	}
	user.PasswordHash = string(hash)

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", ErrUserExists
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	return user, generated, nil
}

// UpdateUser applies a partial edit. Deactivation runs the pending task guard.
func (s *UserService) UpdateUser(id uint64, input UpdateUserInput) (*models.User, error) {
	if !canManageUsers(input.Actor) {
		return nil, ErrUserManagerRequired
	}

	user, err := s.findUser(id)
	if err != nil {
		return nil, err
	}
	wasActive := user.Status == models.UserStatusActive

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.Username != nil {
		user.Username = strings.TrimSpace(*input.Username)
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.Status != nil {
		user.Status = *input.Status
	}

	errs := validateUserFields(user)
	if !user.Status.Valid() {
		errs.add("status", fmt.Sprintf("Unknown status %q", user.Status))
	}
	if input.Password != nil && len(*input.Password) < constants.MinPasswordLength {
		errs.add("password", fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	if err := s.ensureUnique(user.Email, user.Username, user.ID); err != nil {
		return nil, err
	}

	if wasActive && user.Status == models.UserStatusInactive {
		if user.ID == input.Actor.UserID {
			return nil, ErrCannotDeactivateSelf
		}
		if err := s.guard(user.ID); err != nil {
			return nil, err
		}
	}

	if input.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, ErrFailedToHashPassword
		}
		user.PasswordHash = string(hash)
		user.TempPassword = true
	}

	if err := s.userRepo.Update(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// DeleteUser hard deletes an account. Admin only; self and users with pending tasks are refused.
func (s *UserService) DeleteUser(id uint64, actor access.Viewer) error {
	if !actor.IsAdmin() {
		return ErrAdminRequired
	}
	if id == actor.UserID {
		return ErrCannotDeleteSelf
	}

	user, err := s.findUser(id)
	if err != nil {
		return err
	}
	if err := s.guard(user.ID); err != nil {
		return err
	}

	if err := s.userRepo.Delete(user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *UserService) guard(userID uint64) error {
	tasks, err := s.taskRepo.FindPendingByUser(userID)
	if err != nil {
		return fmt.Errorf("failed to check pending tasks: %w", err)
	}
	if dep := UserGuard(userID, tasks); dep != nil {
		return dep
	}
	return nil
}

func (s *UserService) ensureUnique(email, username string, excludeID uint64) error {
	exists, err := s.userRepo.ExistsByEmailOrUsername(email, username, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check existing users: %w", err)
	}
	if exists {
		return ErrUserExists
	}
	return nil
}

func (s *UserService) findUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func validateUserFields(user *models.User) fieldErrors {
	errs := fieldErrors{}
	if user.FirstName == "" {
		errs.add("first_name", "First name is required")
	}
	if user.Username == "" {
		errs.add("username", "Username is required")
	}
	if user.Email == "" {
		errs.add("email", "Email is required")
	} else if !validEmail(user.Email) {
		errs.add("email", "Email is not a valid address")
	}
	if user.Role == "" {
		errs.add("role", "Role is required")
	} else if !user.Role.Valid() {
		errs.add("role", fmt.Sprintf("Unknown role %q", user.Role))
	}
	return errs
}

func canManageUsers(v access.Viewer) bool {
	return access.HasRole(v, models.RoleAdmin, models.RoleHR)
}
