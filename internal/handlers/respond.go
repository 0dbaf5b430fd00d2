package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nirmaan-tracker/nirmaan-api/internal/access"
	"github.com/nirmaan-tracker/nirmaan-api/internal/constants"
	apierrors "github.com/nirmaan-tracker/nirmaan-api/internal/errors"
	"github.com/nirmaan-tracker/nirmaan-api/internal/middleware"
	"github.com/nirmaan-tracker/nirmaan-api/internal/services"
	"go.uber.org/zap"
)

var (
	notFoundErrors = []error{
		services.ErrTaskNotFound,
		services.ErrUserNotFound,
		services.ErrLeadNotFound,
		services.ErrNotificationNotFound,
	}
	forbiddenErrors = []error{
		services.ErrAdminRequired,
		services.ErrUserManagerRequired,
		services.ErrTaskPermissionDenied,
	}
	invalidOperationErrors = []error{
		services.ErrCannotDeleteSelf,
		services.ErrCannotDeactivateSelf,
		services.ErrAINoTasksGenerated,
		services.ErrAINoValidTasks,
	}
)

// matchSentinel returns the first target err wraps, or nil.
func matchSentinel(err error, targets []error) error {
	for _, target := range targets {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}

// respondError maps service errors onto API errors. Sentinel messages are
// answered without the wrapping context; anything unexpected is logged and
// answered with a generic 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var validationErr *services.ValidationError
	var dependencyErr *services.DependencyError

	if errors.As(err, &validationErr) {
		apierrors.ValidationFailed(c, validationErr.Fields)
		return
	}
	if errors.As(err, &dependencyErr) {
		apierrors.DependencyBlocked(c, dependencyErr.Error(), dependencyErr.Blocking)
		return
	}
	if target := matchSentinel(err, notFoundErrors); target != nil {
		apierrors.NotFound(c, capitalize(target.Error()))
		return
	}
	if target := matchSentinel(err, forbiddenErrors); target != nil {
		apierrors.Forbidden(c, capitalize(target.Error()))
		return
	}
	if target := matchSentinel(err, invalidOperationErrors); target != nil {
		apierrors.InvalidOperation(c, capitalize(target.Error()))
		return
	}

	switch {
	case errors.Is(err, services.ErrUserExists):
		apierrors.AlreadyExists(c, capitalize(services.ErrUserExists.Error()))
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, "Invalid username or password")
	case errors.Is(err, services.ErrUserInactive):
		apierrors.Unauthorized(c, "This account is inactive")
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.ValidationFailed(c, map[string]string{
			"new_password": fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength),
		})
	case errors.Is(err, services.ErrWrongPassword):
		apierrors.ValidationFailed(c, map[string]string{"current_password": "Current password is incorrect"})
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI service is not configured")
	default:
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(constants.ContextKeyRequestID)),
			zap.Error(err),
		)
		apierrors.InternalError(c, "")
	}
}

// bindJSON decodes the body into req. Validation failures are answered with
// the same field map the services produce.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			apierrors.ValidationFailed(c, bindingFields(verrs))
			return false
		}
		apierrors.BadRequest(c, "Invalid request body")
		return false
	}
	return true
}

func bindingFields(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := toSnake(fe.Field())
		if _, ok := fields[name]; ok {
			continue
		}
		fields[name] = bindingMessage(fe)
	}
	return fields
}

func bindingMessage(fe validator.FieldError) string {
	label := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return label + " is not a valid address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, fe.Param())
	default:
		return label + " is invalid"
	}
}

// toSnake turns a Go field name like AssignTo or LeadID into assign_to or lead_id.
func toSnake(s string) string {
	var b strings.Builder
	var prev rune
	for _, r := range s {
		if unicode.IsUpper(r) {
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}

func humanize(field string) string {
	return capitalize(strings.ReplaceAll(toSnake(field), "_", " "))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// paramID parses a numeric route parameter.
func paramID(c *gin.Context, name, label string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+label+" ID")
		return 0, false
	}
	return id, true
}

// queryID parses an optional numeric query parameter.
func queryID(c *gin.Context, name string) (*uint64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+name)
		return nil, false
	}
	return &id, true
}

// requireViewer returns the authenticated viewer, answering 401 when there is none.
func requireViewer(c *gin.Context) (access.Viewer, bool) {
	v, ok := middleware.GetViewer(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
	}
	return v, ok
}
