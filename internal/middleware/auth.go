package middleware

import (
	"errors"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/nirmaan-tracker/nirmaan-api/internal/access"
	"github.com/nirmaan-tracker/nirmaan-api/internal/constants"
	apierrors "github.com/nirmaan-tracker/nirmaan-api/internal/errors"
	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
	"github.com/nirmaan-tracker/nirmaan-api/internal/services"
)

const contextKeyUser = "user"

// Authenticator resolves credentials to an active user.
type Authenticator interface {
	Authenticate(token string) (*models.User, error)
	ActiveUser(id uint64) (*models.User, error)
}

// RequireAuth accepts a bearer token in the Authorization header or a session
// cookie, and loads the active user behind it.
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return requireAuth(auth, false)
}

// RequireSocketAuth is RequireAuth for the WebSocket handshake, which also
// takes the token from the token query parameter.
func RequireSocketAuth(auth Authenticator) gin.HandlerFunc {
	return requireAuth(auth, true)
}

func requireAuth(auth Authenticator, allowQueryToken bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := resolveUser(c, auth, allowQueryToken)
		if err != nil {
			message := ""
			if errors.Is(err, services.ErrUserInactive) {
				message = "This account is inactive"
			}
			apierrors.Unauthorized(c, message)
			c.Abort()
			return
		}

		// Store user in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyUserRole, user.Role)
		c.Set(contextKeyUser, user)
		c.Next()
	}
}

var errNoCredentials = errors.New("no credentials")

func resolveUser(c *gin.Context, auth Authenticator, allowQueryToken bool) (*models.User, error) {
	if token := bearerToken(c, allowQueryToken); token != "" {
		return auth.Authenticate(token)
	}

	session := sessions.Default(c)
	userID, ok := toUint64(session.Get(constants.ContextKeyUserID))
	if !ok {
		return nil, errNoCredentials
	}
	return auth.ActiveUser(userID)
}

func bearerToken(c *gin.Context, allowQueryToken bool) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if allowQueryToken {
		return c.Query("token")
	}
	return ""
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return toUint64(userID)
}

// GetViewer returns the current user's visibility identity
func GetViewer(c *gin.Context) (access.Viewer, bool) {
	userID, ok := GetUserID(c)
	if !ok {
		return access.Viewer{}, false
	}
	role, _ := c.Get(constants.ContextKeyUserRole)
	r, _ := role.(models.UserRole)
	return access.Viewer{UserID: userID, Role: r}, true
}

// GetUser returns the user loaded by RequireAuth
func GetUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(contextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

func toUint64(v interface{}) (uint64, bool) {
	switch v := v.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
