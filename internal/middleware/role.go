package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/nirmaan-tracker/nirmaan-api/internal/access"
	apierrors "github.com/nirmaan-tracker/nirmaan-api/internal/errors"
	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
)

// RequireRole lets the request through only when the user holds one of roles
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer, exists := GetViewer(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		if !access.HasRole(viewer, roles...) {
			apierrors.Forbidden(c, "Your role cannot perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}
