// Package access holds the visibility rules shared by the REST list, the
// socket room checks and the client reducer, so every viewer sees the same set.
package access

import "github.com/nirmaan-tracker/nirmaan-api/internal/models"

// Viewer identifies who is looking.
type Viewer struct {
	UserID uint64
	Role   models.UserRole
}

// IsAdmin reports whether the viewer sees every task.
func (v Viewer) IsAdmin() bool {
	return v.Role == models.RoleAdmin
}

// CanViewTask reports whether v may see a task with the given parties.
func CanViewTask(v Viewer, assignTo, assignBy uint64) bool {
	if v.IsAdmin() {
		return true
	}
	return v.UserID != 0 && (v.UserID == assignTo || v.UserID == assignBy)
}

// CanEditTask uses the same rule as CanViewTask: both parties and admins may edit.
func CanEditTask(v Viewer, assignTo, assignBy uint64) bool {
	return CanViewTask(v, assignTo, assignBy)
}

// CanJoinUserRoom allows a viewer into their own user room; admins may join any.
func CanJoinUserRoom(v Viewer, userID uint64) bool {
	return v.IsAdmin() || (v.UserID != 0 && v.UserID == userID)
}

// HasRole reports whether v holds one of roles.
func HasRole(v Viewer, roles ...models.UserRole) bool {
	for _, r := range roles {
		if v.Role == r {
			return true
		}
	}
	return false
}
