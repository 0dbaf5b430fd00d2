package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleAdmin       UserRole = "Admin"
	RoleHR          UserRole = "HR"
	RoleSiteManager UserRole = "Site Manager"
	RoleOfficeStaff UserRole = "Office Staff"
	RoleFieldRep    UserRole = "Field Rep"
)

// UserRoles lists every role in display order.
var UserRoles = []UserRole{RoleAdmin, RoleHR, RoleSiteManager, RoleOfficeStaff, RoleFieldRep}

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	for _, role := range UserRoles {
		if r == role {
			return true
		}
	}
	return false
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "Active"
	UserStatusInactive UserStatus = "Inactive"
)

// Valid reports whether s is a known user status.
func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusInactive
}

type User struct {
	ID           uint64     `gorm:"primarykey" json:"id"`
	FirstName    string     `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName     string     `gorm:"type:varchar(100)" json:"last_name"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Username     string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Phone        string     `gorm:"type:varchar(30)" json:"phone"`
	Role         UserRole   `gorm:"type:varchar(30);not null;index" json:"role"`
	Status       UserStatus `gorm:"type:varchar(20);not null;default:'Active'" json:"status"`
	TempPassword bool       `gorm:"not null;default:false" json:"temp_password"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// DisplayName returns "First Last", falling back to the username.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// IsAdmin reports whether the user holds the Admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
