package models

import (
	"strings"

	"gorm.io/gorm"
)

const (
	RoleAdmin    = "ADMIN"
	RoleChef     = "CHEF"
	RoleEmployee = "EMPLOYEE"
	DefaultRole  = RoleEmployee
)

// User represents a kitchen account that can sign in to the planning API.
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Name         string
	Role         string `gorm:"type:varchar(16);default:EMPLOYEE"`
}

// ValidRole reports whether value is a known role.
func ValidRole(value string) bool {
	switch value {
	case RoleAdmin, RoleChef, RoleEmployee:
		return true
	default:
		return false
	}
}

// NormalizeRole upper-cases value and falls back to DefaultRole for unknown roles.
func NormalizeRole(value string) string {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	if ValidRole(normalized) {
		return normalized
	}
	return DefaultRole
}
