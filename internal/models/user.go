package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// UserRole is the platform-wide role of a user.
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// ParseUserRole parses a canonical lower-case role identifier.
func ParseUserRole(s string) (UserRole, error) {
	switch UserRole(s) {
	case UserRoleAdmin, UserRoleUser:
		return UserRole(s), nil
	}
	return "", ErrInvalidEnumValue
}

// User is a human principal of the system.
type User struct {
	DefaultModel
	Email              string `gorm:"uniqueIndex"`
	Username           string `gorm:"uniqueIndex"`
	FullName           string
	Phone              string
	Role               UserRole `gorm:"default:user"`
	Active             bool     `gorm:"default:true"`
	Verified           bool
	PasswordResetToken *string
	PasswordResetUntil *time.Time
}

var (
	ErrUserEmailRequired    = errors.New("the user email must be set")
	ErrUserUsernameRequired = errors.New("the username must be set")
)

func (u *User) BeforeSave(_ *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Username = strings.TrimSpace(u.Username)
	u.FullName = strings.TrimSpace(u.FullName)

	if u.Email == "" {
		return ErrUserEmailRequired
	}

	if u.Username == "" {
		return ErrUserUsernameRequired
	}

	if u.Role == "" {
		u.Role = UserRoleUser
	}

	if _, err := ParseUserRole(string(u.Role)); err != nil {
		return err
	}

	return nil
}

// IsAdmin reports whether the user has the platform admin role.
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
