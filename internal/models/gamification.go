package models

import "github.com/google/uuid"

// PointsActivity is an advisory gamification record written by a
// post-commit hook. It never influences the financial state.
type PointsActivity struct {
	DefaultModel
	UserID uuid.UUID `gorm:"index"`
	User   User      `json:"-"`
	Points int
	Reason string
}
