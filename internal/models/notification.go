package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationKind categorizes what triggered a notification.
type NotificationKind string

const (
	NotificationKindPlanningWarning  NotificationKind = "planning_warning"  // category at 80% of plan
	NotificationKindPlanningExceeded NotificationKind = "planning_exceeded" // category over plan
	NotificationKindBillDue          NotificationKind = "bill_due"
	NotificationKindBillOverdue      NotificationKind = "bill_overdue"
	NotificationKindGoalCompleted    NotificationKind = "goal_completed"
)

// Notification is a persisted message for a user. Delivery (email,
// WhatsApp, push) is handled outside the engine; rows here are the
// queue the deliverers read.
type Notification struct {
	DefaultModel
	UserID  uuid.UUID `gorm:"index"`
	User    User      `json:"-"`
	Kind    NotificationKind
	Title   string
	Message string
	ReadAt  *time.Time
	SentAt  *time.Time
}

func (n *Notification) BeforeSave(_ *gorm.DB) error {
	n.Title = strings.TrimSpace(n.Title)
	n.Message = strings.TrimSpace(n.Message)
	return nil
}
