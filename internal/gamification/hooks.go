// Package gamification awards points for financial activity. It is a
// post-commit hook; delivery of badges and levels lives elsewhere.
package gamification

import (
	"github.com/cofrinho/backend/internal/events"
	"github.com/cofrinho/backend/internal/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Hooks writes one PointsActivity row per rewarded event.
type Hooks struct {
	db *gorm.DB
}

// NewHooks returns the gamification handler.
func NewHooks(db *gorm.DB) *Hooks {
	return &Hooks{db: db}
}

// Name implements events.Handler.
func (h *Hooks) Name() string {
	return "gamification"
}

// Handle implements events.Handler.
func (h *Hooks) Handle(event events.Event) {
	var points int
	var reason string

	switch event.Kind {
	case events.TransactionCreated:
		points, reason = 1, "transaction recorded"
	case events.BillPaid:
		points, reason = 5, "bill paid"
	case events.ContributionAdded:
		points, reason = 5, "goal contribution"
	case events.GoalCompleted:
		points, reason = 50, "goal completed"
	default:
		return
	}

	activity := models.PointsActivity{
		UserID: event.UserID,
		Points: points,
		Reason: reason,
	}
	err := h.db.Create(&activity).Error
	if err != nil {
		log.Err(err).Str("kind", string(event.Kind)).Msg("recording points failed")
	}
}
