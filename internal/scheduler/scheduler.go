// Package scheduler runs the periodic tick that materializes due
// scheduled transactions and pending transfers, and raises overdue
// bill notifications.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cofrinho/backend/internal/config"
	"github.com/cofrinho/backend/internal/models"
	"github.com/cofrinho/backend/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Scheduler drives time-based execution. Each due item is materialized
// in its own store transaction, so one failing item never blocks the
// rest of the batch.
type Scheduler struct {
	db        *gorm.DB
	services  *services.Services
	batchSize int

	cron *cron.Cron
}

// New returns a stopped scheduler.
func New(db *gorm.DB, svc *services.Services, batchSize int) *Scheduler {
	if batchSize <= 0 {
		batchSize = 100
	}

	return &Scheduler{
		db:        db,
		services:  svc,
		batchSize: batchSize,
	}
}

// Start begins ticking at the configured interval plus the daily
// catch-up times, e.g. 08:00 and 20:00.
func (s *Scheduler) Start(cfg config.Config) error {
	s.cron = cron.New()

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", cfg.SchedulerInterval), s.tick)
	if err != nil {
		return fmt.Errorf("adding the interval tick failed: %w", err)
	}

	for _, tick := range cfg.DailyTicks() {
		spec, err := dailySpec(tick)
		if err != nil {
			return err
		}

		_, err = s.cron.AddFunc(spec, s.tick)
		if err != nil {
			return fmt.Errorf("adding the daily tick %q failed: %w", tick, err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop waits for a running tick to finish and stops the timers.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// dailySpec converts an HH:MM time of day to a cron expression.
func dailySpec(tick string) (string, error) {
	parts := strings.Split(tick, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("the daily tick %q is not in HH:MM format", tick)
	}

	var hour, minute int
	_, err := fmt.Sscanf(tick, "%d:%d", &hour, &minute)
	if err != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("the daily tick %q is not a valid time of day", tick)
	}

	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

func (s *Scheduler) tick() {
	s.Tick(context.Background(), time.Now().In(time.UTC))
}

// Tick runs one scheduler pass at the given instant: due scheduled
// transactions, due pending transfers, then overdue bill notifications.
// Item failures are logged and skipped; the tick itself never fails.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	executed := s.runDueSchedules(ctx, now)
	transferred := s.runDueTransfers(ctx, now)
	notified := s.notifyOverdueBills(ctx, now)

	if executed+transferred+notified > 0 {
		log.Info().
			Int("schedules", executed).
			Int("transfers", transferred).
			Int("notifications", notified).
			Time("now", now).
			Msg("scheduler tick finished")
	}
}

// runDueSchedules claims and executes due scheduled transactions.
// The per-item row lock makes concurrent workers claim disjoint sets.
func (s *Scheduler) runDueSchedules(ctx context.Context, now time.Time) int {
	ids, err := s.services.Scheduled.DueIDs(now, s.batchSize)
	if err != nil {
		log.Err(err).Msg("listing due scheduled transactions failed")
		return 0
	}

	executed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return executed
		}

		ok, err := s.services.Scheduled.ExecuteDue(id, now)
		if err != nil {
			log.Err(err).Str("scheduledTransaction", id.String()).Msg("materializing a scheduled transaction failed")
			continue
		}
		if ok {
			executed++
		}
	}

	return executed
}

// runDueTransfers materializes pending transfers whose scheduled date
// has arrived.
func (s *Scheduler) runDueTransfers(ctx context.Context, now time.Time) int {
	ids, err := s.services.Transfers.DuePendingIDs(now, s.batchSize)
	if err != nil {
		log.Err(err).Msg("listing due pending transfers failed")
		return 0
	}

	transferred := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return transferred
		}

		_, err := s.services.Transfers.ExecuteDue(id)
		if err != nil {
			log.Err(err).Str("transfer", id.String()).Msg("materializing a pending transfer failed")
			continue
		}
		transferred++
	}

	return transferred
}

// notifyOverdueBills raises one notification per overdue pending bill.
// Overdue is derived, never written back to the bill.
func (s *Scheduler) notifyOverdueBills(ctx context.Context, now time.Time) int {
	var bills []models.Bill
	err := s.db.
		Where("status = ?", models.BillStatusPending).
		Where("due_date < ?", now).
		Limit(s.batchSize).
		Find(&bills).Error
	if err != nil {
		log.Err(err).Msg("listing overdue bills failed")
		return 0
	}

	notified := 0
	for _, bill := range bills {
		if ctx.Err() != nil {
			return notified
		}

		title := fmt.Sprintf("Conta vencida: %s", bill.Name)

		var count int64
		err := s.db.Model(&models.Notification{}).
			Where("user_id = ? AND kind = ? AND title = ? AND read_at IS NULL",
				bill.UserID, models.NotificationKindBillOverdue, title).
			Count(&count).Error
		if err != nil || count > 0 {
			continue
		}

		notification := models.Notification{
			UserID:  bill.UserID,
			Kind:    models.NotificationKindBillOverdue,
			Title:   title,
			Message: fmt.Sprintf("%s venceu em %s", bill.Name, bill.DueDate.Format("02/01/2006")),
		}
		err = s.db.Create(&notification).Error
		if err != nil {
			log.Err(err).Str("bill", bill.ID.String()).Msg("creating an overdue bill notification failed")
			continue
		}
		notified++
	}

	return notified
}
