package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/cofrinho/backend/internal/access"
	"github.com/cofrinho/backend/internal/budget"
	"github.com/cofrinho/backend/internal/calendar"
	"github.com/cofrinho/backend/internal/config"
	v1 "github.com/cofrinho/backend/internal/controllers/v1"
	"github.com/cofrinho/backend/internal/events"
	"github.com/cofrinho/backend/internal/gamification"
	"github.com/cofrinho/backend/internal/models"
	"github.com/cofrinho/backend/internal/notifications"
	"github.com/cofrinho/backend/internal/router"
	"github.com/cofrinho/backend/internal/scheduler"
	"github.com/cofrinho/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// gin uses debug as the default mode, we use release for
	// security reasons
	ginMode, ok := os.LookupEnv("GIN_MODE")
	if !ok {
		gin.SetMode("release")
	} else {
		gin.SetMode(ginMode)
	}

	// Log format can be explicitly set.
	// If it is not set, it defaults to human readable for development
	// and JSON for release
	logFormat, ok := os.LookupEnv("LOG_FORMAT")
	output := io.Writer(os.Stdout)
	if (!ok && gin.IsDebugging()) || (ok && logFormat == "human") {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if gin.IsDebugging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(output).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	// Create the data directory for the sqlite fallback
	err = os.MkdirAll(filepath.Dir(cfg.DatabaseDSN), os.ModePerm)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	err = models.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}
	db := models.DB

	// Migrate all models so that the schema is correct
	err = models.Migrate(db)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	err = models.SeedDefaultCategories(db)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	evaluator := access.New(db)

	bus := events.NewBus(256)
	defer bus.Close()

	projector := calendar.NewProjector(db)
	bus.Subscribe(projector)
	bus.Subscribe(notifications.NewHooks(db, cfg.OverBudgetTolerance))
	bus.Subscribe(gamification.NewHooks(db))

	svc := services.New(db, evaluator, bus)
	svc.Families.InviteLifetime = cfg.InviteLifetime

	sched := scheduler.New(db, svc, cfg.SchedulerBatchSize)
	err = sched.Start(cfg)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}
	defer sched.Stop()

	r, err := router.Router(&v1.Controller{
		DB:       db,
		Services: svc,
		Access:   evaluator,
		Budget:   budget.New(db, evaluator),
		Calendar: calendar.NewService(db, evaluator, projector),
	})
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	if err := r.Run(cfg.ListenAddress); err != nil {
		log.Fatal().Msg(err.Error())
	}
}
