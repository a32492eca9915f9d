package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/calendar-core/internal/application"
	"github.com/example/calendar-core/internal/config"
	httptransport "github.com/example/calendar-core/internal/http"
	"github.com/example/calendar-core/internal/ics"
	"github.com/example/calendar-core/internal/persistence/sqlite"
	"github.com/example/calendar-core/internal/recurrence"
	"github.com/example/calendar-core/internal/timegrid"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	eventRepo := sqlite.NewEventRepository(pool)
	grid := timegrid.NewGrid(timegrid.Config{
		HourHeight:     cfg.HourHeight,
		MinEventHeight: cfg.MinEventHeight,
		Location:       cfg.Timezone,
	})
	expander := recurrence.NewExpander(cfg.Timezone)

	eventService := application.NewEventService(eventRepo, grid, expander, idGenerator, now, application.EventServiceOptions{
		Location:     cfg.Timezone,
		SnapMinutes:  cfg.SnapMinutes,
		PreviewLimit: cfg.PreviewLimit,
		Logger:       logger,
	})

	exporter := ics.NewExporter(expander)

	eventHandler := httptransport.NewEventHandler(eventService, logger)
	calendarHandler := httptransport.NewCalendarHandler(eventService, exporter, now, logger)
	recurrenceHandler := httptransport.NewRecurrenceHandler(eventService, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Events:     eventHandler,
		Calendars:  calendarHandler,
		Recurrence: recurrenceHandler,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("calendar API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
