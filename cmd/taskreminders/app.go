package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nhle/task-reminders/internal/credential"
	"github.com/nhle/task-reminders/internal/mail"
	"github.com/nhle/task-reminders/internal/model"
	"github.com/nhle/task-reminders/internal/notify"
	"github.com/nhle/task-reminders/internal/reminder"
	"github.com/nhle/task-reminders/internal/store"
	"github.com/nhle/task-reminders/internal/tasks"
	"github.com/nhle/task-reminders/internal/users"
)

// app wires the services for one command invocation.
type app struct {
	cfg      *model.AppConfig
	log      *slog.Logger
	store    *store.SQLiteStore
	tasks    *tasks.Service
	users    *users.Service
	notifier *notify.Notifier
	sweep    *reminder.Sweep
}

func newApp(cfg *model.AppConfig, configPath string, log *slog.Logger) (*app, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	mailer, err := newMailer(cfg, configPath)
	if err != nil {
		st.Close()
		return nil, err
	}

	n := notify.New(st, mailer, notify.WithLogger(log))
	return &app{
		cfg:      cfg,
		log:      log,
		store:    st,
		tasks:    tasks.NewService(st, tasks.WithLogger(log)),
		users:    users.NewService(st, log, 0),
		notifier: n,
		sweep: reminder.NewSweep(st, n,
			reminder.WithUpcomingDays(cfg.Reminder.UpcomingDays),
			reminder.WithSweepLogger(log),
		),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// newMailer builds the configured mailer. A missing SMTP password is read
// from the keyring next to the config file on the first send.
func newMailer(cfg *model.AppConfig, configPath string) (notify.Mailer, error) {
	return mail.New(cfg.Mail, func(username string) (string, error) {
		v, err := credential.Open(filepath.Dir(configPath))
		if err != nil {
			return "", err
		}
		return v.SMTPPassword(username)
	})
}

func (a *app) serve(ctx context.Context) error {
	schedule, err := model.ParseSchedule(a.cfg.Reminder.Interval)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := reminder.NewScheduler(a.sweep, schedule,
		reminder.WithRunOnStart(a.cfg.Reminder.RunOnStart),
		reminder.WithSchedulerLogger(a.log),
	)
	sched.Start(ctx)
	a.log.Info("reminder scheduler running",
		"interval", a.cfg.Reminder.Interval,
		"upcoming_days", a.cfg.Reminder.UpcomingDays,
		"next", schedule.Next(timeNow()))

	<-ctx.Done()
	a.log.Debug("shutting down reminder scheduler")
	sched.Stop()

	st := sched.Status()
	a.log.Info("reminder scheduler stopped", "last_run", st.LastRun, "skipped", st.Skipped)
	return nil
}

func (a *app) sweepOnce(ctx context.Context) error {
	r := a.sweep.Run(ctx)
	fmt.Println(renderReport(r))
	return nil
}
