// Command taskreminders manages tasks and runs the due-date reminder sweep.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/nhle/task-reminders/internal/model"
	"github.com/nhle/task-reminders/internal/theme"
)

const usageText = `usage: taskreminders [-config FILE] <command> [args]

commands:
  serve                         run the reminder scheduler until interrupted
  sweep                         run one reminder sweep now
  user add [flags]              register a user (prompts for missing fields)
  user list                     list users
  task create [flags]           create a task and assign it
  task assign [flags] USERID... add assignees to a task
  task status [flags] STATUS    change the status of one or more tasks
  task list -as EMAIL           list tasks visible to a user
  notifications -user ID        list a user's notifications
  mail login | logout           store or remove the SMTP password in the keyring
  mail test -to ADDRESS         send a test message through the configured mailer
  config init                   write the default configuration file
`

func main() {
	var configPath string
	fs := flag.NewFlagSet("taskreminders", flag.ExitOnError)
	fs.StringVar(&configPath, "config", model.DefaultConfigPath(), "configuration file")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usageText) }
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	if err := run(context.Background(), configPath, fs.Args()); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, theme.ErrorStyle.Render("error:"), err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, args []string) error {
	cmd, rest := args[0], args[1:]

	if cmd == "config" {
		return runConfig(configPath, rest)
	}

	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}
	log := mustMakeLogger(cfg.Log.Level)

	switch cmd {
	case "serve", "sweep", "user", "task", "notifications":
	case "mail":
		return runMail(ctx, cfg, configPath, log, rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	a, err := newApp(cfg, configPath, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("failed to close store", "error", err)
		}
	}()

	switch cmd {
	case "serve":
		return a.serve(ctx)
	case "sweep":
		return a.sweepOnce(ctx)
	case "user":
		return a.runUser(ctx, rest)
	case "task":
		return a.runTask(ctx, rest)
	default:
		return a.runNotifications(ctx, rest)
	}
}

func runConfig(configPath string, args []string) error {
	if len(args) != 1 || args[0] != "init" {
		return fmt.Errorf("usage: taskreminders config init")
	}
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config %s already exists", configPath)
	}
	if err := model.SaveConfig(configPath, model.DefaultAppConfig()); err != nil {
		return err
	}
	fmt.Println("wrote", configPath)
	return nil
}

func mustMakeLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
