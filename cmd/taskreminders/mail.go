package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/charmbracelet/huh"

	"github.com/nhle/task-reminders/internal/credential"
	"github.com/nhle/task-reminders/internal/model"
	"github.com/nhle/task-reminders/internal/notify"
)

func runMail(ctx context.Context, cfg *model.AppConfig, configPath string, log *slog.Logger, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: taskreminders mail login|logout|test")
	}

	switch args[0] {
	case "login", "logout":
		username := cfg.Mail.SMTP.Username
		if username == "" {
			return fmt.Errorf("mail.smtp.username is not configured")
		}
		v, err := credential.Open(filepath.Dir(configPath))
		if err != nil {
			return err
		}
		if args[0] == "logout" {
			return v.DeleteSMTPPassword(username)
		}

		var password string
		err = huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("SMTP password for " + username).
				EchoMode(huh.EchoModePassword).
				Value(&password),
		)).Run()
		if err != nil {
			return err
		}
		if err := v.SetSMTPPassword(username, password); err != nil {
			return err
		}
		log.Info("smtp password stored in keyring", "username", username)
		return nil

	case "test":
		var to string
		fs := flag.NewFlagSet("mail test", flag.ContinueOnError)
		fs.StringVar(&to, "to", "", "recipient address")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		m, err := newMailer(cfg, configPath)
		if err != nil {
			return err
		}
		err = m.Send(ctx, to, notify.SubjectPrefix+"test", "This is a test message from taskreminders.")
		if err != nil {
			return err
		}
		fmt.Println("sent test message to", to, "via", cfg.Mail.Backend)
		return nil
	}
	return fmt.Errorf("unknown mail command %q", args[0])
}
