package main

import (
	"context"
	"flag"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/task-reminders/internal/model"
	"github.com/nhle/task-reminders/internal/reminder"
)

func TestRunConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, run(context.Background(), path, []string{"config", "init"}))

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultReminderInterval, cfg.Reminder.Interval)

	err = run(context.Background(), path, []string{"config", "init"})
	assert.ErrorContains(t, err, "already exists")
}

func TestRunUnknownCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	err := run(context.Background(), path, []string{"frobnicate"})
	assert.ErrorContains(t, err, "unknown command")
}

func TestStringListFlag(t *testing.T) {
	var ids stringList
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(&ids, "task", "")

	require.NoError(t, fs.Parse([]string{"-task", "a", "-task", "b", "DONE"}))
	assert.Equal(t, stringList{"a", "b"}, ids)
	assert.Equal(t, "DONE", fs.Arg(0))
}

func TestRenderReport(t *testing.T) {
	out := renderReport(reminder.Report{
		Today:    model.Date{Year: 2025, Month: time.March, Day: 10},
		Overdue:  2,
		Notified: 5,
	})
	assert.Contains(t, out, "2025-03-10")
	assert.True(t, strings.Contains(out, "notified"))
}
