package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/task-reminders/internal/model"
	"github.com/nhle/task-reminders/internal/reminder"
	"github.com/nhle/task-reminders/internal/theme"
)

var timeNow = time.Now

func mutedText(s string) string {
	return theme.MutedStyle.Render(s)
}

func renderTasks(list []model.TaskView, upcomingDays int) string {
	if len(list) == 0 {
		return theme.MutedStyle.Render("no tasks")
	}
	today := model.DateOf(timeNow())

	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render("Tasks"))
	for _, t := range list {
		b.WriteString("\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			theme.StatusStyle(t.Status).Render(string(t.Status)),
			theme.DueStyle(t.DueDate, today, upcomingDays).Render(t.DueDate.String()),
			t.Title+" ",
			theme.MutedStyle.Render(fmt.Sprintf("%s by %s", t.ID, t.CreatedByName)),
		))
	}
	return b.String()
}

func renderUsers(list []model.User) string {
	if len(list) == 0 {
		return theme.MutedStyle.Render("no users")
	}
	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render("Users"))
	for _, u := range list {
		b.WriteString("\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			theme.RoleStyle(u.Role).Render(string(u.Role)),
			u.Name+" <"+u.Email+"> ",
			theme.MutedStyle.Render(u.ID),
		))
	}
	return b.String()
}

func renderAssignees(list []model.Assignee) string {
	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render("Assignees"))
	for _, a := range list {
		b.WriteString("\n")
		b.WriteString(a.Name + " <" + a.Email + "> " + theme.MutedStyle.Render(a.ID))
	}
	return b.String()
}

func renderNotifications(list []model.Notification) string {
	if len(list) == 0 {
		return theme.MutedStyle.Render("no notifications")
	}
	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render("Notifications"))
	for _, n := range list {
		delivered := "pending"
		if n.Delivered && n.DeliveredAt != nil {
			delivered = "sent " + n.DeliveredAt.Local().Format(time.DateTime)
		}
		b.WriteString("\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			theme.LabelStyle.Render(n.Category),
			n.Message+" ",
			theme.MutedStyle.Render(delivered),
		))
	}
	return b.String()
}

func renderReport(r reminder.Report) string {
	row := func(label string, v any) string {
		return theme.LabelStyle.Render(label) + fmt.Sprint(v)
	}
	body := strings.Join([]string{
		theme.HeaderStyle.Render("Sweep " + r.Today.String()),
		row("overdue", r.Overdue),
		row("upcoming", r.Upcoming),
		row("notified", r.Notified),
		row("failed", r.Failed),
		row("took", r.Duration.Round(time.Millisecond)),
	}, "\n")
	return theme.PanelStyle.Render(body)
}
