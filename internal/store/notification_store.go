package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/task-reminders/internal/model"
)

const notificationColumns = "id, task_id, user_id, category, message, created_at, delivered, delivered_at"

// CreateNotification inserts a new notification record. A second record
// for the same (task, user, category) yields ErrConflict.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	var deliveredAt *time.Time
	if n.DeliveredAt != nil {
		at := n.DeliveredAt.UTC()
		deliveredAt = &at
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, task_id, user_id, category, message, created_at, delivered, delivered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.TaskID, n.UserID, n.Category, n.Message,
		n.CreatedAt.UTC(), boolToInt(n.Delivered), deliveredAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("creating %s notification for %s/%s: %w", n.Category, n.TaskID, n.UserID, ErrConflict)
		}
		return fmt.Errorf("creating %s notification for %s/%s: %w", n.Category, n.TaskID, n.UserID, err)
	}
	return nil
}

// GetNotification retrieves the notification for (task, user, category).
func (s *SQLiteStore) GetNotification(
	ctx context.Context,
	taskID, userID, category string,
) (*model.Notification, error) {
	var n model.Notification
	err := s.db.GetContext(ctx, &n, "SELECT "+notificationColumns+`
		FROM notifications
		WHERE task_id = ? AND user_id = ? AND category = ?`,
		taskID, userID, category,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("getting %s notification for %s/%s: %w", category, taskID, userID, ErrNotFound)
		}
		return nil, fmt.Errorf("getting %s notification for %s/%s: %w", category, taskID, userID, err)
	}
	return &n, nil
}

// NotificationExists reports whether a notification for (task, user,
// category) has been recorded.
func (s *SQLiteStore) NotificationExists(
	ctx context.Context,
	taskID, userID, category string,
) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM notifications
		WHERE task_id = ? AND user_id = ? AND category = ?`,
		taskID, userID, category,
	)
	if err != nil {
		return false, fmt.Errorf("checking %s notification for %s/%s: %w", category, taskID, userID, err)
	}
	return count > 0, nil
}

// MarkNotificationDelivered records a successful delivery.
func (s *SQLiteStore) MarkNotificationDelivered(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET delivered = 1, delivered_at = ? WHERE id = ?",
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("marking notification %s delivered: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("marking notification %s delivered: %w", id, ErrNotFound)
	}
	return nil
}

// GetNotificationsForUser retrieves a user's notifications, newest first.
func (s *SQLiteStore) GetNotificationsForUser(ctx context.Context, userID string) ([]model.Notification, error) {
	var notifications []model.Notification
	err := s.db.SelectContext(ctx, &notifications, "SELECT "+notificationColumns+`
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying notifications for user %s: %w", userID, err)
	}
	return notifications, nil
}
