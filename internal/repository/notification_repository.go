package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/opencampus/sims-api/internal/models"
)

// NotificationRepository handles per-user notification rows and the fan-out
// writes that create them.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a single notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now

	const query = `INSERT INTO notifications (id, user_id, title, message, type, related_id, is_read, created_at, updated_at)
        VALUES (:id, :user_id, :title, :message, :type, :related_id, :is_read, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// FanOutAnnouncement inserts one notification per audience member in a
// single INSERT..SELECT so the fan-out is atomic. Returns the number of
// recipients.
func (r *NotificationRepository) FanOutAnnouncement(ctx context.Context, a *models.Announcement) (int64, error) {
	now := time.Now().UTC()

	var query string
	args := []interface{}{a.Title, a.Content, models.NotificationTypeAnnouncement, a.ID, now}

	switch a.TargetAudience {
	case models.AudienceAll:
		query = `INSERT INTO notifications (id, user_id, title, message, type, related_id, is_read, created_at, updated_at)
            SELECT gen_random_uuid(), u.id, $1, $2, $3, $4, FALSE, $5, $5
            FROM users u`
	case models.AudienceStudents:
		query = `INSERT INTO notifications (id, user_id, title, message, type, related_id, is_read, created_at, updated_at)
            SELECT gen_random_uuid(), u.id, $1, $2, $3, $4, FALSE, $5, $5
            FROM users u WHERE u.role = 'student'`
	case models.AudienceFaculty:
		query = `INSERT INTO notifications (id, user_id, title, message, type, related_id, is_read, created_at, updated_at)
            SELECT gen_random_uuid(), u.id, $1, $2, $3, $4, FALSE, $5, $5
            FROM users u WHERE u.role = 'faculty'`
	case models.AudienceSpecificCourse:
		if a.TargetID == nil {
			return 0, fmt.Errorf("fan out announcement: missing section target")
		}
		query = `INSERT INTO notifications (id, user_id, title, message, type, related_id, is_read, created_at, updated_at)
            SELECT gen_random_uuid(), u.id, $1, $2, $3, $4, FALSE, $5, $5
            FROM enrollments e
            JOIN students s ON s.id = e.student_id
            JOIN users u ON u.id = s.user_id
            WHERE e.section_id = $6 AND e.status = 'enrolled'`
		args = append(args, *a.TargetID)
	default:
		return 0, fmt.Errorf("fan out announcement: unknown audience %q", a.TargetAudience)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("fan out announcement: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("fan out announcement: %w", err)
	}
	return affected, nil
}

// NotifySectionFaculty notifies the instructor of a section about a new
// document upload. No-op when the section has no assigned instructor.
func (r *NotificationRepository) NotifySectionFaculty(ctx context.Context, sectionID, title, message, relatedID string) error {
	now := time.Now().UTC()
	const query = `INSERT INTO notifications (id, user_id, title, message, type, related_id, is_read, created_at, updated_at)
        SELECT gen_random_uuid(), f.user_id, $2, $3, $4, $5, FALSE, $6, $6
        FROM course_sections cs
        JOIN faculty f ON f.id = cs.faculty_id
        WHERE cs.id = $1`
	if _, err := r.db.ExecContext(ctx, query, sectionID, title, message, models.NotificationTypeDocumentUpload, relatedID, now); err != nil {
		return fmt.Errorf("notify section faculty: %w", err)
	}
	return nil
}

// ListByUser returns a user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := `SELECT id, user_id, title, message, type, related_id, is_read, created_at, updated_at
        FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, userID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// CountUnread returns the number of unread notifications for a user.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flags one notification as read, scoped to its owner.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	const query = `UPDATE notifications SET is_read = TRUE, updated_at = $3 WHERE id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead flags every unread notification of a user as read and returns
// how many rows changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	const query = `UPDATE notifications SET is_read = TRUE, updated_at = $2 WHERE user_id = $1 AND is_read = FALSE`
	result, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return affected, nil
}
