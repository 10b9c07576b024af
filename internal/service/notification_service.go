package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/opencampus/sims-api/internal/models"
	appErrors "github.com/opencampus/sims-api/pkg/errors"
)

type notificationRepository interface {
	FanOutAnnouncement(ctx context.Context, a *models.Announcement) (int64, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type announcementRepository interface {
	Create(ctx context.Context, a *models.Announcement) error
	FindByID(ctx context.Context, id string) (*models.Announcement, error)
	ListVisibleToRole(ctx context.Context, role models.UserRole, limit int) ([]models.AnnouncementDetail, error)
	ListByAuthor(ctx context.Context, authorID string) ([]models.Announcement, error)
	Delete(ctx context.Context, id string) error
}

// CreateAnnouncementRequest carries a new announcement.
type CreateAnnouncementRequest struct {
	Title          string                      `json:"title" validate:"required"`
	Content        string                      `json:"content" validate:"required"`
	TargetAudience models.AnnouncementAudience `json:"target_audience" validate:"required,oneof=all students faculty specific_course"`
	TargetID       *string                     `json:"target_id"`
	Priority       models.AnnouncementPriority `json:"priority" validate:"omitempty,oneof=low normal high"`
	ExpiresAt      *time.Time                  `json:"expires_at"`
}

// NotificationService handles announcements and their per-user fan-out.
type NotificationService struct {
	notifications notificationRepository
	announcements announcementRepository
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(notifications notificationRepository, announcements announcementRepository, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &NotificationService{notifications: notifications, announcements: announcements, validator: validate, logger: logger}
}

// PublishAnnouncement creates an announcement and fans it out to every user
// in the target audience in a single statement.
func (s *NotificationService) PublishAnnouncement(ctx context.Context, authorID string, req CreateAnnouncementRequest) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}
	if req.TargetAudience == models.AudienceSpecificCourse && req.TargetID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "target_id is required for a course announcement")
	}

	announcement := &models.Announcement{
		Title:          req.Title,
		Content:        req.Content,
		AuthorID:       authorID,
		TargetAudience: req.TargetAudience,
		TargetID:       req.TargetID,
		Priority:       req.Priority,
		ExpiresAt:      req.ExpiresAt,
	}
	if err := s.announcements.Create(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}

	recipients, err := s.notifications.FanOutAnnouncement(ctx, announcement)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deliver announcement")
	}

	s.logger.Info("announcement published",
		zap.String("announcement_id", announcement.ID),
		zap.String("audience", string(announcement.TargetAudience)),
		zap.Int64("recipients", recipients))
	return announcement, nil
}

// Announcements returns the announcements visible to the given role, newest
// and highest priority first.
func (s *NotificationService) Announcements(ctx context.Context, role models.UserRole, limit int) ([]models.AnnouncementDetail, error) {
	items, err := s.announcements.ListVisibleToRole(ctx, role, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	return items, nil
}

// AuthoredAnnouncements returns the announcements written by the caller.
func (s *NotificationService) AuthoredAnnouncements(ctx context.Context, authorID string) ([]models.Announcement, error) {
	items, err := s.announcements.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	return items, nil
}

// DeleteAnnouncement removes an announcement. Only its author or an admin
// may delete it; delivered notifications are kept.
func (s *NotificationService) DeleteAnnouncement(ctx context.Context, id, callerID string, callerRole models.UserRole) error {
	announcement, err := s.announcements.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement")
	}
	if announcement.AuthorID != callerID && callerRole != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "announcement belongs to another author")
	}
	if err := s.announcements.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete announcement")
	}
	return nil
}

// Inbox returns the caller's notifications, optionally unread only.
func (s *NotificationService) Inbox(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	items, err := s.notifications.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return items, nil
}

// UnreadCount returns the caller's unread notification count for badges.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return count, nil
}

// MarkRead flags one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.notifications.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead flags every unread notification of the caller as read and
// returns how many were affected.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	affected, err := s.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return affected, nil
}
