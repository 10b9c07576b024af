package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opencampus/sims-api/internal/models"
	appErrors "github.com/opencampus/sims-api/pkg/errors"
)

type mockNotificationRepo struct {
	fannedOut  *models.Announcement
	recipients int64
	inbox      []models.Notification
	unread     int
	markedAll  bool
}

func (m *mockNotificationRepo) FanOutAnnouncement(ctx context.Context, a *models.Announcement) (int64, error) {
	m.fannedOut = a
	return m.recipients, nil
}

func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	return m.inbox, nil
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	return m.unread, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	return sql.ErrNoRows
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	m.markedAll = true
	return 4, nil
}

type mockAnnouncementRepo struct {
	created *models.Announcement
	byID    *models.Announcement
	deleted string
}

func (m *mockAnnouncementRepo) Create(ctx context.Context, a *models.Announcement) error {
	a.ID = "ann1"
	if a.Priority == "" {
		a.Priority = models.PriorityNormal
	}
	m.created = a
	return nil
}

func (m *mockAnnouncementRepo) FindByID(ctx context.Context, id string) (*models.Announcement, error) {
	if m.byID == nil {
		return nil, sql.ErrNoRows
	}
	return m.byID, nil
}

func (m *mockAnnouncementRepo) ListVisibleToRole(ctx context.Context, role models.UserRole, limit int) ([]models.AnnouncementDetail, error) {
	return nil, nil
}

func (m *mockAnnouncementRepo) ListByAuthor(ctx context.Context, authorID string) ([]models.Announcement, error) {
	return nil, nil
}

func (m *mockAnnouncementRepo) Delete(ctx context.Context, id string) error {
	m.deleted = id
	return nil
}

func newNotificationService(notifications *mockNotificationRepo, announcements *mockAnnouncementRepo) *NotificationService {
	return NewNotificationService(notifications, announcements, validator.New(), zap.NewNop())
}

func TestNotificationServicePublishAnnouncement(t *testing.T) {
	notifications := &mockNotificationRepo{recipients: 42}
	announcements := &mockAnnouncementRepo{}
	svc := newNotificationService(notifications, announcements)

	announcement, err := svc.PublishAnnouncement(context.Background(), "admin1", CreateAnnouncementRequest{
		Title:          "Maintenance window",
		Content:        "Systems go down Friday night.",
		TargetAudience: models.AudienceAll,
	})
	require.NoError(t, err)
	assert.Equal(t, "ann1", announcement.ID)
	require.NotNil(t, notifications.fannedOut)
	assert.Equal(t, "ann1", notifications.fannedOut.ID)
}

func TestNotificationServiceCourseAnnouncementNeedsTarget(t *testing.T) {
	svc := newNotificationService(&mockNotificationRepo{}, &mockAnnouncementRepo{})

	_, err := svc.PublishAnnouncement(context.Background(), "fac1", CreateAnnouncementRequest{
		Title:          "Class cancelled",
		Content:        "No lecture tomorrow.",
		TargetAudience: models.AudienceSpecificCourse,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestNotificationServiceDeleteRequiresAuthorOrAdmin(t *testing.T) {
	announcements := &mockAnnouncementRepo{byID: &models.Announcement{ID: "ann1", AuthorID: "fac1"}}
	svc := newNotificationService(&mockNotificationRepo{}, announcements)

	err := svc.DeleteAnnouncement(context.Background(), "ann1", "fac2", models.RoleFaculty)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	err = svc.DeleteAnnouncement(context.Background(), "ann1", "admin1", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "ann1", announcements.deleted)
}

func TestNotificationServiceMarkReadMissing(t *testing.T) {
	svc := newNotificationService(&mockNotificationRepo{}, &mockAnnouncementRepo{})

	err := svc.MarkRead(context.Background(), "missing", "u1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestNotificationServiceMarkAllRead(t *testing.T) {
	notifications := &mockNotificationRepo{}
	svc := newNotificationService(notifications, &mockAnnouncementRepo{})

	affected, err := svc.MarkAllRead(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), affected)
	assert.True(t, notifications.markedAll)
}
