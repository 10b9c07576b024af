package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/sims-api/internal/models"
)

func TestFanOutAnnouncementToStudents(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE u.role = 'student'")).
		WillReturnResult(sqlmock.NewResult(0, 42))

	a := &models.Announcement{ID: "ann1", Title: "Exam week", Content: "Schedules posted.", TargetAudience: models.AudienceStudents}
	recipients, err := repo.FanOutAnnouncement(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, int64(42), recipients)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFanOutAnnouncementToSection(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE e.section_id = $6 AND e.status = 'enrolled'")).
		WillReturnResult(sqlmock.NewResult(0, 30))

	target := "sec1"
	a := &models.Announcement{ID: "ann1", Title: "Room change", Content: "Moved to B204.", TargetAudience: models.AudienceSpecificCourse, TargetID: &target}
	recipients, err := repo.FanOutAnnouncement(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, int64(30), recipients)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFanOutAnnouncementMissingTarget(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	a := &models.Announcement{ID: "ann1", TargetAudience: models.AudienceSpecificCourse}
	_, err := repo.FanOutAnnouncement(context.Background(), a)
	require.Error(t, err)
}

func TestMarkAllRead(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET is_read = TRUE")).
		WillReturnResult(sqlmock.NewResult(0, 5))

	affected, err := repo.MarkAllRead(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountUnread(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	rows := sqlmock.NewRows([]string{"count"}).AddRow(3)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE")).
		WithArgs("u1").
		WillReturnRows(rows)

	count, err := repo.CountUnread(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
