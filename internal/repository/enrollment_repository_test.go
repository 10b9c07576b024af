package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/sims-api/internal/models"
	appErrors "github.com/opencampus/sims-api/pkg/errors"
)

func TestEnrollClaimsSeatAndInserts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE course_sections")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{StudentID: "stu1", SectionID: "sec1"}
	err := repo.Enroll(context.Background(), enrollment)
	require.NoError(t, err)
	assert.NotEmpty(t, enrollment.ID)
	assert.Equal(t, models.EnrollmentStatusEnrolled, enrollment.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollSectionFull(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE course_sections")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Enroll(context.Background(), &models.Enrollment{StudentID: "stu1", SectionID: "sec1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSectionFull))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDropReleasesSeat(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE course_sections")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Drop(context.Background(), "enr1", "sec1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDropAlreadyDropped(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Drop(context.Background(), "enr1", "sec1")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByStudentOrdersByNewestEnrollment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "section_id", "status"}).
		AddRow("enr2", "stu1", "sec2", string(models.EnrollmentStatusEnrolled)).
		AddRow("enr1", "stu1", "sec1", string(models.EnrollmentStatusEnrolled))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY e.created_at DESC")).
		WithArgs("stu1").
		WillReturnRows(rows)

	enrollments, err := repo.ListByStudent(context.Background(), "stu1")
	require.NoError(t, err)
	require.Len(t, enrollments, 2)
	assert.Equal(t, "enr2", enrollments[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"?column?"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments")).
		WithArgs("stu1", "sec1", string(models.EnrollmentStatusEnrolled)).
		WillReturnRows(rows)

	exists, err := repo.ExistsActive(context.Background(), "stu1", "sec1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
