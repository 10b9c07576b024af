package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/sims-api/internal/models"
)

func TestUpsertGrade(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (student_id, assignment_id) DO UPDATE")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	points := 87.5
	grade := &models.Grade{StudentID: "stu1", AssignmentID: "a1", PointsEarned: &points, Status: models.GradeStatusSubmitted}
	err := repo.Upsert(context.Background(), grade)
	require.NoError(t, err)
	assert.NotEmpty(t, grade.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPendingByFacultyScopesToInstructor(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "assignment_id", "points_earned", "status", "feedback", "submitted_at", "graded_at", "created_at", "updated_at",
		"assignment_title", "total_points", "section_id", "course_code", "student_name", "student_number"}).
		AddRow("g1", "stu1", "a1", nil, string(models.GradeStatusPending), nil, now, nil, now, now,
			"Essay 1", 100.0, "sec1", "CS101", "Alice", "STU-1")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE cs.faculty_id = $1 AND g.status = $2")).
		WithArgs("fac1", string(models.GradeStatusPending)).
		WillReturnRows(rows)

	pending, err := repo.ListPendingByFaculty(context.Background(), "fac1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "CS101", pending[0].CourseCode)
	assert.Equal(t, models.GradeStatusPending, pending[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	now := time.Now()
	points := 92.0
	rows := sqlmock.NewRows([]string{"id", "student_id", "assignment_id", "points_earned", "status", "feedback", "submitted_at", "graded_at", "created_at", "updated_at",
		"assignment_title", "total_points", "section_id", "course_code", "course_title"}).
		AddRow("g1", "stu1", "a1", points, string(models.GradeStatusFinal), "good", now, now, now, now,
			"Final Exam", 100.0, "sec1", "CS101", "Intro to CS")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE g.student_id = $1")).
		WithArgs("stu1").
		WillReturnRows(rows)

	grades, err := repo.ListByStudent(context.Background(), "stu1")
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, "Final Exam", grades[0].AssignmentTitle)
	assert.NoError(t, mock.ExpectationsWereMet())
}
