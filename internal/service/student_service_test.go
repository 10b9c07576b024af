package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opencampus/sims-api/internal/models"
	appErrors "github.com/opencampus/sims-api/pkg/errors"
)

type mockStudentRepo struct {
	student *models.Student
	detail  *models.StudentDetail
	updated *models.UpdateStudentRequest
}

func (m *mockStudentRepo) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	if m.student == nil {
		return nil, sql.ErrNoRows
	}
	return m.student, nil
}

func (m *mockStudentRepo) FindDetailByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	if m.detail == nil {
		return nil, sql.ErrNoRows
	}
	return m.detail, nil
}

func (m *mockStudentRepo) Update(ctx context.Context, id string, req models.UpdateStudentRequest) error {
	m.updated = &req
	return nil
}

type mockEnrollmentRepo struct {
	enrollments  []models.EnrollmentDetail
	byID         *models.Enrollment
	activeExists bool
	enrollErr    error
	enrolled     *models.Enrollment
	dropped      bool
	dropErr      error
}

func (m *mockEnrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	return m.enrollments, nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if m.byID == nil {
		return nil, sql.ErrNoRows
	}
	return m.byID, nil
}

func (m *mockEnrollmentRepo) ExistsActive(ctx context.Context, studentID, sectionID string) (bool, error) {
	return m.activeExists, nil
}

func (m *mockEnrollmentRepo) Enroll(ctx context.Context, enrollment *models.Enrollment) error {
	if m.enrollErr != nil {
		return m.enrollErr
	}
	enrollment.ID = "enr1"
	m.enrolled = enrollment
	return nil
}

func (m *mockEnrollmentRepo) Drop(ctx context.Context, id, sectionID string) error {
	if m.dropErr != nil {
		return m.dropErr
	}
	m.dropped = true
	return nil
}

type mockGradeListRepo struct {
	grades []models.GradeDetail
}

func (m *mockGradeListRepo) ListByStudent(ctx context.Context, studentID string) ([]models.GradeDetail, error) {
	return m.grades, nil
}

type mockSectionListRepo struct {
	sections []models.SectionDetail
	byID     *models.CourseSection
}

func (m *mockSectionListRepo) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, error) {
	return m.sections, nil
}

func (m *mockSectionListRepo) FindByID(ctx context.Context, id string) (*models.CourseSection, error) {
	if m.byID == nil {
		return nil, sql.ErrNoRows
	}
	return m.byID, nil
}

func newStudentService(students *mockStudentRepo, enrollments *mockEnrollmentRepo, sections *mockSectionListRepo) *StudentService {
	return NewStudentService(students, enrollments, &mockGradeListRepo{}, sections, zap.NewNop())
}

func TestStudentServiceEnrollSuccess(t *testing.T) {
	students := &mockStudentRepo{student: &models.Student{ID: "stu1", UserID: "u1"}}
	enrollments := &mockEnrollmentRepo{}
	sections := &mockSectionListRepo{byID: &models.CourseSection{ID: "sec1"}}
	svc := newStudentService(students, enrollments, sections)

	enrollment, err := svc.Enroll(context.Background(), "u1", "sec1")
	require.NoError(t, err)
	assert.Equal(t, "stu1", enrollment.StudentID)
	assert.Equal(t, "sec1", enrollment.SectionID)
	require.NotNil(t, enrollments.enrolled)
}

func TestStudentServiceEnrollSectionFull(t *testing.T) {
	students := &mockStudentRepo{student: &models.Student{ID: "stu1", UserID: "u1"}}
	enrollments := &mockEnrollmentRepo{enrollErr: appErrors.ErrSectionFull}
	sections := &mockSectionListRepo{byID: &models.CourseSection{ID: "sec1"}}
	svc := newStudentService(students, enrollments, sections)

	_, err := svc.Enroll(context.Background(), "u1", "sec1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrSectionFull.Code, appErr.Code)
}

func TestStudentServiceEnrollAlreadyEnrolled(t *testing.T) {
	students := &mockStudentRepo{student: &models.Student{ID: "stu1", UserID: "u1"}}
	enrollments := &mockEnrollmentRepo{activeExists: true}
	sections := &mockSectionListRepo{byID: &models.CourseSection{ID: "sec1"}}
	svc := newStudentService(students, enrollments, sections)

	_, err := svc.Enroll(context.Background(), "u1", "sec1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErr.Code)
	assert.Nil(t, enrollments.enrolled)
}

func TestStudentServiceEnrollUnknownSection(t *testing.T) {
	students := &mockStudentRepo{student: &models.Student{ID: "stu1", UserID: "u1"}}
	svc := newStudentService(students, &mockEnrollmentRepo{}, &mockSectionListRepo{})

	_, err := svc.Enroll(context.Background(), "u1", "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestStudentServiceDropOwnEnrollment(t *testing.T) {
	students := &mockStudentRepo{student: &models.Student{ID: "stu1", UserID: "u1"}}
	enrollments := &mockEnrollmentRepo{byID: &models.Enrollment{ID: "enr1", StudentID: "stu1", SectionID: "sec1", Status: models.EnrollmentStatusEnrolled}}
	svc := newStudentService(students, enrollments, &mockSectionListRepo{})

	err := svc.Drop(context.Background(), "u1", "enr1")
	require.NoError(t, err)
	assert.True(t, enrollments.dropped)
}

func TestStudentServiceDropForeignEnrollment(t *testing.T) {
	students := &mockStudentRepo{student: &models.Student{ID: "stu1", UserID: "u1"}}
	enrollments := &mockEnrollmentRepo{byID: &models.Enrollment{ID: "enr1", StudentID: "other", SectionID: "sec1", Status: models.EnrollmentStatusEnrolled}}
	svc := newStudentService(students, enrollments, &mockSectionListRepo{})

	err := svc.Drop(context.Background(), "u1", "enr1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.False(t, enrollments.dropped)
}

func TestStudentServiceDropInactiveEnrollment(t *testing.T) {
	students := &mockStudentRepo{student: &models.Student{ID: "stu1", UserID: "u1"}}
	enrollments := &mockEnrollmentRepo{byID: &models.Enrollment{ID: "enr1", StudentID: "stu1", SectionID: "sec1", Status: models.EnrollmentStatusDropped}}
	svc := newStudentService(students, enrollments, &mockSectionListRepo{})

	err := svc.Drop(context.Background(), "u1", "enr1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestStudentServiceProfileMissing(t *testing.T) {
	svc := newStudentService(&mockStudentRepo{}, &mockEnrollmentRepo{}, &mockSectionListRepo{})

	_, err := svc.Profile(context.Background(), "u1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
