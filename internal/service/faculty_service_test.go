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

type mockFacultyRepo struct {
	faculty *models.Faculty
}

func (m *mockFacultyRepo) FindByUserID(ctx context.Context, userID string) (*models.Faculty, error) {
	if m.faculty == nil {
		return nil, sql.ErrNoRows
	}
	return m.faculty, nil
}

func (m *mockFacultyRepo) FindDetailByUserID(ctx context.Context, userID string) (*models.FacultyDetail, error) {
	return nil, sql.ErrNoRows
}

func (m *mockFacultyRepo) Update(ctx context.Context, id string, req models.UpdateFacultyRequest) error {
	return nil
}

type mockFacultySectionRepo struct {
	ownedSections map[string]bool
	roster        []models.RosterEntry
}

func (m *mockFacultySectionRepo) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, error) {
	return nil, nil
}

func (m *mockFacultySectionRepo) Roster(ctx context.Context, sectionID string) ([]models.RosterEntry, error) {
	return m.roster, nil
}

func (m *mockFacultySectionRepo) OwnedByFaculty(ctx context.Context, sectionID, facultyID string) (bool, error) {
	return m.ownedSections[sectionID], nil
}

type mockAssignmentRepo struct {
	byID    *models.Assignment
	created *models.Assignment
	updated *models.Assignment
	deleted string
}

func (m *mockAssignmentRepo) ListBySection(ctx context.Context, sectionID string) ([]models.Assignment, error) {
	return nil, nil
}

func (m *mockAssignmentRepo) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	if m.byID == nil {
		return nil, sql.ErrNoRows
	}
	return m.byID, nil
}

func (m *mockAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	assignment.ID = "asg1"
	m.created = assignment
	return nil
}

func (m *mockAssignmentRepo) Update(ctx context.Context, assignment *models.Assignment) error {
	m.updated = assignment
	return nil
}

func (m *mockAssignmentRepo) Delete(ctx context.Context, id string) error {
	m.deleted = id
	return nil
}

type mockGradeUpsertRepo struct {
	upserted      *models.Grade
	pending       []models.PendingGrade
	sectionGrades []models.GradeDetail
}

func (m *mockGradeUpsertRepo) Upsert(ctx context.Context, grade *models.Grade) error {
	grade.ID = "grd1"
	m.upserted = grade
	return nil
}

func (m *mockGradeUpsertRepo) ListPendingByFaculty(ctx context.Context, facultyID string) ([]models.PendingGrade, error) {
	return m.pending, nil
}

func (m *mockGradeUpsertRepo) ListBySectionAndStudent(ctx context.Context, sectionID, studentID string) ([]models.GradeDetail, error) {
	return m.sectionGrades, nil
}

func newFacultyService(sections *mockFacultySectionRepo, assignments *mockAssignmentRepo, grades *mockGradeUpsertRepo) *FacultyService {
	faculty := &mockFacultyRepo{faculty: &models.Faculty{ID: "fac1", UserID: "u1"}}
	return NewFacultyService(faculty, sections, assignments, grades, validator.New(), zap.NewNop())
}

func TestFacultyServiceRosterRequiresOwnership(t *testing.T) {
	sections := &mockFacultySectionRepo{ownedSections: map[string]bool{}}
	svc := newFacultyService(sections, &mockAssignmentRepo{}, &mockGradeUpsertRepo{})

	_, err := svc.Roster(context.Background(), "u1", "sec1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestFacultyServiceCreateAssignment(t *testing.T) {
	sections := &mockFacultySectionRepo{ownedSections: map[string]bool{"sec1": true}}
	assignments := &mockAssignmentRepo{}
	svc := newFacultyService(sections, assignments, &mockGradeUpsertRepo{})

	assignment, err := svc.CreateAssignment(context.Background(), "u1", CreateAssignmentRequest{
		SectionID:   "sec1",
		Title:       "Midterm",
		Type:        "exam",
		TotalPoints: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, "asg1", assignment.ID)
	require.NotNil(t, assignments.created)
}

func TestFacultyServiceCreateAssignmentRejectsZeroPoints(t *testing.T) {
	sections := &mockFacultySectionRepo{ownedSections: map[string]bool{"sec1": true}}
	svc := newFacultyService(sections, &mockAssignmentRepo{}, &mockGradeUpsertRepo{})

	_, err := svc.CreateAssignment(context.Background(), "u1", CreateAssignmentRequest{
		SectionID:   "sec1",
		Title:       "Midterm",
		Type:        "exam",
		TotalPoints: 0,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestFacultyServiceSubmitGrade(t *testing.T) {
	sections := &mockFacultySectionRepo{ownedSections: map[string]bool{"sec1": true}}
	assignments := &mockAssignmentRepo{byID: &models.Assignment{ID: "asg1", SectionID: "sec1", TotalPoints: 100}}
	grades := &mockGradeUpsertRepo{}
	svc := newFacultyService(sections, assignments, grades)

	points := 87.5
	grade, err := svc.SubmitGrade(context.Background(), "u1", GradeSubmissionRequest{
		StudentID:    "stu1",
		AssignmentID: "asg1",
		PointsEarned: &points,
	})
	require.NoError(t, err)
	assert.Equal(t, models.GradeStatusSubmitted, grade.Status)
	require.NotNil(t, grades.upserted)
	require.NotNil(t, grades.upserted.GradedAt)
}

func TestFacultyServiceSubmitGradeFinalize(t *testing.T) {
	sections := &mockFacultySectionRepo{ownedSections: map[string]bool{"sec1": true}}
	assignments := &mockAssignmentRepo{byID: &models.Assignment{ID: "asg1", SectionID: "sec1", TotalPoints: 100}}
	svc := newFacultyService(sections, assignments, &mockGradeUpsertRepo{})

	points := 60.0
	grade, err := svc.SubmitGrade(context.Background(), "u1", GradeSubmissionRequest{
		StudentID:    "stu1",
		AssignmentID: "asg1",
		PointsEarned: &points,
		Finalize:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.GradeStatusFinal, grade.Status)
}

func TestFacultyServiceSubmitGradeOutOfRange(t *testing.T) {
	sections := &mockFacultySectionRepo{ownedSections: map[string]bool{"sec1": true}}
	assignments := &mockAssignmentRepo{byID: &models.Assignment{ID: "asg1", SectionID: "sec1", TotalPoints: 50}}
	svc := newFacultyService(sections, assignments, &mockGradeUpsertRepo{})

	points := 80.0
	_, err := svc.SubmitGrade(context.Background(), "u1", GradeSubmissionRequest{
		StudentID:    "stu1",
		AssignmentID: "asg1",
		PointsEarned: &points,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestFacultyServiceSubmitGradeForeignSection(t *testing.T) {
	sections := &mockFacultySectionRepo{ownedSections: map[string]bool{}}
	assignments := &mockAssignmentRepo{byID: &models.Assignment{ID: "asg1", SectionID: "sec9", TotalPoints: 100}}
	svc := newFacultyService(sections, assignments, &mockGradeUpsertRepo{})

	points := 10.0
	_, err := svc.SubmitGrade(context.Background(), "u1", GradeSubmissionRequest{
		StudentID:    "stu1",
		AssignmentID: "asg1",
		PointsEarned: &points,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestFacultyServiceUpdateAssignment(t *testing.T) {
	sections := &mockFacultySectionRepo{ownedSections: map[string]bool{"sec1": true}}
	assignments := &mockAssignmentRepo{byID: &models.Assignment{ID: "asg1", SectionID: "sec1", Title: "Midterm", TotalPoints: 100}}
	svc := newFacultyService(sections, assignments, &mockGradeUpsertRepo{})

	assignment, err := svc.UpdateAssignment(context.Background(), "u1", "asg1", UpdateAssignmentRequest{
		Title:       "Midterm (rescheduled)",
		Type:        "exam",
		TotalPoints: 120,
	})
	require.NoError(t, err)
	assert.Equal(t, "Midterm (rescheduled)", assignment.Title)
	assert.Equal(t, 120.0, assignment.TotalPoints)
	require.NotNil(t, assignments.updated)
	assert.Equal(t, "sec1", assignments.updated.SectionID)
}

func TestFacultyServiceUpdateAssignmentForeignSection(t *testing.T) {
	sections := &mockFacultySectionRepo{ownedSections: map[string]bool{}}
	assignments := &mockAssignmentRepo{byID: &models.Assignment{ID: "asg1", SectionID: "sec9", TotalPoints: 100}}
	svc := newFacultyService(sections, assignments, &mockGradeUpsertRepo{})

	_, err := svc.UpdateAssignment(context.Background(), "u1", "asg1", UpdateAssignmentRequest{
		Title:       "Midterm",
		Type:        "exam",
		TotalPoints: 100,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Nil(t, assignments.updated)
}

func TestFacultyServiceSectionGrades(t *testing.T) {
	sections := &mockFacultySectionRepo{ownedSections: map[string]bool{"sec1": true}}
	grades := &mockGradeUpsertRepo{sectionGrades: []models.GradeDetail{{Grade: models.Grade{ID: "grd1", StudentID: "stu1"}}}}
	svc := newFacultyService(sections, &mockAssignmentRepo{}, grades)

	result, err := svc.SectionGrades(context.Background(), "u1", "sec1", "stu1")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "grd1", result[0].ID)
}

func TestFacultyServiceSectionGradesRequiresOwnership(t *testing.T) {
	sections := &mockFacultySectionRepo{ownedSections: map[string]bool{}}
	svc := newFacultyService(sections, &mockAssignmentRepo{}, &mockGradeUpsertRepo{})

	_, err := svc.SectionGrades(context.Background(), "u1", "sec1", "stu1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestFacultyServiceDeleteAssignmentChecksOwnership(t *testing.T) {
	sections := &mockFacultySectionRepo{ownedSections: map[string]bool{"sec1": true}}
	assignments := &mockAssignmentRepo{byID: &models.Assignment{ID: "asg1", SectionID: "sec1"}}
	svc := newFacultyService(sections, assignments, &mockGradeUpsertRepo{})

	err := svc.DeleteAssignment(context.Background(), "u1", "asg1")
	require.NoError(t, err)
	assert.Equal(t, "asg1", assignments.deleted)
}
