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

type facultyProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Faculty, error)
	FindDetailByUserID(ctx context.Context, userID string) (*models.FacultyDetail, error)
	Update(ctx context.Context, id string, req models.UpdateFacultyRequest) error
}

type facultySectionRepository interface {
	List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, error)
	Roster(ctx context.Context, sectionID string) ([]models.RosterEntry, error)
	OwnedByFaculty(ctx context.Context, sectionID, facultyID string) (bool, error)
}

type facultyAssignmentRepository interface {
	ListBySection(ctx context.Context, sectionID string) ([]models.Assignment, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id string) error
}

type facultyGradeRepository interface {
	Upsert(ctx context.Context, grade *models.Grade) error
	ListPendingByFaculty(ctx context.Context, facultyID string) ([]models.PendingGrade, error)
	ListBySectionAndStudent(ctx context.Context, sectionID, studentID string) ([]models.GradeDetail, error)
}

// CreateAssignmentRequest carries a new assignment definition.
type CreateAssignmentRequest struct {
	SectionID   string     `json:"section_id" validate:"required"`
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description"`
	Type        string     `json:"type" validate:"required"`
	TotalPoints float64    `json:"total_points" validate:"required,gt=0"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateAssignmentRequest rewrites the mutable fields of an assignment.
type UpdateAssignmentRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description"`
	Type        string     `json:"type" validate:"required"`
	TotalPoints float64    `json:"total_points" validate:"required,gt=0"`
	DueDate     *time.Time `json:"due_date"`
}

// GradeSubmissionRequest records a grade decision for one student.
type GradeSubmissionRequest struct {
	StudentID    string   `json:"student_id" validate:"required"`
	AssignmentID string   `json:"assignment_id" validate:"required"`
	PointsEarned *float64 `json:"points_earned" validate:"required"`
	Feedback     *string  `json:"feedback"`
	Finalize     bool     `json:"finalize"`
}

// FacultyService serves the faculty dashboard: taught sections, rosters,
// assignments and grading.
type FacultyService struct {
	faculty     facultyProfileRepository
	sections    facultySectionRepository
	assignments facultyAssignmentRepository
	grades      facultyGradeRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewFacultyService constructs a FacultyService.
func NewFacultyService(faculty facultyProfileRepository, sections facultySectionRepository, assignments facultyAssignmentRepository, grades facultyGradeRepository, validate *validator.Validate, logger *zap.Logger) *FacultyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &FacultyService{faculty: faculty, sections: sections, assignments: assignments, grades: grades, validator: validate, logger: logger}
}

// Profile returns the faculty profile for the authenticated user.
func (s *FacultyService) Profile(ctx context.Context, userID string) (*models.FacultyDetail, error) {
	detail, err := s.faculty.FindDetailByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty profile")
	}
	return detail, nil
}

// Sections returns the sections the caller teaches.
func (s *FacultyService) Sections(ctx context.Context, userID string) ([]models.SectionDetail, error) {
	faculty, err := s.profileOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	sections, err := s.sections.List(ctx, models.SectionFilter{FacultyID: faculty.ID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}

// Roster returns the enrolled students of a taught section. Faculty can
// only see rosters for their own sections.
func (s *FacultyService) Roster(ctx context.Context, userID, sectionID string) ([]models.RosterEntry, error) {
	faculty, err := s.profileOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnership(ctx, sectionID, faculty.ID); err != nil {
		return nil, err
	}
	roster, err := s.sections.Roster(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return roster, nil
}

// Assignments returns the assignments of a taught section.
func (s *FacultyService) Assignments(ctx context.Context, userID, sectionID string) ([]models.Assignment, error) {
	faculty, err := s.profileOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnership(ctx, sectionID, faculty.ID); err != nil {
		return nil, err
	}
	assignments, err := s.assignments.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// CreateAssignment adds an assignment to a taught section.
func (s *FacultyService) CreateAssignment(ctx context.Context, userID string, req CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	faculty, err := s.profileOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnership(ctx, req.SectionID, faculty.ID); err != nil {
		return nil, err
	}

	assignment := &models.Assignment{
		SectionID:   req.SectionID,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		TotalPoints: req.TotalPoints,
		DueDate:     req.DueDate,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	s.logger.Info("assignment created", zap.String("assignment_id", assignment.ID), zap.String("section_id", req.SectionID))
	return assignment, nil
}

// UpdateAssignment rewrites an assignment on a taught section. The section
// binding itself is immutable; move means delete and recreate.
func (s *FacultyService) UpdateAssignment(ctx context.Context, userID, assignmentID string, req UpdateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	faculty, err := s.profileOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if err := s.requireOwnership(ctx, assignment.SectionID, faculty.ID); err != nil {
		return nil, err
	}

	assignment.Title = req.Title
	assignment.Description = req.Description
	assignment.Type = req.Type
	assignment.TotalPoints = req.TotalPoints
	assignment.DueDate = req.DueDate
	if err := s.assignments.Update(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}

	s.logger.Info("assignment updated", zap.String("assignment_id", assignment.ID), zap.String("section_id", assignment.SectionID))
	return assignment, nil
}

// DeleteAssignment removes an assignment from a taught section.
func (s *FacultyService) DeleteAssignment(ctx context.Context, userID, assignmentID string) error {
	faculty, err := s.profileOf(ctx, userID)
	if err != nil {
		return err
	}
	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if err := s.requireOwnership(ctx, assignment.SectionID, faculty.ID); err != nil {
		return err
	}
	if err := s.assignments.Delete(ctx, assignmentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}

// PendingGrades returns the pending submissions across every section the
// caller teaches.
func (s *FacultyService) PendingGrades(ctx context.Context, userID string) ([]models.PendingGrade, error) {
	faculty, err := s.profileOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	pending, err := s.grades.ListPendingByFaculty(ctx, faculty.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending grades")
	}
	return pending, nil
}

// SubmitGrade upserts a grade keyed on (student, assignment). Re-grading
// the same submission overwrites the previous decision instead of creating
// a duplicate row.
func (s *FacultyService) SubmitGrade(ctx context.Context, userID string, req GradeSubmissionRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	faculty, err := s.profileOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	assignment, err := s.assignments.FindByID(ctx, req.AssignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if err := s.requireOwnership(ctx, assignment.SectionID, faculty.ID); err != nil {
		return nil, err
	}

	if req.PointsEarned != nil && (*req.PointsEarned < 0 || *req.PointsEarned > assignment.TotalPoints) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "points earned out of range")
	}

	now := time.Now().UTC()
	status := models.GradeStatusSubmitted
	if req.Finalize {
		status = models.GradeStatusFinal
	}
	grade := &models.Grade{
		StudentID:    req.StudentID,
		AssignmentID: req.AssignmentID,
		PointsEarned: req.PointsEarned,
		Status:       status,
		Feedback:     req.Feedback,
		GradedAt:     &now,
	}
	if err := s.grades.Upsert(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grade")
	}

	s.logger.Info("grade recorded",
		zap.String("assignment_id", req.AssignmentID),
		zap.String("student_id", req.StudentID),
		zap.String("status", string(status)))
	return grade, nil
}

// SectionGrades returns one student's grades inside a taught section, for
// per-student gradebook views.
func (s *FacultyService) SectionGrades(ctx context.Context, userID, sectionID, studentID string) ([]models.GradeDetail, error) {
	faculty, err := s.profileOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnership(ctx, sectionID, faculty.ID); err != nil {
		return nil, err
	}
	grades, err := s.grades.ListBySectionAndStudent(ctx, sectionID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list section grades")
	}
	return grades, nil
}

// UpdateProfile applies a partial update to the faculty profile row.
func (s *FacultyService) UpdateProfile(ctx context.Context, userID string, req models.UpdateFacultyRequest) error {
	faculty, err := s.profileOf(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.faculty.Update(ctx, faculty.ID, req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update faculty profile")
	}
	return nil
}

func (s *FacultyService) requireOwnership(ctx context.Context, sectionID, facultyID string) error {
	owned, err := s.sections.OwnedByFaculty(ctx, sectionID, facultyID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check section ownership")
	}
	if !owned {
		return appErrors.Clone(appErrors.ErrForbidden, "section is taught by another instructor")
	}
	return nil
}

func (s *FacultyService) profileOf(ctx context.Context, userID string) (*models.Faculty, error) {
	faculty, err := s.faculty.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty profile")
	}
	return faculty, nil
}
