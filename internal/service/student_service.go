package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/opencampus/sims-api/internal/models"
	appErrors "github.com/opencampus/sims-api/pkg/errors"
)

type studentProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
	FindDetailByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
	Update(ctx context.Context, id string, req models.UpdateStudentRequest) error
}

type studentEnrollmentRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	ExistsActive(ctx context.Context, studentID, sectionID string) (bool, error)
	Enroll(ctx context.Context, enrollment *models.Enrollment) error
	Drop(ctx context.Context, id, sectionID string) error
}

type studentGradeRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.GradeDetail, error)
}

type studentSectionRepository interface {
	List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, error)
	FindByID(ctx context.Context, id string) (*models.CourseSection, error)
}

// StudentService serves the student dashboard: profile, section browsing,
// enrollments and grades.
type StudentService struct {
	students    studentProfileRepository
	enrollments studentEnrollmentRepository
	grades      studentGradeRepository
	sections    studentSectionRepository
	logger      *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(students studentProfileRepository, enrollments studentEnrollmentRepository, grades studentGradeRepository, sections studentSectionRepository, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, enrollments: enrollments, grades: grades, sections: sections, logger: logger}
}

// Profile returns the student profile for the authenticated user.
func (s *StudentService) Profile(ctx context.Context, userID string) (*models.StudentDetail, error) {
	detail, err := s.students.FindDetailByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	return detail, nil
}

// Enrollments returns the caller's enrollments with course context.
func (s *StudentService) Enrollments(ctx context.Context, userID string) ([]models.EnrollmentDetail, error) {
	student, err := s.profileOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.enrollments.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// Grades returns the caller's grades with assignment context.
func (s *StudentService) Grades(ctx context.Context, userID string) ([]models.GradeDetail, error) {
	student, err := s.profileOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	grades, err := s.grades.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// BrowseSections lists sections matching the filter for registration.
func (s *StudentService) BrowseSections(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, error) {
	sections, err := s.sections.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}

// Enroll places the caller into a section. The seat claim is atomic, so
// when the section is full the error surfaces here as ErrSectionFull.
func (s *StudentService) Enroll(ctx context.Context, userID, sectionID string) (*models.Enrollment, error) {
	student, err := s.profileOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.sections.FindByID(ctx, sectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	exists, err := s.enrollments.ExistsActive(ctx, student.ID, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
	}

	enrollment := &models.Enrollment{
		StudentID: student.ID,
		SectionID: sectionID,
	}
	if err := s.enrollments.Enroll(ctx, enrollment); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll")
	}

	s.logger.Info("student enrolled", zap.String("student_id", student.ID), zap.String("section_id", sectionID))
	return enrollment, nil
}

// Drop releases the caller's seat in a section. Only the owning student may
// drop their own enrollment.
func (s *StudentService) Drop(ctx context.Context, userID, enrollmentID string) error {
	student, err := s.profileOf(ctx, userID)
	if err != nil {
		return err
	}

	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	if enrollment.StudentID != student.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "enrollment belongs to another student")
	}
	if enrollment.Status != models.EnrollmentStatusEnrolled {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment is not active")
	}

	if err := s.enrollments.Drop(ctx, enrollment.ID, enrollment.SectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment is not active")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to drop enrollment")
	}

	s.logger.Info("student dropped section", zap.String("student_id", student.ID), zap.String("enrollment_id", enrollmentID))
	return nil
}

// UpdateProfile applies a partial update to the student profile row.
func (s *StudentService) UpdateProfile(ctx context.Context, userID string, req models.UpdateStudentRequest) error {
	student, err := s.profileOf(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.students.Update(ctx, student.ID, req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student profile")
	}
	return nil
}

func (s *StudentService) profileOf(ctx context.Context, userID string) (*models.Student, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	return student, nil
}
