package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/opencampus/sims-api/internal/models"
	appErrors "github.com/opencampus/sims-api/pkg/errors"
)

// EnrollmentRepository handles persistence of section enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ListByStudent returns a student's enrollments with section and course
// context, most recently created first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.section_id, e.status, e.enrollment_date, e.completion_date, e.final_grade, e.grade_points, e.created_at, e.updated_at,
        cs.section_number, cs.semester, cs.year AS section_year,
        c.course_code, c.title AS course_title, c.credits, u.full_name AS faculty_name
        FROM enrollments e
        JOIN course_sections cs ON cs.id = e.section_id
        JOIN courses c ON c.id = cs.course_id
        LEFT JOIN faculty f ON f.id = cs.faculty_id
        LEFT JOIN users u ON u.id = f.user_id
        WHERE e.student_id = $1
        ORDER BY e.created_at DESC`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// FindByID returns an enrollment by identifier.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, section_id, status, enrollment_date, completion_date, final_grade, grade_points, created_at, updated_at
        FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// ExistsActive checks whether the student already holds an enrolled seat in
// the section.
func (r *EnrollmentRepository) ExistsActive(ctx context.Context, studentID, sectionID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND section_id = $2 AND status = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, sectionID, models.EnrollmentStatusEnrolled); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// Enroll claims a seat and inserts the enrollment row in one transaction.
// The seat claim is a conditional UPDATE so two concurrent enrollments into
// the last seat cannot both succeed.
func (r *EnrollmentRepository) Enroll(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.EnrollmentDate.IsZero() {
		enrollment.EnrollmentDate = now
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusEnrolled
	}
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enroll tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const claimQuery = `UPDATE course_sections
        SET current_enrollment = current_enrollment + 1, updated_at = $2
        WHERE id = $1 AND current_enrollment < max_enrollment`
	result, err := tx.ExecContext(ctx, claimQuery, enrollment.SectionID, now)
	if err != nil {
		return fmt.Errorf("claim section seat: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim section seat: %w", err)
	}
	if affected == 0 {
		return appErrors.ErrSectionFull
	}

	const insertQuery = `INSERT INTO enrollments (id, student_id, section_id, status, enrollment_date, completion_date, final_grade, grade_points, created_at, updated_at)
        VALUES (:id, :student_id, :section_id, :status, :enrollment_date, :completion_date, :final_grade, :grade_points, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enroll tx: %w", err)
	}
	return nil
}

// Drop marks the enrollment dropped and releases the seat in one transaction.
func (r *EnrollmentRepository) Drop(ctx context.Context, id, sectionID string) error {
	now := time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin drop tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const dropQuery = `UPDATE enrollments SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	result, err := tx.ExecContext(ctx, dropQuery, id, models.EnrollmentStatusDropped, now, models.EnrollmentStatusEnrolled)
	if err != nil {
		return fmt.Errorf("drop enrollment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("drop enrollment: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	const releaseQuery = `UPDATE course_sections
        SET current_enrollment = GREATEST(current_enrollment - 1, 0), updated_at = $2
        WHERE id = $1`
	if _, err := tx.ExecContext(ctx, releaseQuery, sectionID, now); err != nil {
		return fmt.Errorf("release section seat: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit drop tx: %w", err)
	}
	return nil
}

// UpdateCompletion records a final grade and completion for an enrollment.
func (r *EnrollmentRepository) UpdateCompletion(ctx context.Context, id, finalGrade string, gradePoints float64, completedAt time.Time) error {
	const query = `UPDATE enrollments SET status = $2, final_grade = $3, grade_points = $4, completion_date = $5, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.EnrollmentStatusCompleted, finalGrade, gradePoints, completedAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("complete enrollment: %w", err)
	}
	return nil
}
