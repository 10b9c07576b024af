package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/opencampus/sims-api/internal/models"
)

// GradeRepository handles persistence of assignment grades.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// Upsert writes a grade keyed on (student_id, assignment_id). A repeated
// write for the same pair updates the existing row instead of inserting a
// duplicate.
func (r *GradeRepository) Upsert(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now

	const query = `INSERT INTO grades (id, student_id, assignment_id, points_earned, status, feedback, submitted_at, graded_at, created_at, updated_at)
        VALUES (:id, :student_id, :assignment_id, :points_earned, :status, :feedback, :submitted_at, :graded_at, :created_at, :updated_at)
        ON CONFLICT (student_id, assignment_id) DO UPDATE SET
            points_earned = EXCLUDED.points_earned,
            status = EXCLUDED.status,
            feedback = EXCLUDED.feedback,
            submitted_at = COALESCE(grades.submitted_at, EXCLUDED.submitted_at),
            graded_at = EXCLUDED.graded_at,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}
	return nil
}

// FindByID returns a grade by identifier.
func (r *GradeRepository) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	const query = `SELECT id, student_id, assignment_id, points_earned, status, feedback, submitted_at, graded_at, created_at, updated_at
        FROM grades WHERE id = $1`
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find grade: %w", err)
	}
	return &grade, nil
}

// ListByStudent returns a student's grades with assignment and course context.
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.GradeDetail, error) {
	const query = `SELECT g.id, g.student_id, g.assignment_id, g.points_earned, g.status, g.feedback, g.submitted_at, g.graded_at, g.created_at, g.updated_at,
        a.title AS assignment_title, a.total_points, a.section_id,
        c.course_code, c.title AS course_title
        FROM grades g
        JOIN assignments a ON a.id = g.assignment_id
        JOIN course_sections cs ON cs.id = a.section_id
        JOIN courses c ON c.id = cs.course_id
        WHERE g.student_id = $1
        ORDER BY g.updated_at DESC`
	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, studentID); err != nil {
		return nil, fmt.Errorf("list student grades: %w", err)
	}
	return grades, nil
}

// ListPendingByFaculty returns pending grades across every section the
// faculty member teaches, resolved in a single join.
func (r *GradeRepository) ListPendingByFaculty(ctx context.Context, facultyID string) ([]models.PendingGrade, error) {
	const query = `SELECT g.id, g.student_id, g.assignment_id, g.points_earned, g.status, g.feedback, g.submitted_at, g.graded_at, g.created_at, g.updated_at,
        a.title AS assignment_title, a.total_points, a.section_id,
        c.course_code, u.full_name AS student_name, s.student_number
        FROM grades g
        JOIN assignments a ON a.id = g.assignment_id
        JOIN course_sections cs ON cs.id = a.section_id
        JOIN courses c ON c.id = cs.course_id
        JOIN students s ON s.id = g.student_id
        JOIN users u ON u.id = s.user_id
        WHERE cs.faculty_id = $1 AND g.status = $2
        ORDER BY g.submitted_at ASC NULLS LAST`
	var pending []models.PendingGrade
	if err := r.db.SelectContext(ctx, &pending, query, facultyID, models.GradeStatusPending); err != nil {
		return nil, fmt.Errorf("list pending grades: %w", err)
	}
	return pending, nil
}

// ListBySectionAndStudent returns the grades a student holds in one section.
func (r *GradeRepository) ListBySectionAndStudent(ctx context.Context, sectionID, studentID string) ([]models.GradeDetail, error) {
	const query = `SELECT g.id, g.student_id, g.assignment_id, g.points_earned, g.status, g.feedback, g.submitted_at, g.graded_at, g.created_at, g.updated_at,
        a.title AS assignment_title, a.total_points, a.section_id,
        c.course_code, c.title AS course_title
        FROM grades g
        JOIN assignments a ON a.id = g.assignment_id
        JOIN course_sections cs ON cs.id = a.section_id
        JOIN courses c ON c.id = cs.course_id
        WHERE a.section_id = $1 AND g.student_id = $2
        ORDER BY a.due_date ASC NULLS LAST`
	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, sectionID, studentID); err != nil {
		return nil, fmt.Errorf("list section grades: %w", err)
	}
	return grades, nil
}
