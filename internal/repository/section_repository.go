package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/opencampus/sims-api/internal/models"
)

// SectionRepository handles persistence of course sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

const sectionDetailSelect = `SELECT cs.id, cs.course_id, cs.section_number, cs.semester, cs.year, cs.faculty_id,
        cs.max_enrollment, cs.current_enrollment, cs.schedule, cs.created_at, cs.updated_at,
        c.course_code, c.title AS course_title, c.credits, u.full_name AS faculty_name
        FROM course_sections cs
        JOIN courses c ON c.id = cs.course_id
        LEFT JOIN faculty f ON f.id = cs.faculty_id
        LEFT JOIN users u ON u.id = f.user_id`

// List returns sections joined with course and instructor context.
func (r *SectionRepository) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, error) {
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("cs.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.FacultyID != "" {
		conditions = append(conditions, fmt.Sprintf("cs.faculty_id = $%d", len(args)+1))
		args = append(args, filter.FacultyID)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("cs.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Year > 0 {
		conditions = append(conditions, fmt.Sprintf("cs.year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.OnlyAvailable {
		conditions = append(conditions, "cs.current_enrollment < cs.max_enrollment")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := sectionDetailSelect + clause + " ORDER BY c.course_code ASC, cs.section_number ASC"

	var sections []models.SectionDetail
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// Create inserts a new section offering.
func (r *SectionRepository) Create(ctx context.Context, section *models.CourseSection) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	section.CreatedAt = now
	section.UpdatedAt = now

	const query = `INSERT INTO course_sections (id, course_id, section_number, semester, year, faculty_id, max_enrollment, current_enrollment, schedule, created_at, updated_at)
        VALUES (:id, :course_id, :section_number, :semester, :year, :faculty_id, :max_enrollment, :current_enrollment, :schedule, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// FindByID returns a section by identifier.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.CourseSection, error) {
	const query = `SELECT id, course_id, section_number, semester, year, faculty_id, max_enrollment, current_enrollment, schedule, created_at, updated_at
        FROM course_sections WHERE id = $1`
	var section models.CourseSection
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find section: %w", err)
	}
	return &section, nil
}

// FindDetailByID returns a section with course and instructor context.
func (r *SectionRepository) FindDetailByID(ctx context.Context, id string) (*models.SectionDetail, error) {
	query := sectionDetailSelect + " WHERE cs.id = $1"
	var detail models.SectionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find section detail: %w", err)
	}
	return &detail, nil
}

// Roster returns the enrolled students of a section for faculty views.
func (r *SectionRepository) Roster(ctx context.Context, sectionID string) ([]models.RosterEntry, error) {
	const query = `SELECT e.id, e.student_id, e.section_id, e.status, e.enrollment_date, e.completion_date, e.final_grade, e.grade_points, e.created_at, e.updated_at,
        s.student_number, u.full_name, u.email
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN users u ON u.id = s.user_id
        WHERE e.section_id = $1 AND e.status = $2
        ORDER BY u.full_name ASC`
	var roster []models.RosterEntry
	if err := r.db.SelectContext(ctx, &roster, query, sectionID, models.EnrollmentStatusEnrolled); err != nil {
		return nil, fmt.Errorf("section roster: %w", err)
	}
	return roster, nil
}

// OwnedByFaculty reports whether the section is taught by the given faculty.
func (r *SectionRepository) OwnedByFaculty(ctx context.Context, sectionID, facultyID string) (bool, error) {
	const query = `SELECT 1 FROM course_sections WHERE id = $1 AND faculty_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, sectionID, facultyID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check section ownership: %w", err)
	}
	return true, nil
}
