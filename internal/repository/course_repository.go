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

// CourseRepository handles the course catalog and departments.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListDepartments returns all departments ordered by name.
func (r *CourseRepository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	const query = `SELECT id, name, code, description, head_faculty_id, created_at, updated_at FROM departments ORDER BY name ASC`
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// FindDepartmentByID returns a department by identifier.
func (r *CourseRepository) FindDepartmentByID(ctx context.Context, id string) (*models.Department, error) {
	const query = `SELECT id, name, code, description, head_faculty_id, created_at, updated_at FROM departments WHERE id = $1`
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find department: %w", err)
	}
	return &department, nil
}

// ListCourses returns catalog entries, optionally scoped to a department.
func (r *CourseRepository) ListCourses(ctx context.Context, departmentID, search string, page, pageSize int) ([]models.Course, int, error) {
	base := `FROM courses WHERE 1=1`
	var conditions []string
	var args []interface{}

	if departmentID != "" {
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)+1))
		args = append(args, departmentID)
	}
	if search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(course_code) LIKE $%d OR LOWER(title) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT id, course_code, title, description, credits, department_id, prerequisites, created_at, updated_at %s ORDER BY course_code ASC LIMIT %d OFFSET %d`, base, pageSize, offset)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// CreateCourse inserts a new catalog entry.
func (r *CourseRepository) CreateCourse(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	const query = `INSERT INTO courses (id, course_code, title, description, credits, department_id, prerequisites, created_at, updated_at)
        VALUES (:id, :course_code, :title, :description, :credits, :department_id, :prerequisites, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// FindCourseByID returns a catalog entry by identifier.
func (r *CourseRepository) FindCourseByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, course_code, title, description, credits, department_id, prerequisites, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// DepartmentStats aggregates course, section and distinct enrolled student
// counts per department in a single query.
func (r *CourseRepository) DepartmentStats(ctx context.Context) ([]models.DepartmentStats, error) {
	const query = `SELECT d.id AS department_id, d.name, d.code,
        COUNT(DISTINCT c.id) AS course_count,
        COUNT(DISTINCT cs.id) AS section_count,
        COUNT(DISTINCT e.student_id) AS student_count
        FROM departments d
        LEFT JOIN courses c ON c.department_id = d.id
        LEFT JOIN course_sections cs ON cs.course_id = c.id
        LEFT JOIN enrollments e ON e.section_id = cs.id AND e.status = 'enrolled'
        GROUP BY d.id, d.name, d.code
        ORDER BY d.name ASC`
	var stats []models.DepartmentStats
	if err := r.db.SelectContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("department stats: %w", err)
	}
	return stats, nil
}
