package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/opencampus/sims-api/internal/models"
)

// FacultyRepository handles persistence of faculty role profiles.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository constructs the repository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

const facultyColumns = `id, user_id, employee_id, department, position, hire_date, office_location, office_hours, created_at, updated_at`

// FindByID returns a faculty profile by its identifier.
func (r *FacultyRepository) FindByID(ctx context.Context, id string) (*models.Faculty, error) {
	query := fmt.Sprintf(`SELECT %s FROM faculty WHERE id = $1`, facultyColumns)
	var faculty models.Faculty
	if err := r.db.GetContext(ctx, &faculty, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find faculty: %w", err)
	}
	return &faculty, nil
}

// FindByUserID returns the faculty profile belonging to a user account.
func (r *FacultyRepository) FindByUserID(ctx context.Context, userID string) (*models.Faculty, error) {
	query := fmt.Sprintf(`SELECT %s FROM faculty WHERE user_id = $1`, facultyColumns)
	var faculty models.Faculty
	if err := r.db.GetContext(ctx, &faculty, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find faculty by user: %w", err)
	}
	return &faculty, nil
}

// FindDetailByUserID returns the faculty profile joined with its identity.
func (r *FacultyRepository) FindDetailByUserID(ctx context.Context, userID string) (*models.FacultyDetail, error) {
	const query = `SELECT f.id, f.user_id, f.employee_id, f.department, f.position, f.hire_date, f.office_location, f.office_hours, f.created_at, f.updated_at,
        u.email, u.full_name
        FROM faculty f
        JOIN users u ON u.id = f.user_id
        WHERE f.user_id = $1`
	var detail models.FacultyDetail
	if err := r.db.GetContext(ctx, &detail, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find faculty detail: %w", err)
	}
	return &detail, nil
}

// List returns faculty profiles with identity, optionally filtered by department.
func (r *FacultyRepository) List(ctx context.Context, department, search string, page, pageSize int) ([]models.FacultyDetail, int, error) {
	base := `FROM faculty f JOIN users u ON u.id = f.user_id`
	var conditions []string
	var args []interface{}

	if department != "" {
		conditions = append(conditions, fmt.Sprintf("f.department = $%d", len(args)+1))
		args = append(args, department)
	}
	if search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.full_name) LIKE $%d OR LOWER(f.employee_id) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(search)+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT f.id, f.user_id, f.employee_id, f.department, f.position, f.hire_date, f.office_location, f.office_hours, f.created_at, f.updated_at,
        u.email, u.full_name %s ORDER BY u.full_name ASC LIMIT %d OFFSET %d`, base+clause, pageSize, offset)

	var faculty []models.FacultyDetail
	if err := r.db.SelectContext(ctx, &faculty, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list faculty: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count faculty: %w", err)
	}
	return faculty, total, nil
}

// Update applies a partial update to the faculty profile.
func (r *FacultyRepository) Update(ctx context.Context, id string, req models.UpdateFacultyRequest) error {
	var sets []string
	var args []interface{}
	args = append(args, id)

	if req.Department != nil {
		sets = append(sets, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, *req.Department)
	}
	if req.Position != nil {
		sets = append(sets, fmt.Sprintf("position = $%d", len(args)+1))
		args = append(args, *req.Position)
	}
	if req.OfficeLocation != nil {
		sets = append(sets, fmt.Sprintf("office_location = $%d", len(args)+1))
		args = append(args, *req.OfficeLocation)
	}
	if req.OfficeHours != nil {
		sets = append(sets, fmt.Sprintf("office_hours = $%d", len(args)+1))
		args = append(args, *req.OfficeHours)
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)+1))
	args = append(args, time.Now().UTC())

	query := fmt.Sprintf("UPDATE faculty SET %s WHERE id = $1", strings.Join(sets, ", "))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update faculty: %w", err)
	}
	return nil
}
