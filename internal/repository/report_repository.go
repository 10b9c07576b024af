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

// ReportRepository persists report jobs and runs the aggregate queries that
// feed admin dashboards and exports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// CreateJob inserts a queued report job.
func (r *ReportRepository) CreateJob(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = models.ReportJobQueued
	}
	const query = `INSERT INTO report_jobs (id, report_type, format, status, requested_by, file_path, error_note, created_at, completed_at)
        VALUES (:id, :report_type, :format, :status, :requested_by, :file_path, :error_note, :created_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// FindJobByID returns a report job.
func (r *ReportRepository) FindJobByID(ctx context.Context, id string) (*models.ReportJob, error) {
	const query = `SELECT id, report_type, format, status, requested_by, file_path, error_note, created_at, completed_at
        FROM report_jobs WHERE id = $1`
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find report job: %w", err)
	}
	return &job, nil
}

// ListJobs returns recent report jobs, newest first.
func (r *ReportRepository) ListJobs(ctx context.Context, limit int) ([]models.ReportJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT id, report_type, format, status, requested_by, file_path, error_note, created_at, completed_at
        FROM report_jobs ORDER BY created_at DESC LIMIT %d`, limit)
	var jobs []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobs, query); err != nil {
		return nil, fmt.Errorf("list report jobs: %w", err)
	}
	return jobs, nil
}

// MarkRunning transitions a job to running.
func (r *ReportRepository) MarkRunning(ctx context.Context, id string) error {
	const query = `UPDATE report_jobs SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ReportJobRunning); err != nil {
		return fmt.Errorf("mark report running: %w", err)
	}
	return nil
}

// MarkCompleted records the generated file path and completion time.
func (r *ReportRepository) MarkCompleted(ctx context.Context, id, filePath string, completedAt time.Time) error {
	const query = `UPDATE report_jobs SET status = $2, file_path = $3, completed_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ReportJobCompleted, filePath, completedAt); err != nil {
		return fmt.Errorf("mark report completed: %w", err)
	}
	return nil
}

// MarkFailed records the failure note.
func (r *ReportRepository) MarkFailed(ctx context.Context, id, note string, failedAt time.Time) error {
	const query = `UPDATE report_jobs SET status = $2, error_note = $3, completed_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ReportJobFailed, note, failedAt); err != nil {
		return fmt.Errorf("mark report failed: %w", err)
	}
	return nil
}

// SystemStats returns the admin dashboard headline counters.
func (r *ReportRepository) SystemStats(ctx context.Context) (*models.SystemStats, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM students) AS total_students,
        (SELECT COUNT(*) FROM faculty) AS total_faculty,
        (SELECT COUNT(*) FROM course_sections) AS total_sections,
        (SELECT COUNT(DISTINCT (semester, year)) FROM course_sections) AS active_semesters`
	var stats models.SystemStats
	if err := r.db.QueryRowxContext(ctx, query).Scan(&stats.TotalStudents, &stats.TotalFaculty, &stats.TotalSections, &stats.ActiveSemesters); err != nil {
		return nil, fmt.Errorf("system stats: %w", err)
	}
	stats.GeneratedAt = time.Now().UTC()
	return &stats, nil
}

// EnrollmentSummary returns per-section enrollment figures for export.
func (r *ReportRepository) EnrollmentSummary(ctx context.Context) ([]models.EnrollmentSummaryRow, error) {
	const query = `SELECT c.course_code, cs.section_number, cs.semester, cs.year,
        cs.current_enrollment AS enrolled, cs.max_enrollment AS capacity
        FROM course_sections cs
        JOIN courses c ON c.id = cs.course_id
        ORDER BY c.course_code ASC, cs.section_number ASC`
	var rows []models.EnrollmentSummaryRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("enrollment summary: %w", err)
	}
	return rows, nil
}

// GradeSummary returns per-section grading progress for export.
func (r *ReportRepository) GradeSummary(ctx context.Context) ([]models.GradeSummaryRow, error) {
	const query = `SELECT c.course_code, cs.section_number,
        COUNT(g.id) FILTER (WHERE g.status <> 'pending') AS graded_count,
        COUNT(g.id) FILTER (WHERE g.status = 'pending') AS pending_count,
        COALESCE(AVG(g.points_earned) FILTER (WHERE g.points_earned IS NOT NULL), 0) AS average_points
        FROM course_sections cs
        JOIN courses c ON c.id = cs.course_id
        LEFT JOIN assignments a ON a.section_id = cs.id
        LEFT JOIN grades g ON g.assignment_id = a.id
        GROUP BY c.course_code, cs.section_number
        ORDER BY c.course_code ASC, cs.section_number ASC`
	var rows []models.GradeSummaryRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("grade summary: %w", err)
	}
	return rows, nil
}
