package models

import "time"

// ReportJobStatus tracks the async export lifecycle.
type ReportJobStatus string

const (
	ReportJobQueued    ReportJobStatus = "queued"
	ReportJobRunning   ReportJobStatus = "running"
	ReportJobCompleted ReportJobStatus = "completed"
	ReportJobFailed    ReportJobStatus = "failed"
)

// ReportJob is an admin-requested export of enrollment or grade summaries.
type ReportJob struct {
	ID          string          `db:"id" json:"id"`
	ReportType  string          `db:"report_type" json:"report_type"`
	Format      string          `db:"format" json:"format"`
	Status      ReportJobStatus `db:"status" json:"status"`
	RequestedBy string          `db:"requested_by" json:"requested_by"`
	FilePath    *string         `db:"file_path" json:"-"`
	ErrorNote   *string         `db:"error_note" json:"error_note,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	CompletedAt *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}

// Report type markers.
const (
	ReportTypeEnrollmentSummary = "enrollment_summary"
	ReportTypeGradeSummary      = "grade_summary"
)

// SystemStats is the admin dashboard headline block.
type SystemStats struct {
	TotalStudents   int       `json:"total_students"`
	TotalFaculty    int       `json:"total_faculty"`
	TotalSections   int       `json:"total_sections"`
	ActiveSemesters int       `json:"active_semesters"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// EnrollmentSummaryRow is one export line of the enrollment report.
type EnrollmentSummaryRow struct {
	CourseCode    string `db:"course_code"`
	SectionNumber string `db:"section_number"`
	Semester      string `db:"semester"`
	Year          int    `db:"year"`
	Enrolled      int    `db:"enrolled"`
	Capacity      int    `db:"capacity"`
}

// GradeSummaryRow is one export line of the grade report.
type GradeSummaryRow struct {
	CourseCode    string  `db:"course_code"`
	SectionNumber string  `db:"section_number"`
	GradedCount   int     `db:"graded_count"`
	PendingCount  int     `db:"pending_count"`
	AveragePoints float64 `db:"average_points"`
}
