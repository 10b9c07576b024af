package models

import "time"

// GradeStatus tracks the grading lifecycle of one submission.
type GradeStatus string

const (
	GradeStatusPending   GradeStatus = "pending"
	GradeStatusSubmitted GradeStatus = "submitted"
	GradeStatusFinal     GradeStatus = "final"
)

// Grade joins a Student to an Assignment. The (student_id, assignment_id)
// pair is unique; writes go through an upsert.
type Grade struct {
	ID           string      `db:"id" json:"id"`
	StudentID    string      `db:"student_id" json:"student_id"`
	AssignmentID string      `db:"assignment_id" json:"assignment_id"`
	PointsEarned *float64    `db:"points_earned" json:"points_earned,omitempty"`
	Status       GradeStatus `db:"status" json:"status"`
	Feedback     *string     `db:"feedback" json:"feedback,omitempty"`
	SubmittedAt  *time.Time  `db:"submitted_at" json:"submitted_at,omitempty"`
	GradedAt     *time.Time  `db:"graded_at" json:"graded_at,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// GradeDetail joins a grade with its assignment and course context for
// student-facing gradebooks.
type GradeDetail struct {
	Grade
	AssignmentTitle string  `db:"assignment_title" json:"assignment_title"`
	TotalPoints     float64 `db:"total_points" json:"total_points"`
	CourseCode      string  `db:"course_code" json:"course_code"`
	CourseTitle     string  `db:"course_title" json:"course_title"`
	SectionID       string  `db:"section_id" json:"section_id"`
}

// PendingGrade is a faculty-facing review row: a pending grade joined with
// the owning student identity and assignment scope.
type PendingGrade struct {
	Grade
	AssignmentTitle string  `db:"assignment_title" json:"assignment_title"`
	TotalPoints     float64 `db:"total_points" json:"total_points"`
	SectionID       string  `db:"section_id" json:"section_id"`
	CourseCode      string  `db:"course_code" json:"course_code"`
	StudentName     string  `db:"student_name" json:"student_name"`
	StudentNumber   string  `db:"student_number" json:"student_number"`
}
