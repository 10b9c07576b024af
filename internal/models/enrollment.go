package models

import "time"

// EnrollmentStatus tracks the lifecycle of a student's section membership.
type EnrollmentStatus string

const (
	EnrollmentStatusEnrolled  EnrollmentStatus = "enrolled"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusDropped   EnrollmentStatus = "dropped"
	EnrollmentStatusPending   EnrollmentStatus = "pending"
)

// Enrollment joins a Student to a CourseSection.
type Enrollment struct {
	ID             string           `db:"id" json:"id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	SectionID      string           `db:"section_id" json:"section_id"`
	Status         EnrollmentStatus `db:"status" json:"status"`
	EnrollmentDate time.Time        `db:"enrollment_date" json:"enrollment_date"`
	CompletionDate *time.Time       `db:"completion_date" json:"completion_date,omitempty"`
	FinalGrade     *string          `db:"final_grade" json:"final_grade,omitempty"`
	GradePoints    *float64         `db:"grade_points" json:"grade_points,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail joins an enrollment with section, course and instructor
// context for student-facing listings.
type EnrollmentDetail struct {
	Enrollment
	SectionNumber string  `db:"section_number" json:"section_number"`
	Semester      string  `db:"semester" json:"semester"`
	SectionYear   int     `db:"section_year" json:"section_year"`
	CourseCode    string  `db:"course_code" json:"course_code"`
	CourseTitle   string  `db:"course_title" json:"course_title"`
	Credits       int     `db:"credits" json:"credits"`
	FacultyName   *string `db:"faculty_name" json:"faculty_name,omitempty"`
}

// RosterEntry joins an enrollment with the student identity for
// faculty-facing section rosters.
type RosterEntry struct {
	Enrollment
	StudentNumber string `db:"student_number" json:"student_number"`
	FullName      string `db:"full_name" json:"full_name"`
	Email         string `db:"email" json:"email"`
}
