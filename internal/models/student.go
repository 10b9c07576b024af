package models

import "time"

// Student is the role profile extending a User with academic fields.
type Student struct {
	ID             string     `db:"id" json:"id"`
	UserID         string     `db:"user_id" json:"user_id"`
	StudentNumber  string     `db:"student_number" json:"student_number"`
	Program        string     `db:"program" json:"program"`
	YearOfStudy    int        `db:"year_of_study" json:"year_of_study"`
	GPA            float64    `db:"gpa" json:"gpa"`
	EnrollmentDate time.Time  `db:"enrollment_date" json:"enrollment_date"`
	GraduationDate *time.Time `db:"graduation_date" json:"graduation_date,omitempty"`
	Status         string     `db:"status" json:"status"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentDetail joins the student profile with its user identity.
type StudentDetail struct {
	Student
	Email    string `db:"email" json:"email"`
	FullName string `db:"full_name" json:"full_name"`
}

// UpdateStudentRequest is a partial write to the student profile row.
type UpdateStudentRequest struct {
	Program     *string `json:"program"`
	YearOfStudy *int    `json:"year_of_study"`
	Status      *string `json:"status"`
}
