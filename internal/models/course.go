package models

import (
	"time"

	"github.com/lib/pq"
)

// Department is a catalog grouping for courses.
type Department struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Code          string    `db:"code" json:"code"`
	Description   *string   `db:"description" json:"description,omitempty"`
	HeadFacultyID *string   `db:"head_faculty_id" json:"head_faculty_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Course is a catalog entry. Prerequisites is an unordered set of course
// codes and is not cross-validated against the catalog.
type Course struct {
	ID            string         `db:"id" json:"id"`
	CourseCode    string         `db:"course_code" json:"course_code"`
	Title         string         `db:"title" json:"title"`
	Description   *string        `db:"description" json:"description,omitempty"`
	Credits       int            `db:"credits" json:"credits"`
	DepartmentID  string         `db:"department_id" json:"department_id"`
	Prerequisites pq.StringArray `db:"prerequisites" json:"prerequisites,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// DepartmentStats aggregates catalog and headcount figures per department.
type DepartmentStats struct {
	DepartmentID string `db:"department_id" json:"department_id"`
	Name         string `db:"name" json:"name"`
	Code         string `db:"code" json:"code"`
	CourseCount  int    `db:"course_count" json:"course_count"`
	SectionCount int    `db:"section_count" json:"section_count"`
	StudentCount int    `db:"student_count" json:"student_count"`
}
