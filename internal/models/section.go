package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SectionSchedule describes when and where a section meets. Stored as JSON
// in the course_sections row.
type SectionSchedule struct {
	Days []string `json:"days"`
	Time string   `json:"time"`
	Room string   `json:"room"`
}

// Value implements driver.Valuer for JSON column storage.
func (s SectionSchedule) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSON column retrieval.
func (s *SectionSchedule) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = SectionSchedule{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported schedule type %T", src)
	}
}

// CourseSection is one offering of a Course in a semester/year.
type CourseSection struct {
	ID                string          `db:"id" json:"id"`
	CourseID          string          `db:"course_id" json:"course_id"`
	SectionNumber     string          `db:"section_number" json:"section_number"`
	Semester          string          `db:"semester" json:"semester"`
	Year              int             `db:"year" json:"year"`
	FacultyID         *string         `db:"faculty_id" json:"faculty_id,omitempty"`
	MaxEnrollment     int             `db:"max_enrollment" json:"max_enrollment"`
	CurrentEnrollment int             `db:"current_enrollment" json:"current_enrollment"`
	Schedule          SectionSchedule `db:"schedule" json:"schedule"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// SectionDetail joins a section with its course and instructor identity.
type SectionDetail struct {
	CourseSection
	CourseCode  string  `db:"course_code" json:"course_code"`
	CourseTitle string  `db:"course_title" json:"course_title"`
	Credits     int     `db:"credits" json:"credits"`
	FacultyName *string `db:"faculty_name" json:"faculty_name,omitempty"`
}

// SectionFilter narrows section listings.
type SectionFilter struct {
	CourseID      string
	FacultyID     string
	Semester      string
	Year          int
	OnlyAvailable bool
}
