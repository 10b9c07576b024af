package models

import "time"

// Assignment belongs to a CourseSection.
type Assignment struct {
	ID          string     `db:"id" json:"id"`
	SectionID   string     `db:"section_id" json:"section_id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	Type        string     `db:"type" json:"type"`
	TotalPoints float64    `db:"total_points" json:"total_points"`
	DueDate     *time.Time `db:"due_date" json:"due_date,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
