package models

import "time"

// Faculty is the role profile extending a User with employment fields.
type Faculty struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	EmployeeID     string    `db:"employee_id" json:"employee_id"`
	Department     string    `db:"department" json:"department"`
	Position       string    `db:"position" json:"position"`
	HireDate       time.Time `db:"hire_date" json:"hire_date"`
	OfficeLocation *string   `db:"office_location" json:"office_location,omitempty"`
	OfficeHours    *string   `db:"office_hours" json:"office_hours,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// FacultyDetail joins the faculty profile with its user identity.
type FacultyDetail struct {
	Faculty
	Email    string `db:"email" json:"email"`
	FullName string `db:"full_name" json:"full_name"`
}

// UpdateFacultyRequest is a partial write to the faculty profile row.
type UpdateFacultyRequest struct {
	Department     *string `json:"department"`
	Position       *string `json:"position"`
	OfficeLocation *string `json:"office_location"`
	OfficeHours    *string `json:"office_hours"`
}
