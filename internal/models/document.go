package models

import "time"

// DocumentStatus is the review lifecycle of a student upload. pending_review
// is the initial state; the service layer does not forbid any transition —
// enforcement, if desired, belongs to the data layer.
type DocumentStatus string

const (
	DocumentStatusPendingReview    DocumentStatus = "pending_review"
	DocumentStatusApproved         DocumentStatus = "approved"
	DocumentStatusRejected         DocumentStatus = "rejected"
	DocumentStatusRevisionRequired DocumentStatus = "revision_required"
)

// Valid reports whether the status is a known variant.
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusPendingReview, DocumentStatusApproved, DocumentStatusRejected, DocumentStatusRevisionRequired:
		return true
	}
	return false
}

// DocumentUpload is the metadata row for a student-submitted file. The file
// itself lives on the remote file host; only identifiers and URLs are kept.
type DocumentUpload struct {
	ID                 string         `db:"id" json:"id"`
	StudentID          string         `db:"student_id" json:"student_id"`
	SectionID          *string        `db:"section_id" json:"section_id,omitempty"`
	AssignmentID       *string        `db:"assignment_id" json:"assignment_id,omitempty"`
	DocumentType       string         `db:"document_type" json:"document_type"`
	Title              string         `db:"title" json:"title"`
	Description        *string        `db:"description" json:"description,omitempty"`
	OriginalFilename   string         `db:"original_filename" json:"original_filename"`
	FileSize           int64          `db:"file_size" json:"file_size"`
	MimeType           string         `db:"mime_type" json:"mime_type"`
	RemotePublicID     string         `db:"remote_public_id" json:"remote_public_id"`
	RemoteURL          string         `db:"remote_url" json:"remote_url"`
	RemoteSecureURL    string         `db:"remote_secure_url" json:"remote_secure_url"`
	Status             DocumentStatus `db:"status" json:"status"`
	FacultyReviewNotes *string        `db:"faculty_review_notes" json:"faculty_review_notes,omitempty"`
	ReviewedBy         *string        `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt         *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
	SubmittedAt        time.Time      `db:"submitted_at" json:"submitted_at"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// DocumentUploadDetail joins an upload with the submitting student identity.
type DocumentUploadDetail struct {
	DocumentUpload
	StudentName   string `db:"student_name" json:"student_name"`
	StudentNumber string `db:"student_number" json:"student_number"`
}

// DocumentVersion is one entry of the append-only re-submission history.
type DocumentVersion struct {
	ID                string    `db:"id" json:"id"`
	DocumentUploadID  string    `db:"document_upload_id" json:"document_upload_id"`
	VersionNumber     int       `db:"version_number" json:"version_number"`
	ChangeDescription *string   `db:"change_description" json:"change_description,omitempty"`
	OriginalFilename  string    `db:"original_filename" json:"original_filename"`
	FileSize          int64     `db:"file_size" json:"file_size"`
	MimeType          string    `db:"mime_type" json:"mime_type"`
	RemotePublicID    string    `db:"remote_public_id" json:"remote_public_id"`
	RemoteURL         string    `db:"remote_url" json:"remote_url"`
	RemoteSecureURL   string    `db:"remote_secure_url" json:"remote_secure_url"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}
