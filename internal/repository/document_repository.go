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

// DocumentRepository handles persistence of upload metadata and versions.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, student_id, section_id, assignment_id, document_type, title, description, original_filename, file_size, mime_type,
        remote_public_id, remote_url, remote_secure_url, status, faculty_review_notes, reviewed_by, reviewed_at, submitted_at, created_at, updated_at`

// Create inserts the upload metadata row.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.DocumentUpload) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if doc.SubmittedAt.IsZero() {
		doc.SubmittedAt = now
	}
	if doc.Status == "" {
		doc.Status = models.DocumentStatusPendingReview
	}
	doc.CreatedAt = now
	doc.UpdatedAt = now

	const query = `INSERT INTO document_uploads (id, student_id, section_id, assignment_id, document_type, title, description, original_filename, file_size, mime_type,
        remote_public_id, remote_url, remote_secure_url, status, faculty_review_notes, reviewed_by, reviewed_at, submitted_at, created_at, updated_at)
        VALUES (:id, :student_id, :section_id, :assignment_id, :document_type, :title, :description, :original_filename, :file_size, :mime_type,
        :remote_public_id, :remote_url, :remote_secure_url, :status, :faculty_review_notes, :reviewed_by, :reviewed_at, :submitted_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document upload: %w", err)
	}
	return nil
}

// FindByID returns an upload by identifier.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.DocumentUpload, error) {
	query := fmt.Sprintf(`SELECT %s FROM document_uploads WHERE id = $1`, documentColumns)
	var doc models.DocumentUpload
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find document upload: %w", err)
	}
	return &doc, nil
}

// ListByStudent returns a student's uploads, newest first.
func (r *DocumentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.DocumentUpload, error) {
	query := fmt.Sprintf(`SELECT %s FROM document_uploads WHERE student_id = $1 ORDER BY submitted_at DESC`, documentColumns)
	var docs []models.DocumentUpload
	if err := r.db.SelectContext(ctx, &docs, query, studentID); err != nil {
		return nil, fmt.Errorf("list student documents: %w", err)
	}
	return docs, nil
}

// ListForReview returns pending uploads in the sections a faculty member
// teaches, joined with the submitting student identity.
func (r *DocumentRepository) ListForReview(ctx context.Context, facultyID string) ([]models.DocumentUploadDetail, error) {
	const query = `SELECT d.id, d.student_id, d.section_id, d.assignment_id, d.document_type, d.title, d.description, d.original_filename, d.file_size, d.mime_type,
        d.remote_public_id, d.remote_url, d.remote_secure_url, d.status, d.faculty_review_notes, d.reviewed_by, d.reviewed_at, d.submitted_at, d.created_at, d.updated_at,
        u.full_name AS student_name, s.student_number
        FROM document_uploads d
        JOIN course_sections cs ON cs.id = d.section_id
        JOIN students s ON s.id = d.student_id
        JOIN users u ON u.id = s.user_id
        WHERE cs.faculty_id = $1 AND d.status = $2
        ORDER BY d.submitted_at ASC`
	var docs []models.DocumentUploadDetail
	if err := r.db.SelectContext(ctx, &docs, query, facultyID, models.DocumentStatusPendingReview); err != nil {
		return nil, fmt.Errorf("list documents for review: %w", err)
	}
	return docs, nil
}

// UpdateStatus records a review decision.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status models.DocumentStatus, reviewerID string, notes *string, reviewedAt time.Time) error {
	const query = `UPDATE document_uploads SET status = $2, reviewed_by = $3, faculty_review_notes = $4, reviewed_at = $5, updated_at = $6 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, reviewerID, notes, reviewedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ReplaceFile points the upload at a new remote file after a re-submission
// and resets the review state.
func (r *DocumentRepository) ReplaceFile(ctx context.Context, doc *models.DocumentUpload) error {
	doc.UpdatedAt = time.Now().UTC()
	const query = `UPDATE document_uploads SET original_filename = :original_filename, file_size = :file_size, mime_type = :mime_type,
        remote_public_id = :remote_public_id, remote_url = :remote_url, remote_secure_url = :remote_secure_url,
        status = :status, faculty_review_notes = NULL, reviewed_by = NULL, reviewed_at = NULL,
        submitted_at = :submitted_at, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("replace document file: %w", err)
	}
	return nil
}

// Delete removes an upload and its version history.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete document upload: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_versions WHERE document_upload_id = $1`, id); err != nil {
		return fmt.Errorf("delete document versions: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM document_uploads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document upload: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document upload: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete document upload: %w", err)
	}
	return nil
}

// NextVersionNumber returns the next version ordinal for an upload.
func (r *DocumentRepository) NextVersionNumber(ctx context.Context, documentID string) (int, error) {
	const query = `SELECT COALESCE(MAX(version_number), 0) + 1 FROM document_versions WHERE document_upload_id = $1`
	var next int
	if err := r.db.GetContext(ctx, &next, query, documentID); err != nil {
		return 0, fmt.Errorf("next document version: %w", err)
	}
	return next, nil
}

// AddVersion appends a row to the version history.
func (r *DocumentRepository) AddVersion(ctx context.Context, version *models.DocumentVersion) error {
	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO document_versions (id, document_upload_id, version_number, change_description, original_filename, file_size, mime_type,
        remote_public_id, remote_url, remote_secure_url, created_at)
        VALUES (:id, :document_upload_id, :version_number, :change_description, :original_filename, :file_size, :mime_type,
        :remote_public_id, :remote_url, :remote_secure_url, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, version); err != nil {
		return fmt.Errorf("add document version: %w", err)
	}
	return nil
}

// ListVersions returns the version history of an upload, oldest first.
func (r *DocumentRepository) ListVersions(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	const query = `SELECT id, document_upload_id, version_number, change_description, original_filename, file_size, mime_type,
        remote_public_id, remote_url, remote_secure_url, created_at
        FROM document_versions WHERE document_upload_id = $1 ORDER BY version_number ASC`
	var versions []models.DocumentVersion
	if err := r.db.SelectContext(ctx, &versions, query, documentID); err != nil {
		return nil, fmt.Errorf("list document versions: %w", err)
	}
	return versions, nil
}
