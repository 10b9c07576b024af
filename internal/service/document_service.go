package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/opencampus/sims-api/internal/models"
	appErrors "github.com/opencampus/sims-api/pkg/errors"
	"github.com/opencampus/sims-api/pkg/storage"
)

type documentRepository interface {
	Create(ctx context.Context, doc *models.DocumentUpload) error
	FindByID(ctx context.Context, id string) (*models.DocumentUpload, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.DocumentUpload, error)
	ListForReview(ctx context.Context, facultyID string) ([]models.DocumentUploadDetail, error)
	UpdateStatus(ctx context.Context, id string, status models.DocumentStatus, reviewerID string, notes *string, reviewedAt time.Time) error
	ReplaceFile(ctx context.Context, doc *models.DocumentUpload) error
	Delete(ctx context.Context, id string) error
	NextVersionNumber(ctx context.Context, documentID string) (int, error)
	AddVersion(ctx context.Context, version *models.DocumentVersion) error
	ListVersions(ctx context.Context, documentID string) ([]models.DocumentVersion, error)
}

type documentFileHost interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*storage.UploadResult, error)
	Destroy(ctx context.Context, publicID string) error
}

type documentStudentResolver interface {
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

type documentFacultyResolver interface {
	FindByUserID(ctx context.Context, userID string) (*models.Faculty, error)
}

type documentNotifier interface {
	Create(ctx context.Context, n *models.Notification) error
	NotifySectionFaculty(ctx context.Context, sectionID, title, message, relatedID string) error
}

type studentUserLookup interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// UploadDocumentRequest carries an upload and its metadata.
type UploadDocumentRequest struct {
	SectionID    *string
	AssignmentID *string
	DocumentType string
	Title        string
	Description  *string
	Filename     string
	Size         int64
	MimeType     string
	Content      io.Reader
}

// ReviewDocumentRequest records a faculty review decision.
type ReviewDocumentRequest struct {
	Status models.DocumentStatus `json:"status"`
	Notes  *string               `json:"notes"`
}

// DocumentServiceConfig bounds what uploads are accepted.
type DocumentServiceConfig struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// DocumentService owns the student upload flow and the faculty review flow.
// Files live on the remote host; only metadata is stored locally.
type DocumentService struct {
	documents documentRepository
	host      documentFileHost
	students  documentStudentResolver
	faculty   documentFacultyResolver
	notifier  documentNotifier
	lookup    studentUserLookup
	logger    *zap.Logger
	cfg       DocumentServiceConfig
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(documents documentRepository, host documentFileHost, students documentStudentResolver, faculty documentFacultyResolver, notifier documentNotifier, lookup studentUserLookup, logger *zap.Logger, cfg DocumentServiceConfig) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 10 * 1024 * 1024
	}
	return &DocumentService{documents: documents, host: host, students: students, faculty: faculty, notifier: notifier, lookup: lookup, logger: logger, cfg: cfg}
}

// Upload validates the file, pushes it to the remote host, then records the
// metadata. If the metadata write fails the remote file is deleted again so
// no orphan remains on the host.
func (s *DocumentService) Upload(ctx context.Context, userID string, req UploadDocumentRequest) (*models.DocumentUpload, error) {
	if err := s.validateFile(req.Size, req.MimeType); err != nil {
		return nil, err
	}
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}

	result, err := s.host.Upload(ctx, req.Filename, req.Content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upload file")
	}

	doc := &models.DocumentUpload{
		StudentID:        student.ID,
		SectionID:        req.SectionID,
		AssignmentID:     req.AssignmentID,
		DocumentType:     req.DocumentType,
		Title:            req.Title,
		Description:      req.Description,
		OriginalFilename: req.Filename,
		FileSize:         req.Size,
		MimeType:         req.MimeType,
		RemotePublicID:   result.PublicID,
		RemoteURL:        result.URL,
		RemoteSecureURL:  result.SecureURL,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		// The file is already on the host; remove it so the failed write
		// does not leave an orphan behind.
		if cleanupErr := s.host.Destroy(ctx, result.PublicID); cleanupErr != nil {
			s.logger.Warn("failed to clean up orphaned remote file",
				zap.String("public_id", result.PublicID), zap.Error(cleanupErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record upload")
	}

	if err := s.documents.AddVersion(ctx, s.versionOf(doc, 1, nil)); err != nil {
		s.logger.Warn("failed to record initial document version", zap.String("document_id", doc.ID), zap.Error(err))
	}

	if doc.SectionID != nil {
		title := "New document submitted"
		message := fmt.Sprintf("%q was submitted for review.", doc.Title)
		if err := s.notifier.NotifySectionFaculty(ctx, *doc.SectionID, title, message, doc.ID); err != nil {
			s.logger.Warn("failed to notify section faculty", zap.String("document_id", doc.ID), zap.Error(err))
		}
	}

	s.logger.Info("document uploaded", zap.String("document_id", doc.ID), zap.String("student_id", student.ID))
	return doc, nil
}

// Resubmit replaces the stored file of an existing upload, resets the
// review state and appends a version entry.
func (s *DocumentService) Resubmit(ctx context.Context, userID, documentID string, changeDescription *string, req UploadDocumentRequest) (*models.DocumentUpload, error) {
	if err := s.validateFile(req.Size, req.MimeType); err != nil {
		return nil, err
	}
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}

	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	if doc.StudentID != student.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "document belongs to another student")
	}

	result, err := s.host.Upload(ctx, req.Filename, req.Content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upload file")
	}

	doc.OriginalFilename = req.Filename
	doc.FileSize = req.Size
	doc.MimeType = req.MimeType
	doc.RemotePublicID = result.PublicID
	doc.RemoteURL = result.URL
	doc.RemoteSecureURL = result.SecureURL
	doc.Status = models.DocumentStatusPendingReview
	doc.SubmittedAt = time.Now().UTC()

	if err := s.documents.ReplaceFile(ctx, doc); err != nil {
		if cleanupErr := s.host.Destroy(ctx, result.PublicID); cleanupErr != nil {
			s.logger.Warn("failed to clean up orphaned remote file",
				zap.String("public_id", result.PublicID), zap.Error(cleanupErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record resubmission")
	}

	next, err := s.documents.NextVersionNumber(ctx, doc.ID)
	if err != nil {
		s.logger.Warn("failed to resolve next version number", zap.String("document_id", doc.ID), zap.Error(err))
		next = 1
	}
	if err := s.documents.AddVersion(ctx, s.versionOf(doc, next, changeDescription)); err != nil {
		s.logger.Warn("failed to record document version", zap.String("document_id", doc.ID), zap.Error(err))
	}

	if doc.SectionID != nil {
		title := "Document resubmitted"
		message := fmt.Sprintf("%q was resubmitted for review.", doc.Title)
		if err := s.notifier.NotifySectionFaculty(ctx, *doc.SectionID, title, message, doc.ID); err != nil {
			s.logger.Warn("failed to notify section faculty", zap.String("document_id", doc.ID), zap.Error(err))
		}
	}

	return doc, nil
}

// Mine returns the caller's uploads.
func (s *DocumentService) Mine(ctx context.Context, userID string) ([]models.DocumentUpload, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	docs, err := s.documents.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return docs, nil
}

// ForReview returns pending uploads in the caller's taught sections.
func (s *DocumentService) ForReview(ctx context.Context, userID string) ([]models.DocumentUploadDetail, error) {
	faculty, err := s.faculty.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty profile")
	}
	docs, err := s.documents.ListForReview(ctx, faculty.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents for review")
	}
	return docs, nil
}

// Review records a faculty decision on an upload and notifies the owning
// student about the status change.
func (s *DocumentService) Review(ctx context.Context, userID, documentID string, req ReviewDocumentRequest) error {
	if !req.Status.Valid() || req.Status == models.DocumentStatusPendingReview {
		return appErrors.Clone(appErrors.ErrValidation, "unknown review status")
	}

	faculty, err := s.faculty.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "faculty profile not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty profile")
	}

	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	if err := s.documents.UpdateStatus(ctx, documentID, req.Status, faculty.ID, req.Notes, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update document status")
	}

	if student, err := s.lookup.FindByID(ctx, doc.StudentID); err == nil {
		n := &models.Notification{
			UserID:    student.UserID,
			Title:     "Document review updated",
			Message:   fmt.Sprintf("%q is now %s.", doc.Title, req.Status),
			Type:      models.NotificationTypeStatusChange,
			RelatedID: &doc.ID,
		}
		if err := s.notifier.Create(ctx, n); err != nil {
			s.logger.Warn("failed to notify student about review", zap.String("document_id", doc.ID), zap.Error(err))
		}
	} else {
		s.logger.Warn("failed to resolve document owner for notification", zap.String("document_id", doc.ID), zap.Error(err))
	}

	s.logger.Info("document reviewed",
		zap.String("document_id", documentID),
		zap.String("status", string(req.Status)),
		zap.String("reviewer", faculty.ID))
	return nil
}

// Delete removes the caller's upload and its version history, then deletes
// the remote file. The remote delete is best effort: the metadata is already
// gone, so a host failure only leaves an unreferenced file behind.
func (s *DocumentService) Delete(ctx context.Context, userID, documentID string) error {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}

	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	if doc.StudentID != student.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "document belongs to another student")
	}

	if err := s.documents.Delete(ctx, documentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete document")
	}

	if err := s.host.Destroy(ctx, doc.RemotePublicID); err != nil {
		s.logger.Warn("failed to delete remote file",
			zap.String("public_id", doc.RemotePublicID), zap.Error(err))
	}

	s.logger.Info("document deleted", zap.String("document_id", documentID), zap.String("student_id", student.ID))
	return nil
}

// Versions returns the re-submission history of an upload.
func (s *DocumentService) Versions(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	versions, err := s.documents.ListVersions(ctx, documentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list document versions")
	}
	return versions, nil
}

func (s *DocumentService) validateFile(size int64, mimeType string) error {
	if size > s.cfg.MaxFileSizeBytes {
		return appErrors.Clone(appErrors.ErrFileTooLarge, "")
	}
	if len(s.cfg.AllowedMIMEs) > 0 {
		allowed := false
		for _, m := range s.cfg.AllowedMIMEs {
			if m == mimeType {
				allowed = true
				break
			}
		}
		if !allowed {
			return appErrors.Clone(appErrors.ErrUnsupportedFileType, "")
		}
	}
	return nil
}

func (s *DocumentService) versionOf(doc *models.DocumentUpload, number int, changeDescription *string) *models.DocumentVersion {
	return &models.DocumentVersion{
		DocumentUploadID:  doc.ID,
		VersionNumber:     number,
		ChangeDescription: changeDescription,
		OriginalFilename:  doc.OriginalFilename,
		FileSize:          doc.FileSize,
		MimeType:          doc.MimeType,
		RemotePublicID:    doc.RemotePublicID,
		RemoteURL:         doc.RemoteURL,
		RemoteSecureURL:   doc.RemoteSecureURL,
	}
}
