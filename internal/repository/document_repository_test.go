package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/sims-api/internal/models"
)

func TestCreateDocumentDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec("INSERT INTO document_uploads").WillReturnResult(sqlmock.NewResult(1, 1))

	doc := &models.DocumentUpload{
		StudentID:        "stu1",
		DocumentType:     "assignment_submission",
		Title:            "Essay",
		OriginalFilename: "essay.pdf",
		FileSize:         2048,
		MimeType:         "application/pdf",
		RemotePublicID:   "student-documents/abc",
		RemoteURL:        "http://res.example.com/abc.pdf",
		RemoteSecureURL:  "https://res.example.com/abc.pdf",
	}
	err := repo.Create(context.Background(), doc)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, models.DocumentStatusPendingReview, doc.Status)
	assert.False(t, doc.SubmittedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE document_uploads SET status")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", models.DocumentStatusApproved, "fac1", nil, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNextVersionNumber(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	rows := sqlmock.NewRows([]string{"coalesce"}).AddRow(3)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version_number), 0) + 1 FROM document_versions")).
		WithArgs("doc1").
		WillReturnRows(rows)

	next, err := repo.NextVersionNumber(context.Background(), "doc1")
	require.NoError(t, err)
	assert.Equal(t, 3, next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForReview(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "section_id", "assignment_id", "document_type", "title", "description", "original_filename", "file_size", "mime_type",
		"remote_public_id", "remote_url", "remote_secure_url", "status", "faculty_review_notes", "reviewed_by", "reviewed_at", "submitted_at", "created_at", "updated_at",
		"student_name", "student_number"}).
		AddRow("doc1", "stu1", "sec1", nil, "assignment_submission", "Essay", nil, "essay.pdf", 2048, "application/pdf",
			"student-documents/abc", "http://res.example.com/abc.pdf", "https://res.example.com/abc.pdf", string(models.DocumentStatusPendingReview), nil, nil, nil, now, now, now,
			"Alice", "STU-1")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE cs.faculty_id = $1 AND d.status = $2")).
		WithArgs("fac1", string(models.DocumentStatusPendingReview)).
		WillReturnRows(rows)

	docs, err := repo.ListForReview(context.Background(), "fac1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Alice", docs[0].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
