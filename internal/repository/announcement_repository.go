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

// AnnouncementRepository handles persistence of announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository constructs the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// Create inserts a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, a *models.Announcement) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Priority == "" {
		a.Priority = models.PriorityNormal
	}

	const query = `INSERT INTO announcements (id, title, content, author_id, target_audience, target_id, priority, expires_at, created_at, updated_at)
        VALUES (:id, :title, :content, :author_id, :target_audience, :target_id, :priority, :expires_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// FindByID returns an announcement by identifier.
func (r *AnnouncementRepository) FindByID(ctx context.Context, id string) (*models.Announcement, error) {
	const query = `SELECT id, title, content, author_id, target_audience, target_id, priority, expires_at, created_at, updated_at
        FROM announcements WHERE id = $1`
	var a models.Announcement
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find announcement: %w", err)
	}
	return &a, nil
}

// ListVisibleToRole returns unexpired announcements a role may see: the
// role-wide audiences plus "all". Section-targeted announcements are
// delivered through notifications instead.
func (r *AnnouncementRepository) ListVisibleToRole(ctx context.Context, role models.UserRole, limit int) ([]models.AnnouncementDetail, error) {
	audience := models.AudienceAll
	switch role {
	case models.RoleStudent:
		audience = models.AudienceStudents
	case models.RoleFaculty:
		audience = models.AudienceFaculty
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := fmt.Sprintf(`SELECT a.id, a.title, a.content, a.author_id, a.target_audience, a.target_id, a.priority, a.expires_at, a.created_at, a.updated_at,
        u.full_name AS author_name
        FROM announcements a
        JOIN users u ON u.id = a.author_id
        WHERE a.target_audience IN ($1, $2)
          AND (a.expires_at IS NULL OR a.expires_at > $3)
        ORDER BY a.priority = 'high' DESC, a.created_at DESC
        LIMIT %d`, limit)

	var announcements []models.AnnouncementDetail
	if err := r.db.SelectContext(ctx, &announcements, query, models.AudienceAll, audience, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return announcements, nil
}

// ListByAuthor returns the announcements authored by a user.
func (r *AnnouncementRepository) ListByAuthor(ctx context.Context, authorID string) ([]models.Announcement, error) {
	const query = `SELECT id, title, content, author_id, target_audience, target_id, priority, expires_at, created_at, updated_at
        FROM announcements WHERE author_id = $1 ORDER BY created_at DESC`
	var announcements []models.Announcement
	if err := r.db.SelectContext(ctx, &announcements, query, authorID); err != nil {
		return nil, fmt.Errorf("list author announcements: %w", err)
	}
	return announcements, nil
}

// Delete removes an announcement.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM announcements WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	return nil
}
