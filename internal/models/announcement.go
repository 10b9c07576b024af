package models

import "time"

// AnnouncementAudience selects who receives an announcement.
type AnnouncementAudience string

const (
	AudienceAll            AnnouncementAudience = "all"
	AudienceStudents       AnnouncementAudience = "students"
	AudienceFaculty        AnnouncementAudience = "faculty"
	AudienceSpecificCourse AnnouncementAudience = "specific_course"
)

// AnnouncementPriority ranks announcement importance.
type AnnouncementPriority string

const (
	PriorityLow    AnnouncementPriority = "low"
	PriorityNormal AnnouncementPriority = "normal"
	PriorityHigh   AnnouncementPriority = "high"
)

// Announcement is authored by faculty or admins and targeted at an audience.
type Announcement struct {
	ID             string               `db:"id" json:"id"`
	Title          string               `db:"title" json:"title"`
	Content        string               `db:"content" json:"content"`
	AuthorID       string               `db:"author_id" json:"author_id"`
	TargetAudience AnnouncementAudience `db:"target_audience" json:"target_audience"`
	TargetID       *string              `db:"target_id" json:"target_id,omitempty"`
	Priority       AnnouncementPriority `db:"priority" json:"priority"`
	ExpiresAt      *time.Time           `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt      time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `db:"updated_at" json:"updated_at"`
}

// AnnouncementDetail joins an announcement with its author's name.
type AnnouncementDetail struct {
	Announcement
	AuthorName string `db:"author_name" json:"author_name"`
}
