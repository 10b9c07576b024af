package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opencampus/sims-api/internal/models"
	"github.com/opencampus/sims-api/internal/service"
	appErrors "github.com/opencampus/sims-api/pkg/errors"
	"github.com/opencampus/sims-api/pkg/response"
)

// FacultyHandler exposes the faculty dashboard endpoints.
type FacultyHandler struct {
	faculty       *service.FacultyService
	notifications *service.NotificationService
}

// NewFacultyHandler creates a new handler.
func NewFacultyHandler(faculty *service.FacultyService, notifications *service.NotificationService) *FacultyHandler {
	return &FacultyHandler{faculty: faculty, notifications: notifications}
}

// Dashboard godoc
// @Summary Faculty dashboard
// @Description Taught sections, pending grading queue and recent announcements
// @Tags Faculty
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /faculty/dashboard [get]
func (h *FacultyHandler) Dashboard(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	sections, err := h.faculty.Sections(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	pending, err := h.faculty.PendingGrades(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	announcements, err := h.notifications.Announcements(c.Request.Context(), models.RoleFaculty, 5)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"sections":       sections,
		"pending_grades": pending,
		"announcements":  announcements,
	}, nil)
}

// Profile godoc
// @Summary Faculty profile
// @Tags Faculty
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /faculty/profile [get]
func (h *FacultyHandler) Profile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	profile, err := h.faculty.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// UpdateProfile godoc
// @Summary Update faculty profile
// @Tags Faculty
// @Accept json
// @Produce json
// @Param payload body models.UpdateFacultyRequest true "Profile fields"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /faculty/profile [patch]
func (h *FacultyHandler) UpdateProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.faculty.UpdateProfile(c.Request.Context(), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Sections godoc
// @Summary List taught sections
// @Tags Faculty
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /faculty/sections [get]
func (h *FacultyHandler) Sections(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	sections, err := h.faculty.Sections(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, nil)
}

// Roster godoc
// @Summary Section roster
// @Tags Faculty
// @Produce json
// @Param id path string true "Section id"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /faculty/sections/{id}/roster [get]
func (h *FacultyHandler) Roster(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	roster, err := h.faculty.Roster(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// Assignments godoc
// @Summary Section assignments
// @Tags Faculty
// @Produce json
// @Param id path string true "Section id"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /faculty/sections/{id}/assignments [get]
func (h *FacultyHandler) Assignments(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	assignments, err := h.faculty.Assignments(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// CreateAssignment godoc
// @Summary Create assignment
// @Tags Faculty
// @Accept json
// @Produce json
// @Param payload body service.CreateAssignmentRequest true "Assignment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /faculty/assignments [post]
func (h *FacultyHandler) CreateAssignment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	assignment, err := h.faculty.CreateAssignment(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// UpdateAssignment godoc
// @Summary Update assignment
// @Tags Faculty
// @Accept json
// @Produce json
// @Param id path string true "Assignment id"
// @Param payload body service.UpdateAssignmentRequest true "Assignment"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /faculty/assignments/{id} [patch]
func (h *FacultyHandler) UpdateAssignment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	assignment, err := h.faculty.UpdateAssignment(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// DeleteAssignment godoc
// @Summary Delete assignment
// @Tags Faculty
// @Produce json
// @Param id path string true "Assignment id"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /faculty/assignments/{id} [delete]
func (h *FacultyHandler) DeleteAssignment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.faculty.DeleteAssignment(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// PendingGrades godoc
// @Summary Pending grading queue
// @Description Pending submissions across every taught section
// @Tags Faculty
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /faculty/grades/pending [get]
func (h *FacultyHandler) PendingGrades(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	pending, err := h.faculty.PendingGrades(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pending, nil)
}

// SectionGrades godoc
// @Summary One student's grades in a section
// @Tags Faculty
// @Produce json
// @Param id path string true "Section id"
// @Param student_id query string true "Student id"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /faculty/sections/{id}/grades [get]
func (h *FacultyHandler) SectionGrades(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	studentID := c.Query("student_id")
	if studentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "student_id is required"))
		return
	}

	grades, err := h.faculty.SectionGrades(c.Request.Context(), claims.UserID, c.Param("id"), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// SubmitGrade godoc
// @Summary Submit a grade
// @Description Upserts the grade keyed on (student, assignment)
// @Tags Faculty
// @Accept json
// @Produce json
// @Param payload body service.GradeSubmissionRequest true "Grade"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /faculty/grades [post]
func (h *FacultyHandler) SubmitGrade(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.GradeSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	grade, err := h.faculty.SubmitGrade(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// CreateAnnouncement godoc
// @Summary Publish announcement
// @Tags Faculty
// @Accept json
// @Produce json
// @Param payload body service.CreateAnnouncementRequest true "Announcement"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /faculty/announcements [post]
func (h *FacultyHandler) CreateAnnouncement(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	announcement, err := h.notifications.PublishAnnouncement(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, announcement)
}

// MyAnnouncements godoc
// @Summary List authored announcements
// @Tags Faculty
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /faculty/announcements [get]
func (h *FacultyHandler) MyAnnouncements(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	announcements, err := h.notifications.AuthoredAnnouncements(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcements, nil)
}
