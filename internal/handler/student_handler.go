package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/opencampus/sims-api/internal/models"
	"github.com/opencampus/sims-api/internal/service"
	appErrors "github.com/opencampus/sims-api/pkg/errors"
	"github.com/opencampus/sims-api/pkg/response"
)

// StudentHandler exposes the student dashboard endpoints.
type StudentHandler struct {
	students      *service.StudentService
	notifications *service.NotificationService
}

// NewStudentHandler creates a new handler.
func NewStudentHandler(students *service.StudentService, notifications *service.NotificationService) *StudentHandler {
	return &StudentHandler{students: students, notifications: notifications}
}

// Dashboard godoc
// @Summary Student dashboard
// @Description Profile, current enrollments and recent announcements in one payload
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /student/dashboard [get]
func (h *StudentHandler) Dashboard(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	profile, err := h.students.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	enrollments, err := h.students.Enrollments(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	announcements, err := h.notifications.Announcements(c.Request.Context(), models.RoleStudent, 5)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"profile":       profile,
		"enrollments":   enrollments,
		"announcements": announcements,
	}, nil)
}

// Profile godoc
// @Summary Student profile
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/profile [get]
func (h *StudentHandler) Profile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	profile, err := h.students.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// UpdateProfile godoc
// @Summary Update student profile
// @Tags Student
// @Accept json
// @Produce json
// @Param payload body models.UpdateStudentRequest true "Profile fields"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /student/profile [patch]
func (h *StudentHandler) UpdateProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.students.UpdateProfile(c.Request.Context(), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Sections godoc
// @Summary Browse course sections
// @Tags Student
// @Produce json
// @Param course_id query string false "Course filter"
// @Param semester query string false "Semester filter"
// @Param year query integer false "Year filter"
// @Param available query boolean false "Only sections with open seats"
// @Success 200 {object} response.Envelope
// @Router /student/sections [get]
func (h *StudentHandler) Sections(c *gin.Context) {
	filter := models.SectionFilter{
		CourseID: c.Query("course_id"),
		Semester: c.Query("semester"),
	}
	if year, err := strconv.Atoi(c.Query("year")); err == nil {
		filter.Year = year
	}
	if available, err := strconv.ParseBool(c.Query("available")); err == nil {
		filter.OnlyAvailable = available
	}

	sections, err := h.students.BrowseSections(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, nil)
}

// Enrollments godoc
// @Summary List my enrollments
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/enrollments [get]
func (h *StudentHandler) Enrollments(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	enrollments, err := h.students.Enrollments(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// Enroll godoc
// @Summary Enroll into a section
// @Tags Student
// @Accept json
// @Produce json
// @Param payload body object true "Section id"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/enrollments [post]
func (h *StudentHandler) Enroll(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		SectionID string `json:"section_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "section_id required"))
		return
	}

	enrollment, err := h.students.Enroll(c.Request.Context(), claims.UserID, payload.SectionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Drop godoc
// @Summary Drop an enrollment
// @Tags Student
// @Produce json
// @Param id path string true "Enrollment id"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/enrollments/{id} [delete]
func (h *StudentHandler) Drop(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.students.Drop(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Grades godoc
// @Summary List my grades
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/grades [get]
func (h *StudentHandler) Grades(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	grades, err := h.students.Grades(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}
