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

// AdminHandler exposes the admin dashboard and directory endpoints.
type AdminHandler struct {
	admin         *service.AdminService
	notifications *service.NotificationService
	metrics       *service.MetricsService
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(admin *service.AdminService, notifications *service.NotificationService, metrics *service.MetricsService) *AdminHandler {
	return &AdminHandler{admin: admin, notifications: notifications, metrics: metrics}
}

// Dashboard godoc
// @Summary Admin dashboard
// @Description System stats, per-department stats and a runtime metrics snapshot
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.admin.SystemStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	departments, err := h.admin.DepartmentStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"system":      stats,
		"departments": departments,
		"runtime":     h.metrics.Snapshot(),
	}, nil)
}

// Users godoc
// @Summary List user accounts
// @Tags Admin
// @Produce json
// @Param role query string false "Role filter"
// @Param search query string false "Name or email search"
// @Param page query integer false "Page"
// @Param page_size query integer false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/users [get]
func (h *AdminHandler) Users(c *gin.Context) {
	filter := models.UserFilter{
		Search:    c.Query("search"),
		Page:      intQuery(c, "page", 1),
		PageSize:  intQuery(c, "page_size", 20),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if value := c.Query("role"); value != "" {
		role := models.UserRole(value)
		if !role.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown role filter"))
			return
		}
		filter.Role = &role
	}

	users, pagination, err := h.admin.Users(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// Students godoc
// @Summary List student profiles
// @Tags Admin
// @Produce json
// @Param search query string false "Name, email or student number search"
// @Param page query integer false "Page"
// @Param page_size query integer false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/students [get]
func (h *AdminHandler) Students(c *gin.Context) {
	students, pagination, err := h.admin.Students(c.Request.Context(), c.Query("search"), intQuery(c, "page", 1), intQuery(c, "page_size", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Faculty godoc
// @Summary List faculty profiles
// @Tags Admin
// @Produce json
// @Param department query string false "Department filter"
// @Param search query string false "Name or email search"
// @Param page query integer false "Page"
// @Param page_size query integer false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/faculty [get]
func (h *AdminHandler) Faculty(c *gin.Context) {
	faculty, pagination, err := h.admin.Faculty(c.Request.Context(), c.Query("department"), c.Query("search"), intQuery(c, "page", 1), intQuery(c, "page_size", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faculty, pagination)
}

// Departments godoc
// @Summary List departments
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/departments [get]
func (h *AdminHandler) Departments(c *gin.Context) {
	departments, err := h.admin.Departments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, departments, nil)
}

// Courses godoc
// @Summary List course catalog
// @Tags Admin
// @Produce json
// @Param department_id query string false "Department filter"
// @Param search query string false "Code or title search"
// @Param page query integer false "Page"
// @Param page_size query integer false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/courses [get]
func (h *AdminHandler) Courses(c *gin.Context) {
	courses, pagination, err := h.admin.Courses(c.Request.Context(), c.Query("department_id"), c.Query("search"), intQuery(c, "page", 1), intQuery(c, "page_size", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// CreateCourse godoc
// @Summary Create course
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body service.CreateCourseRequest true "Course"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/courses [post]
func (h *AdminHandler) CreateCourse(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	course, err := h.admin.CreateCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// CreateSection godoc
// @Summary Create course section
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body service.CreateSectionRequest true "Section"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/sections [post]
func (h *AdminHandler) CreateSection(c *gin.Context) {
	var req service.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	section, err := h.admin.CreateSection(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// CreateAnnouncement godoc
// @Summary Publish announcement
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body service.CreateAnnouncementRequest true "Announcement"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/announcements [post]
func (h *AdminHandler) CreateAnnouncement(c *gin.Context) {
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

func intQuery(c *gin.Context, name string, fallback int) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
