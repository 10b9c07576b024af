package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/opencampus/sims-api/internal/middleware"
	"github.com/opencampus/sims-api/internal/models"
	"github.com/opencampus/sims-api/internal/service"
)

// RoleLookup resolves the current role of a user, fresh from storage.
type RoleLookup interface {
	FindRoleByID(ctx context.Context, id string) (models.UserRole, error)
}

// RouterDeps bundles everything route registration needs.
type RouterDeps struct {
	Auth          *AuthHandler
	Student       *StudentHandler
	Faculty       *FacultyHandler
	Admin         *AdminHandler
	Documents     *DocumentHandler
	Notifications *NotificationHandler
	Reports       *ReportHandler

	AuthService *service.AuthService
	Metrics     *service.MetricsService
	Roles       RoleLookup
	Guard       middleware.GuardConfig
	APIPrefix   string
}

// RegisterRoutes mounts the API surface: public auth endpoints, the shared
// authenticated endpoints, and one guarded group per role.
func RegisterRoutes(r *gin.Engine, deps RouterDeps) {
	prefix := deps.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", deps.Auth.Register)
		auth.POST("/login", deps.Auth.Login)
		auth.POST("/refresh", deps.Auth.Refresh)
		auth.POST("/forgot-password", deps.Auth.ForgotPassword)
		auth.POST("/reset-password", deps.Auth.ResetPassword)

		authed := auth.Group("")
		authed.Use(middleware.JWT(deps.AuthService))
		authed.POST("/logout", deps.Auth.Logout)
		authed.POST("/change-password", deps.Auth.ChangePassword)
		authed.GET("/me", deps.Auth.Me)
		authed.PATCH("/profile", deps.Auth.UpdateProfile)
	}

	shared := api.Group("")
	shared.Use(middleware.JWT(deps.AuthService))
	{
		shared.GET("/notifications", deps.Notifications.Inbox)
		shared.GET("/notifications/unread-count", deps.Notifications.UnreadCount)
		shared.POST("/notifications/:id/read", deps.Notifications.MarkRead)
		shared.POST("/notifications/read-all", deps.Notifications.MarkAllRead)
		shared.GET("/announcements", deps.Notifications.Announcements)
		shared.DELETE("/announcements/:id", middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin), deps.Notifications.DeleteAnnouncement)
	}

	// Access is granted by the signed token; a session only adds identity
	// to the request log when one happens to be present.
	api.GET("/reports/download", middleware.OptionalJWT(deps.AuthService), deps.Reports.Download)

	student := api.Group("/student")
	student.Use(middleware.Guard(deps.AuthService, deps.Roles, models.RoleStudent, deps.Guard))
	{
		student.GET("/dashboard", deps.Student.Dashboard)
		student.GET("/profile", deps.Student.Profile)
		student.PATCH("/profile", deps.Student.UpdateProfile)
		student.GET("/sections", deps.Student.Sections)
		student.GET("/enrollments", deps.Student.Enrollments)
		student.POST("/enrollments", deps.Student.Enroll)
		student.DELETE("/enrollments/:id", deps.Student.Drop)
		student.GET("/grades", deps.Student.Grades)
		student.GET("/documents", deps.Documents.Mine)
		student.POST("/documents", deps.Documents.Upload)
		student.POST("/documents/:id/resubmit", deps.Documents.Resubmit)
		student.GET("/documents/:id/versions", deps.Documents.Versions)
		student.DELETE("/documents/:id", deps.Documents.Delete)
	}

	faculty := api.Group("/faculty")
	faculty.Use(middleware.Guard(deps.AuthService, deps.Roles, models.RoleFaculty, deps.Guard))
	{
		faculty.GET("/dashboard", deps.Faculty.Dashboard)
		faculty.GET("/profile", deps.Faculty.Profile)
		faculty.PATCH("/profile", deps.Faculty.UpdateProfile)
		faculty.GET("/sections", deps.Faculty.Sections)
		faculty.GET("/sections/:id/roster", deps.Faculty.Roster)
		faculty.GET("/sections/:id/assignments", deps.Faculty.Assignments)
		faculty.GET("/sections/:id/grades", deps.Faculty.SectionGrades)
		faculty.POST("/assignments", deps.Faculty.CreateAssignment)
		faculty.PATCH("/assignments/:id", deps.Faculty.UpdateAssignment)
		faculty.DELETE("/assignments/:id", deps.Faculty.DeleteAssignment)
		faculty.GET("/grades/pending", deps.Faculty.PendingGrades)
		faculty.POST("/grades", deps.Faculty.SubmitGrade)
		faculty.GET("/documents/review", deps.Documents.ForReview)
		faculty.POST("/documents/:id/review", deps.Documents.Review)
		faculty.GET("/announcements", deps.Faculty.MyAnnouncements)
		faculty.POST("/announcements", deps.Faculty.CreateAnnouncement)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.Guard(deps.AuthService, deps.Roles, models.RoleAdmin, deps.Guard))
	{
		admin.GET("/dashboard", deps.Admin.Dashboard)
		admin.GET("/users", deps.Admin.Users)
		admin.GET("/students", deps.Admin.Students)
		admin.GET("/faculty", deps.Admin.Faculty)
		admin.GET("/departments", deps.Admin.Departments)
		admin.GET("/courses", deps.Admin.Courses)
		admin.POST("/courses", deps.Admin.CreateCourse)
		admin.POST("/sections", deps.Admin.CreateSection)
		admin.POST("/announcements", deps.Admin.CreateAnnouncement)
		admin.POST("/reports", deps.Reports.Request)
		admin.GET("/reports", deps.Reports.List)
		admin.GET("/reports/:id", deps.Reports.Get)
		admin.GET("/reports/:id/signed-url", deps.Reports.SignedURL)
	}

	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
}
