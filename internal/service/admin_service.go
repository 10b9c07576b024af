package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/opencampus/sims-api/internal/models"
	appErrors "github.com/opencampus/sims-api/pkg/errors"
)

type adminStatsRepository interface {
	SystemStats(ctx context.Context) (*models.SystemStats, error)
}

type adminCourseRepository interface {
	ListDepartments(ctx context.Context) ([]models.Department, error)
	FindDepartmentByID(ctx context.Context, id string) (*models.Department, error)
	ListCourses(ctx context.Context, departmentID, search string, page, pageSize int) ([]models.Course, int, error)
	FindCourseByID(ctx context.Context, id string) (*models.Course, error)
	CreateCourse(ctx context.Context, course *models.Course) error
	DepartmentStats(ctx context.Context) ([]models.DepartmentStats, error)
}

type adminSectionRepository interface {
	Create(ctx context.Context, section *models.CourseSection) error
}

type adminUserRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

type adminStudentRepository interface {
	List(ctx context.Context, search string, page, pageSize int) ([]models.StudentDetail, int, error)
}

type adminFacultyRepository interface {
	List(ctx context.Context, department, search string, page, pageSize int) ([]models.FacultyDetail, int, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

const (
	cacheKeySystemStats     = "dashboard:system_stats"
	cacheKeyDepartmentStats = "dashboard:department_stats"
)

// CreateCourseRequest carries a new catalog entry.
type CreateCourseRequest struct {
	CourseCode    string   `json:"course_code" validate:"required"`
	Title         string   `json:"title" validate:"required"`
	Description   *string  `json:"description"`
	Credits       int      `json:"credits" validate:"required,gt=0"`
	DepartmentID  string   `json:"department_id" validate:"required"`
	Prerequisites []string `json:"prerequisites"`
}

// CreateSectionRequest carries a new offering of an existing course.
type CreateSectionRequest struct {
	CourseID      string                 `json:"course_id" validate:"required"`
	SectionNumber string                 `json:"section_number" validate:"required"`
	Semester      string                 `json:"semester" validate:"required"`
	Year          int                    `json:"year" validate:"required,gte=2000"`
	FacultyID     *string                `json:"faculty_id"`
	MaxEnrollment int                    `json:"max_enrollment" validate:"required,gt=0"`
	Schedule      models.SectionSchedule `json:"schedule"`
}

// AdminService serves the admin dashboard: system-wide statistics and the
// user, student, faculty and course directories.
type AdminService struct {
	stats     adminStatsRepository
	courses   adminCourseRepository
	sections  adminSectionRepository
	users     adminUserRepository
	students  adminStudentRepository
	faculty   adminFacultyRepository
	cache     statsCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdminService constructs an AdminService. The cache may be nil, in which
// case every dashboard read hits the database.
func NewAdminService(stats adminStatsRepository, courses adminCourseRepository, sections adminSectionRepository, users adminUserRepository, students adminStudentRepository, faculty adminFacultyRepository, cache statsCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &AdminService{stats: stats, courses: courses, sections: sections, users: users, students: students, faculty: faculty, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// SystemStats returns the dashboard headline counters. The aggregate query
// touches several tables, so results are cached for a short window.
func (s *AdminService) SystemStats(ctx context.Context) (*models.SystemStats, error) {
	var cached models.SystemStats
	if s.cacheGet(ctx, cacheKeySystemStats, &cached) {
		return &cached, nil
	}

	stats, err := s.stats.SystemStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load system stats")
	}
	stats.GeneratedAt = time.Now().UTC()

	s.cacheSet(ctx, cacheKeySystemStats, stats)
	return stats, nil
}

// DepartmentStats returns per-department course, section and enrollment
// counts, cached the same way as SystemStats.
func (s *AdminService) DepartmentStats(ctx context.Context) ([]models.DepartmentStats, error) {
	var cached []models.DepartmentStats
	if s.cacheGet(ctx, cacheKeyDepartmentStats, &cached) {
		return cached, nil
	}

	stats, err := s.courses.DepartmentStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department stats")
	}

	s.cacheSet(ctx, cacheKeyDepartmentStats, stats)
	return stats, nil
}

// Users lists accounts with optional role and search filters.
func (s *AdminService) Users(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, paginationOf(filter.Page, filter.PageSize, total), nil
}

// Students lists student profiles with account context.
func (s *AdminService) Students(ctx context.Context, search string, page, pageSize int) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.students.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, paginationOf(page, pageSize, total), nil
}

// Faculty lists faculty profiles with account context.
func (s *AdminService) Faculty(ctx context.Context, department, search string, page, pageSize int) ([]models.FacultyDetail, *models.Pagination, error) {
	faculty, total, err := s.faculty.List(ctx, department, search, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}
	return faculty, paginationOf(page, pageSize, total), nil
}

// Departments lists every department.
func (s *AdminService) Departments(ctx context.Context) ([]models.Department, error) {
	departments, err := s.courses.ListDepartments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return departments, nil
}

// Courses lists the course catalog with optional filters.
func (s *AdminService) Courses(ctx context.Context, departmentID, search string, page, pageSize int) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.courses.ListCourses(ctx, departmentID, search, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, paginationOf(page, pageSize, total), nil
}

// CreateCourse adds a catalog entry to an existing department.
func (s *AdminService) CreateCourse(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if _, err := s.courses.FindDepartmentByID(ctx, req.DepartmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}

	course := &models.Course{
		CourseCode:    req.CourseCode,
		Title:         req.Title,
		Description:   req.Description,
		Credits:       req.Credits,
		DepartmentID:  req.DepartmentID,
		Prerequisites: req.Prerequisites,
	}
	if err := s.courses.CreateCourse(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("course_code", course.CourseCode))
	return course, nil
}

// CreateSection opens a new offering of an existing course. Seats start
// empty; enrollment adjusts current_enrollment from there.
func (s *AdminService) CreateSection(ctx context.Context, req CreateSectionRequest) (*models.CourseSection, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	if _, err := s.courses.FindCourseByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	section := &models.CourseSection{
		CourseID:          req.CourseID,
		SectionNumber:     req.SectionNumber,
		Semester:          req.Semester,
		Year:              req.Year,
		FacultyID:         req.FacultyID,
		MaxEnrollment:     req.MaxEnrollment,
		CurrentEnrollment: 0,
		Schedule:          req.Schedule,
	}
	if err := s.sections.Create(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}

	s.logger.Info("section created", zap.String("section_id", section.ID), zap.String("course_id", section.CourseID))
	return section, nil
}

func (s *AdminService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *AdminService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func paginationOf(page, pageSize, total int) *models.Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
