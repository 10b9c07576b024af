package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opencampus/sims-api/internal/models"
	appErrors "github.com/opencampus/sims-api/pkg/errors"
)

type mockStatsRepo struct {
	calls int
	stats *models.SystemStats
}

func (m *mockStatsRepo) SystemStats(ctx context.Context) (*models.SystemStats, error) {
	m.calls++
	stats := *m.stats
	return &stats, nil
}

type mockCourseRepo struct {
	departments   []models.Department
	courseByID    *models.Course
	createdCourse *models.Course
	stats         []models.DepartmentStats
	statsCalls    int
}

func (m *mockCourseRepo) ListDepartments(ctx context.Context) ([]models.Department, error) {
	return m.departments, nil
}

func (m *mockCourseRepo) FindDepartmentByID(ctx context.Context, id string) (*models.Department, error) {
	for i := range m.departments {
		if m.departments[i].ID == id {
			return &m.departments[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) ListCourses(ctx context.Context, departmentID, search string, page, pageSize int) ([]models.Course, int, error) {
	return nil, 0, nil
}

func (m *mockCourseRepo) FindCourseByID(ctx context.Context, id string) (*models.Course, error) {
	if m.courseByID == nil || m.courseByID.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.courseByID, nil
}

func (m *mockCourseRepo) CreateCourse(ctx context.Context, course *models.Course) error {
	course.ID = "crs1"
	m.createdCourse = course
	return nil
}

func (m *mockCourseRepo) DepartmentStats(ctx context.Context) ([]models.DepartmentStats, error) {
	m.statsCalls++
	return m.stats, nil
}

type mockSectionWriteRepo struct {
	created *models.CourseSection
}

func (m *mockSectionWriteRepo) Create(ctx context.Context, section *models.CourseSection) error {
	section.ID = "sec1"
	m.created = section
	return nil
}

type mockUserListRepo struct {
	users []models.User
	total int
}

func (m *mockUserListRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	return m.users, m.total, nil
}

type mockStudentListRepo struct{}

func (m *mockStudentListRepo) List(ctx context.Context, search string, page, pageSize int) ([]models.StudentDetail, int, error) {
	return nil, 0, nil
}

type mockFacultyListRepo struct{}

func (m *mockFacultyListRepo) List(ctx context.Context, department, search string, page, pageSize int) ([]models.FacultyDetail, int, error) {
	return nil, 0, nil
}

type memoryCache struct {
	values map[string]interface{}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.values == nil {
		return appErrors.ErrCacheMiss
	}
	value, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	switch d := dest.(type) {
	case *models.SystemStats:
		*d = value.(models.SystemStats)
	case *[]models.DepartmentStats:
		*d = value.([]models.DepartmentStats)
	}
	return nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.values == nil {
		c.values = make(map[string]interface{})
	}
	switch v := value.(type) {
	case *models.SystemStats:
		c.values[key] = *v
	case []models.DepartmentStats:
		c.values[key] = v
	}
	return nil
}

func newAdminService(stats *mockStatsRepo, courses *mockCourseRepo, cache statsCache) *AdminService {
	return NewAdminService(stats, courses, &mockSectionWriteRepo{}, &mockUserListRepo{}, &mockStudentListRepo{}, &mockFacultyListRepo{}, cache, time.Minute, nil, zap.NewNop())
}

func newAdminServiceWith(courses *mockCourseRepo, sections *mockSectionWriteRepo) *AdminService {
	return NewAdminService(&mockStatsRepo{stats: &models.SystemStats{}}, courses, sections, &mockUserListRepo{}, &mockStudentListRepo{}, &mockFacultyListRepo{}, nil, time.Minute, nil, zap.NewNop())
}

func TestAdminServiceSystemStatsCached(t *testing.T) {
	stats := &mockStatsRepo{stats: &models.SystemStats{TotalStudents: 120, TotalFaculty: 15, TotalSections: 30}}
	svc := newAdminService(stats, &mockCourseRepo{}, &memoryCache{})

	first, err := svc.SystemStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, first.TotalStudents)
	assert.False(t, first.GeneratedAt.IsZero())

	second, err := svc.SystemStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, second.TotalStudents)
	assert.Equal(t, 1, stats.calls)
}

func TestAdminServiceSystemStatsWithoutCache(t *testing.T) {
	stats := &mockStatsRepo{stats: &models.SystemStats{TotalStudents: 1}}
	svc := newAdminService(stats, &mockCourseRepo{}, nil)

	_, err := svc.SystemStats(context.Background())
	require.NoError(t, err)
	_, err = svc.SystemStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.calls)
}

func TestAdminServiceDepartmentStatsCached(t *testing.T) {
	courses := &mockCourseRepo{stats: []models.DepartmentStats{{Name: "Science", CourseCount: 12}}}
	svc := newAdminService(&mockStatsRepo{stats: &models.SystemStats{}}, courses, &memoryCache{})

	first, err := svc.DepartmentStats(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, err = svc.DepartmentStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, courses.statsCalls)
}

func TestAdminServiceCreateCourse(t *testing.T) {
	courses := &mockCourseRepo{departments: []models.Department{{ID: "dep1", Name: "Science"}}}
	svc := newAdminServiceWith(courses, &mockSectionWriteRepo{})

	course, err := svc.CreateCourse(context.Background(), CreateCourseRequest{
		CourseCode:   "CS101",
		Title:        "Intro to Computer Science",
		Credits:      3,
		DepartmentID: "dep1",
	})
	require.NoError(t, err)
	assert.Equal(t, "crs1", course.ID)
	require.NotNil(t, courses.createdCourse)
	assert.Equal(t, "CS101", courses.createdCourse.CourseCode)
}

func TestAdminServiceCreateCourseUnknownDepartment(t *testing.T) {
	courses := &mockCourseRepo{}
	svc := newAdminServiceWith(courses, &mockSectionWriteRepo{})

	_, err := svc.CreateCourse(context.Background(), CreateCourseRequest{
		CourseCode:   "CS101",
		Title:        "Intro to Computer Science",
		Credits:      3,
		DepartmentID: "dep9",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Nil(t, courses.createdCourse)
}

func TestAdminServiceCreateSection(t *testing.T) {
	courses := &mockCourseRepo{courseByID: &models.Course{ID: "crs1", CourseCode: "CS101"}}
	sections := &mockSectionWriteRepo{}
	svc := newAdminServiceWith(courses, sections)

	section, err := svc.CreateSection(context.Background(), CreateSectionRequest{
		CourseID:      "crs1",
		SectionNumber: "001",
		Semester:      "Fall",
		Year:          2026,
		MaxEnrollment: 40,
	})
	require.NoError(t, err)
	assert.Equal(t, "sec1", section.ID)
	assert.Equal(t, 0, section.CurrentEnrollment)
	require.NotNil(t, sections.created)
}

func TestAdminServiceCreateSectionUnknownCourse(t *testing.T) {
	sections := &mockSectionWriteRepo{}
	svc := newAdminServiceWith(&mockCourseRepo{}, sections)

	_, err := svc.CreateSection(context.Background(), CreateSectionRequest{
		CourseID:      "crs9",
		SectionNumber: "001",
		Semester:      "Fall",
		Year:          2026,
		MaxEnrollment: 40,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Nil(t, sections.created)
}

func TestAdminServiceUsersPagination(t *testing.T) {
	users := &mockUserListRepo{users: []models.User{{ID: "u1"}}, total: 41}
	svc := NewAdminService(&mockStatsRepo{stats: &models.SystemStats{}}, &mockCourseRepo{}, &mockSectionWriteRepo{}, users, &mockStudentListRepo{}, &mockFacultyListRepo{}, nil, time.Minute, nil, zap.NewNop())

	list, pagination, err := svc.Users(context.Background(), models.UserFilter{Page: 2, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 41, pagination.TotalCount)
}
