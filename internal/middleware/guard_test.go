package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/opencampus/sims-api/internal/models"
)

type stubValidator struct {
	claims *models.JWTClaims
	err    error
}

func (s *stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

type stubRoleLookup struct {
	role models.UserRole
	err  error
}

func (s *stubRoleLookup) FindRoleByID(ctx context.Context, id string) (models.UserRole, error) {
	return s.role, s.err
}

func guardedRouter(validator guardTokenValidator, roles guardRoleLookup, required models.UserRole, cfg GuardConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/" + string(required))
	group.Use(Guard(validator, roles, required, cfg))
	group.GET("/dashboard", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestGuardRedirectsAnonymousToLanding(t *testing.T) {
	router := guardedRouter(&stubValidator{}, &stubRoleLookup{}, models.RoleStudent, GuardConfig{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/student/dashboard", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestGuardRedirectsInvalidToken(t *testing.T) {
	router := guardedRouter(&stubValidator{err: errors.New("expired")}, &stubRoleLookup{}, models.RoleStudent, GuardConfig{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/student/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestGuardRedirectsWrongRoleToOwnDashboard(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "u1", Role: models.RoleFaculty}}
	router := guardedRouter(validator, &stubRoleLookup{role: models.RoleFaculty}, models.RoleStudent, GuardConfig{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/student/dashboard", nil)
	req.Header.Set("Authorization", "Bearer token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/faculty/dashboard", w.Header().Get("Location"))
}

func TestGuardAllowsMatchingRole(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}}
	router := guardedRouter(validator, &stubRoleLookup{role: models.RoleStudent}, models.RoleStudent, GuardConfig{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/student/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "token"})
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGuardUsesFreshRole(t *testing.T) {
	// The token still says student, but the database role has changed.
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}}
	router := guardedRouter(validator, &stubRoleLookup{role: models.RoleAdmin}, models.RoleStudent, GuardConfig{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/student/dashboard", nil)
	req.Header.Set("Authorization", "Bearer token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/dashboard", w.Header().Get("Location"))
}

func TestGuardDevBypass(t *testing.T) {
	router := guardedRouter(&stubValidator{}, &stubRoleLookup{}, models.RoleAdmin, GuardConfig{DevBypassAuth: true})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGuardRedirectsWhenRoleLookupFails(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}}
	router := guardedRouter(validator, &stubRoleLookup{err: errors.New("db down")}, models.RoleStudent, GuardConfig{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/student/dashboard", nil)
	req.Header.Set("Authorization", "Bearer token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}
