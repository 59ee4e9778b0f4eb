package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/hayashide/project-management-api/internal/constants"
	"github.com/hayashide/project-management-api/internal/database"
	"github.com/hayashide/project-management-api/internal/dto"
	"github.com/hayashide/project-management-api/internal/middleware"
	"github.com/hayashide/project-management-api/internal/models"
	"github.com/hayashide/project-management-api/internal/repository"
	"github.com/hayashide/project-management-api/internal/services"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type authTestEnv struct {
	db      *gorm.DB
	handler *AuthHandler
	router  *gin.Engine
}

func setupAuthTestEnv(t *testing.T) authTestEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{})
	require.NoError(t, err)

	database.SetDB(db)

	handler := NewAuthHandler(services.NewAuthService(repository.NewUserRepository(db)))

	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.POST("/api/auth/register", handler.Register)
	r.POST("/api/auth/login", handler.Login)
	r.POST("/api/auth/logout", handler.Logout)
	r.GET("/api/auth/me", middleware.RequireAuth(), handler.GetCurrentUser)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return authTestEnv{db: db, handler: handler, router: r}
}

func postJSON(t *testing.T, r *gin.Engine, url string, payload any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Register(t *testing.T) {
	env := setupAuthTestEnv(t)

	w := postJSON(t, env.router, "/api/auth/register", map[string]string{
		"email":      "new@example.com",
		"password":   "supersecret",
		"first_name": "New",
		"last_name":  "User",
	}, nil)

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "new@example.com", response.Email)
	require.Equal(t, "New", response.FirstName)
}

func TestAuthHandler_Register_InvalidBody(t *testing.T) {
	env := setupAuthTestEnv(t)

	w := postJSON(t, env.router, "/api/auth/register", map[string]string{
		"email": "not-an-email",
	}, nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_LoginAndMe(t *testing.T) {
	env := setupAuthTestEnv(t)

	w := postJSON(t, env.router, "/api/auth/register", map[string]string{
		"email":      "login@example.com",
		"password":   "supersecret",
		"first_name": "Log",
		"last_name":  "In",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, env.router, "/api/auth/login", map[string]string{
		"email":    "login@example.com",
		"password": "supersecret",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var me dto.UserDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	require.Equal(t, "login@example.com", me.Email)
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	env := setupAuthTestEnv(t)

	w := postJSON(t, env.router, "/api/auth/register", map[string]string{
		"email":      "victim@example.com",
		"password":   "supersecret",
		"first_name": "Vic",
		"last_name":  "Tim",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, env.router, "/api/auth/login", map[string]string{
		"email":    "victim@example.com",
		"password": "wrongpass",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Me_WithoutSession(t *testing.T) {
	env := setupAuthTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Logout_ClearsSession(t *testing.T) {
	env := setupAuthTestEnv(t)

	w := postJSON(t, env.router, "/api/auth/register", map[string]string{
		"email":      "out@example.com",
		"password":   "supersecret",
		"first_name": "Log",
		"last_name":  "Out",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, env.router, "/api/auth/login", map[string]string{
		"email":    "out@example.com",
		"password": "supersecret",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()

	w = postJSON(t, env.router, "/api/auth/logout", map[string]string{}, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	// The post-logout cookie no longer authenticates.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
