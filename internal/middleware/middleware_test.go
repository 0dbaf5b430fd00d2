package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/nirmaan-tracker/nirmaan-api/internal/constants"
	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
	"github.com/nirmaan-tracker/nirmaan-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	tokens map[string]*models.User
	users  map[uint64]*models.User
}

func (f fakeAuth) Authenticate(token string) (*models.User, error) {
	u, ok := f.tokens[token]
	if !ok {
		return nil, services.ErrInvalidToken
	}
	if u.Status != models.UserStatusActive {
		return nil, services.ErrUserInactive
	}
	return u, nil
}

func (f fakeAuth) ActiveUser(id uint64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	manager := &models.User{ID: 2, FirstName: "Ravi", Role: models.RoleSiteManager, Status: models.UserStatusActive}
	retired := &models.User{ID: 4, FirstName: "Old", Role: models.RoleFieldRep, Status: models.UserStatusInactive}
	auth := fakeAuth{
		tokens: map[string]*models.User{"good": manager, "retired": retired},
		users:  map[uint64]*models.User{2: manager},
	}

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("test-secret"))))
	r.POST("/login", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(constants.ContextKeyUserID, uint64(2))
		_ = session.Save()
		c.Status(http.StatusOK)
	})
	r.GET("/me", RequireAuth(auth), func(c *gin.Context) {
		viewer, _ := GetViewer(c)
		user, _ := GetUser(c)
		c.JSON(http.StatusOK, gin.H{"id": viewer.UserID, "role": viewer.Role, "name": user.DisplayName()})
	})
	r.GET("/ws", RequireSocketAuth(auth), func(c *gin.Context) {
		viewer, _ := GetViewer(c)
		c.JSON(http.StatusOK, gin.H{"id": viewer.UserID})
	})
	r.DELETE("/admin-only", RequireAuth(auth), RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	r := newAuthRouter()

	tests := []struct {
		name     string
		path     string
		header   string
		wantCode int
		wantBody string
	}{
		{"no credentials", "/me", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"bearer header", "/me", "Bearer good", http.StatusOK, `"role":"Site Manager"`},
		{"lowercase scheme", "/me", "bearer good", http.StatusOK, `"id":2`},
		{"query token ignored on api routes", "/me?token=good", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"query token on socket handshake", "/ws?token=good", "", http.StatusOK, `"id":2`},
		{"bearer on socket handshake", "/ws", "Bearer good", http.StatusOK, `"id":2`},
		{"unknown query token on socket handshake", "/ws?token=nope", "", http.StatusUnauthorized, "Authentication required"},
		{"unknown token", "/me", "Bearer nope", http.StatusUnauthorized, "Authentication required"},
		{"inactive user", "/me", "Bearer retired", http.StatusUnauthorized, "This account is inactive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestRequireAuth_SessionCookie(t *testing.T) {
	r := newAuthRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Ravi"`)
}

func TestRequireRole(t *testing.T) {
	r := newAuthRouter()

	req := httptest.NewRequest(http.MethodDelete, "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Your role cannot perform this action")
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(CORS([]string{"https://app.example.com"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCORS_WildcardEchoesOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(CORS([]string{"*"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
