package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"hooshmetr/internal/models"
	"hooshmetr/internal/services"
)

type fakeResolver struct {
	users map[int]*models.User
}

func (f *fakeResolver) GetByID(id int) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, nil
}

func newGateFixture() (*AuthGate, *services.TokenService, *fakeResolver) {
	tokens := services.NewTokenService("test-secret", 7)
	resolver := &fakeResolver{users: map[int]*models.User{}}
	return NewAuthGate(tokens, resolver), tokens, resolver
}

func authedRequest(t *testing.T, tokens *services.TokenService, user *models.User) *http.Request {
	t.Helper()
	token, _, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func newRouter(gate *AuthGate, adminOnly bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	mws := []gin.HandlerFunc{gate.RequireAuth()}
	if adminOnly {
		mws = append(mws, RequireAdmin())
	}
	group := r.Group("", mws...)
	group.GET("/me", func(c *gin.Context) {
		user := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"mobile": user.Mobile})
	})
	return r
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	gate, _, _ := newGateFixture()
	r := newRouter(gate, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	gate, _, _ := newGateFixture()
	r := newRouter(gate, false)

	for _, header := range []string{"Bearer", "Token abc", "Bearer  ", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestRequireAuth_ValidToken(t *testing.T) {
	gate, tokens, resolver := newGateFixture()
	user := &models.User{ID: 1, Mobile: "09123456789", Role: models.RoleUser, IsActive: true}
	resolver.users[1] = user
	r := newRouter(gate, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, tokens, user))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRequireAuth_DeletedUser(t *testing.T) {
	gate, tokens, _ := newGateFixture()
	// token for a user the resolver no longer knows
	ghost := &models.User{ID: 9, Mobile: "09120000000", Role: models.RoleUser, IsActive: true}
	r := newRouter(gate, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, tokens, ghost))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted user, got %d", w.Code)
	}
}

func TestRequireAuth_InactiveUser(t *testing.T) {
	gate, tokens, resolver := newGateFixture()
	user := &models.User{ID: 2, Mobile: "09123456780", Role: models.RoleUser, IsActive: false}
	resolver.users[2] = user
	r := newRouter(gate, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, tokens, user))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for deactivated user, got %d", w.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	gate, tokens, resolver := newGateFixture()
	admin := &models.User{ID: 1, Mobile: "09120000001", Role: models.RoleAdmin, IsActive: true}
	plain := &models.User{ID: 2, Mobile: "09120000002", Role: models.RoleUser, IsActive: true}
	resolver.users[1] = admin
	resolver.users[2] = plain
	r := newRouter(gate, true)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, tokens, admin))
	if w.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, tokens, plain))
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin: expected 403, got %d", w.Code)
	}
}

func TestOptionalAuth(t *testing.T) {
	gate, tokens, resolver := newGateFixture()
	user := &models.User{ID: 1, Mobile: "09123456789", Role: models.RoleUser, IsActive: true}
	resolver.users[1] = user

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/feed", gate.OptionalAuth(), func(c *gin.Context) {
		if u := CurrentUser(c); u != nil {
			c.JSON(http.StatusOK, gin.H{"viewer": u.Mobile})
			return
		}
		c.JSON(http.StatusOK, gin.H{"viewer": "anonymous"})
	})

	// anonymous passes
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/feed", nil))
	if w.Code != http.StatusOK || w.Body.String() != `{"viewer":"anonymous"}` {
		t.Fatalf("anonymous: got %d %s", w.Code, w.Body.String())
	}

	// a bad token degrades to anonymous instead of failing
	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != `{"viewer":"anonymous"}` {
		t.Fatalf("bad token: got %d %s", w.Code, w.Body.String())
	}

	// a good token identifies the viewer
	token, _, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/feed", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != `{"viewer":"09123456789"}` {
		t.Fatalf("good token: got %d %s", w.Code, w.Body.String())
	}
}
