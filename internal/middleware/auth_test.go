package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/reportdesk/internal/ability"
	"anoa.com/reportdesk/internal/model"
	"anoa.com/reportdesk/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubUserRepo struct {
	user *model.User
}

func (s *stubUserRepo) Create(ctx context.Context, user *model.User) error { return nil }
func (s *stubUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (s *stubUserRepo) FindRoleByName(ctx context.Context, name string) (*model.Role, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *stubUserRepo) Update(ctx context.Context, user *model.User) error { return nil }
func (s *stubUserRepo) FindAll(ctx context.Context) ([]*model.User, error) { return nil, nil }
func (s *stubUserRepo) DeleteWithDetach(ctx context.Context, id uuid.UUID) error {
	return nil
}

func signToken(t *testing.T, secret, subject string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func testRouter(t *testing.T, repo *stubUserRepo, extra ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)

	m := NewAuthMiddleware(repo, session.NewManager("cookie-secret", false))

	r := gin.New()
	handlers := append([]gin.HandlerFunc{m.RequireAuth()}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})
	r.GET("/protected", handlers...)
	return r
}

func TestRequireAuthBearerToken(t *testing.T) {
	user := &model.User{ID: uuid.New(), Email: "alice@example.com", Role: model.Role{Name: model.RoleRegular}}
	r := testRouter(t, &stubUserRepo{user: user})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret", user.Email, time.Hour))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), user.ID.String())
}

func TestRequireAuthSessionCookie(t *testing.T) {
	user := &model.User{ID: uuid.New(), Email: "alice@example.com", Role: model.Role{Name: model.RoleRegular}}
	r := testRouter(t, &stubUserRepo{user: user})

	sessions := session.NewManager("cookie-secret", false)
	seed := httptest.NewRecorder()
	require.NoError(t, sessions.Write(seed, httptest.NewRequest(http.MethodPost, "/", nil), signToken(t, "test-secret", user.Email, time.Hour)))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	for _, c := range seed.Result().Cookies() {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuthMissingCredential(t *testing.T) {
	r := testRouter(t, &stubUserRepo{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthExpiredToken(t *testing.T) {
	user := &model.User{ID: uuid.New(), Email: "alice@example.com"}
	r := testRouter(t, &stubUserRepo{user: user})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret", user.Email, -time.Minute))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthWrongSecret(t *testing.T) {
	user := &model.User{ID: uuid.New(), Email: "alice@example.com"}
	r := testRouter(t, &stubUserRepo{user: user})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", user.Email, time.Hour))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthDeletedAccount(t *testing.T) {
	r := testRouter(t, &stubUserRepo{})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret", "gone@example.com", time.Hour))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	admin := &model.User{ID: uuid.New(), Email: "admin@example.com", Role: model.Role{Name: model.RoleAdmin}}
	regular := &model.User{ID: uuid.New(), Email: "user@example.com", Role: model.Role{Name: model.RoleRegular}}

	for _, tc := range []struct {
		name string
		user *model.User
		want int
	}{
		{"admin passes", admin, http.StatusOK},
		{"regular forbidden", regular, http.StatusForbidden},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "test-secret")
			gin.SetMode(gin.TestMode)

			m := NewAuthMiddleware(&stubUserRepo{user: tc.user}, session.NewManager("cookie-secret", false))
			r := gin.New()
			r.GET("/admin", m.RequireAuth(), m.RequireAdmin(), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret", tc.user.Email, time.Hour))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestRequirePolicy(t *testing.T) {
	regular := &model.User{ID: uuid.New(), Email: "user@example.com", Role: model.Role{Name: model.RoleRegular}}

	allowed := testRouter(t, &stubUserRepo{user: regular}, RequirePolicy(ability.ActionCreate, ability.SubjectReport))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret", regular.Email, time.Hour))
	w := httptest.NewRecorder()
	allowed.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	denied := testRouter(t, &stubUserRepo{user: regular}, RequirePolicy(ability.ActionDelete, ability.SubjectUser))
	req2 := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req2.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret", regular.Email, time.Hour))
	w2 := httptest.NewRecorder()
	denied.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusForbidden, w2.Code)
}
