package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"accounts-api/internal/entities"
	"accounts-api/internal/jwt"
	"accounts-api/internal/repository"
)

// fakeCache is an in-memory cache.Cache used to exercise the guard's
// cached-lookup path.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
	hits    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	return nil
}

func (f *fakeCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = data
	f.sets++
	return nil
}

func (f *fakeCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.entries[key]
	if !ok {
		return errors.New("key not found")
	}
	f.hits++
	return json.Unmarshal(data, dest)
}

type guardFixture struct {
	router     *gin.Engine
	repo       repository.UserRepository
	jwtService *jwt.JWTService
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepository()
	jwtService := jwt.NewJWTService("test-secret", time.Hour)

	identity := func(c *gin.Context) {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "role": user.Role})
	}

	router := gin.New()
	authGuard := AuthMiddleware(jwtService, repo, nil)
	router.GET("/protected", authGuard, identity)
	router.GET("/admin-only", authGuard, RequireRoles(entities.RoleAdmin), identity)
	router.GET("/no-roles-declared", authGuard, RequireRoles(), identity)

	return &guardFixture{router: router, repo: repo, jwtService: jwtService}
}

func (f *guardFixture) seedUser(t *testing.T, email string, role entities.Role) (*entities.User, string) {
	t.Helper()
	user, err := f.repo.Create(context.Background(), &entities.User{
		Name:         "Guard Test",
		Email:        email,
		PasswordHash: "$2a$04$irrelevantforguardtests",
		Role:         role,
	})
	require.NoError(t, err)

	token, err := f.jwtService.GenerateToken(user.ID, user.Role)
	require.NoError(t, err)
	return user, token
}

func (f *guardFixture) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	f := newGuardFixture(t)

	w := f.get("/protected", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	f := newGuardFixture(t)
	_, token := f.seedUser(t, "a@x.com", entities.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	f := newGuardFixture(t)

	w := f.get("/protected", "not.a.jwt")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	f := newGuardFixture(t)
	user, _ := f.seedUser(t, "a@x.com", entities.RoleUser)

	expiredIssuer := jwt.NewJWTService("test-secret", -2*time.Minute)
	token, err := expiredIssuer.GenerateToken(user.ID, user.Role)
	require.NoError(t, err)

	w := f.get("/protected", token)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_DeletedUser(t *testing.T) {
	f := newGuardFixture(t)
	user, token := f.seedUser(t, "a@x.com", entities.RoleUser)

	require.NoError(t, f.repo.Delete(context.Background(), user.ID))

	w := f.get("/protected", token)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_AttachesIdentity(t *testing.T) {
	f := newGuardFixture(t)
	_, token := f.seedUser(t, "a@x.com", entities.RoleUser)

	w := f.get("/protected", token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"role":"user"`)
}

func TestAuthMiddleware_ServesUserFromCache(t *testing.T) {
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepository()
	jwtService := jwt.NewJWTService("test-secret", time.Hour)
	userCache := newFakeCache()

	router := gin.New()
	router.GET("/protected", AuthMiddleware(jwtService, repo, userCache), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"email": user.Email})
	})

	user, err := repo.Create(context.Background(), &entities.User{
		Name:         "Cached",
		Email:        "cached@x.com",
		PasswordHash: "$2a$04$irrelevantforguardtests",
		Role:         entities.RoleUser,
	})
	require.NoError(t, err)

	token, err := jwtService.GenerateToken(user.ID, user.Role)
	require.NoError(t, err)

	get := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	// First request misses the cache and fills it from the repository.
	w := get()
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, userCache.sets)
	require.Equal(t, 0, userCache.hits)

	// Second request is answered from the cache: deleting the user from
	// the repository does not matter until the entry expires.
	require.NoError(t, repo.Delete(context.Background(), user.ID))

	w = get()
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "cached@x.com")
	require.Equal(t, 1, userCache.sets)
	require.Equal(t, 1, userCache.hits)
}

func TestRequireRoles_DeniesWrongRole(t *testing.T) {
	f := newGuardFixture(t)
	_, token := f.seedUser(t, "plain@x.com", entities.RoleUser)

	w := f.get("/admin-only", token)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRoles_AllowsMatchingRole(t *testing.T) {
	f := newGuardFixture(t)
	_, token := f.seedUser(t, "boss@x.com", entities.RoleAdmin)

	w := f.get("/admin-only", token)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoles_EmptySetAllowsAnyAuthenticated(t *testing.T) {
	f := newGuardFixture(t)
	_, token := f.seedUser(t, "plain@x.com", entities.RoleUser)

	w := f.get("/no-roles-declared", token)
	require.Equal(t, http.StatusOK, w.Code)
}
