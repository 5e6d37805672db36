package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rechargehub/apiserver/internal/auth"
	"github.com/rechargehub/apiserver/internal/services"
	"github.com/rechargehub/apiserver/internal/store"
	"github.com/rechargehub/apiserver/types"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int]types.User)}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) FindByIdentity(_ context.Context, username, email, phone string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if (username != "" && user.Username == username) ||
			(email != "" && user.Email == email) ||
			(phone != "" && user.Phone == phone) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email || existing.Phone == user.Phone {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

type authFixture struct {
	router *chi.Mux
	repo   *fakeUserRepo
	tokens *auth.TokenService
}

func newAuthFixture() *authFixture {
	repo := newFakeUserRepo()
	tokens := auth.NewTokenService("test-secret", time.Hour)
	authService := services.NewAuthService(repo, auth.NewPasswordHasher(bcrypt.MinCost), tokens, "user")

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, authService, tokens)
	})
	return &authFixture{router: router, repo: repo, tokens: tokens}
}

func (f *authFixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func registerBody() map[string]string {
	return map[string]string{
		"username": "ravi",
		"email":    "Ravi@Example.com",
		"phone":    "9876543210",
		"password": "Password1!",
	}
}

func TestRegisterEndpoint(t *testing.T) {
	f := newAuthFixture()

	rec := f.do(t, http.MethodPost, "/auth/register", registerBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), "User registered successfully")

	// Duplicate identity on any field conflicts.
	dup := registerBody()
	dup["username"] = "other"
	rec = f.do(t, http.MethodPost, "/auth/register", dup, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	// Validation failures.
	for name, mutate := range map[string]func(map[string]string){
		"missing field": func(b map[string]string) { delete(b, "email") },
		"bad phone":     func(b map[string]string) { b["phone"] = "12345abcde" },
		"weak password": func(b map[string]string) { b["password"] = "password1" },
	} {
		body := registerBody()
		body["username"] = "someone"
		body["email"] = "someone@example.com"
		body["phone"] = "1112223334"
		mutate(body)
		rec := f.do(t, http.MethodPost, "/auth/register", body, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestLoginEndpoint(t *testing.T) {
	f := newAuthFixture()
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/auth/register", registerBody(), nil).Code)

	rec := f.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "RAVI@example.com",
		"password": "Password1!",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Login successful", resp.Message)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "ravi", resp.User.Username)
	require.Equal(t, "ravi@example.com", resp.User.Email)
	require.Equal(t, "9876543210", resp.User.Phone)
	require.NotContains(t, rec.Body.String(), "password")

	// No identifier at all.
	rec = f.do(t, http.MethodPost, "/auth/login", map[string]string{"password": "Password1!"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown identifier and wrong password produce identical responses.
	unknown := f.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": "ghost", "password": "Password1!",
	}, nil)
	wrong := f.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": "ravi", "password": "Password1?",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, http.StatusUnauthorized, wrong.Code)
	require.Equal(t, unknown.Body.String(), wrong.Body.String())
}

func TestProfileEndpoint(t *testing.T) {
	f := newAuthFixture()
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/auth/register", registerBody(), nil).Code)

	login := f.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": "ravi", "password": "Password1!",
	}, nil)
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &resp))

	rec := f.do(t, http.MethodGet, "/auth/profile", nil, map[string]string{
		"Authorization": "Bearer " + resp.Token,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var profile services.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	require.Equal(t, resp.User.ID, profile.ID)
	require.Equal(t, "ravi", profile.Username)
	require.Equal(t, "user", profile.Role)
	// Profile exposes id, username, and role only.
	require.NotContains(t, rec.Body.String(), "email")
	require.NotContains(t, rec.Body.String(), "phone")

	// Account deleted out of band: token still verifies, account is gone.
	f.repo.remove(resp.User.ID)
	rec = f.do(t, http.MethodGet, "/auth/profile", nil, map[string]string{
		"Authorization": "Bearer " + resp.Token,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileEndpointRejectsBadTokens(t *testing.T) {
	f := newAuthFixture()

	// No header.
	rec := f.do(t, http.MethodGet, "/auth/profile", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "token missing")

	// Wrong scheme.
	rec = f.do(t, http.MethodGet, "/auth/profile", nil, map[string]string{
		"Authorization": "Basic abc123",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "token missing")

	// Garbage token.
	rec = f.do(t, http.MethodGet, "/auth/profile", nil, map[string]string{
		"Authorization": "Bearer not-a-token",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid token")

	// Structurally valid but expired token.
	expired := auth.NewTokenService("test-secret", -time.Minute)
	token, err := expired.Issue(1, "user")
	require.NoError(t, err)
	rec = f.do(t, http.MethodGet, "/auth/profile", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid token")

	// Token signed with a different secret.
	forged := auth.NewTokenService("other-secret", time.Hour)
	token, err = forged.Issue(1, "user")
	require.NoError(t, err)
	rec = f.do(t, http.MethodGet, "/auth/profile", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid token")
}

func TestBearerTokenParsing(t *testing.T) {
	for header, want := range map[string]bool{
		"":               false,
		"Bearer":         false,
		"Bearer ":        false,
		"Token abc":      false,
		"bearer abc":     false,
		"Bearer abc.def": true,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		_, ok := bearerToken(req)
		require.Equal(t, want, ok, "header %q", header)
	}
}

func TestRegisterRejectsMalformedBody(t *testing.T) {
	f := newAuthFixture()

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var payload ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.NotEmpty(t, payload.Error)
}
