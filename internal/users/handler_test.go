package users_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/monok8i/users-api/internal/security"
	"github.com/monok8i/users-api/internal/users"
)

type fakeEnqueuer struct {
	emails []string
	err    error
}

func (f *fakeEnqueuer) EnqueueWelcomeEmail(ctx context.Context, email string) error {
	if f.err != nil {
		return f.err
	}
	f.emails = append(f.emails, email)
	return nil
}

func newTestServer(t *testing.T) (http.Handler, *memoryRepo, *fakeEnqueuer) {
	t.Helper()
	repo := newMemoryRepo()
	service := users.NewService(repo, security.NewBcryptHasher(bcrypt.MinCost))
	enqueuer := &fakeEnqueuer{}
	handler := users.NewHandler(slog.Default(), service, enqueuer)

	r := chi.NewRouter()
	r.Route("/api/v1/users", func(r chi.Router) {
		handler.MountRoutes(r)
	})
	return r, repo, enqueuer
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeUser(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	return payload
}

func TestCreateUserEndpoint(t *testing.T) {
	server, _, enqueuer := newTestServer(t)

	rr := doJSON(t, server, http.MethodPost, "/api/v1/users", map[string]any{
		"email":    "New.User@Example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	payload := decodeUser(t, rr)
	require.Equal(t, "new.user@example.com", payload["email"])
	require.NotContains(t, payload, "hashed_password")
	require.NotContains(t, rr.Body.String(), "supersecret")

	require.Equal(t, []string{"new.user@example.com"}, enqueuer.emails)
}

func TestCreateUserValidation(t *testing.T) {
	server, _, _ := newTestServer(t)

	rr := doJSON(t, server, http.MethodPost, "/api/v1/users", map[string]any{
		"email":    "not-an-email",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, server, http.MethodPost, "/api/v1/users", map[string]any{
		"email":    "ok@example.com",
		"password": "short",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	// Unknown fields are rejected.
	rr = doJSON(t, server, http.MethodPost, "/api/v1/users", map[string]any{
		"email":    "ok@example.com",
		"password": "supersecret",
		"role":     "admin",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateUserConflict(t *testing.T) {
	server, _, _ := newTestServer(t)

	body := map[string]any{"email": "dup@example.com", "password": "supersecret"}
	require.Equal(t, http.StatusCreated, doJSON(t, server, http.MethodPost, "/api/v1/users", body).Code)

	rr := doJSON(t, server, http.MethodPost, "/api/v1/users", body)
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	require.Contains(t, rr.Body.String(), "dup@example.com")
}

func TestCreateUserEnqueueFailureDoesNotFailRequest(t *testing.T) {
	server, _, enqueuer := newTestServer(t)
	enqueuer.err = fmt.Errorf("queue down")

	rr := doJSON(t, server, http.MethodPost, "/api/v1/users", map[string]any{
		"email":    "a@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
}

func TestGetUserEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t)

	created := decodeUser(t, doJSON(t, server, http.MethodPost, "/api/v1/users", map[string]any{
		"email": "a@example.com", "password": "supersecret",
	}))
	id := int64(created["id"].(float64))

	rr := doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", id), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "a@example.com", decodeUser(t, rr)["email"])

	rr = doJSON(t, server, http.MethodGet, "/api/v1/users/999", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "id=999")

	rr = doJSON(t, server, http.MethodGet, "/api/v1/users/abc", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetUserByEmailEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t)

	doJSON(t, server, http.MethodPost, "/api/v1/users", map[string]any{
		"email": "a@example.com", "password": "supersecret",
	})

	rr := doJSON(t, server, http.MethodGet, "/api/v1/users/by-email?email=A%40example.com", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, server, http.MethodGet, "/api/v1/users/by-email?email=missing%40example.com", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, server, http.MethodGet, "/api/v1/users/by-email", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListUsersEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t)

	for i := 0; i < 3; i++ {
		doJSON(t, server, http.MethodPost, "/api/v1/users", map[string]any{
			"email": fmt.Sprintf("user%d@example.com", i), "password": "supersecret",
		})
	}

	rr := doJSON(t, server, http.MethodGet, "/api/v1/users", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var all []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &all))
	require.Len(t, all, 3)

	rr = doJSON(t, server, http.MethodGet, "/api/v1/users?skip=1&limit=1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var page []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	require.Len(t, page, 1)
	require.Equal(t, all[1]["email"], page[0]["email"])
}

func TestUpdateUserEndpoint(t *testing.T) {
	server, repo, _ := newTestServer(t)

	created := decodeUser(t, doJSON(t, server, http.MethodPost, "/api/v1/users", map[string]any{
		"email": "a@example.com", "password": "supersecret",
	}))
	id := int64(created["id"].(float64))
	originalHash := repo.users[id].HashedPassword

	rr := doJSON(t, server, http.MethodPatch, fmt.Sprintf("/api/v1/users/%d", id), map[string]any{
		"email": "b@example.com",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "b@example.com", decodeUser(t, rr)["email"])
	require.Equal(t, originalHash, repo.users[id].HashedPassword)

	rr = doJSON(t, server, http.MethodPatch, "/api/v1/users/999", map[string]any{
		"email": "c@example.com",
	})
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteUserEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t)

	created := decodeUser(t, doJSON(t, server, http.MethodPost, "/api/v1/users", map[string]any{
		"email": "a@example.com", "password": "supersecret",
	}))
	id := int64(created["id"].(float64))

	rr := doJSON(t, server, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", id), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "a@example.com", decodeUser(t, rr)["email"])

	rr = doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", id), nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, server, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", id), nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAuthenticateEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t)

	doJSON(t, server, http.MethodPost, "/api/v1/users", map[string]any{
		"email": "a@example.com", "password": "supersecret",
	})

	rr := doJSON(t, server, http.MethodPost, "/api/v1/users/authenticate", map[string]any{
		"email": "a@example.com", "password": "supersecret",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, server, http.MethodPost, "/api/v1/users/authenticate", map[string]any{
		"email": "a@example.com", "password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
