package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/closersai/leadgen/internal/api"
	mw "github.com/closersai/leadgen/internal/api/middleware"
	"github.com/closersai/leadgen/internal/cache"
	"github.com/closersai/leadgen/internal/store"
	"github.com/closersai/leadgen/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- stub store that returns empty results (all auth fails) ---

type stubStore struct{}

func (s *stubStore) Ping(_ context.Context) error { return nil }
func (s *stubStore) GetUserByEmail(_ context.Context, _ string) (*models.User, error) {
	return nil, store.ErrNotFound
}
func (s *stubStore) GetAPIKeyByPrefix(_ context.Context, _ string) ([]*models.APIKey, error) {
	return nil, nil
}
func (s *stubStore) UpdateAPIKeyLastUsed(_ context.Context, _ uuid.UUID) error { return nil }
func (s *stubStore) CreateAPIKey(_ context.Context, _ *models.APIKey) error    { return nil }
func (s *stubStore) ListAPIKeys(_ context.Context, _ uuid.UUID) ([]*models.APIKey, error) {
	return nil, nil
}
func (s *stubStore) RevokeAPIKey(_ context.Context, _ uuid.UUID, _ uuid.UUID) error { return nil }
func (s *stubStore) CreateJob(_ context.Context, _ *models.Job) error               { return nil }
func (s *stubStore) GetJob(_ context.Context, _ uuid.UUID, _ uuid.UUID) (*models.Job, error) {
	return nil, store.ErrNotFound
}
func (s *stubStore) GetJobByID(_ context.Context, _ uuid.UUID) (*models.Job, error) {
	return nil, store.ErrNotFound
}
func (s *stubStore) ListJobs(_ context.Context, _ uuid.UUID) ([]*models.Job, error) {
	return nil, nil
}
func (s *stubStore) DeleteJob(_ context.Context, _ uuid.UUID, _ uuid.UUID) error { return nil }
func (s *stubStore) MarkJobRunning(_ context.Context, _ uuid.UUID) error         { return nil }
func (s *stubStore) ApplyJobUpdate(_ context.Context, _ uuid.UUID, _ store.JobUpdate) (bool, error) {
	return false, store.ErrNotFound
}
func (s *stubStore) InsertLeads(_ context.Context, _ []*models.Lead) error { return nil }
func (s *stubStore) ListLeads(_ context.Context, _ uuid.UUID) ([]*models.Lead, error) {
	return nil, nil
}

// --- stub cache ---

type stubCache struct{}

func (c *stubCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (c *stubCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (c *stubCache) Delete(_ context.Context, _ string) error                          { return nil }
func (c *stubCache) Ping(_ context.Context) error                                      { return nil }
func (c *stubCache) SetJobStatus(_ context.Context, _, _ uuid.UUID, _ string, _ time.Duration) error {
	return nil
}
func (c *stubCache) GetJobStatus(_ context.Context, _, _ uuid.UUID) (string, bool, error) {
	return "", false, nil
}
func (c *stubCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}

// --- router tests ---

func newTestRouter() http.Handler {
	return api.NewRouter(api.Dependencies{
		Auth:      mw.NewAuth(&stubStore{}),
		RateLimit: mw.NewRateLimit(&stubCache{}, 60),
		HealthHandler: func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		},
	})
}

func TestRouter_HealthEndpoint_Public(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_ProtectedEndpoints_RequireAuth(t *testing.T) {
	router := newTestRouter()

	endpoints := []struct {
		method string
		path   string
	}{
		{"POST", "/jobs"},
		{"GET", "/jobs"},
		{"GET", "/jobs/" + uuid.NewString()},
		{"DELETE", "/jobs/" + uuid.NewString()},
		{"POST", "/keys"},
		{"GET", "/keys"},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			req := httptest.NewRequest(ep.method, ep.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			errObj := body["error"].(map[string]any)
			assert.Equal(t, "UNAUTHORIZED", errObj["code"])
		})
	}
}

func TestRouter_CallbackWithoutHandler_NotImplemented(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("POST", "/webhooks/workflow", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// No callback handler wired in this stub setup
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Verify unused interfaces are satisfied
var _ store.Store = (*stubStore)(nil)
var _ cache.Cache = (*stubCache)(nil)
