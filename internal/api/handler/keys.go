package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mw "github.com/closersai/leadgen/internal/api/middleware"
	"github.com/closersai/leadgen/internal/api/response"
	"github.com/closersai/leadgen/internal/store"
	"github.com/closersai/leadgen/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const rawKeyPrefix = "lg_"

// KeyStore is the subset of store operations the key admin handlers depend on.
type KeyStore interface {
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}

// NewCreateKeyHandler returns an http.HandlerFunc for POST /keys.
// The raw key appears in the response exactly once; only its bcrypt hash is stored.
func NewCreateKeyHandler(s KeyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing caller identity", nil)
			return
		}

		var req struct {
			Name   string   `json:"name"`
			Scopes []string `json:"scopes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Name == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "name is required", nil)
			return
		}
		if req.Scopes == nil {
			req.Scopes = []string{}
		}

		rawKey, err := generateRawKey()
		if err != nil {
			slog.Error("failed to generate api key", "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate key", nil)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.DefaultCost)
		if err != nil {
			slog.Error("failed to hash api key", "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate key", nil)
			return
		}

		now := time.Now().UTC()
		key := &models.APIKey{
			ID:        uuid.New(),
			UserID:    userID,
			Name:      req.Name,
			KeyHash:   string(hash),
			KeyPrefix: rawKey[:8],
			Scopes:    req.Scopes,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := s.CreateAPIKey(r.Context(), key); err != nil {
			slog.Error("failed to create api key", "user_id", userID, "error", err)
			response.Error(w, http.StatusInternalServerError, "PERSISTENCE_ERROR", "Failed to create key", nil)
			return
		}

		response.Created(w, map[string]any{"api_key": key, "key": rawKey})
	}
}

// NewListKeysHandler returns an http.HandlerFunc for GET /keys.
func NewListKeysHandler(s KeyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing caller identity", nil)
			return
		}

		keys, err := s.ListAPIKeys(r.Context(), userID)
		if err != nil {
			slog.Error("failed to list api keys", "user_id", userID, "error", err)
			response.Error(w, http.StatusInternalServerError, "PERSISTENCE_ERROR", "Failed to fetch keys", nil)
			return
		}
		if keys == nil {
			keys = []*models.APIKey{}
		}

		response.JSON(w, map[string]any{"api_keys": keys})
	}
}

// NewRevokeKeyHandler returns an http.HandlerFunc for DELETE /keys/{keyID}.
func NewRevokeKeyHandler(s KeyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing caller identity", nil)
			return
		}

		keyID, err := uuid.Parse(chi.URLParam(r, "keyID"))
		if err != nil {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Key not found", nil)
			return
		}

		err = s.RevokeAPIKey(r.Context(), keyID, userID)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Key not found", nil)
			return
		}
		if err != nil {
			slog.Error("failed to revoke api key", "key_id", keyID, "error", err)
			response.Error(w, http.StatusInternalServerError, "PERSISTENCE_ERROR", "Failed to revoke key", nil)
			return
		}

		response.JSON(w, map[string]any{"success": true})
	}
}

func generateRawKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading randomness: %w", err)
	}
	return rawKeyPrefix + hex.EncodeToString(buf), nil
}
