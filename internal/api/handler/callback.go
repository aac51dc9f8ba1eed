package handler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/closersai/leadgen/internal/api/response"
	"github.com/closersai/leadgen/internal/cache"
	"github.com/closersai/leadgen/internal/metrics"
	"github.com/closersai/leadgen/internal/store"
	"github.com/closersai/leadgen/pkg/models"
	"github.com/google/uuid"
)

// CallbackSecretHeader carries the shared secret the workflow engine echoes
// back from the trigger payload.
const CallbackSecretHeader = "x-callback-secret"

const terminalStatusCacheTTL = 5 * time.Minute

// CallbackStore is the subset of store operations the callback handler depends on.
type CallbackStore interface {
	GetJobByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ApplyJobUpdate(ctx context.Context, id uuid.UUID, update store.JobUpdate) (bool, error)
	InsertLeads(ctx context.Context, leads []*models.Lead) error
}

// CallbackPayload is the wire shape of the workflow engine's callback.
type CallbackPayload struct {
	JobID        string            `json:"job_id"`
	Status       string            `json:"status"`
	Output       *models.JobOutput `json:"output,omitempty"`
	Error        *models.JobError  `json:"error,omitempty"`
	CurrentStage *string           `json:"current_stage,omitempty"`
	Meta         *CallbackMeta     `json:"meta,omitempty"`
}

type CallbackMeta struct {
	CompletedAt string `json:"completed_at"`
}

var callbackStatuses = map[string]bool{
	models.JobStatusRunning:   true,
	models.JobStatusCompleted: true,
	models.JobStatusFailed:    true,
}

var agentStages = map[string]bool{
	models.StageHunter:   true,
	models.StageAnalyzer: true,
	models.StageCloser:   true,
}

// NewCallbackHandler returns an http.HandlerFunc for POST /webhooks/workflow.
//
// The workflow engine delivers at least once, so the handler must be
// idempotent: the status transition is a single conditional update that
// refuses terminal jobs, and leads are inserted only by the delivery that won
// the transition. A duplicate delivery gets a 200 with an already-processed
// message and mutates nothing.
func NewCallbackHandler(s CallbackStore, secret string, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if secret == "" || subtle.ConstantTimeCompare(
			[]byte(r.Header.Get(CallbackSecretHeader)), []byte(secret)) != 1 {
			metrics.IncCallback("rejected")
			response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid callback secret", nil)
			return
		}

		var payload CallbackPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			metrics.IncCallback("rejected")
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if payload.JobID == "" {
			metrics.IncCallback("rejected")
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "job_id is required", nil)
			return
		}
		jobID, err := uuid.Parse(payload.JobID)
		if err != nil {
			metrics.IncCallback("rejected")
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "job_id must be a valid UUID", nil)
			return
		}
		if !callbackStatuses[payload.Status] {
			metrics.IncCallback("rejected")
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"status must be one of running, completed, failed", nil)
			return
		}
		if payload.CurrentStage != nil && !agentStages[*payload.CurrentStage] {
			metrics.IncCallback("rejected")
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"current_stage must be one of hunter, analyzer, closer", nil)
			return
		}

		job, err := s.GetJobByID(r.Context(), jobID)
		if errors.Is(err, store.ErrNotFound) {
			metrics.IncCallback("rejected")
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
			return
		}
		if err != nil {
			slog.Error("failed to fetch job for callback", "job_id", jobID, "error", err)
			response.Error(w, http.StatusInternalServerError, "PERSISTENCE_ERROR", "Failed to fetch job", nil)
			return
		}

		if models.IsTerminalStatus(job.Status) {
			metrics.IncCallback("duplicate")
			slog.Info("callback for already processed job, skipping", "job_id", jobID, "status", job.Status)
			response.JSON(w, map[string]any{"success": true, "message": "Already processed"})
			return
		}

		applied, err := s.ApplyJobUpdate(r.Context(), jobID, store.JobUpdate{
			Status:       payload.Status,
			Output:       payload.Output,
			Error:        payload.Error,
			CurrentStage: payload.CurrentStage,
		})
		if errors.Is(err, store.ErrNotFound) {
			metrics.IncCallback("rejected")
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
			return
		}
		if err != nil {
			slog.Error("failed to update job from callback", "job_id", jobID, "error", err)
			response.Error(w, http.StatusInternalServerError, "PERSISTENCE_ERROR", "Failed to update job", nil)
			return
		}
		if !applied {
			// Lost the race against a concurrent delivery.
			metrics.IncCallback("duplicate")
			response.JSON(w, map[string]any{"success": true, "message": "Already processed"})
			return
		}
		metrics.IncCallback("applied")

		if c != nil && models.IsTerminalStatus(payload.Status) {
			if err := c.SetJobStatus(r.Context(), job.UserID, jobID, payload.Status, terminalStatusCacheTTL); err != nil {
				slog.Warn("failed to cache job status", "job_id", jobID, "error", err)
			}
		}

		// Lead insertion is secondary: the status update is durable, so a lead
		// failure is logged and the callback still succeeds.
		if payload.Output != nil && len(payload.Output.Leads) > 0 {
			leads := mapLeads(jobID, payload.Output.Leads)
			if err := s.InsertLeads(r.Context(), leads); err != nil {
				slog.Error("failed to insert leads", "job_id", jobID, "count", len(leads), "error", err)
			} else {
				metrics.AddLeadsInserted(len(leads))
			}
		}

		slog.Info("job updated from callback", "job_id", jobID, "status", payload.Status)
		response.JSON(w, map[string]any{"success": true})
	}
}

// mapLeads turns callback lead results into rows, applying defaults for
// missing score, lead_status, analysis and message_sent.
func mapLeads(jobID uuid.UUID, results []models.LeadResult) []*models.Lead {
	now := time.Now().UTC()
	leads := make([]*models.Lead, 0, len(results))
	for _, lr := range results {
		l := &models.Lead{
			ID:         uuid.New(),
			JobID:      jobID,
			Name:       lr.Name,
			Platform:   lr.Platform,
			ProfileURL: lr.ProfileURL,
			Score:      lr.Score,
			LeadStatus: lr.LeadStatus,
			CreatedAt:  now,
		}
		if l.LeadStatus == "" {
			l.LeadStatus = models.LeadStatusFound
		}
		if lr.Analysis != "" {
			analysis := lr.Analysis
			l.Analysis = &analysis
		}
		if lr.MessageSent != "" {
			msg := lr.MessageSent
			l.MessageSent = &msg
		}
		leads = append(leads, l)
	}
	return leads
}
