package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	mw "github.com/closersai/leadgen/internal/api/middleware"
	"github.com/closersai/leadgen/internal/api/response"
	"github.com/closersai/leadgen/internal/cache"
	"github.com/closersai/leadgen/internal/metrics"
	"github.com/closersai/leadgen/internal/store"
	"github.com/closersai/leadgen/internal/workflow"
	"github.com/closersai/leadgen/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const jobStatusCacheTTL = 30 * time.Second

var validate = validator.New(validator.WithRequiredStructEnabled())

// JobStore is the subset of store operations the job handlers depend on.
type JobStore interface {
	CreateJob(ctx context.Context, job *models.Job) error
	MarkJobRunning(ctx context.Context, id uuid.UUID) error
	GetJob(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.Job, error)
	ListJobs(ctx context.Context, userID uuid.UUID) ([]*models.Job, error)
	DeleteJob(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	ListLeads(ctx context.Context, jobID uuid.UUID) ([]*models.Lead, error)
}

// NewCreateJobHandler returns an http.HandlerFunc for POST /jobs.
//
// When a workflow notifier is configured the created job is promoted to
// running and exactly one trigger is fired from a detached goroutine. Trigger
// failure is logged only: the 201 response has already been decided, and the
// job stays running until the workflow engine calls back (or forever, if it
// never does — the engine owns retries).
func NewCreateJobHandler(s JobStore, notifier workflow.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing caller identity", nil)
			return
		}

		var req struct {
			Input *models.JobInput `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Input == nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "input is required", nil)
			return
		}
		if err := validate.Struct(req.Input); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid input configuration", validationDetails(err))
			return
		}

		now := time.Now().UTC()
		job := &models.Job{
			ID:        uuid.New(),
			UserID:    userID,
			Status:    models.JobStatusPending,
			Input:     *req.Input,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := s.CreateJob(r.Context(), job); err != nil {
			slog.Error("failed to create job", "user_id", userID, "error", err)
			response.Error(w, http.StatusInternalServerError, "PERSISTENCE_ERROR", "Failed to create job", nil)
			return
		}
		metrics.IncJobCreated()

		if notifier != nil {
			// The trigger fires only once the job is marked running; the
			// reported status and the outbound call never disagree.
			if err := s.MarkJobRunning(r.Context(), job.ID); err != nil {
				slog.Error("failed to mark job running, skipping trigger", "job_id", job.ID, "error", err)
			} else {
				job.Status = models.JobStatusRunning

				// Fire-and-forget: one outbound call per creation, never awaited.
				go func() {
					if err := notifier.Trigger(context.Background(), job.ID, job.Input); err != nil {
						slog.Error("workflow trigger failed", "job_id", job.ID, "error", err)
						metrics.IncTrigger(false)
						return
					}
					metrics.IncTrigger(true)
				}()
			}
		}

		response.Created(w, map[string]any{"job": job})
	}
}

// NewListJobsHandler returns an http.HandlerFunc for GET /jobs.
func NewListJobsHandler(s JobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing caller identity", nil)
			return
		}

		jobs, err := s.ListJobs(r.Context(), userID)
		if err != nil {
			slog.Error("failed to list jobs", "user_id", userID, "error", err)
			response.Error(w, http.StatusInternalServerError, "PERSISTENCE_ERROR", "Failed to fetch jobs", nil)
			return
		}
		if jobs == nil {
			jobs = []*models.Job{}
		}

		response.JSON(w, map[string]any{"jobs": jobs})
	}
}

// NewGetJobHandler returns an http.HandlerFunc for GET /jobs/{jobID}.
// Lead fetch failures degrade to an empty list rather than failing the poll.
func NewGetJobHandler(s JobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing caller identity", nil)
			return
		}

		jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
			return
		}

		job, err := s.GetJob(r.Context(), jobID, userID)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
			return
		}
		if err != nil {
			slog.Error("failed to get job", "job_id", jobID, "error", err)
			response.Error(w, http.StatusInternalServerError, "PERSISTENCE_ERROR", "Failed to fetch job", nil)
			return
		}

		leads, err := s.ListLeads(r.Context(), jobID)
		if err != nil {
			slog.Error("failed to fetch leads", "job_id", jobID, "error", err)
			leads = nil
		}
		if leads == nil {
			leads = []*models.Lead{}
		}

		response.JSON(w, map[string]any{"job": job, "leads": leads})
	}
}

// NewJobStatusHandler returns an http.HandlerFunc for GET /jobs/{jobID}/status,
// a cheap poll target backed by the Redis job-status cache. The cache is a
// hint only; a miss falls through to the store and refreshes it.
func NewJobStatusHandler(s JobStore, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing caller identity", nil)
			return
		}

		jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
			return
		}

		if c != nil {
			if status, found, err := c.GetJobStatus(r.Context(), userID, jobID); err == nil && found {
				response.JSON(w, map[string]any{"job_id": jobID, "status": status})
				return
			}
		}

		job, err := s.GetJob(r.Context(), jobID, userID)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
			return
		}
		if err != nil {
			slog.Error("failed to get job status", "job_id", jobID, "error", err)
			response.Error(w, http.StatusInternalServerError, "PERSISTENCE_ERROR", "Failed to fetch job", nil)
			return
		}

		if c != nil {
			if err := c.SetJobStatus(r.Context(), userID, jobID, job.Status, jobStatusCacheTTL); err != nil {
				slog.Warn("failed to cache job status", "job_id", jobID, "error", err)
			}
		}

		response.JSON(w, map[string]any{"job_id": job.ID, "status": job.Status})
	}
}

// NewDeleteJobHandler returns an http.HandlerFunc for DELETE /jobs/{jobID}.
// Deleting a job the caller does not own (or that does not exist) is a no-op
// success; leads cascade at the schema level.
func NewDeleteJobHandler(s JobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing caller identity", nil)
			return
		}

		jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
			return
		}

		err = s.DeleteJob(r.Context(), jobID, userID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			slog.Error("failed to delete job", "job_id", jobID, "error", err)
			response.Error(w, http.StatusInternalServerError, "PERSISTENCE_ERROR", "Failed to delete job", nil)
			return
		}

		response.JSON(w, map[string]any{"success": true})
	}
}

// validationDetails flattens validator errors into a field -> rule map.
func validationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Namespace()] = fe.Tag()
	}
	return details
}
