package store

import (
	"context"
	"errors"

	"github.com/closersai/leadgen/pkg/models"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) error

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.Job, error)
	GetJobByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListJobs(ctx context.Context, userID uuid.UUID) ([]*models.Job, error)
	DeleteJob(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	MarkJobRunning(ctx context.Context, id uuid.UUID) error
	ApplyJobUpdate(ctx context.Context, id uuid.UUID, update JobUpdate) (bool, error)

	InsertLeads(ctx context.Context, leads []*models.Lead) error
	ListLeads(ctx context.Context, jobID uuid.UUID) ([]*models.Lead, error)
}

// JobUpdate carries a callback-reported change to a job. Output, Error and
// CurrentStage are applied only when non-nil; existing values are preserved.
type JobUpdate struct {
	Status       string
	Output       *models.JobOutput
	Error        *models.JobError
	CurrentStage *string
}
