package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Agent stages reported by the external workflow for UI progress. Informational
// only; never used for correctness decisions.
const (
	StageHunter   = "hunter"
	StageAnalyzer = "analyzer"
	StageCloser   = "closer"
)

// IsTerminalStatus reports whether a job status admits no further transitions.
func IsTerminalStatus(status string) bool {
	return status == JobStatusCompleted || status == JobStatusFailed
}

// Job is one user-initiated run of the external lead-generation workflow.
// The API returns the job on POST /jobs; the client polls GET /jobs/{id} until
// status is completed or failed. Status only ever moves along
// pending -> running -> completed|failed.
type Job struct {
	ID           uuid.UUID  `db:"id"            json:"id"`
	UserID       uuid.UUID  `db:"user_id"       json:"user_id"`
	Status       string     `db:"status"        json:"status"`
	Input        JobInput   `db:"input"         json:"input"`
	Output       *JobOutput `db:"output"        json:"output,omitempty"`
	Error        *JobError  `db:"error"         json:"error,omitempty"`
	CurrentStage *string    `db:"current_stage" json:"current_stage,omitempty"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"    json:"updated_at"`
}

// JobInput is the targeting configuration the user submits. It is stored as-is
// and forwarded verbatim to the external workflow.
type JobInput struct {
	BusinessContext BusinessContext `json:"business_context" validate:"required"`
	IdealCustomer   IdealCustomer   `json:"ideal_customer"   validate:"required"`
	SearchRules     SearchRules     `json:"search_rules"     validate:"required"`
	ContactStrategy ContactStrategy `json:"contact_strategy" validate:"required"`
}

type BusinessContext struct {
	Industry  string `json:"industry"   validate:"required"`
	OfferType string `json:"offer_type"`
	B2BOrB2C  string `json:"b2b_or_b2c" validate:"omitempty,oneof=B2B B2C"`
}

type IdealCustomer struct {
	Role        string   `json:"role"`
	CompanySize string   `json:"company_size"`
	Location    string   `json:"location"`
	Keywords    []string `json:"keywords"`
	PainPoints  []string `json:"pain_points"`
}

type SearchRules struct {
	Platforms          []string `json:"platforms" validate:"omitempty,dive,oneof=linkedin instagram"`
	MustHaveSignals    []string `json:"must_have_signals"`
	MustNotHaveSignals []string `json:"must_not_have_signals"`
}

type ContactStrategy struct {
	Tone    string `json:"tone"     validate:"omitempty,oneof=formal casual direct"`
	Goal    string `json:"goal"     validate:"omitempty,oneof=conversation meeting"`
	CtaType string `json:"cta_type" validate:"omitempty,oneof=soft direct"`
}

// JobOutput is the workflow's result, present only once a job completes.
type JobOutput struct {
	Summary OutputSummary `json:"summary"`
	Leads   []LeadResult  `json:"leads"`
}

type OutputSummary struct {
	LeadsFound        int `json:"leads_found"`
	LeadsContacted    int `json:"leads_contacted"`
	LeadsInterested   int `json:"leads_interested"`
	MeetingsRequested int `json:"meetings_requested"`
}

// LeadResult is a lead as reported by the workflow callback, before defaults
// are applied and it becomes a stored Lead row.
type LeadResult struct {
	Name        string  `json:"name"`
	Platform    string  `json:"platform"`
	ProfileURL  string  `json:"profile_url"`
	Analysis    string  `json:"analysis,omitempty"`
	Score       float64 `json:"score,omitempty"`
	MessageSent string  `json:"message_sent,omitempty"`
	LeadStatus  string  `json:"lead_status,omitempty"`
}

// JobError is the workflow's structured failure report, present only on failed jobs.
type JobError struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details *string `json:"details"`
}
