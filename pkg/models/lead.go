package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	LeadStatusFound            = "found"
	LeadStatusQualified        = "qualified"
	LeadStatusContacted        = "contacted"
	LeadStatusInterested       = "interested"
	LeadStatusMeetingRequested = "meeting_requested"
	LeadStatusDiscarded        = "discarded"
)

// Lead is one discovered prospect. Leads are written exclusively by the
// workflow callback and live only as children of a job (deleted with it).
type Lead struct {
	ID          uuid.UUID `db:"id"           json:"id"`
	JobID       uuid.UUID `db:"job_id"       json:"job_id"`
	Name        string    `db:"name"         json:"name"`
	Platform    string    `db:"platform"     json:"platform"`
	ProfileURL  string    `db:"profile_url"  json:"profile_url"`
	Analysis    *string   `db:"analysis"     json:"analysis,omitempty"`
	Score       float64   `db:"score"        json:"score"`
	MessageSent *string   `db:"message_sent" json:"message_sent,omitempty"`
	LeadStatus  string    `db:"lead_status"  json:"lead_status"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
}
