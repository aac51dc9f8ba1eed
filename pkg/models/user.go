package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that owns jobs. Every job and API key belongs to a user.
type User struct {
	ID          uuid.UUID `db:"id"           json:"id"`
	Email       string    `db:"email"        json:"email"`
	FullName    *string   `db:"full_name"    json:"full_name,omitempty"`
	CompanyName *string   `db:"company_name" json:"company_name,omitempty"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"   json:"updated_at"`
}
