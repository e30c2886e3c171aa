package domain

import (
	"context"
	"time"
)

// Employer is the read-only employer profile owned by the profile system.
// swagger:model Employer
type Employer struct {
	ID           string    `json:"id"`
	CompanyName  string    `json:"company_name"`
	ContactEmail string    `json:"contact_email"`
	Timezone     string    `json:"timezone"`
	CreatedAt    time.Time `json:"created_at"`
}

// Location returns the employer's timezone, falling back to UTC.
func (e *Employer) Location() *time.Location {
	if e.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// EmployerDirectory looks up employer profiles.
type EmployerDirectory interface {
	GetByID(ctx context.Context, id string) (*Employer, error)
}
