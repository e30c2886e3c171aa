package domain

import (
	"context"
	"time"
)

// AvailabilityView selects how much of a calendar the caller sees.
type AvailabilityView string

const (
	// ViewEmployer returns every slot so the owner sees booked and closed ones too.
	ViewEmployer AvailabilityView = "employer"
	// ViewCandidate returns only slots that can still be booked.
	ViewCandidate AvailabilityView = "candidate"
)

// AvailabilityQuery scopes an availability lookup. Zero From/To means the current month.
type AvailabilityQuery struct {
	EmployerID string
	From       time.Time
	To         time.Time
	View       AvailabilityView
}

// SlotAvailability is a slot annotated with its open state.
type SlotAvailability struct {
	*Slot
	Open      bool `json:"open"`
	Remaining int  `json:"remaining"`
}

// DayAvailability groups the slots of one calendar date.
type DayAvailability struct {
	Date  string             `json:"date"`
	Slots []SlotAvailability `json:"slots"`
}

// Availability is the result of an availability lookup.
// swagger:model Availability
type Availability struct {
	EmployerID string            `json:"employer_id"`
	View       AvailabilityView  `json:"view"`
	From       string            `json:"from"`
	To         string            `json:"to"`
	Days       []DayAvailability `json:"days"`
}

// MonthRange returns the first day of t's month and the first day of the next month.
func MonthRange(t time.Time) (time.Time, time.Time) {
	y, m, _ := t.Date()
	from := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// AvailabilityService answers calendar lookups.
type AvailabilityService interface {
	GetAvailability(ctx context.Context, caller Caller, q AvailabilityQuery) (*Availability, error)
}
