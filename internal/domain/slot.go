package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the date-only key format used for slot dates and day grouping.
const DateLayout = "2006-01-02"

// ClockLayout is the wall-clock format for slot start and end times.
const ClockLayout = "15:04"

// MaxSlotCapacity bounds how many bookings a single slot may hold.
const MaxSlotCapacity = 50

// Slot is an employer-defined block of interview time.
// swagger:model Slot
type Slot struct {
	ID            string    `json:"id"`
	EmployerID    string    `json:"employer_id"`
	JobID         *string   `json:"job_id,omitempty"`
	Date          time.Time `json:"date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	Timezone      string    `json:"timezone"`
	Capacity      int       `json:"capacity"`
	BookedCount   int       `json:"booked_count"`
	IsAvailable   bool      `json:"is_available"`
	IsPlaceholder bool      `json:"is_placeholder"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsOpen reports whether the slot can take another booking.
func (s *Slot) IsOpen() bool {
	return s.IsAvailable && s.BookedCount < s.Capacity
}

// Remaining returns the number of bookings the slot can still take.
func (s *Slot) Remaining() int {
	if !s.IsAvailable || s.BookedCount >= s.Capacity {
		return 0
	}
	return s.Capacity - s.BookedCount
}

// DateKey returns the slot's date as a date-only key.
func (s *Slot) DateKey() string {
	return s.Date.Format(DateLayout)
}

// StartsAt returns the instant the slot begins in its own timezone.
func (s *Slot) StartsAt() (time.Time, error) {
	return At(s.Date, s.StartTime, s.Timezone)
}

// EndsAt returns the instant the slot ends in its own timezone.
func (s *Slot) EndsAt() (time.Time, error) {
	return At(s.Date, s.EndTime, s.Timezone)
}

// Validate checks the slot definition fields.
func (s *Slot) Validate() error {
	var problems []string
	if strings.TrimSpace(s.EmployerID) == "" {
		problems = append(problems, "employer_id is required")
	}
	if s.Date.IsZero() {
		problems = append(problems, "date is required")
	}
	start, startErr := ParseClock(s.StartTime)
	if startErr != nil {
		problems = append(problems, "start_time must be HH:MM")
	}
	end, endErr := ParseClock(s.EndTime)
	if endErr != nil {
		problems = append(problems, "end_time must be HH:MM")
	}
	if startErr == nil && endErr == nil && end <= start {
		problems = append(problems, "end_time must be after start_time")
	}
	if s.Capacity < 1 || s.Capacity > MaxSlotCapacity {
		problems = append(problems, fmt.Sprintf("capacity must be between 1 and %d", MaxSlotCapacity))
	}
	if s.BookedCount < 0 || s.BookedCount > s.Capacity {
		problems = append(problems, "booked_count must be between 0 and capacity")
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil || s.Timezone == "" {
		problems = append(problems, "timezone must be a valid IANA zone")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// Overlaps reports whether two slots on the same date share any wall-clock time.
func (s *Slot) Overlaps(other *Slot) bool {
	if s.DateKey() != other.DateKey() {
		return false
	}
	aStart, err1 := ParseClock(s.StartTime)
	aEnd, err2 := ParseClock(s.EndTime)
	bStart, err3 := ParseClock(other.StartTime)
	bEnd, err4 := ParseClock(other.EndTime)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return false
	}
	return aStart < bEnd && bStart < aEnd
}

// ParseClock parses an HH:MM wall-clock time into an offset from midnight.
func ParseClock(v string) (time.Duration, error) {
	t, err := time.Parse(ClockLayout, v)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid time %q", ErrInvalidInput, v)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// FormatClock renders an offset from midnight as HH:MM.
func FormatClock(d time.Duration) string {
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%02d:%02d", h, m)
}

// At combines a date, an HH:MM clock and an IANA zone into an instant.
func At(date time.Time, clock, tz string) (time.Time, error) {
	offset, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid timezone %q", ErrInvalidInput, tz)
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).Add(offset), nil
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SlotUpdate holds the optional fields an employer may change on a slot.
type SlotUpdate struct {
	Date      *time.Time
	StartTime *string
	EndTime   *string
	Timezone  *string
	Capacity  *int
}

// ChangesSchedule reports whether the update moves the slot in time.
func (u SlotUpdate) ChangesSchedule() bool {
	return u.Date != nil || u.StartTime != nil || u.EndTime != nil || u.Timezone != nil
}

// Apply copies the set fields onto s.
func (u SlotUpdate) Apply(s *Slot) {
	if u.Date != nil {
		s.Date = DateOnly(*u.Date)
	}
	if u.StartTime != nil {
		s.StartTime = *u.StartTime
	}
	if u.EndTime != nil {
		s.EndTime = *u.EndTime
	}
	if u.Timezone != nil {
		s.Timezone = *u.Timezone
	}
	if u.Capacity != nil {
		s.Capacity = *u.Capacity
	}
}

// SlotSeriesInput describes a batch of equally sized slots over a date range.
type SlotSeriesInput struct {
	// EmployerID selects the calendar for admins. Employers always act on their own.
	EmployerID  string
	From        time.Time
	To          time.Time
	Weekdays    []time.Weekday
	WindowStart string
	WindowEnd   string
	Length      time.Duration
	Gap         time.Duration
	Capacity    int
	Timezone    string
	JobID       *string
}

// MaxSeriesDays bounds the date range of a generated slot series.
const MaxSeriesDays = 92

// Expand returns the slots the series describes for employerID.
func (in SlotSeriesInput) Expand(employerID string) ([]*Slot, error) {
	from, to := DateOnly(in.From), DateOnly(in.To)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: to must not be before from", ErrInvalidInput)
	}
	if to.Sub(from) > MaxSeriesDays*24*time.Hour {
		return nil, fmt.Errorf("%w: range may span at most %d days", ErrInvalidInput, MaxSeriesDays)
	}
	if in.Length < 5*time.Minute {
		return nil, fmt.Errorf("%w: slot length must be at least 5 minutes", ErrInvalidInput)
	}
	if in.Gap < 0 {
		return nil, fmt.Errorf("%w: gap must not be negative", ErrInvalidInput)
	}
	start, err := ParseClock(in.WindowStart)
	if err != nil {
		return nil, err
	}
	end, err := ParseClock(in.WindowEnd)
	if err != nil {
		return nil, err
	}
	if end <= start {
		return nil, fmt.Errorf("%w: window_end must be after window_start", ErrInvalidInput)
	}
	days := make(map[time.Weekday]bool, len(in.Weekdays))
	for _, d := range in.Weekdays {
		days[d] = true
	}

	var out []*Slot
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if len(days) > 0 && !days[day.Weekday()] {
			continue
		}
		for cur := start; cur+in.Length <= end; cur += in.Length + in.Gap {
			out = append(out, &Slot{
				EmployerID:  employerID,
				JobID:       in.JobID,
				Date:        day,
				StartTime:   FormatClock(cur),
				EndTime:     FormatClock(cur + in.Length),
				Timezone:    in.Timezone,
				Capacity:    in.Capacity,
				IsAvailable: true,
			})
		}
	}
	return out, nil
}

// SlotRepository defines storage operations for interview slots.
type SlotRepository interface {
	Create(ctx context.Context, s *Slot) error
	GetByID(ctx context.Context, id string) (*Slot, error)
	// GetByIDForUpdate locks the slot row for the rest of the transaction.
	GetByIDForUpdate(ctx context.Context, id string) (*Slot, error)
	ListByEmployer(ctx context.Context, employerID string, from, to time.Time) ([]*Slot, error)
	Update(ctx context.Context, s *Slot) error
	SetAvailability(ctx context.Context, id string, available bool) (*Slot, error)
	Delete(ctx context.Context, id string) error
	// IncrementBooked reserves one unit of capacity if the slot is open.
	// It returns ErrSlotNotOpen when no unit could be reserved.
	IncrementBooked(ctx context.Context, id string) (*Slot, error)
	DecrementBooked(ctx context.Context, id string) (*Slot, error)
}

// SlotService manages an employer's interview slots.
type SlotService interface {
	CreateSlot(ctx context.Context, caller Caller, slot *Slot) (*Slot, error)
	GenerateSlots(ctx context.Context, caller Caller, in SlotSeriesInput) (created []*Slot, skipped []*Slot, err error)
	GetSlot(ctx context.Context, caller Caller, slotID string) (*Slot, error)
	UpdateSlot(ctx context.Context, caller Caller, slotID string, upd SlotUpdate) (*Slot, error)
	SetSlotAvailability(ctx context.Context, caller Caller, slotID string, available bool) (*Slot, error)
	DeleteSlot(ctx context.Context, caller Caller, slotID string) error
}
