package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"interviewcalendar/internal/domain"
)

const bookingColumns = `id, slot_id, employer_id, candidate_id, job_id, application_id, booked_by,
		candidate_name, candidate_email, candidate_phone, booking_token, status, interview_type, interview_round,
		scheduled_date, scheduled_time, end_time, timezone, scheduled_at, meeting, candidate_notes, employer_notes,
		feedback, reminder_candidate_24h, reminder_candidate_1h, reminder_candidate_15m,
		reminder_employer_24h, reminder_employer_1h, reminder_employer_15m, reschedule_history,
		cancellation_reason, created_at, updated_at, confirmed_at, started_at, completed_at, cancelled_at`

// liveStatuses are the statuses that still hold slot capacity for an upcoming or running interview.
var liveStatuses = []string{
	string(domain.StatusScheduled), string(domain.StatusConfirmed),
	string(domain.StatusRescheduled), string(domain.StatusInProgress),
}

// reminderColumns maps an audience and lead onto its flag column.
var reminderColumns = map[domain.Audience]map[domain.ReminderLead]string{
	domain.AudienceCandidate: {
		domain.Lead24h: "reminder_candidate_24h",
		domain.Lead1h:  "reminder_candidate_1h",
		domain.Lead15m: "reminder_candidate_15m",
	},
	domain.AudienceEmployer: {
		domain.Lead24h: "reminder_employer_24h",
		domain.Lead1h:  "reminder_employer_1h",
		domain.Lead15m: "reminder_employer_15m",
	},
}

type bookingRepository struct {
	DB DBTX
}

func NewBookingRepository(db DBTX) domain.BookingRepository {
	return &bookingRepository{DB: db}
}

func scanBooking(sc rowScanner) (*domain.Booking, error) {
	b := &domain.Booking{}
	var (
		applicationID                                    sql.NullString
		meeting, feedback, history                       []byte
		confirmedAt, startedAt, completedAt, cancelledAt sql.NullTime
	)
	err := sc.Scan(
		&b.ID, &b.SlotID, &b.EmployerID, &b.CandidateID, &b.JobID, &applicationID, &b.BookedBy,
		&b.Candidate.Name, &b.Candidate.Email, &b.Candidate.Phone, &b.BookingToken, &b.Status, &b.InterviewType, &b.Round,
		&b.ScheduledDate, &b.ScheduledTime, &b.EndTime, &b.Timezone, &b.ScheduledAt, &meeting, &b.CandidateNotes, &b.EmployerNotes,
		&feedback, &b.Reminders.Candidate24h, &b.Reminders.Candidate1h, &b.Reminders.Candidate15m,
		&b.Reminders.Employer24h, &b.Reminders.Employer1h, &b.Reminders.Employer15m, &history,
		&b.CancellationReason, &b.CreatedAt, &b.UpdatedAt, &confirmedAt, &startedAt, &completedAt, &cancelledAt,
	)
	if err != nil {
		return nil, err
	}
	b.ApplicationID = stringPtr(applicationID)
	b.ScheduledDate = domain.DateOnly(b.ScheduledDate)
	b.ConfirmedAt = timePtr(confirmedAt)
	b.StartedAt = timePtr(startedAt)
	b.CompletedAt = timePtr(completedAt)
	b.CancelledAt = timePtr(cancelledAt)
	if len(meeting) > 0 {
		if err := json.Unmarshal(meeting, &b.Meeting); err != nil {
			return nil, fmt.Errorf("decode meeting: %w", err)
		}
	}
	if len(feedback) > 0 && string(feedback) != "null" {
		b.Feedback = &domain.Feedback{}
		if err := json.Unmarshal(feedback, b.Feedback); err != nil {
			return nil, fmt.Errorf("decode feedback: %w", err)
		}
	}
	b.RescheduleHistory = []domain.RescheduleEntry{}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &b.RescheduleHistory); err != nil {
			return nil, fmt.Errorf("decode reschedule history: %w", err)
		}
	}
	return b, nil
}

// encodeBookingJSON renders the jsonb columns as text.
// feedback is nil when the booking has none.
func encodeBookingJSON(b *domain.Booking) (meeting string, feedback any, history string, err error) {
	raw, err := json.Marshal(b.Meeting)
	if err != nil {
		return "", nil, "", fmt.Errorf("encode meeting: %w", err)
	}
	meeting = string(raw)
	if b.Feedback != nil {
		raw, err := json.Marshal(b.Feedback)
		if err != nil {
			return "", nil, "", fmt.Errorf("encode feedback: %w", err)
		}
		feedback = string(raw)
	}
	entries := b.RescheduleHistory
	if entries == nil {
		entries = []domain.RescheduleEntry{}
	}
	raw, err = json.Marshal(entries)
	if err != nil {
		return "", nil, "", fmt.Errorf("encode reschedule history: %w", err)
	}
	return meeting, feedback, string(raw), nil
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	meeting, _, history, err := encodeBookingJSON(b)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO interview_bookings (slot_id, employer_id, candidate_id, job_id, application_id, booked_by,
			candidate_name, candidate_email, candidate_phone, booking_token, status, interview_type, interview_round,
			scheduled_date, scheduled_time, end_time, timezone, scheduled_at, meeting, candidate_notes, employer_notes,
			reschedule_history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING id
	`
	err = r.DB.QueryRowContext(ctx, query,
		b.SlotID, b.EmployerID, b.CandidateID, b.JobID, nullString(b.ApplicationID), b.BookedBy,
		b.Candidate.Name, b.Candidate.Email, b.Candidate.Phone, b.BookingToken, string(b.Status), string(b.InterviewType), string(b.Round),
		b.ScheduledDate, b.ScheduledTime, b.EndTime, b.Timezone, b.ScheduledAt, meeting, b.CandidateNotes, b.EmployerNotes,
		history, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: booking token already exists", domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *bookingRepository) get(ctx context.Context, id string, lock bool) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM interview_bookings
		WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	b, err := scanBooking(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return r.get(ctx, id, false)
}

func (r *bookingRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error) {
	return r.get(ctx, id, true)
}

func (r *bookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	meeting, feedback, history, err := encodeBookingJSON(b)
	if err != nil {
		return err
	}
	query := `
		UPDATE interview_bookings
		SET slot_id = $1, status = $2, scheduled_date = $3, scheduled_time = $4, end_time = $5, timezone = $6,
			scheduled_at = $7, meeting = $8, candidate_notes = $9, employer_notes = $10, feedback = $11,
			reminder_candidate_24h = $12, reminder_candidate_1h = $13, reminder_candidate_15m = $14,
			reminder_employer_24h = $15, reminder_employer_1h = $16, reminder_employer_15m = $17,
			reschedule_history = $18, cancellation_reason = $19, updated_at = $20,
			confirmed_at = $21, started_at = $22, completed_at = $23, cancelled_at = $24
		WHERE id = $25
	`
	result, err := r.DB.ExecContext(ctx, query,
		b.SlotID, string(b.Status), b.ScheduledDate, b.ScheduledTime, b.EndTime, b.Timezone,
		b.ScheduledAt, meeting, b.CandidateNotes, b.EmployerNotes, feedback,
		b.Reminders.Candidate24h, b.Reminders.Candidate1h, b.Reminders.Candidate15m,
		b.Reminders.Employer24h, b.Reminders.Employer1h, b.Reminders.Employer15m,
		history, b.CancellationReason, b.UpdatedAt,
		nullTime(b.ConfirmedAt), nullTime(b.StartedAt), nullTime(b.CompletedAt), nullTime(b.CancelledAt),
		b.ID,
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func buildBookingFilter(f domain.BookingFilter) (string, []any) {
	var clauses []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.EmployerID != "" {
		clauses = append(clauses, "employer_id = "+arg(f.EmployerID))
	}
	switch {
	case f.CandidateID != "" && f.BookedBy != "":
		clauses = append(clauses, fmt.Sprintf("(candidate_id = %s OR booked_by = %s)", arg(f.CandidateID), arg(f.BookedBy)))
	case f.CandidateID != "":
		clauses = append(clauses, "candidate_id = "+arg(f.CandidateID))
	case f.BookedBy != "":
		clauses = append(clauses, "booked_by = "+arg(f.BookedBy))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		clauses = append(clauses, "status = ANY("+arg(pq.Array(statuses))+")")
	}
	if f.From != nil {
		clauses = append(clauses, "scheduled_at >= "+arg(*f.From))
	}
	if f.To != nil {
		clauses = append(clauses, "scheduled_at < "+arg(*f.To))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func (r *bookingRepository) List(ctx context.Context, f domain.BookingFilter, page domain.PaginationParams) ([]*domain.Booking, int, error) {
	where, args := buildBookingFilter(f)

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM interview_bookings `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s
		FROM interview_bookings
		%s
		ORDER BY scheduled_at ASC
		LIMIT $%d OFFSET $%d`, bookingColumns, where, n+1, n+2)
	rows, err := r.DB.QueryContext(ctx, query, append(args, page.Limit(), page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	bookings := make([]*domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, b)
	}
	return bookings, total, rows.Err()
}

func (r *bookingRepository) CountLiveBySlot(ctx context.Context, slotID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM interview_bookings WHERE slot_id = $1 AND status = ANY($2)`,
		slotID, pq.Array(liveStatuses),
	).Scan(&n)
	return n, err
}

// ListUpcoming skips bookings still anchored to an invitation's placeholder slot.
func (r *bookingRepository) ListUpcoming(ctx context.Context, from, to time.Time, statuses []domain.BookingStatus) ([]*domain.Booking, error) {
	raw := make([]string, len(statuses))
	for i, s := range statuses {
		raw[i] = string(s)
	}
	query := `SELECT ` + bookingColumns + `
		FROM interview_bookings
		WHERE status = ANY($1) AND scheduled_at > $2 AND scheduled_at <= $3
			AND NOT EXISTS (
				SELECT 1 FROM interview_slots s
				WHERE s.id = interview_bookings.slot_id AND s.is_placeholder
			)
		ORDER BY scheduled_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(raw), from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]*domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) ClaimReminder(ctx context.Context, bookingID string, audience domain.Audience, lead domain.ReminderLead) (bool, error) {
	column, ok := reminderColumns[audience][lead]
	if !ok {
		return false, fmt.Errorf("%w: unknown reminder %s/%s", domain.ErrInvalidInput, audience, lead)
	}
	sets := make([]string, 0, 3)
	for _, l := range domain.WiderOrEqualLeads(lead) {
		sets = append(sets, reminderColumns[audience][l]+" = TRUE")
	}
	query := fmt.Sprintf(`
		UPDATE interview_bookings
		SET %s, updated_at = NOW()
		WHERE id = $1 AND %s = FALSE`, strings.Join(sets, ", "), column)
	result, err := r.DB.ExecContext(ctx, query, bookingID)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows == 1, nil
}
