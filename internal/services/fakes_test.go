package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"interviewcalendar/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memData is the state behind memStore.
type memData struct {
	seq         int
	slots       map[string]*domain.Slot
	deleted     map[string]bool
	bookings    map[string]*domain.Booking
	invitations map[string]*domain.Invitation
	// locks records the order of slot row locks and live-booking counts.
	locks []string
}

func newMemData() *memData {
	return &memData{
		slots:       make(map[string]*domain.Slot),
		deleted:     make(map[string]bool),
		bookings:    make(map[string]*domain.Booking),
		invitations: make(map[string]*domain.Invitation),
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	c.seq = d.seq
	c.locks = slices.Clone(d.locks)
	for k, v := range d.slots {
		cp := *v
		c.slots[k] = &cp
	}
	for k, v := range d.deleted {
		c.deleted[k] = v
	}
	for k, v := range d.bookings {
		c.bookings[k] = v.Clone()
	}
	for k, v := range d.invitations {
		cp := *v
		c.invitations[k] = &cp
	}
	return c
}

func (d *memData) nextID(prefix string) string {
	d.seq++
	return fmt.Sprintf("%s-%d", prefix, d.seq)
}

// memStore is an in-memory domain.Store. Transactions are serialized and
// roll back to a snapshot when fn fails.
type memStore struct {
	mu   *sync.Mutex
	data *memData
	inTx bool
}

func newMemStore() *memStore {
	return &memStore{mu: &sync.Mutex{}, data: newMemData()}
}

func (s *memStore) guard() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memStore) Slots() domain.SlotRepository { return &memSlotRepo{s} }

func (s *memStore) Bookings() domain.BookingRepository { return &memBookingRepo{s} }

func (s *memStore) Invitations() domain.InvitationRepository { return &memInvitationRepo{s} }

func (s *memStore) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.data.clone()
	if err := fn(&memStore{mu: s.mu, data: s.data, inTx: true}); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

// seedSlot stores slot directly and returns its id.
func (s *memStore) seedSlot(slot *domain.Slot) string {
	defer s.guard()()
	if slot.ID == "" {
		slot.ID = s.data.nextID("slot")
	}
	cp := *slot
	s.data.slots[slot.ID] = &cp
	return slot.ID
}

func (s *memStore) lockLog() []string {
	defer s.guard()()
	return slices.Clone(s.data.locks)
}

func (s *memStore) slot(id string) domain.Slot {
	defer s.guard()()
	return *s.data.slots[id]
}

func (s *memStore) booking(id string) *domain.Booking {
	defer s.guard()()
	return s.data.bookings[id].Clone()
}

type memSlotRepo struct{ s *memStore }

func (r *memSlotRepo) Create(ctx context.Context, slot *domain.Slot) error {
	defer r.s.guard()()
	slot.ID = r.s.data.nextID("slot")
	cp := *slot
	r.s.data.slots[slot.ID] = &cp
	return nil
}

func (r *memSlotRepo) live(id string) (*domain.Slot, error) {
	slot, ok := r.s.data.slots[id]
	if !ok || r.s.data.deleted[id] {
		return nil, domain.ErrSlotNotFound
	}
	return slot, nil
}

func (r *memSlotRepo) GetByID(ctx context.Context, id string) (*domain.Slot, error) {
	defer r.s.guard()()
	slot, err := r.live(id)
	if err != nil {
		return nil, err
	}
	cp := *slot
	return &cp, nil
}

func (r *memSlotRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Slot, error) {
	defer r.s.guard()()
	slot, err := r.live(id)
	if err != nil {
		return nil, err
	}
	r.s.data.locks = append(r.s.data.locks, "lock:"+id)
	cp := *slot
	return &cp, nil
}

func (r *memSlotRepo) ListByEmployer(ctx context.Context, employerID string, from, to time.Time) ([]*domain.Slot, error) {
	defer r.s.guard()()
	out := make([]*domain.Slot, 0)
	for id, slot := range r.s.data.slots {
		if r.s.data.deleted[id] || slot.EmployerID != employerID {
			continue
		}
		if slot.Date.Before(from) || !slot.Date.Before(to) {
			continue
		}
		cp := *slot
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r *memSlotRepo) Update(ctx context.Context, slot *domain.Slot) error {
	defer r.s.guard()()
	stored, err := r.live(slot.ID)
	if err != nil || stored.BookedCount > slot.Capacity {
		return fmt.Errorf("%w: capacity is below current bookings or slot is gone", domain.ErrConflict)
	}
	stored.Date, stored.StartTime, stored.EndTime = slot.Date, slot.StartTime, slot.EndTime
	stored.Timezone, stored.Capacity = slot.Timezone, slot.Capacity
	return nil
}

func (r *memSlotRepo) SetAvailability(ctx context.Context, id string, available bool) (*domain.Slot, error) {
	defer r.s.guard()()
	stored, err := r.live(id)
	if err != nil {
		return nil, err
	}
	stored.IsAvailable = available
	cp := *stored
	return &cp, nil
}

func (r *memSlotRepo) Delete(ctx context.Context, id string) error {
	defer r.s.guard()()
	stored, err := r.live(id)
	if err != nil {
		return err
	}
	stored.IsAvailable = false
	r.s.data.deleted[id] = true
	return nil
}

func (r *memSlotRepo) IncrementBooked(ctx context.Context, id string) (*domain.Slot, error) {
	defer r.s.guard()()
	stored, err := r.live(id)
	if err != nil || !stored.IsOpen() {
		return nil, domain.ErrSlotNotOpen
	}
	stored.BookedCount++
	cp := *stored
	return &cp, nil
}

func (r *memSlotRepo) DecrementBooked(ctx context.Context, id string) (*domain.Slot, error) {
	defer r.s.guard()()
	stored, ok := r.s.data.slots[id]
	if !ok {
		return nil, domain.ErrSlotNotFound
	}
	if stored.BookedCount > 0 {
		stored.BookedCount--
	}
	cp := *stored
	return &cp, nil
}

type memBookingRepo struct{ s *memStore }

func (r *memBookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	defer r.s.guard()()
	for _, other := range r.s.data.bookings {
		if other.BookingToken == b.BookingToken {
			return fmt.Errorf("%w: booking token already exists", domain.ErrConflict)
		}
	}
	b.ID = r.s.data.nextID("bk")
	r.s.data.bookings[b.ID] = b.Clone()
	return nil
}

func (r *memBookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	defer r.s.guard()()
	b, ok := r.s.data.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return b.Clone(), nil
}

func (r *memBookingRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *memBookingRepo) Update(ctx context.Context, b *domain.Booking) error {
	defer r.s.guard()()
	if _, ok := r.s.data.bookings[b.ID]; !ok {
		return domain.ErrBookingNotFound
	}
	r.s.data.bookings[b.ID] = b.Clone()
	return nil
}

func (r *memBookingRepo) List(ctx context.Context, f domain.BookingFilter, page domain.PaginationParams) ([]*domain.Booking, int, error) {
	defer r.s.guard()()
	var all []*domain.Booking
	for _, b := range r.s.data.bookings {
		if f.EmployerID != "" && b.EmployerID != f.EmployerID {
			continue
		}
		if (f.CandidateID != "" || f.BookedBy != "") && b.CandidateID != f.CandidateID && b.BookedBy != f.BookedBy {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, b.Status) {
			continue
		}
		if f.From != nil && b.ScheduledAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !b.ScheduledAt.Before(*f.To) {
			continue
		}
		all = append(all, b.Clone())
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ScheduledAt.Before(all[j].ScheduledAt) })
	start := min(page.Offset(), len(all))
	end := min(start+page.Limit(), len(all))
	return all[start:end], len(all), nil
}

func (r *memBookingRepo) CountLiveBySlot(ctx context.Context, slotID string) (int, error) {
	defer r.s.guard()()
	r.s.data.locks = append(r.s.data.locks, "count:"+slotID)
	n := 0
	for _, b := range r.s.data.bookings {
		if b.SlotID == slotID && !domain.IsTerminal(b.Status) {
			n++
		}
	}
	return n, nil
}

func (r *memBookingRepo) ListUpcoming(ctx context.Context, from, to time.Time, statuses []domain.BookingStatus) ([]*domain.Booking, error) {
	defer r.s.guard()()
	var out []*domain.Booking
	for _, b := range r.s.data.bookings {
		if slot, ok := r.s.data.slots[b.SlotID]; ok && slot.IsPlaceholder {
			continue
		}
		if slices.Contains(statuses, b.Status) && b.ScheduledAt.After(from) && !b.ScheduledAt.After(to) {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (r *memBookingRepo) ClaimReminder(ctx context.Context, bookingID string, audience domain.Audience, lead domain.ReminderLead) (bool, error) {
	defer r.s.guard()()
	b, ok := r.s.data.bookings[bookingID]
	if !ok {
		return false, domain.ErrBookingNotFound
	}
	if b.Reminders.Sent(audience, lead) {
		return false, nil
	}
	b.Reminders.Mark(audience, lead)
	return true, nil
}

type memInvitationRepo struct{ s *memStore }

func (r *memInvitationRepo) Create(ctx context.Context, inv *domain.Invitation) error {
	defer r.s.guard()()
	for _, other := range r.s.data.invitations {
		if other.TokenDigest == inv.TokenDigest {
			return fmt.Errorf("%w: invitation token already exists", domain.ErrConflict)
		}
	}
	inv.ID = r.s.data.nextID("inv")
	cp := *inv
	r.s.data.invitations[inv.ID] = &cp
	return nil
}

func (r *memInvitationRepo) GetByDigest(ctx context.Context, digest string) (*domain.Invitation, error) {
	defer r.s.guard()()
	for _, inv := range r.s.data.invitations {
		if inv.TokenDigest == digest {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, domain.ErrInvitationNotFound
}

func (r *memInvitationRepo) GetByDigestForUpdate(ctx context.Context, digest string) (*domain.Invitation, error) {
	return r.GetByDigest(ctx, digest)
}

func (r *memInvitationRepo) ListLiveByApplication(ctx context.Context, applicationID string) ([]*domain.Invitation, error) {
	defer r.s.guard()()
	var out []*domain.Invitation
	for _, inv := range r.s.data.invitations {
		if inv.ApplicationID == applicationID && inv.IsLive() {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memInvitationRepo) stamp(id string, set func(inv *domain.Invitation)) error {
	defer r.s.guard()()
	inv, ok := r.s.data.invitations[id]
	if !ok || !inv.IsLive() {
		return domain.ErrInvitationUsed
	}
	set(inv)
	return nil
}

func (r *memInvitationRepo) MarkUsed(ctx context.Context, id string, at time.Time) error {
	return r.stamp(id, func(inv *domain.Invitation) { inv.UsedAt = &at })
}

func (r *memInvitationRepo) Revoke(ctx context.Context, id string, at time.Time) error {
	return r.stamp(id, func(inv *domain.Invitation) { inv.RevokedAt = &at })
}

// fakeEmployers is an in-memory EmployerDirectory.
type fakeEmployers map[string]*domain.Employer

func (f fakeEmployers) GetByID(ctx context.Context, id string) (*domain.Employer, error) {
	if e, ok := f[id]; ok {
		return e, nil
	}
	return nil, domain.ErrEmployerNotFound
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.BookingEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...domain.BookingEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

// fakeDigester issues sequential tokens with a reversible digest.
type fakeDigester struct {
	mu sync.Mutex
	n  int
}

func (d *fakeDigester) NewToken() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.n++
	return fmt.Sprintf("token-%d", d.n), nil
}

func (d *fakeDigester) Digest(token string) string { return "digest:" + token }

// fakeEmailService records invitation emails and can be told to fail.
type fakeEmailService struct {
	sent []*domain.InterviewInvitationEmailData
	err  error
}

func (f *fakeEmailService) SendInterviewInvitation(ctx context.Context, data *domain.InterviewInvitationEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, data)
	return nil
}
