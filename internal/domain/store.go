package domain

import "context"

// Store groups the repositories that must change together.
// WithinTx runs fn against repositories bound to one transaction,
// committing when fn returns nil and rolling back otherwise.
type Store interface {
	Slots() SlotRepository
	Bookings() BookingRepository
	Invitations() InvitationRepository
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
