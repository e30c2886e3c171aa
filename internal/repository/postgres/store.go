package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"interviewcalendar/internal/domain"
)

// Store hands out repositories bound either to the pool or to one transaction.
type Store struct {
	db *sql.DB
	q  DBTX
}

// NewStore returns a Store backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Slots() domain.SlotRepository { return NewSlotRepository(s.q) }

func (s *Store) Bookings() domain.BookingRepository { return NewBookingRepository(s.q) }

func (s *Store) Invitations() domain.InvitationRepository { return NewInvitationRepository(s.q) }

// WithinTx runs fn in a transaction. Calls made on a transaction-bound Store join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	if _, inTx := s.q.(*sql.Tx); inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Store{db: s.db, q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
