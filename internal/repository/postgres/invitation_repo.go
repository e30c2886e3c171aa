package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"interviewcalendar/internal/domain"
)

const invitationColumns = `id, booking_id, application_id, employer_id, candidate_email, token_digest,
		expires_at, used_at, revoked_at, created_at`

type invitationRepository struct {
	DB DBTX
}

func NewInvitationRepository(db DBTX) domain.InvitationRepository {
	return &invitationRepository{DB: db}
}

func scanInvitation(sc rowScanner) (*domain.Invitation, error) {
	inv := &domain.Invitation{}
	var usedAt, revokedAt sql.NullTime
	err := sc.Scan(&inv.ID, &inv.BookingID, &inv.ApplicationID, &inv.EmployerID, &inv.CandidateEmail, &inv.TokenDigest,
		&inv.ExpiresAt, &usedAt, &revokedAt, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	inv.UsedAt = timePtr(usedAt)
	inv.RevokedAt = timePtr(revokedAt)
	return inv, nil
}

func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	query := `
		INSERT INTO interview_invitations (booking_id, application_id, employer_id, candidate_email, token_digest, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		inv.BookingID, inv.ApplicationID, inv.EmployerID, inv.CandidateEmail, inv.TokenDigest, inv.ExpiresAt, inv.CreatedAt,
	).Scan(&inv.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: invitation token already exists", domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *invitationRepository) getByDigest(ctx context.Context, digest string, lock bool) (*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + `
		FROM interview_invitations
		WHERE token_digest = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	inv, err := scanInvitation(r.DB.QueryRowContext(ctx, query, digest))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) GetByDigest(ctx context.Context, digest string) (*domain.Invitation, error) {
	return r.getByDigest(ctx, digest, false)
}

func (r *invitationRepository) GetByDigestForUpdate(ctx context.Context, digest string) (*domain.Invitation, error) {
	return r.getByDigest(ctx, digest, true)
}

func (r *invitationRepository) ListLiveByApplication(ctx context.Context, applicationID string) ([]*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + `
		FROM interview_invitations
		WHERE application_id = $1 AND used_at IS NULL AND revoked_at IS NULL
		ORDER BY created_at ASC
		FOR UPDATE
	`
	rows, err := r.DB.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.Invitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *invitationRepository) MarkUsed(ctx context.Context, id string, at time.Time) error {
	return r.stamp(ctx, `UPDATE interview_invitations SET used_at = $2 WHERE id = $1 AND used_at IS NULL AND revoked_at IS NULL`, id, at)
}

func (r *invitationRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	return r.stamp(ctx, `UPDATE interview_invitations SET revoked_at = $2 WHERE id = $1 AND used_at IS NULL AND revoked_at IS NULL`, id, at)
}

func (r *invitationRepository) stamp(ctx context.Context, query, id string, at time.Time) error {
	result, err := r.DB.ExecContext(ctx, query, id, at)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrInvitationUsed
	}
	return nil
}
