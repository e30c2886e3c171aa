package domain

import (
	"context"
	"time"
)

// DefaultInvitationTTL is how long an interview invitation stays valid.
const DefaultInvitationTTL = 7 * 24 * time.Hour

// ApplicationStatus is the hiring-pipeline status of a job application.
type ApplicationStatus string

const (
	ApplicationAssessment        ApplicationStatus = "assessment"
	ApplicationPhoneInterview    ApplicationStatus = "phone_interview"
	ApplicationInPersonInterview ApplicationStatus = "in_person_interview"
)

// InterviewTypeFor returns the interview type an application status invites to,
// and false when the status does not trigger an invitation.
func InterviewTypeFor(s ApplicationStatus) (InterviewType, bool) {
	switch s {
	case ApplicationAssessment:
		return InterviewTechnical, true
	case ApplicationPhoneInterview:
		return InterviewPhone, true
	case ApplicationInPersonInterview:
		return InterviewInPerson, true
	}
	return "", false
}

// Invitation is a single-use, time-limited token letting a candidate schedule a booking.
// Only a digest of the token is stored.
// swagger:model Invitation
type Invitation struct {
	ID             string     `json:"id"`
	BookingID      string     `json:"booking_id"`
	ApplicationID  string     `json:"application_id"`
	EmployerID     string     `json:"employer_id"`
	CandidateEmail string     `json:"candidate_email"`
	TokenDigest    string     `json:"-"`
	ExpiresAt      time.Time  `json:"expires_at"`
	UsedAt         *time.Time `json:"used_at,omitempty"`
	RevokedAt      *time.Time `json:"revoked_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// IsExpired reports whether now is past the invitation's expiry.
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// IsLive reports whether the invitation has been neither used nor revoked.
func (i *Invitation) IsLive() bool {
	return i.UsedAt == nil && i.RevokedAt == nil
}

// ApplicationStatusChange is sent when an employer moves an application through the pipeline.
type ApplicationStatusChange struct {
	// EmployerID selects the employer for admins. Employers always act on their own.
	EmployerID     string
	ApplicationID  string
	JobID          string
	JobTitle       string
	CandidateID    string
	CandidateName  string
	CandidateEmail string
	CandidatePhone string
	Status         ApplicationStatus
}

// InvitationIssued is returned to the employer after an invitation is created.
type InvitationIssued struct {
	Invitation  *Invitation `json:"invitation"`
	Booking     *Booking    `json:"booking"`
	ScheduleURL string      `json:"schedule_url"`
	// Revoked counts earlier invitations of the same application that were voided.
	Revoked int `json:"revoked"`
}

// InvitationContext is what a candidate sees when opening an invitation link.
type InvitationContext struct {
	Invitation *Invitation `json:"invitation"`
	Booking    *Booking    `json:"booking"`
	Employer   *Employer   `json:"employer"`
	JobID      string      `json:"job_id"`
}

// TokenDigester turns raw invitation tokens into stored digests.
type TokenDigester interface {
	NewToken() (token string, err error)
	Digest(token string) string
}

// InvitationRepository defines storage operations for invitations.
type InvitationRepository interface {
	Create(ctx context.Context, inv *Invitation) error
	GetByDigest(ctx context.Context, digest string) (*Invitation, error)
	GetByDigestForUpdate(ctx context.Context, digest string) (*Invitation, error)
	ListLiveByApplication(ctx context.Context, applicationID string) ([]*Invitation, error)
	MarkUsed(ctx context.Context, id string, at time.Time) error
	Revoke(ctx context.Context, id string, at time.Time) error
}

// InvitationService issues and redeems interview invitations.
type InvitationService interface {
	InviteForApplication(ctx context.Context, caller Caller, change ApplicationStatusChange) (*InvitationIssued, error)
	GetInvitation(ctx context.Context, token string) (*InvitationContext, error)
	InvitationAvailability(ctx context.Context, token string, from, to time.Time) (*Availability, error)
	ScheduleFromInvitation(ctx context.Context, token, slotID string) (*Booking, error)
}
