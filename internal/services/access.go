package services

import (
	"fmt"

	"interviewcalendar/internal/domain"
)

// employerScope returns the employer a caller manages. Admins may act for any
// employer but must name it.
func employerScope(caller domain.Caller, requested string) (string, error) {
	switch {
	case caller.IsAdmin() && requested != "":
		return requested, nil
	case caller.IsAdmin() && !caller.HasRole(domain.RoleEmployer):
		return "", fmt.Errorf("%w: employer_id is required for admins", domain.ErrInvalidInput)
	case caller.HasRole(domain.RoleEmployer) && caller.ID != "":
		if requested != "" && requested != caller.ID {
			return "", fmt.Errorf("%w: cannot manage another employer's calendar", domain.ErrForbidden)
		}
		return caller.ID, nil
	}
	return "", fmt.Errorf("%w: employer role required", domain.ErrForbidden)
}

func authorizeSlotOwner(caller domain.Caller, slot *domain.Slot) error {
	if caller.IsAdmin() {
		return nil
	}
	if caller.HasRole(domain.RoleEmployer) && caller.ID != "" && slot.EmployerID == caller.ID {
		return nil
	}
	return fmt.Errorf("%w: slot belongs to another employer", domain.ErrForbidden)
}

// creatorActor is the side a new booking is made for. Recruiters and admins book
// on the employer's behalf.
func creatorActor(caller domain.Caller) domain.Actor {
	if caller.HasRole(domain.RoleRecruiter) || caller.IsAdmin() {
		return domain.Actor{ID: caller.ID, Role: domain.ActorEmployer}
	}
	return domain.Actor{ID: caller.ID, Role: domain.ActorCandidate}
}

// resolveActor decides which side of the booking the caller acts for.
func resolveActor(caller domain.Caller, b *domain.Booking) (domain.Actor, error) {
	if caller.ID == "" {
		return domain.Actor{}, fmt.Errorf("%w: missing caller", domain.ErrForbidden)
	}
	if caller.IsAdmin() || (caller.HasRole(domain.RoleEmployer) && b.EmployerID == caller.ID) {
		return domain.Actor{ID: caller.ID, Role: domain.ActorEmployer}, nil
	}
	if b.CandidateID == caller.ID || b.BookedBy == caller.ID {
		return domain.Actor{ID: caller.ID, Role: domain.ActorCandidate}, nil
	}
	return domain.Actor{}, fmt.Errorf("%w: not a party to this booking", domain.ErrForbidden)
}
