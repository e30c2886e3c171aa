package domain

import "time"

// Audience is who a reminder is addressed to.
type Audience string

const (
	AudienceCandidate Audience = "candidate"
	AudienceEmployer  Audience = "employer"
)

// ReminderLead is how long before the interview a reminder goes out.
type ReminderLead string

const (
	Lead24h ReminderLead = "24h"
	Lead1h  ReminderLead = "1h"
	Lead15m ReminderLead = "15m"
)

// ReminderLeads are ordered from the tightest lead to the widest.
var ReminderLeads = []ReminderLead{Lead15m, Lead1h, Lead24h}

// Duration returns the lead as a time.Duration.
func (l ReminderLead) Duration() time.Duration {
	switch l {
	case Lead24h:
		return 24 * time.Hour
	case Lead1h:
		return time.Hour
	case Lead15m:
		return 15 * time.Minute
	}
	return 0
}

// ReminderFlags records which reminders have been sent.
type ReminderFlags struct {
	Candidate24h bool `json:"candidate_24h"`
	Candidate1h  bool `json:"candidate_1h"`
	Candidate15m bool `json:"candidate_15m"`
	Employer24h  bool `json:"employer_24h"`
	Employer1h   bool `json:"employer_1h"`
	Employer15m  bool `json:"employer_15m"`
}

func (f *ReminderFlags) flag(a Audience, l ReminderLead) *bool {
	switch {
	case a == AudienceCandidate && l == Lead24h:
		return &f.Candidate24h
	case a == AudienceCandidate && l == Lead1h:
		return &f.Candidate1h
	case a == AudienceCandidate && l == Lead15m:
		return &f.Candidate15m
	case a == AudienceEmployer && l == Lead24h:
		return &f.Employer24h
	case a == AudienceEmployer && l == Lead1h:
		return &f.Employer1h
	case a == AudienceEmployer && l == Lead15m:
		return &f.Employer15m
	}
	return nil
}

// Sent reports whether the reminder for audience and lead has gone out.
func (f ReminderFlags) Sent(a Audience, l ReminderLead) bool {
	p := f.flag(a, l)
	return p != nil && *p
}

// Mark records the reminder for lead and every wider lead as sent.
func (f *ReminderFlags) Mark(a Audience, l ReminderLead) {
	for _, lead := range WiderOrEqualLeads(l) {
		if p := f.flag(a, lead); p != nil {
			*p = true
		}
	}
}

// WiderOrEqualLeads returns l and every lead wider than it.
func WiderOrEqualLeads(l ReminderLead) []ReminderLead {
	for i, lead := range ReminderLeads {
		if lead == l {
			return ReminderLeads[i:]
		}
	}
	return nil
}

// DueReminder returns the tightest unsent reminder that is due at now.
func (b *Booking) DueReminder(a Audience, now time.Time) (ReminderLead, bool) {
	until := b.ScheduledAt.Sub(now)
	if until <= 0 {
		return "", false
	}
	for _, lead := range ReminderLeads {
		if until <= lead.Duration() {
			if b.Reminders.Sent(a, lead) {
				return "", false
			}
			return lead, true
		}
	}
	return "", false
}
