package domain

import "time"

// Membership is the club-membership state for a participant, as reported
// by the external gear-rental database. An unknown participant is modeled
// as a zero-valued Membership, not as an error.
type Membership struct {
	Email             string     `json:"email"`
	MembershipExpires *time.Time `json:"membership_expires"`
	WaiverExpires     *time.Time `json:"waiver_expires"`
}

func (m Membership) Active(now time.Time) bool {
	return m.MembershipExpires != nil && now.Before(*m.MembershipExpires)
}

func (m Membership) WaiverActive(now time.Time) bool {
	return m.WaiverExpires != nil && now.Before(*m.WaiverExpires)
}

// MembershipReminder records that a renewal reminder went out, so that a
// participant is reminded at most once per membership period.
type MembershipReminder struct {
	ID            uint      `json:"id"`
	ParticipantID uint      `json:"participant_id"`
	SentAt        time.Time `json:"sent_at"`
}
