package response

import (
	"time"

	"github.com/mitoc/trips-api/internal/domain"
)

// AdminSignup is one row of the leader's reorder snapshot: everything
// the participant-ordering modal needs to render a signup.
type AdminSignup struct {
	ID          int                `json:"id"`
	Participant SignupParticipant  `json:"participant"`
	Placement   string             `json:"placement"`
	Order       int                `json:"order"`
	PairedWith  *SignupParticipant `json:"paired_with"`
	Notes       string             `json:"notes"`
	CreatedAt   time.Time          `json:"created_at"`
}

type SignupParticipant struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AdminSignupsResponse struct {
	Signups             []AdminSignup `json:"signups"`
	MaximumParticipants int           `json:"maximum_participants"`
}

type MembershipResponse struct {
	Email             string     `json:"email"`
	Active            bool       `json:"active"`
	MembershipExpires *time.Time `json:"membership_expires"`
	WaiverExpires     *time.Time `json:"waiver_expires"`
}

type WaiverResponse struct {
	SigningURL string `json:"signing_url"`
}

// NewAdminSignups renders signups for the leader modal. PairedWith is
// only shown when the partner also holds a signup on the same trip.
func NewAdminSignups(trip domain.Trip, list []domain.Signup) AdminSignupsResponse {
	onTrip := make(map[uint]domain.Participant, len(list))
	for _, s := range list {
		onTrip[s.ParticipantID] = s.Participant
	}

	signups := make([]AdminSignup, 0, len(list))
	for _, s := range list {
		row := AdminSignup{
			ID: int(s.ID),
			Participant: SignupParticipant{
				ID:    s.Participant.ID,
				Name:  s.Participant.Name,
				Email: s.Participant.Email,
			},
			Placement: string(s.Placement),
			Order:     s.Order,
			Notes:     s.Notes,
			CreatedAt: s.CreatedAt,
		}

		if s.Participant.PairedWithID != nil {
			if partner, ok := onTrip[*s.Participant.PairedWithID]; ok {
				if s.Participant.ReciprocallyPairedWith(partner) != nil {
					row.PairedWith = &SignupParticipant{
						ID:    partner.ID,
						Name:  partner.Name,
						Email: partner.Email,
					}
				}
			}
		}

		signups = append(signups, row)
	}

	return AdminSignupsResponse{
		Signups:             signups,
		MaximumParticipants: trip.MaximumParticipants,
	}
}
