package domain

import "time"

// Placement is where a signup currently sits. A signup is always in exactly
// one bucket; the waitlist is not a separate record.
type Placement string

const (
	PlacementOnTrip     Placement = "on_trip"
	PlacementWaitlisted Placement = "waitlisted"
)

type Signup struct {
	ID            uint        `json:"id"`
	TripID        uint        `json:"trip_id"`
	ParticipantID uint        `json:"participant_id"`
	Participant   Participant `json:"participant"`
	Placement     Placement   `json:"placement"`
	Order         int         `json:"order"`
	Notes         string      `json:"notes"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (s Signup) OnTrip() bool {
	return s.Placement == PlacementOnTrip
}
