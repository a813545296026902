package domain

import "time"

type TripAlgorithm string

const (
	AlgorithmLottery TripAlgorithm = "lottery"
	AlgorithmFCFS    TripAlgorithm = "fcfs"
)

type Trip struct {
	ID                  uint          `json:"id"`
	Name                string        `json:"name"`
	Description         string        `json:"description"`
	TripDate            time.Time     `json:"trip_date"`
	MaximumParticipants int           `json:"maximum_participants"`
	Algorithm           TripAlgorithm `json:"algorithm"`
	Program             string        `json:"program"` // "winter_school" or "open"
	SignupsOpenAt       time.Time     `json:"signups_open_at"`
	SignupsCloseAt      time.Time     `json:"signups_close_at"`
	HonorPairing        bool          `json:"honor_participant_pairing"`
	ChairApproved       bool          `json:"chair_approved"`
	LotteryRanAt        *time.Time    `json:"lottery_ran_at"`
	CreatorID           uint          `json:"creator_id"`
	Creator             Participant   `json:"creator"`
	Leaders             []Participant `json:"leaders"`
	Signups             []Signup      `json:"signups,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// SignupsOpen reports whether open (non-leader) signups are currently accepted.
func (t Trip) SignupsOpen(now time.Time) bool {
	return !now.Before(t.SignupsOpenAt) && now.Before(t.SignupsCloseAt)
}

func (t Trip) HasLeader(participantID uint) bool {
	if t.CreatorID == participantID {
		return true
	}
	for _, leader := range t.Leaders {
		if leader.ID == participantID {
			return true
		}
	}

	return false
}
