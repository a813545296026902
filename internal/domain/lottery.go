package domain

import "time"

// LotteryAdjustment temporarily biases a participant's lottery ranking,
// e.g. as a goodwill credit after a cancelled trip. Negative adjustments
// rank the participant earlier.
type LotteryAdjustment struct {
	ID            uint      `json:"id"`
	ParticipantID uint      `json:"participant_id"`
	CreatorID     uint      `json:"creator_id"`
	Adjustment    int       `json:"adjustment"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

func (a LotteryAdjustment) Expired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}
