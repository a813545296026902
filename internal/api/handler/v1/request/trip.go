package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

type CreateTripRequest struct {
	Name                string     `json:"name"`
	Description         string     `json:"description"`
	TripDate            time.Time  `json:"trip_date"`
	MaximumParticipants int        `json:"maximum_participants"`
	Algorithm           string     `json:"algorithm"`
	Program             string     `json:"program"`
	SignupsOpenAt       *time.Time `json:"signups_open_at"`
	SignupsCloseAt      *time.Time `json:"signups_close_at"`
	HonorPairing        *bool      `json:"honor_participant_pairing"`
	LeaderIDs           []uint     `json:"leader_ids"`
}

func (req *CreateTripRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 127)),
		validation.Field(&req.TripDate, validation.Required),
		validation.Field(&req.MaximumParticipants, validation.Required, validation.Min(1)),
		validation.Field(&req.Algorithm, validation.Required, validation.In("lottery", "fcfs")),
		validation.Field(&req.Program, validation.In("winter_school", "open")),
	)
}

type CreateSignupRequest struct {
	Notes string `json:"notes"`

	// ParticipantID lets a leader place somebody else directly;
	// participants signing themselves up leave it zero.
	ParticipantID uint `json:"participant_id"`
}

func (req *CreateSignupRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Notes, validation.Length(0, 2000)),
	)
}

// OrderedSignup mirrors one row of the leader's snapshot on resubmission.
type OrderedSignup struct {
	ID      uint `json:"id"`
	Deleted bool `json:"deleted"`
}

// ReorderSignupsRequest is the leader's authoritative final state for a
// trip's signups: every live signup in the desired order, flagged for
// deletion where applicable, plus an optional capacity change. An empty
// list is valid; it must simply match a trip with no live signups, so a
// capacity-only edit works before anyone has signed up.
type ReorderSignupsRequest struct {
	Signups             []OrderedSignup `json:"signups"`
	MaximumParticipants *int            `json:"maximum_participants"`
}

func (req *ReorderSignupsRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.MaximumParticipants, validation.Min(1)),
	)
}

type CreateLotteryAdjustmentRequest struct {
	ParticipantID uint       `json:"participant_id"`
	Adjustment    int        `json:"adjustment"`
	ExpiresAt     *time.Time `json:"expires_at"`
}

func (req *CreateLotteryAdjustmentRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ParticipantID, validation.Required),
		validation.Field(&req.Adjustment, validation.Required),
	)
}

type RequestPairingRequest struct {
	// A nil partner clears the pairing request.
	PartnerID *uint `json:"partner_id"`
}
