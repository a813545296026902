package domain

import "time"

type Participant struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Name      string    `json:"name"`
	Role      string    `json:"role"` // "participant", "leader", or "chair"
	CellPhone string    `json:"cell_phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// PairedWithID is this participant's requested pairing partner.
	// The preference only takes effect when it is reciprocated.
	PairedWithID *uint `json:"paired_with_id"`
}

func (p Participant) IsLeader() bool {
	return p.Role == "leader" || p.Role == "chair"
}

func (p Participant) IsChair() bool {
	return p.Role == "chair"
}

// ReciprocallyPairedWith returns the partner's ID when both participants
// have requested each other, and nil otherwise.
func (p Participant) ReciprocallyPairedWith(other Participant) *uint {
	if p.PairedWithID == nil || other.PairedWithID == nil {
		return nil
	}
	if *p.PairedWithID == other.ID && *other.PairedWithID == p.ID {
		return &other.ID
	}

	return nil
}
