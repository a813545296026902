package signups

import "github.com/mitoc/trips-api/internal/domain"

// OrderEntry is one row of a submitted ordering: the leader's desired
// final state for a single signup, captured from a possibly stale
// snapshot of the trip.
type OrderEntry struct {
	SignupID uint `json:"id"`
	Deleted  bool `json:"deleted"`
}

// Decision is the planned final state for one surviving signup.
type Decision struct {
	SignupID  uint
	Placement domain.Placement
	Order     int
}

// Plan is the full outcome of a reorder: which signups to delete, and the
// placement plus position of every survivor. Deletions made here are the
// leader's explicit choice, so appliers must skip the waitlist-promotion
// side effects a normal withdrawal would trigger.
type Plan struct {
	Capacity  int
	Deletions []uint
	Decisions []Decision
}

// PlanReorder applies a submitted total ordering to a trip's current
// signups.
//
// The submitted list must account for every live signup exactly once; any
// mismatch (a new signup arrived, one was withdrawn, or an unknown ID was
// submitted) fails with ErrStaleSignups rather than attempting a merge.
// The submitter has the authoritative say on who is on the trip and in
// what order, but only when working from current data.
//
// Survivors are all cleared and then re-placed one at a time in the
// submitted order, so a previously waitlisted signup can land on the
// roster purely because it was moved earlier in the list. Placement
// forces the trip open: an explicit ordering overrides the signup window.
func PlanReorder(trip domain.Trip, current []domain.Signup, proposed []OrderEntry, newCapacity *int, pairs map[uint]uint) (Plan, error) {
	if newCapacity != nil {
		if *newCapacity < 1 {
			return Plan{}, ErrCapacityInvalid
		}
		trip.MaximumParticipants = *newCapacity
	}

	if len(proposed) != len(current) {
		return Plan{}, ErrStaleSignups
	}

	byID := make(map[uint]domain.Signup, len(current))
	for _, s := range current {
		byID[s.ID] = s
	}

	seen := make(map[uint]bool, len(proposed))
	plan := Plan{Capacity: trip.MaximumParticipants}
	var survivors []domain.Signup
	for _, entry := range proposed {
		s, ok := byID[entry.SignupID]
		if !ok || seen[entry.SignupID] {
			return Plan{}, ErrStaleSignups
		}
		seen[entry.SignupID] = true

		if entry.Deleted {
			plan.Deletions = append(plan.Deletions, entry.SignupID)
			continue
		}
		survivors = append(survivors, s)
	}

	// Clear prior placement, then re-place in the submitted order. Each
	// decision sees only the signups placed before it.
	placed := make([]domain.Signup, 0, len(survivors))
	for order, s := range survivors {
		s.Placement = domain.PlacementWaitlisted
		placement, err := Place(trip, placed, s, PlaceOptions{ForceOpen: true, Pairs: pairs})
		if err != nil {
			return Plan{}, err
		}

		s.Placement = placement
		s.Order = order
		placed = append(placed, s)
		plan.Decisions = append(plan.Decisions, Decision{
			SignupID:  s.ID,
			Placement: placement,
			Order:     order,
		})
	}

	return plan, nil
}
