// Package signups holds the placement rules for trip rosters and
// waitlists. Everything here operates on in-memory snapshots so the
// repository layer can re-run decisions against freshly locked rows
// inside a transaction.
package signups

import (
	"errors"
	"sort"
	"time"

	"github.com/mitoc/trips-api/internal/domain"
)

var (
	// ErrTripClosed means an open signup was attempted outside the
	// trip's signup window.
	ErrTripClosed = errors.New("trip is not currently accepting signups")

	// ErrStaleSignups means the submitted ordering no longer matches the
	// trip's live signups (some were added or removed since the
	// submitter fetched their snapshot).
	ErrStaleSignups = errors.New("signups were recently added or removed")

	// ErrCapacityInvalid means a proposed maximum-participant count
	// failed validation.
	ErrCapacityInvalid = errors.New("invalid maximum participant count")
)

// PlaceOptions control a single placement decision.
type PlaceOptions struct {
	// ForceOpen bypasses the signup window check. Leaders placing
	// participants directly (and the reorder engine, whose ordering is
	// authoritative) always force.
	ForceOpen bool

	// Now is the current time, used only for the open/closed check.
	Now time.Time

	// Pairs maps participant IDs to their reciprocal pairing partner.
	Pairs map[uint]uint
}

// Place decides whether a candidate signup belongs on the roster or the
// waitlist. The existing slice is every other current signup on the trip.
//
// A candidate whose reciprocal partner already holds a signup is
// co-located with that partner whenever possible: a waitlisted partner
// pulls the candidate onto the waitlist even when roster spots remain.
// A partner who never signed up is simply ignored.
func Place(trip domain.Trip, existing []domain.Signup, candidate domain.Signup, opts PlaceOptions) (domain.Placement, error) {
	if !opts.ForceOpen && !trip.SignupsOpen(opts.Now) {
		return "", ErrTripClosed
	}

	rosterCount := 0
	var partnerSignup *domain.Signup
	partnerID, paired := opts.Pairs[candidate.ParticipantID]

	for i := range existing {
		s := existing[i]
		if s.ID == candidate.ID {
			continue
		}
		if s.OnTrip() {
			rosterCount++
		}
		if trip.HonorPairing && paired && s.ParticipantID == partnerID {
			partnerSignup = &existing[i]
		}
	}

	if partnerSignup != nil && !partnerSignup.OnTrip() {
		return domain.PlacementWaitlisted, nil
	}
	if rosterCount < trip.MaximumParticipants {
		return domain.PlacementOnTrip, nil
	}

	return domain.PlacementWaitlisted, nil
}

// SortByArrival orders signups by their stored position, breaking ties by
// signup creation time. This is the waitlist's arrival order.
func SortByArrival(list []domain.Signup) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Order != list[j].Order {
			return list[i].Order < list[j].Order
		}

		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}
