package signups

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitoc/trips-api/internal/domain"
)

func openTrip(capacity int) domain.Trip {
	return domain.Trip{
		ID:                  1,
		MaximumParticipants: capacity,
		HonorPairing:        true,
		SignupsOpenAt:       time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		SignupsCloseAt:      time.Date(2024, time.January, 3, 9, 0, 0, 0, time.UTC),
	}
}

func duringWindow() time.Time {
	return time.Date(2024, time.January, 2, 12, 0, 0, 0, time.UTC)
}

func onTrip(id, participantID uint) domain.Signup {
	return domain.Signup{ID: id, ParticipantID: participantID, Placement: domain.PlacementOnTrip}
}

func waitlisted(id, participantID uint) domain.Signup {
	return domain.Signup{ID: id, ParticipantID: participantID, Placement: domain.PlacementWaitlisted}
}

func TestPlace(t *testing.T) {
	tests := []struct {
		name      string
		trip      domain.Trip
		existing  []domain.Signup
		candidate domain.Signup
		opts      PlaceOptions
		want      domain.Placement
		wantErr   error
	}{
		{
			name:      "roster has room",
			trip:      openTrip(2),
			existing:  []domain.Signup{onTrip(1, 10)},
			candidate: domain.Signup{ID: 2, ParticipantID: 20},
			opts:      PlaceOptions{Now: duringWindow()},
			want:      domain.PlacementOnTrip,
		},
		{
			name:      "roster full goes to the waitlist",
			trip:      openTrip(1),
			existing:  []domain.Signup{onTrip(1, 10)},
			candidate: domain.Signup{ID: 2, ParticipantID: 20},
			opts:      PlaceOptions{Now: duringWindow()},
			want:      domain.PlacementWaitlisted,
		},
		{
			name:      "closed trip rejects open signups",
			trip:      openTrip(2),
			candidate: domain.Signup{ID: 1, ParticipantID: 10},
			opts:      PlaceOptions{Now: time.Date(2024, time.January, 3, 10, 0, 0, 0, time.UTC)},
			wantErr:   ErrTripClosed,
		},
		{
			name:      "leader placement bypasses the window",
			trip:      openTrip(2),
			candidate: domain.Signup{ID: 1, ParticipantID: 10},
			opts: PlaceOptions{
				ForceOpen: true,
				Now:       time.Date(2024, time.January, 3, 10, 0, 0, 0, time.UTC),
			},
			want: domain.PlacementOnTrip,
		},
		{
			name: "waitlisted partner pulls the candidate despite roster room",
			trip: openTrip(3),
			existing: []domain.Signup{
				onTrip(1, 10),
				waitlisted(2, 20),
			},
			candidate: domain.Signup{ID: 3, ParticipantID: 30},
			opts: PlaceOptions{
				Now:   duringWindow(),
				Pairs: map[uint]uint{30: 20, 20: 30},
			},
			want: domain.PlacementWaitlisted,
		},
		{
			name:      "partner who never signed up is ignored",
			trip:      openTrip(2),
			existing:  []domain.Signup{onTrip(1, 10)},
			candidate: domain.Signup{ID: 2, ParticipantID: 30},
			opts: PlaceOptions{
				Now:   duringWindow(),
				Pairs: map[uint]uint{30: 99, 99: 30},
			},
			want: domain.PlacementOnTrip,
		},
		{
			name: "pairing disabled on the trip",
			trip: func() domain.Trip {
				trip := openTrip(3)
				trip.HonorPairing = false
				return trip
			}(),
			existing: []domain.Signup{
				onTrip(1, 10),
				waitlisted(2, 20),
			},
			candidate: domain.Signup{ID: 3, ParticipantID: 30},
			opts: PlaceOptions{
				Now:   duringWindow(),
				Pairs: map[uint]uint{30: 20, 20: 30},
			},
			want: domain.PlacementOnTrip,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Place(tt.trip, tt.existing, tt.candidate, tt.opts)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlaceIgnoresCandidateAmongExisting(t *testing.T) {
	// Re-placing a signup already in the snapshot must not count it
	// against capacity.
	trip := openTrip(1)
	candidate := onTrip(1, 10)

	got, err := Place(trip, []domain.Signup{candidate}, candidate, PlaceOptions{Now: duringWindow()})

	require.NoError(t, err)
	assert.Equal(t, domain.PlacementOnTrip, got)
}

func TestSortByArrival(t *testing.T) {
	base := time.Date(2024, time.January, 2, 12, 0, 0, 0, time.UTC)
	list := []domain.Signup{
		{ID: 1, Order: 2},
		{ID: 2, Order: 0, CreatedAt: base.Add(time.Minute)},
		{ID: 3, Order: 0, CreatedAt: base},
		{ID: 4, Order: 1},
	}

	SortByArrival(list)

	var ids []uint
	for _, s := range list {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []uint{3, 2, 4, 1}, ids)
}
