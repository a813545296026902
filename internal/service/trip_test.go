package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitoc/trips-api/internal/domain"
	"github.com/mitoc/trips-api/internal/pkg/signups"
)

type fakeTripRepository struct {
	trips       map[uint]domain.Trip
	signups     map[uint][]domain.Signup
	due         []domain.Trip
	promoted    *domain.Signup
	reorderErr  error
	reorders    []reorderCall
	lotteryRan  []uint
	programPast int64
}

type reorderCall struct {
	tripID      uint
	proposed    []signups.OrderEntry
	newCapacity *int
}

func newFakeTripRepository() *fakeTripRepository {
	return &fakeTripRepository{
		trips:   make(map[uint]domain.Trip),
		signups: make(map[uint][]domain.Signup),
	}
}

func (f *fakeTripRepository) Create(_ context.Context, trip domain.Trip) (domain.Trip, error) {
	trip.ID = uint(len(f.trips) + 1)
	f.trips[trip.ID] = trip
	return trip, nil
}

func (f *fakeTripRepository) FindByID(_ context.Context, id uint) (domain.Trip, error) {
	trip, ok := f.trips[id]
	if !ok {
		return domain.Trip{}, ErrTripNotFound
	}
	return trip, nil
}

func (f *fakeTripRepository) FindUpcoming(_ context.Context, _ time.Time) ([]domain.Trip, error) {
	var list []domain.Trip
	for _, trip := range f.trips {
		list = append(list, trip)
	}
	return list, nil
}

func (f *fakeTripRepository) CountProgramTrips(_ context.Context, _ string, _ time.Time, until *time.Time) (int64, error) {
	if until != nil {
		return f.programPast, nil
	}
	return 0, nil
}

func (f *fakeTripRepository) FindLotteryTripsDue(_ context.Context, _ time.Time) ([]domain.Trip, error) {
	return f.due, nil
}

func (f *fakeTripRepository) MarkLotteryRan(_ context.Context, tripID uint, _ time.Time) error {
	f.lotteryRan = append(f.lotteryRan, tripID)
	return nil
}

func (f *fakeTripRepository) FindSignups(_ context.Context, tripID uint) ([]domain.Signup, error) {
	return f.signups[tripID], nil
}

func (f *fakeTripRepository) FindSignup(_ context.Context, tripID, participantID uint) (domain.Signup, error) {
	for _, s := range f.signups[tripID] {
		if s.ParticipantID == participantID {
			return s, nil
		}
	}
	return domain.Signup{}, ErrSignupNotFound
}

func (f *fakeTripRepository) CreateSignup(_ context.Context, signup domain.Signup, _ bool, _ time.Time) (domain.Signup, error) {
	signup.ID = uint(len(f.signups[signup.TripID]) + 1)
	f.signups[signup.TripID] = append(f.signups[signup.TripID], signup)
	return signup, nil
}

func (f *fakeTripRepository) DeleteSignup(_ context.Context, _ uint) (*domain.Signup, error) {
	return f.promoted, nil
}

func (f *fakeTripRepository) ReorderSignups(_ context.Context, tripID uint, proposed []signups.OrderEntry, newCapacity *int) error {
	if f.reorderErr != nil {
		return f.reorderErr
	}
	f.reorders = append(f.reorders, reorderCall{tripID: tripID, proposed: proposed, newCapacity: newCapacity})
	return nil
}

type fakeLotteryRepository struct {
	adjustments []domain.LotteryAdjustment
}

func (f *fakeLotteryRepository) CreateAdjustment(_ context.Context, adjustment domain.LotteryAdjustment) (domain.LotteryAdjustment, error) {
	adjustment.ID = uint(len(f.adjustments) + 1)
	f.adjustments = append(f.adjustments, adjustment)
	return adjustment, nil
}

func (f *fakeLotteryRepository) FindActiveAdjustments(_ context.Context, _ []uint, now time.Time) ([]domain.LotteryAdjustment, error) {
	var active []domain.LotteryAdjustment
	for _, a := range f.adjustments {
		if !a.Expired(now) {
			active = append(active, a)
		}
	}
	return active, nil
}

func fixedNow() time.Time {
	// A Tuesday; the next lottery is Wednesday January 3rd at 9am.
	return time.Date(2024, time.January, 2, 10, 0, 0, 0, time.UTC)
}

func newTestTripService(repo *fakeTripRepository, lottery *fakeLotteryRepository) *TripService {
	svc := NewTripService(repo, lottery)
	svc.now = fixedNow

	return svc
}

func TestCreateTripDefaults(t *testing.T) {
	repo := newFakeTripRepository()
	svc := newTestTripService(repo, &fakeLotteryRepository{})

	t.Run("lottery trips close at the next lottery", func(t *testing.T) {
		created, err := svc.CreateTrip(context.Background(), domain.Trip{
			Name:      "Hike",
			Algorithm: domain.AlgorithmLottery,
			TripDate:  time.Date(2024, time.January, 6, 0, 0, 0, 0, time.UTC),
		})

		require.NoError(t, err)
		assert.Equal(t, fixedNow(), created.SignupsOpenAt)
		assert.Equal(t, time.Date(2024, time.January, 3, 9, 0, 0, 0, time.UTC), created.SignupsCloseAt)
	})

	t.Run("fcfs trips close the Thursday before", func(t *testing.T) {
		created, err := svc.CreateTrip(context.Background(), domain.Trip{
			Name:      "Climb",
			Algorithm: domain.AlgorithmFCFS,
			TripDate:  time.Date(2024, time.January, 6, 0, 0, 0, 0, time.UTC),
		})

		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, time.January, 4, 23, 59, 59, 0, time.UTC), created.SignupsCloseAt)
	})

	t.Run("explicit close times are kept", func(t *testing.T) {
		closeAt := time.Date(2024, time.January, 5, 12, 0, 0, 0, time.UTC)
		created, err := svc.CreateTrip(context.Background(), domain.Trip{
			Name:           "Ski",
			Algorithm:      domain.AlgorithmFCFS,
			TripDate:       time.Date(2024, time.January, 6, 0, 0, 0, 0, time.UTC),
			SignupsCloseAt: closeAt,
		})

		require.NoError(t, err)
		assert.Equal(t, closeAt, created.SignupsCloseAt)
	})
}

func TestSignUpUnknownTrip(t *testing.T) {
	svc := newTestTripService(newFakeTripRepository(), &fakeLotteryRepository{})

	_, err := svc.SignUp(context.Background(), 99, 1, "", false)

	assert.ErrorIs(t, err, ErrTripNotFound)
}

func TestWithdrawReturnsPromoted(t *testing.T) {
	repo := newFakeTripRepository()
	repo.trips[1] = domain.Trip{ID: 1}
	repo.signups[1] = []domain.Signup{{ID: 5, TripID: 1, ParticipantID: 10}}
	repo.promoted = &domain.Signup{ID: 6, TripID: 1, ParticipantID: 20, Placement: domain.PlacementOnTrip}
	svc := newTestTripService(repo, &fakeLotteryRepository{})

	promoted, err := svc.Withdraw(context.Background(), 1, 10)

	require.NoError(t, err)
	require.NotNil(t, promoted)
	assert.Equal(t, uint(20), promoted.ParticipantID)
}

func TestRunDueLotteries(t *testing.T) {
	base := fixedNow().Add(-24 * time.Hour)
	repo := newFakeTripRepository()
	repo.due = []domain.Trip{{ID: 1, MaximumParticipants: 1, Algorithm: domain.AlgorithmLottery}}
	repo.signups[1] = []domain.Signup{
		{ID: 1, TripID: 1, ParticipantID: 10, CreatedAt: base},
		{ID: 2, TripID: 1, ParticipantID: 20, CreatedAt: base.Add(time.Minute)},
		{ID: 3, TripID: 1, ParticipantID: 30, CreatedAt: base.Add(2 * time.Minute)},
	}

	lottery := &fakeLotteryRepository{adjustments: []domain.LotteryAdjustment{
		// Participant 30 skipped a trip last week; rank them earlier.
		{ID: 1, ParticipantID: 30, Adjustment: -2, ExpiresAt: fixedNow().Add(24 * time.Hour)},
		// Expired adjustments are ignored.
		{ID: 2, ParticipantID: 20, Adjustment: -5, ExpiresAt: fixedNow().Add(-time.Hour)},
	}}

	svc := newTestTripService(repo, lottery)

	err := svc.RunDueLotteries(context.Background())

	require.NoError(t, err)
	require.Len(t, repo.reorders, 1)
	assert.Equal(t, []signups.OrderEntry{
		{SignupID: 1},
		{SignupID: 3},
		{SignupID: 2},
	}, repo.reorders[0].proposed)
	assert.Equal(t, []uint{1}, repo.lotteryRan)
}

func TestRunDueLotteriesWaitsForWinterSchoolLectures(t *testing.T) {
	newRepo := func() *fakeTripRepository {
		repo := newFakeTripRepository()
		repo.due = []domain.Trip{{ID: 1, MaximumParticipants: 4, Program: "winter_school"}}
		repo.signups[1] = []domain.Signup{{ID: 1, TripID: 1, ParticipantID: 10}}
		return repo
	}

	t.Run("deferred until lectures have happened", func(t *testing.T) {
		repo := newRepo()
		svc := newTestTripService(repo, &fakeLotteryRepository{})

		require.NoError(t, svc.RunDueLotteries(context.Background()))
		// The trip stays due; a later tick picks it up.
		assert.Empty(t, repo.reorders)
		assert.Empty(t, repo.lotteryRan)
	})

	t.Run("runs once a trip this year has completed", func(t *testing.T) {
		repo := newRepo()
		repo.programPast = 1
		svc := newTestTripService(repo, &fakeLotteryRepository{})

		require.NoError(t, svc.RunDueLotteries(context.Background()))
		assert.Equal(t, []uint{1}, repo.lotteryRan)
	})
}

func TestLecturesComplete(t *testing.T) {
	repo := newFakeTripRepository()
	svc := newTestTripService(repo, &fakeLotteryRepository{})

	done, err := svc.LecturesComplete(context.Background())
	require.NoError(t, err)
	assert.False(t, done)

	repo.programPast = 1
	done, err = svc.LecturesComplete(context.Background())
	require.NoError(t, err)
	assert.True(t, done)
}

func TestRunDueLotteriesRetriesOnStaleSignups(t *testing.T) {
	repo := newFakeTripRepository()
	repo.due = []domain.Trip{{ID: 1, MaximumParticipants: 1}}
	repo.signups[1] = []domain.Signup{{ID: 1, TripID: 1, ParticipantID: 10}}
	repo.reorderErr = ErrStaleSignups
	svc := newTestTripService(repo, &fakeLotteryRepository{})

	err := svc.RunDueLotteries(context.Background())

	// A mid-run signup is not fatal; the trip stays due for the next tick.
	require.NoError(t, err)
	assert.Empty(t, repo.lotteryRan)
}

func TestCreateLotteryAdjustmentDefaultExpiry(t *testing.T) {
	lottery := &fakeLotteryRepository{}
	svc := newTestTripService(newFakeTripRepository(), lottery)

	created, err := svc.CreateLotteryAdjustment(context.Background(), domain.LotteryAdjustment{
		ParticipantID: 10,
		Adjustment:    -1,
	})

	require.NoError(t, err)
	// Next lottery (Wednesday January 3rd, 9am) plus a week.
	assert.Equal(t, time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC), created.ExpiresAt)
}
