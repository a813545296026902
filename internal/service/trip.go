package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mitoc/trips-api/internal/domain"
	"github.com/mitoc/trips-api/internal/pkg/dates"
	"github.com/mitoc/trips-api/internal/pkg/signups"
	"github.com/mitoc/trips-api/internal/repository"
)

var (
	ErrTripNotFound    = repository.ErrTripNotFound
	ErrSignupNotFound  = repository.ErrSignupNotFound
	ErrSignupExists    = repository.ErrSignupExists
	ErrTripClosed      = signups.ErrTripClosed
	ErrStaleSignups    = signups.ErrStaleSignups
	ErrCapacityInvalid = signups.ErrCapacityInvalid
)

type TripRepository interface {
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	FindByID(ctx context.Context, id uint) (domain.Trip, error)
	FindUpcoming(ctx context.Context, after time.Time) ([]domain.Trip, error)
	CountProgramTrips(ctx context.Context, program string, from time.Time, until *time.Time) (int64, error)
	FindLotteryTripsDue(ctx context.Context, now time.Time) ([]domain.Trip, error)
	MarkLotteryRan(ctx context.Context, tripID uint, at time.Time) error
	FindSignups(ctx context.Context, tripID uint) ([]domain.Signup, error)
	FindSignup(ctx context.Context, tripID, participantID uint) (domain.Signup, error)
	CreateSignup(ctx context.Context, signup domain.Signup, forceOpen bool, now time.Time) (domain.Signup, error)
	DeleteSignup(ctx context.Context, signupID uint) (*domain.Signup, error)
	ReorderSignups(ctx context.Context, tripID uint, proposed []signups.OrderEntry, newCapacity *int) error
}

type LotteryRepository interface {
	CreateAdjustment(ctx context.Context, adjustment domain.LotteryAdjustment) (domain.LotteryAdjustment, error)
	FindActiveAdjustments(ctx context.Context, participantIDs []uint, now time.Time) ([]domain.LotteryAdjustment, error)
}

type TripService struct {
	repo        TripRepository
	lotteryRepo LotteryRepository
	now         func() time.Time
}

func NewTripService(repo TripRepository, lotteryRepo LotteryRepository) *TripService {
	return &TripService{
		repo:        repo,
		lotteryRepo: lotteryRepo,
		now:         time.Now,
	}
}

func (s *TripService) CreateTrip(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	now := s.now()
	if trip.SignupsOpenAt.IsZero() {
		trip.SignupsOpenAt = now
	}
	if trip.SignupsCloseAt.IsZero() {
		switch trip.Algorithm {
		case domain.AlgorithmLottery:
			trip.SignupsCloseAt = dates.NextLottery(now)
		default:
			trip.SignupsCloseAt = dates.FCFSCloseTime(trip.TripDate)
		}
	}

	created, err := s.repo.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *TripService) GetTrip(ctx context.Context, id uint) (domain.Trip, error) {
	trip, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	trip.Signups, err = s.repo.FindSignups(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("s.repo.FindSignups -> %w", err)
	}

	return trip, nil
}

func (s *TripService) ListUpcomingTrips(ctx context.Context) ([]domain.Trip, error) {
	trips, err := s.repo.FindUpcoming(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindUpcoming -> %w", err)
	}

	return trips, nil
}

// SignUp creates a signup for a participant, placing it on the roster or
// the waitlist. Leaders placing a participant directly bypass the signup
// window; everyone else is bound by it.
func (s *TripService) SignUp(ctx context.Context, tripID, participantID uint, notes string, leaderPlaced bool) (domain.Signup, error) {
	if _, err := s.repo.FindByID(ctx, tripID); err != nil {
		return domain.Signup{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	signup, err := s.repo.CreateSignup(ctx, domain.Signup{
		TripID:        tripID,
		ParticipantID: participantID,
		Notes:         notes,
	}, leaderPlaced, s.now())
	if err != nil {
		return domain.Signup{}, fmt.Errorf("s.repo.CreateSignup -> %w", err)
	}

	return signup, nil
}

// Withdraw deletes a participant's signup. Freeing a roster spot promotes
// the head of the waitlist; the promoted signup is returned so the caller
// can notify them.
func (s *TripService) Withdraw(ctx context.Context, tripID, participantID uint) (*domain.Signup, error) {
	signup, err := s.repo.FindSignup(ctx, tripID, participantID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindSignup -> %w", err)
	}

	promoted, err := s.repo.DeleteSignup(ctx, signup.ID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.DeleteSignup -> %w", err)
	}

	return promoted, nil
}

func (s *TripService) GetSignups(ctx context.Context, tripID uint) ([]domain.Signup, error) {
	if _, err := s.repo.FindByID(ctx, tripID); err != nil {
		return nil, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	list, err := s.repo.FindSignups(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindSignups -> %w", err)
	}

	return list, nil
}

// Reorder applies a leader's authoritative ordering of a trip's signups,
// optionally changing the trip's capacity in the same transaction. The
// submitted list must match the live signups exactly; see
// signups.PlanReorder for the staleness contract.
func (s *TripService) Reorder(ctx context.Context, tripID uint, proposed []signups.OrderEntry, newCapacity *int) error {
	if _, err := s.repo.FindByID(ctx, tripID); err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if err := s.repo.ReorderSignups(ctx, tripID, proposed, newCapacity); err != nil {
		return fmt.Errorf("s.repo.ReorderSignups -> %w", err)
	}

	return nil
}

func (s *TripService) CreateLotteryAdjustment(ctx context.Context, adjustment domain.LotteryAdjustment) (domain.LotteryAdjustment, error) {
	if adjustment.ExpiresAt.IsZero() {
		// Credits default to lasting through the next lottery.
		adjustment.ExpiresAt = dates.NextLottery(s.now()).AddDate(0, 0, 7)
	}

	created, err := s.lotteryRepo.CreateAdjustment(ctx, adjustment)
	if err != nil {
		return domain.LotteryAdjustment{}, fmt.Errorf("s.lotteryRepo.CreateAdjustment -> %w", err)
	}

	return created, nil
}

// ListLotteryAdjustments returns a participant's unexpired adjustments.
func (s *TripService) ListLotteryAdjustments(ctx context.Context, participantID uint) ([]domain.LotteryAdjustment, error) {
	adjustments, err := s.lotteryRepo.FindActiveAdjustments(ctx, []uint{participantID}, s.now())
	if err != nil {
		return nil, fmt.Errorf("s.lotteryRepo.FindActiveAdjustments -> %w", err)
	}

	return adjustments, nil
}

// RunDueLotteries places signups for every lottery trip whose window has
// closed. Ranking is arrival order biased by unexpired adjustments
// (lower ranks first); placement itself reuses the reorder engine, so
// pairing and capacity behave exactly as they do for leader edits.
func (s *TripService) RunDueLotteries(ctx context.Context) error {
	now := s.now()

	trips, err := s.repo.FindLotteryTripsDue(ctx, now)
	if err != nil {
		return fmt.Errorf("s.repo.FindLotteryTripsDue -> %w", err)
	}

	lecturesChecked := false
	lecturesDone := false
	for _, trip := range trips {
		// Winter School trips wait for the mandatory first-week lectures;
		// their lotteries stay due until those have happened.
		if trip.Program == "winter_school" {
			if !lecturesChecked {
				var err error
				lecturesDone, err = s.LecturesComplete(ctx)
				if err != nil {
					return fmt.Errorf("s.LecturesComplete -> %w", err)
				}
				lecturesChecked = true
			}
			if !lecturesDone {
				zap.L().Info("lectures not complete, deferring lottery",
					zap.Uint("trip_id", trip.ID))
				continue
			}
		}

		if err := s.runLottery(ctx, trip, now); err != nil {
			if errors.Is(err, ErrStaleSignups) {
				// A signup landed mid-run; the next tick picks this trip up again.
				zap.L().Warn("lottery hit stale signups, will retry",
					zap.Uint("trip_id", trip.ID))
				continue
			}

			return fmt.Errorf("s.runLottery -> %w", err)
		}
	}

	return nil
}

func (s *TripService) runLottery(ctx context.Context, trip domain.Trip, now time.Time) error {
	list, err := s.repo.FindSignups(ctx, trip.ID)
	if err != nil {
		return fmt.Errorf("s.repo.FindSignups -> %w", err)
	}

	ranked, err := s.rankForLottery(ctx, list, now)
	if err != nil {
		return err
	}

	proposed := make([]signups.OrderEntry, 0, len(ranked))
	for _, signup := range ranked {
		proposed = append(proposed, signups.OrderEntry{SignupID: signup.ID})
	}

	if err := s.repo.ReorderSignups(ctx, trip.ID, proposed, nil); err != nil {
		return fmt.Errorf("s.repo.ReorderSignups -> %w", err)
	}

	if err := s.repo.MarkLotteryRan(ctx, trip.ID, now); err != nil {
		return fmt.Errorf("s.repo.MarkLotteryRan -> %w", err)
	}

	zap.L().Info("lottery ran",
		zap.Uint("trip_id", trip.ID),
		zap.Int("signups", len(ranked)))

	return nil
}

// rankForLottery orders signups by arrival, then biases by each
// participant's active adjustments. A -1 adjustment beats one arrival
// position; ties fall back to signup creation time.
func (s *TripService) rankForLottery(ctx context.Context, list []domain.Signup, now time.Time) ([]domain.Signup, error) {
	byArrival := make([]domain.Signup, len(list))
	copy(byArrival, list)
	signups.SortByArrival(byArrival)

	participantIDs := make([]uint, 0, len(byArrival))
	for _, signup := range byArrival {
		participantIDs = append(participantIDs, signup.ParticipantID)
	}

	adjustments, err := s.lotteryRepo.FindActiveAdjustments(ctx, participantIDs, now)
	if err != nil {
		return nil, fmt.Errorf("s.lotteryRepo.FindActiveAdjustments -> %w", err)
	}

	bias := make(map[uint]int)
	for _, adjustment := range adjustments {
		bias[adjustment.ParticipantID] += adjustment.Adjustment
	}

	scores := make(map[uint]int, len(byArrival))
	for i, signup := range byArrival {
		scores[signup.ID] = i + bias[signup.ParticipantID]
	}

	sort.SliceStable(byArrival, func(i, j int) bool {
		return scores[byArrival[i].ID] < scores[byArrival[j].ID]
	})

	return byArrival, nil
}

// LecturesComplete reports whether Winter School's mandatory first-week
// lectures have occurred, deduced from this year's trips.
func (s *TripService) LecturesComplete(ctx context.Context) (bool, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	janFirst := dates.JanFirst(now)

	past, err := s.repo.CountProgramTrips(ctx, "winter_school", janFirst, &today)
	if err != nil {
		return false, fmt.Errorf("s.repo.CountProgramTrips -> %w", err)
	}

	future, err := s.repo.CountProgramTrips(ctx, "winter_school", today, nil)
	if err != nil {
		return false, fmt.Errorf("s.repo.CountProgramTrips -> %w", err)
	}

	return dates.LecturesComplete(now, past > 0, future > 0), nil
}
