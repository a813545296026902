package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mitoc/trips-api/internal/domain"
	"github.com/mitoc/trips-api/internal/pkg/signups"
	"github.com/mitoc/trips-api/internal/repository/dao"
)

var (
	ErrTripNotFound   = dao.ErrTripNotFound
	ErrSignupNotFound = dao.ErrSignupNotFound
	ErrSignupExists   = dao.ErrSignupExists
)

type TripDAO interface {
	Insert(ctx context.Context, trip dao.Trip) (dao.Trip, error)
	FindByID(ctx context.Context, id uint) (dao.Trip, error)
	FindUpcoming(ctx context.Context, after time.Time) ([]dao.Trip, error)
	CountProgramTrips(ctx context.Context, program string, from time.Time, until *time.Time) (int64, error)
	FindLotteryTripsDue(ctx context.Context, now time.Time) ([]dao.Trip, error)
	MarkLotteryRan(ctx context.Context, tripID uint, at time.Time) error
}

type SignupDAO interface {
	FindByTrip(ctx context.Context, tripID uint) ([]dao.Signup, error)
	FindByTripAndParticipant(ctx context.Context, tripID, participantID uint) (dao.Signup, error)
	InsertPlaced(ctx context.Context, signup dao.Signup, forceOpen bool, now time.Time) (dao.Signup, error)
	DeleteAndPromote(ctx context.Context, signupID uint) (*dao.Signup, error)
	ReorderSignups(ctx context.Context, tripID uint, proposed []signups.OrderEntry, newCapacity *int) error
}

type TripRepository struct {
	tripDAO   TripDAO
	signupDAO SignupDAO
}

func NewTripRepository(tripDAO TripDAO, signupDAO SignupDAO) *TripRepository {
	return &TripRepository{
		tripDAO:   tripDAO,
		signupDAO: signupDAO,
	}
}

func (r *TripRepository) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	leaders := make([]dao.Participant, 0, len(trip.Leaders))
	for _, leader := range trip.Leaders {
		leaders = append(leaders, dao.Participant{ID: leader.ID})
	}

	created, err := r.tripDAO.Insert(ctx, dao.Trip{
		Name:                trip.Name,
		Description:         trip.Description,
		TripDate:            trip.TripDate,
		MaximumParticipants: trip.MaximumParticipants,
		Algorithm:           string(trip.Algorithm),
		Program:             trip.Program,
		SignupsOpenAt:       trip.SignupsOpenAt,
		SignupsCloseAt:      trip.SignupsCloseAt,
		HonorPairing:        trip.HonorPairing,
		ChairApproved:       trip.ChairApproved,
		CreatorID:           trip.CreatorID,
		Leaders:             leaders,
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("r.tripDAO.Insert -> %w", err)
	}

	return tripDAOToDomain(created), nil
}

func (r *TripRepository) FindByID(ctx context.Context, id uint) (domain.Trip, error) {
	found, err := r.tripDAO.FindByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("r.tripDAO.FindByID -> %w", err)
	}

	return tripDAOToDomain(found), nil
}

func (r *TripRepository) FindUpcoming(ctx context.Context, after time.Time) ([]domain.Trip, error) {
	found, err := r.tripDAO.FindUpcoming(ctx, after)
	if err != nil {
		return nil, fmt.Errorf("r.tripDAO.FindUpcoming -> %w", err)
	}

	trips := make([]domain.Trip, 0, len(found))
	for _, t := range found {
		trips = append(trips, tripDAOToDomain(t))
	}

	return trips, nil
}

func (r *TripRepository) CountProgramTrips(ctx context.Context, program string, from time.Time, until *time.Time) (int64, error) {
	count, err := r.tripDAO.CountProgramTrips(ctx, program, from, until)
	if err != nil {
		return 0, fmt.Errorf("r.tripDAO.CountProgramTrips -> %w", err)
	}

	return count, nil
}

func (r *TripRepository) FindLotteryTripsDue(ctx context.Context, now time.Time) ([]domain.Trip, error) {
	found, err := r.tripDAO.FindLotteryTripsDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("r.tripDAO.FindLotteryTripsDue -> %w", err)
	}

	trips := make([]domain.Trip, 0, len(found))
	for _, t := range found {
		trips = append(trips, tripDAOToDomain(t))
	}

	return trips, nil
}

func (r *TripRepository) MarkLotteryRan(ctx context.Context, tripID uint, at time.Time) error {
	if err := r.tripDAO.MarkLotteryRan(ctx, tripID, at); err != nil {
		return fmt.Errorf("r.tripDAO.MarkLotteryRan -> %w", err)
	}

	return nil
}

func (r *TripRepository) FindSignups(ctx context.Context, tripID uint) ([]domain.Signup, error) {
	found, err := r.signupDAO.FindByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("r.signupDAO.FindByTrip -> %w", err)
	}

	list := make([]domain.Signup, 0, len(found))
	for _, s := range found {
		list = append(list, signupDAOToDomain(s))
	}

	return list, nil
}

func (r *TripRepository) FindSignup(ctx context.Context, tripID, participantID uint) (domain.Signup, error) {
	found, err := r.signupDAO.FindByTripAndParticipant(ctx, tripID, participantID)
	if err != nil {
		return domain.Signup{}, fmt.Errorf("r.signupDAO.FindByTripAndParticipant -> %w", err)
	}

	return signupDAOToDomain(found), nil
}

// CreateSignup inserts a signup and places it on the roster or waitlist.
func (r *TripRepository) CreateSignup(ctx context.Context, signup domain.Signup, forceOpen bool, now time.Time) (domain.Signup, error) {
	created, err := r.signupDAO.InsertPlaced(ctx, dao.Signup{
		TripID:        signup.TripID,
		ParticipantID: signup.ParticipantID,
		Notes:         signup.Notes,
	}, forceOpen, now)
	if err != nil {
		return domain.Signup{}, fmt.Errorf("r.signupDAO.InsertPlaced -> %w", err)
	}

	return signupDAOToDomain(created), nil
}

// DeleteSignup removes a signup and promotes the head of the waitlist
// when a roster spot was freed. Returns the promoted signup, if any.
func (r *TripRepository) DeleteSignup(ctx context.Context, signupID uint) (*domain.Signup, error) {
	promoted, err := r.signupDAO.DeleteAndPromote(ctx, signupID)
	if err != nil {
		return nil, fmt.Errorf("r.signupDAO.DeleteAndPromote -> %w", err)
	}

	if promoted == nil {
		return nil, nil
	}
	converted := signupDAOToDomain(*promoted)

	return &converted, nil
}

func (r *TripRepository) ReorderSignups(ctx context.Context, tripID uint, proposed []signups.OrderEntry, newCapacity *int) error {
	if err := r.signupDAO.ReorderSignups(ctx, tripID, proposed, newCapacity); err != nil {
		return fmt.Errorf("r.signupDAO.ReorderSignups -> %w", err)
	}

	return nil
}

func tripDAOToDomain(t dao.Trip) domain.Trip {
	leaders := make([]domain.Participant, 0, len(t.Leaders))
	for _, leader := range t.Leaders {
		leaders = append(leaders, participantDAOToDomain(leader))
	}

	trip := domain.Trip{
		ID:                  t.ID,
		Name:                t.Name,
		Description:         t.Description,
		TripDate:            t.TripDate,
		MaximumParticipants: t.MaximumParticipants,
		Algorithm:           domain.TripAlgorithm(t.Algorithm),
		Program:             t.Program,
		SignupsOpenAt:       t.SignupsOpenAt,
		SignupsCloseAt:      t.SignupsCloseAt,
		HonorPairing:        t.HonorPairing,
		ChairApproved:       t.ChairApproved,
		LotteryRanAt:        t.LotteryRanAt,
		CreatorID:           t.CreatorID,
		Creator:             participantDAOToDomain(t.Creator),
		Leaders:             leaders,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
	for _, s := range t.Signups {
		trip.Signups = append(trip.Signups, signupDAOToDomain(s))
	}

	return trip
}

func signupDAOToDomain(s dao.Signup) domain.Signup {
	return domain.Signup{
		ID:            s.ID,
		TripID:        s.TripID,
		ParticipantID: s.ParticipantID,
		Participant:   participantDAOToDomain(s.Participant),
		Placement:     domain.Placement(s.Placement),
		Order:         s.Position,
		Notes:         s.Notes,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}
