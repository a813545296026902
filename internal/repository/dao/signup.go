package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mitoc/trips-api/internal/domain"
	"github.com/mitoc/trips-api/internal/pkg/signups"
)

var (
	ErrSignupNotFound = errors.New("signup not found")
	ErrSignupExists   = errors.New("participant already signed up for this trip")
)

type Signup struct {
	ID uint `gorm:"primaryKey"`

	TripID        uint        `gorm:"not null;uniqueIndex:uniq_trip_participant"`
	ParticipantID uint        `gorm:"not null;uniqueIndex:uniq_trip_participant"`
	Participant   Participant `gorm:"foreignKey:ParticipantID"`

	Placement string `gorm:"not null;default:waitlisted"`
	Position  int    `gorm:"not null;default:0"`
	Notes     string

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type SignupDAO struct {
	db *gorm.DB
}

func NewSignupDAO(db *gorm.DB) *SignupDAO {
	return &SignupDAO{
		db: db,
	}
}

// FindByTrip returns a trip's signups with participants preloaded:
// roster first in position order, then the waitlist in arrival order.
func (d *SignupDAO) FindByTrip(ctx context.Context, tripID uint) ([]Signup, error) {
	var list []Signup

	result := d.db.WithContext(ctx).
		Preload("Participant").
		Where("trip_id = ?", tripID).
		Order("CASE WHEN placement = 'on_trip' THEN 0 ELSE 1 END, position, created_at").
		Find(&list)
	if result.Error != nil {
		return nil, result.Error
	}

	return list, nil
}

func (d *SignupDAO) FindByTripAndParticipant(ctx context.Context, tripID, participantID uint) (Signup, error) {
	var signup Signup

	result := d.db.WithContext(ctx).
		First(&signup, "trip_id = ? AND participant_id = ?", tripID, participantID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Signup{}, ErrSignupNotFound
		}

		return Signup{}, result.Error
	}

	return signup, nil
}

// InsertPlaced creates a signup, running the placement rule against the
// trip's live signups under row locks so the roster never exceeds
// capacity even under concurrent requests.
func (d *SignupDAO) InsertPlaced(ctx context.Context, signup Signup, forceOpen bool, now time.Time) (Signup, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		trip, err := lockTrip(tx, signup.TripID)
		if err != nil {
			return err
		}

		existing, err := lockSignups(tx, signup.TripID)
		if err != nil {
			return err
		}

		pairs, err := reciprocalPairs(tx, append(participantIDs(existing), signup.ParticipantID))
		if err != nil {
			return err
		}

		placement, err := signups.Place(placementTrip(trip), placementSignups(existing), placementSignup(signup), signups.PlaceOptions{
			ForceOpen: forceOpen,
			Now:       now,
			Pairs:     pairs,
		})
		if err != nil {
			return err
		}

		signup.Placement = string(placement)
		signup.Position = nextPosition(existing)

		if err := tx.Create(&signup).Error; err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return ErrSignupExists
			}

			return err
		}

		return nil
	})
	if err != nil {
		return Signup{}, err
	}

	return signup, nil
}

// DeleteAndPromote removes a signup on explicit withdrawal. When the
// withdrawn signup held a roster spot, the first waitlisted signup is
// promoted into it. The promoted signup (if any) is returned so callers
// can notify the participant.
func (d *SignupDAO) DeleteAndPromote(ctx context.Context, signupID uint) (*Signup, error) {
	var promoted *Signup

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var signup Signup
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&signup, signupID)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrSignupNotFound
			}

			return result.Error
		}

		if _, err := lockTrip(tx, signup.TripID); err != nil {
			return err
		}

		if err := tx.Delete(&Signup{}, signup.ID).Error; err != nil {
			return err
		}

		if signup.Placement != string(domain.PlacementOnTrip) {
			return nil
		}

		var first Signup
		result = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("trip_id = ? AND placement = ?", signup.TripID, string(domain.PlacementWaitlisted)).
			Order("position, created_at").
			First(&first)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return nil // empty waitlist, nothing to promote
			}

			return result.Error
		}

		update := tx.Model(&Signup{}).
			Where("id = ?", first.ID).
			Update("placement", string(domain.PlacementOnTrip))
		if update.Error != nil {
			return update.Error
		}

		first.Placement = string(domain.PlacementOnTrip)
		promoted = &first

		return nil
	})
	if err != nil {
		return nil, err
	}

	return promoted, nil
}

// ReorderSignups applies a leader-submitted total ordering, all or
// nothing. The staleness check runs against rows locked inside this
// transaction, so a signup committed after the leader's snapshot aborts
// the whole write. Deletions here skip waitlist promotion: the submitted
// ordering already says exactly who ends up where.
func (d *SignupDAO) ReorderSignups(ctx context.Context, tripID uint, proposed []signups.OrderEntry, newCapacity *int) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		trip, err := lockTrip(tx, tripID)
		if err != nil {
			return err
		}

		current, err := lockSignups(tx, tripID)
		if err != nil {
			return err
		}

		pairs, err := reciprocalPairs(tx, participantIDs(current))
		if err != nil {
			return err
		}

		plan, err := signups.PlanReorder(placementTrip(trip), placementSignups(current), proposed, newCapacity, pairs)
		if err != nil {
			return err
		}

		if plan.Capacity != trip.MaximumParticipants {
			update := tx.Model(&Trip{}).
				Where("id = ?", tripID).
				Update("maximum_participants", plan.Capacity)
			if update.Error != nil {
				return update.Error
			}
		}

		if len(plan.Deletions) > 0 {
			if err := tx.Where("id IN ?", plan.Deletions).Delete(&Signup{}).Error; err != nil {
				return err
			}
		}

		for _, decision := range plan.Decisions {
			update := tx.Model(&Signup{}).
				Where("id = ?", decision.SignupID).
				Updates(map[string]interface{}{
					"placement": string(decision.Placement),
					"position":  decision.Order,
				})
			if update.Error != nil {
				return update.Error
			}
		}

		return nil
	})
}

func lockSignups(tx *gorm.DB, tripID uint) ([]Signup, error) {
	var list []Signup

	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("trip_id = ?", tripID).
		Order("CASE WHEN placement = 'on_trip' THEN 0 ELSE 1 END, position, created_at").
		Find(&list)
	if result.Error != nil {
		return nil, result.Error
	}

	return list, nil
}

func participantIDs(list []Signup) []uint {
	ids := make([]uint, 0, len(list))
	for _, s := range list {
		ids = append(ids, s.ParticipantID)
	}

	return ids
}

func nextPosition(list []Signup) int {
	next := 0
	for _, s := range list {
		if s.Position >= next {
			next = s.Position + 1
		}
	}

	return next
}

// reciprocalPairs maps participant IDs to their pairing partner, keeping
// only pairs where both sides requested each other.
func reciprocalPairs(tx *gorm.DB, ids []uint) (map[uint]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var participants []Participant
	if err := tx.Where("id IN ?", ids).Find(&participants).Error; err != nil {
		return nil, err
	}

	requested := make(map[uint]uint, len(participants))
	for _, p := range participants {
		if p.PairedWithID != nil {
			requested[p.ID] = *p.PairedWithID
		}
	}

	pairs := make(map[uint]uint)
	for id, partner := range requested {
		if requested[partner] == id {
			pairs[id] = partner
		}
	}

	return pairs, nil
}

// The placement helpers translate just the fields the placement rules
// read; full dao-to-domain mapping belongs to the repository layer.

func placementTrip(t Trip) domain.Trip {
	return domain.Trip{
		ID:                  t.ID,
		MaximumParticipants: t.MaximumParticipants,
		HonorPairing:        t.HonorPairing,
		SignupsOpenAt:       t.SignupsOpenAt,
		SignupsCloseAt:      t.SignupsCloseAt,
	}
}

func placementSignup(s Signup) domain.Signup {
	return domain.Signup{
		ID:            s.ID,
		TripID:        s.TripID,
		ParticipantID: s.ParticipantID,
		Placement:     domain.Placement(s.Placement),
		Order:         s.Position,
		CreatedAt:     s.CreatedAt,
	}
}

func placementSignups(list []Signup) []domain.Signup {
	converted := make([]domain.Signup, 0, len(list))
	for _, s := range list {
		converted = append(converted, placementSignup(s))
	}

	return converted
}
