package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mitoc/trips-api/internal/domain"
)

var ErrTripNotFound = errors.New("trip not found")

type Trip struct {
	ID uint `gorm:"primaryKey"`

	Name        string `gorm:"not null"`
	Description string

	TripDate            time.Time `gorm:"not null;index"`
	MaximumParticipants int       `gorm:"not null;default:8;check:maximum_participants >= 1"`
	Algorithm           string    `gorm:"not null;default:lottery"`
	Program             string    `gorm:"not null;default:open"`

	SignupsOpenAt  time.Time `gorm:"not null"`
	SignupsCloseAt time.Time `gorm:"not null"`

	HonorPairing  bool `gorm:"not null;default:true"`
	ChairApproved bool `gorm:"not null;default:false"`

	LotteryRanAt *time.Time

	CreatorID uint          `gorm:"not null"`
	Creator   Participant   `gorm:"foreignKey:CreatorID"`
	Leaders   []Participant `gorm:"many2many:trip_leaders;"`
	Signups   []Signup      `gorm:"foreignKey:TripID"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type TripDAO struct {
	db *gorm.DB
}

func NewTripDAO(db *gorm.DB) *TripDAO {
	return &TripDAO{
		db: db,
	}
}

func (d *TripDAO) Insert(ctx context.Context, trip Trip) (Trip, error) {
	result := d.db.WithContext(ctx).Create(&trip)
	if result.Error != nil {
		return Trip{}, result.Error
	}

	return trip, nil
}

func (d *TripDAO) FindByID(ctx context.Context, id uint) (Trip, error) {
	var trip Trip

	result := d.db.WithContext(ctx).
		Preload("Creator").
		Preload("Leaders").
		First(&trip, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Trip{}, ErrTripNotFound
		}

		return Trip{}, result.Error
	}

	return trip, nil
}

func (d *TripDAO) FindUpcoming(ctx context.Context, after time.Time) ([]Trip, error) {
	var trips []Trip

	result := d.db.WithContext(ctx).
		Preload("Leaders").
		Where("trip_date >= ?", after).
		Order("trip_date, id").
		Find(&trips)
	if result.Error != nil {
		return nil, result.Error
	}

	return trips, nil
}

// CountProgramTrips counts trips in a program with a trip date in
// [from, until). A nil until leaves the range open-ended.
func (d *TripDAO) CountProgramTrips(ctx context.Context, program string, from time.Time, until *time.Time) (int64, error) {
	query := d.db.WithContext(ctx).
		Model(&Trip{}).
		Where("program = ? AND trip_date >= ?", program, from)
	if until != nil {
		query = query.Where("trip_date < ?", *until)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

// FindLotteryTripsDue returns lottery trips whose signup window has
// closed but whose lottery has not run yet.
func (d *TripDAO) FindLotteryTripsDue(ctx context.Context, now time.Time) ([]Trip, error) {
	var trips []Trip

	result := d.db.WithContext(ctx).
		Where("algorithm = ? AND lottery_ran_at IS NULL AND signups_close_at <= ?", string(domain.AlgorithmLottery), now).
		Order("trip_date, id").
		Find(&trips)
	if result.Error != nil {
		return nil, result.Error
	}

	return trips, nil
}

func (d *TripDAO) MarkLotteryRan(ctx context.Context, tripID uint, at time.Time) error {
	result := d.db.WithContext(ctx).
		Model(&Trip{}).
		Where("id = ?", tripID).
		Update("lottery_ran_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTripNotFound
	}

	return nil
}

// lockTrip fetches a trip row FOR UPDATE inside a transaction.
func lockTrip(tx *gorm.DB, tripID uint) (Trip, error) {
	var trip Trip

	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&trip, tripID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Trip{}, ErrTripNotFound
		}

		return Trip{}, result.Error
	}

	return trip, nil
}
