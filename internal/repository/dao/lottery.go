package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type LotteryAdjustment struct {
	ID uint `gorm:"primaryKey"`

	ParticipantID uint `gorm:"not null;index"`
	CreatorID     uint `gorm:"not null"`

	Adjustment int       `gorm:"not null"`
	ExpiresAt  time.Time `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type LotteryAdjustmentDAO struct {
	db *gorm.DB
}

func NewLotteryAdjustmentDAO(db *gorm.DB) *LotteryAdjustmentDAO {
	return &LotteryAdjustmentDAO{
		db: db,
	}
}

func (d *LotteryAdjustmentDAO) Insert(ctx context.Context, adjustment LotteryAdjustment) (LotteryAdjustment, error) {
	result := d.db.WithContext(ctx).Create(&adjustment)
	if result.Error != nil {
		return LotteryAdjustment{}, result.Error
	}

	return adjustment, nil
}

// FindActive returns unexpired adjustments for the given participants.
func (d *LotteryAdjustmentDAO) FindActive(ctx context.Context, participantIDs []uint, now time.Time) ([]LotteryAdjustment, error) {
	if len(participantIDs) == 0 {
		return nil, nil
	}

	var adjustments []LotteryAdjustment
	result := d.db.WithContext(ctx).
		Where("participant_id IN ? AND expires_at > ?", participantIDs, now).
		Order("created_at").
		Find(&adjustments)
	if result.Error != nil {
		return nil, result.Error
	}

	return adjustments, nil
}
