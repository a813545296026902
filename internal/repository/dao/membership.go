package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrReminderNotFound = errors.New("membership reminder not found")

type MembershipReminder struct {
	ID uint `gorm:"primaryKey"`

	ParticipantID uint      `gorm:"not null;index"`
	SentAt        time.Time `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
}

type MembershipReminderDAO struct {
	db *gorm.DB
}

func NewMembershipReminderDAO(db *gorm.DB) *MembershipReminderDAO {
	return &MembershipReminderDAO{
		db: db,
	}
}

func (d *MembershipReminderDAO) Insert(ctx context.Context, reminder MembershipReminder) (MembershipReminder, error) {
	result := d.db.WithContext(ctx).Create(&reminder)
	if result.Error != nil {
		return MembershipReminder{}, result.Error
	}

	return reminder, nil
}

func (d *MembershipReminderDAO) FindLatest(ctx context.Context, participantID uint) (MembershipReminder, error) {
	var reminder MembershipReminder

	result := d.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("sent_at DESC").
		First(&reminder)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return MembershipReminder{}, ErrReminderNotFound
		}

		return MembershipReminder{}, result.Error
	}

	return reminder, nil
}
