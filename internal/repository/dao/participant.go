package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrParticipantEmailExists = errors.New("participant already exists")
	ErrParticipantNotFound    = errors.New("participant not found")
)

type Participant struct {
	ID uint `gorm:"primaryKey"`

	Email    string `gorm:"unique;not null"`
	Password string `gorm:"not null"`

	Name      string `gorm:"not null"`
	Role      string `gorm:"not null;default:participant"` // "participant", "leader", or "chair"
	CellPhone string

	// PairedWithID is a one-directional pairing request; it only takes
	// effect when the other participant requests this one back.
	PairedWithID *uint `gorm:"index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type ParticipantDAO struct {
	db *gorm.DB
}

func NewParticipantDAO(db *gorm.DB) *ParticipantDAO {
	return &ParticipantDAO{
		db: db,
	}
}

func (d *ParticipantDAO) Insert(ctx context.Context, participant Participant) (Participant, error) {
	result := d.db.WithContext(ctx).Create(&participant)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) &&
			err.Code == pgerrcode.UniqueViolation &&
			strings.Contains(err.Message, `unique constraint "uni_participants_email"`) {
			return Participant{}, ErrParticipantEmailExists
		}

		return Participant{}, result.Error
	}

	return participant, nil
}

func (d *ParticipantDAO) FindByID(ctx context.Context, id uint) (Participant, error) {
	var participant Participant

	result := d.db.WithContext(ctx).First(&participant, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Participant{}, ErrParticipantNotFound
		}

		return Participant{}, result.Error
	}

	return participant, nil
}

func (d *ParticipantDAO) FindByEmail(ctx context.Context, email string) (Participant, error) {
	var participant Participant

	result := d.db.WithContext(ctx).First(&participant, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Participant{}, ErrParticipantNotFound
		}

		return Participant{}, result.Error
	}

	return participant, nil
}

func (d *ParticipantDAO) FindByIDs(ctx context.Context, ids []uint) ([]Participant, error) {
	var participants []Participant

	result := d.db.WithContext(ctx).Where("id IN ?", ids).Find(&participants)
	if result.Error != nil {
		return nil, result.Error
	}

	return participants, nil
}

func (d *ParticipantDAO) UpdatePairing(ctx context.Context, id uint, pairedWithID *uint) error {
	result := d.db.WithContext(ctx).
		Model(&Participant{}).
		Where("id = ?", id).
		Update("paired_with_id", pairedWithID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrParticipantNotFound
	}

	return nil
}

// FindAll returns every participant ordered by ID. Club rosters are
// small, so the membership sync task just walks the whole table.
func (d *ParticipantDAO) FindAll(ctx context.Context) ([]Participant, error) {
	var participants []Participant

	result := d.db.WithContext(ctx).Order("id").Find(&participants)
	if result.Error != nil {
		return nil, result.Error
	}

	return participants, nil
}
