package repository

import (
	"context"
	"fmt"

	"github.com/mitoc/trips-api/internal/domain"
	"github.com/mitoc/trips-api/internal/repository/dao"
)

var (
	ErrParticipantEmailExists = dao.ErrParticipantEmailExists
	ErrParticipantNotFound    = dao.ErrParticipantNotFound
)

type ParticipantDAO interface {
	Insert(ctx context.Context, participant dao.Participant) (dao.Participant, error)
	FindByID(ctx context.Context, id uint) (dao.Participant, error)
	FindByEmail(ctx context.Context, email string) (dao.Participant, error)
	FindByIDs(ctx context.Context, ids []uint) ([]dao.Participant, error)
	FindAll(ctx context.Context) ([]dao.Participant, error)
	UpdatePairing(ctx context.Context, id uint, pairedWithID *uint) error
}

type ParticipantRepository struct {
	dao ParticipantDAO
}

func NewParticipantRepository(dao ParticipantDAO) *ParticipantRepository {
	return &ParticipantRepository{
		dao: dao,
	}
}

func (r *ParticipantRepository) Create(ctx context.Context, participant domain.Participant) (domain.Participant, error) {
	created, err := r.dao.Insert(ctx, dao.Participant{
		Email:     participant.Email,
		Password:  participant.Password,
		Name:      participant.Name,
		Role:      participant.Role,
		CellPhone: participant.CellPhone,
	})
	if err != nil {
		return domain.Participant{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return participantDAOToDomain(created), nil
}

func (r *ParticipantRepository) FindByID(ctx context.Context, id uint) (domain.Participant, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return participantDAOToDomain(found), nil
}

func (r *ParticipantRepository) FindByEmail(ctx context.Context, email string) (domain.Participant, error) {
	found, err := r.dao.FindByEmail(ctx, email)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("r.dao.FindByEmail -> %w", err)
	}

	return participantDAOToDomain(found), nil
}

func (r *ParticipantRepository) FindAll(ctx context.Context) ([]domain.Participant, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	participants := make([]domain.Participant, 0, len(found))
	for _, p := range found {
		participants = append(participants, participantDAOToDomain(p))
	}

	return participants, nil
}

// RequestPairing records a one-directional pairing request. Passing nil
// clears any existing request.
func (r *ParticipantRepository) RequestPairing(ctx context.Context, id uint, pairedWithID *uint) error {
	if err := r.dao.UpdatePairing(ctx, id, pairedWithID); err != nil {
		return fmt.Errorf("r.dao.UpdatePairing -> %w", err)
	}

	return nil
}

func participantDAOToDomain(p dao.Participant) domain.Participant {
	return domain.Participant{
		ID:           p.ID,
		Email:        p.Email,
		Password:     p.Password,
		Name:         p.Name,
		Role:         p.Role,
		CellPhone:    p.CellPhone,
		PairedWithID: p.PairedWithID,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
