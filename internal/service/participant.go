package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mitoc/trips-api/internal/domain"
	"github.com/mitoc/trips-api/internal/repository"
)

var (
	ErrParticipantNotFound = repository.ErrParticipantNotFound
	ErrSelfPairing         = errors.New("cannot request pairing with yourself")
)

type ParticipantRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Participant, error)
	FindByEmail(ctx context.Context, email string) (domain.Participant, error)
	FindAll(ctx context.Context) ([]domain.Participant, error)
	RequestPairing(ctx context.Context, id uint, pairedWithID *uint) error
}

type ParticipantService struct {
	repo ParticipantRepository
}

func NewParticipantService(repo ParticipantRepository) *ParticipantService {
	return &ParticipantService{
		repo: repo,
	}
}

func (s *ParticipantService) GetParticipant(ctx context.Context, id uint) (domain.Participant, error) {
	participant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return participant, nil
}

// RequestPairing records who this participant wants as a trip partner.
// The preference only affects placement once it is reciprocated. Passing
// nil clears the request.
func (s *ParticipantService) RequestPairing(ctx context.Context, id uint, partnerID *uint) error {
	if partnerID != nil {
		if *partnerID == id {
			return ErrSelfPairing
		}
		if _, err := s.repo.FindByID(ctx, *partnerID); err != nil {
			return fmt.Errorf("s.repo.FindByID -> %w", err)
		}
	}

	if err := s.repo.RequestPairing(ctx, id, partnerID); err != nil {
		return fmt.Errorf("s.repo.RequestPairing -> %w", err)
	}

	return nil
}
