package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mitoc/trips-api/internal/domain"
	"github.com/mitoc/trips-api/internal/repository"
)

var (
	ErrParticipantEmailExists = repository.ErrParticipantEmailExists
	ErrWrongPassword          = errors.New("wrong password")
)

type AuthParticipantRepository interface {
	Create(ctx context.Context, participant domain.Participant) (domain.Participant, error)
	FindByEmail(ctx context.Context, email string) (domain.Participant, error)
}

type AuthService struct {
	repo AuthParticipantRepository
}

func NewAuthService(repo AuthParticipantRepository) *AuthService {
	return &AuthService{
		repo: repo,
	}
}

func (s *AuthService) Signup(ctx context.Context, participant domain.Participant) (domain.Participant, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(participant.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Participant{}, err
	}
	participant.Password = string(hash)
	if participant.Role == "" {
		participant.Role = "participant"
	}

	created, err := s.repo.Create(ctx, participant)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Participant, error) {
	participant, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			return domain.Participant{}, ErrParticipantNotFound
		}

		return domain.Participant{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(participant.Password), []byte(password)); err != nil {
		return domain.Participant{}, ErrWrongPassword
	}

	return participant, nil
}
