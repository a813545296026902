package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mitoc/trips-api/internal/domain"
	"github.com/mitoc/trips-api/internal/repository/dao"
)

type LotteryAdjustmentDAO interface {
	Insert(ctx context.Context, adjustment dao.LotteryAdjustment) (dao.LotteryAdjustment, error)
	FindActive(ctx context.Context, participantIDs []uint, now time.Time) ([]dao.LotteryAdjustment, error)
}

type LotteryRepository struct {
	dao LotteryAdjustmentDAO
}

func NewLotteryRepository(dao LotteryAdjustmentDAO) *LotteryRepository {
	return &LotteryRepository{
		dao: dao,
	}
}

func (r *LotteryRepository) CreateAdjustment(ctx context.Context, adjustment domain.LotteryAdjustment) (domain.LotteryAdjustment, error) {
	created, err := r.dao.Insert(ctx, dao.LotteryAdjustment{
		ParticipantID: adjustment.ParticipantID,
		CreatorID:     adjustment.CreatorID,
		Adjustment:    adjustment.Adjustment,
		ExpiresAt:     adjustment.ExpiresAt,
	})
	if err != nil {
		return domain.LotteryAdjustment{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return adjustmentDAOToDomain(created), nil
}

func (r *LotteryRepository) FindActiveAdjustments(ctx context.Context, participantIDs []uint, now time.Time) ([]domain.LotteryAdjustment, error) {
	found, err := r.dao.FindActive(ctx, participantIDs, now)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindActive -> %w", err)
	}

	adjustments := make([]domain.LotteryAdjustment, 0, len(found))
	for _, a := range found {
		adjustments = append(adjustments, adjustmentDAOToDomain(a))
	}

	return adjustments, nil
}

func adjustmentDAOToDomain(a dao.LotteryAdjustment) domain.LotteryAdjustment {
	return domain.LotteryAdjustment{
		ID:            a.ID,
		ParticipantID: a.ParticipantID,
		CreatorID:     a.CreatorID,
		Adjustment:    a.Adjustment,
		CreatedAt:     a.CreatedAt,
		ExpiresAt:     a.ExpiresAt,
	}
}
