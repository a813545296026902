package repository

import (
	"context"
	"fmt"

	"github.com/mitoc/trips-api/internal/domain"
	"github.com/mitoc/trips-api/internal/repository/dao"
)

var ErrReminderNotFound = dao.ErrReminderNotFound

type MembershipReminderDAO interface {
	Insert(ctx context.Context, reminder dao.MembershipReminder) (dao.MembershipReminder, error)
	FindLatest(ctx context.Context, participantID uint) (dao.MembershipReminder, error)
}

type MembershipRepository struct {
	dao MembershipReminderDAO
}

func NewMembershipRepository(dao MembershipReminderDAO) *MembershipRepository {
	return &MembershipRepository{
		dao: dao,
	}
}

func (r *MembershipRepository) RecordReminder(ctx context.Context, reminder domain.MembershipReminder) (domain.MembershipReminder, error) {
	created, err := r.dao.Insert(ctx, dao.MembershipReminder{
		ParticipantID: reminder.ParticipantID,
		SentAt:        reminder.SentAt,
	})
	if err != nil {
		return domain.MembershipReminder{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return reminderDAOToDomain(created), nil
}

func (r *MembershipRepository) FindLatestReminder(ctx context.Context, participantID uint) (domain.MembershipReminder, error) {
	found, err := r.dao.FindLatest(ctx, participantID)
	if err != nil {
		return domain.MembershipReminder{}, fmt.Errorf("r.dao.FindLatest -> %w", err)
	}

	return reminderDAOToDomain(found), nil
}

func reminderDAOToDomain(m dao.MembershipReminder) domain.MembershipReminder {
	return domain.MembershipReminder{
		ID:            m.ID,
		ParticipantID: m.ParticipantID,
		SentAt:        m.SentAt,
	}
}
