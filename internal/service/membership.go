package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mitoc/trips-api/internal/domain"
	"github.com/mitoc/trips-api/internal/repository"
)

// reminderLead is how close to membership expiry renewal reminders go out.
const reminderLead = 14 * 24 * time.Hour

type GearDBClient interface {
	LookupMembership(ctx context.Context, email string) (domain.Membership, error)
}

type WaiverClient interface {
	InitiateWaiver(ctx context.Context, participant domain.Participant) (string, error)
}

type ReminderSender interface {
	SendRenewalReminder(to, name string, expires time.Time) error
}

type MembershipRepository interface {
	RecordReminder(ctx context.Context, reminder domain.MembershipReminder) (domain.MembershipReminder, error)
	FindLatestReminder(ctx context.Context, participantID uint) (domain.MembershipReminder, error)
}

type MembershipService struct {
	repo            MembershipRepository
	participantRepo ParticipantRepository
	gearDB          GearDBClient
	waivers         WaiverClient
	sender          ReminderSender
	now             func() time.Time
}

func NewMembershipService(
	repo MembershipRepository,
	participantRepo ParticipantRepository,
	gearDB GearDBClient,
	waivers WaiverClient,
	sender ReminderSender,
) *MembershipService {
	return &MembershipService{
		repo:            repo,
		participantRepo: participantRepo,
		gearDB:          gearDB,
		waivers:         waivers,
		sender:          sender,
		now:             time.Now,
	}
}

// GetMembership looks a participant up in the gear database. Lookup
// failures degrade to "no membership" rather than blocking the caller;
// the error is logged, not surfaced.
func (s *MembershipService) GetMembership(ctx context.Context, email string) domain.Membership {
	membership, err := s.gearDB.LookupMembership(ctx, email)
	if err != nil {
		zap.L().Error("gear database lookup failed, treating as no membership",
			zap.String("email", email),
			zap.Error(err))

		return domain.Membership{Email: email}
	}

	return membership
}

// InitiateWaiver starts an e-signature envelope for the participant and
// returns the signing URL.
func (s *MembershipService) InitiateWaiver(ctx context.Context, participantID uint) (string, error) {
	participant, err := s.participantRepo.FindByID(ctx, participantID)
	if err != nil {
		return "", fmt.Errorf("s.participantRepo.FindByID -> %w", err)
	}

	url, err := s.waivers.InitiateWaiver(ctx, participant)
	if err != nil {
		return "", fmt.Errorf("s.waivers.InitiateWaiver -> %w", err)
	}

	return url, nil
}

// SendRenewalReminders emails every participant whose membership lapses
// within the reminder lead, at most once per membership period.
func (s *MembershipService) SendRenewalReminders(ctx context.Context) error {
	participants, err := s.participantRepo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("s.participantRepo.FindAll -> %w", err)
	}

	now := s.now()
	for _, participant := range participants {
		if err := s.remind(ctx, participant, now); err != nil {
			return err
		}
	}

	return nil
}

func (s *MembershipService) remind(ctx context.Context, participant domain.Participant, now time.Time) error {
	membership := s.GetMembership(ctx, participant.Email)
	if membership.MembershipExpires == nil {
		return nil // never a member, nothing to renew
	}

	expires := *membership.MembershipExpires
	if expires.Sub(now) > reminderLead {
		return nil
	}

	latest, err := s.repo.FindLatestReminder(ctx, participant.ID)
	if err != nil && !errors.Is(err, repository.ErrReminderNotFound) {
		return fmt.Errorf("s.repo.FindLatestReminder -> %w", err)
	}

	// Memberships last a year; a reminder sent after the current period
	// began means this period was already covered.
	periodStart := expires.AddDate(-1, 0, 0)
	if err == nil && latest.SentAt.After(periodStart) {
		return nil
	}

	if err := s.sender.SendRenewalReminder(participant.Email, participant.Name, expires); err != nil {
		zap.L().Error("failed to send renewal reminder",
			zap.Uint("participant_id", participant.ID),
			zap.Error(err))

		return nil // don't let one bad address block the rest
	}

	if _, err := s.repo.RecordReminder(ctx, domain.MembershipReminder{
		ParticipantID: participant.ID,
		SentAt:        now,
	}); err != nil {
		return fmt.Errorf("s.repo.RecordReminder -> %w", err)
	}

	return nil
}
