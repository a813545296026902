package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitoc/trips-api/internal/domain"
	"github.com/mitoc/trips-api/internal/repository"
)

type fakeGearDB struct {
	memberships map[string]domain.Membership
	err         error
}

func (f *fakeGearDB) LookupMembership(_ context.Context, email string) (domain.Membership, error) {
	if f.err != nil {
		return domain.Membership{}, f.err
	}
	return f.memberships[email], nil
}

type fakeWaivers struct{}

func (f *fakeWaivers) InitiateWaiver(_ context.Context, _ domain.Participant) (string, error) {
	return "https://esign.example.com/sign/abc", nil
}

type fakeSender struct {
	sent    []string
	sendErr error
}

func (f *fakeSender) SendRenewalReminder(to, _ string, _ time.Time) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, to)
	return nil
}

type fakeMembershipRepository struct {
	reminders map[uint]domain.MembershipReminder
}

func newFakeMembershipRepository() *fakeMembershipRepository {
	return &fakeMembershipRepository{reminders: make(map[uint]domain.MembershipReminder)}
}

func (f *fakeMembershipRepository) RecordReminder(_ context.Context, reminder domain.MembershipReminder) (domain.MembershipReminder, error) {
	f.reminders[reminder.ParticipantID] = reminder
	return reminder, nil
}

func (f *fakeMembershipRepository) FindLatestReminder(_ context.Context, participantID uint) (domain.MembershipReminder, error) {
	reminder, ok := f.reminders[participantID]
	if !ok {
		return domain.MembershipReminder{}, repository.ErrReminderNotFound
	}
	return reminder, nil
}

type fakeParticipantRepository struct {
	participants []domain.Participant
}

func (f *fakeParticipantRepository) FindByID(_ context.Context, id uint) (domain.Participant, error) {
	for _, p := range f.participants {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Participant{}, ErrParticipantNotFound
}

func (f *fakeParticipantRepository) FindByEmail(_ context.Context, email string) (domain.Participant, error) {
	for _, p := range f.participants {
		if p.Email == email {
			return p, nil
		}
	}
	return domain.Participant{}, ErrParticipantNotFound
}

func (f *fakeParticipantRepository) FindAll(_ context.Context) ([]domain.Participant, error) {
	return f.participants, nil
}

func (f *fakeParticipantRepository) RequestPairing(_ context.Context, _ uint, _ *uint) error {
	return nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func newTestMembershipService(
	repo *fakeMembershipRepository,
	participants *fakeParticipantRepository,
	gearDB *fakeGearDB,
	sender *fakeSender,
) *MembershipService {
	svc := NewMembershipService(repo, participants, gearDB, &fakeWaivers{}, sender)
	svc.now = fixedNow

	return svc
}

func TestGetMembershipDegradesOnLookupFailure(t *testing.T) {
	gearDB := &fakeGearDB{err: errors.New("connection refused")}
	svc := newTestMembershipService(newFakeMembershipRepository(), &fakeParticipantRepository{}, gearDB, &fakeSender{})

	membership := svc.GetMembership(context.Background(), "alice@example.com")

	assert.Equal(t, "alice@example.com", membership.Email)
	assert.False(t, membership.Active(fixedNow()))
}

func TestSendRenewalReminders(t *testing.T) {
	expiringSoon := fixedNow().Add(7 * 24 * time.Hour)
	expiringLater := fixedNow().Add(60 * 24 * time.Hour)

	participants := &fakeParticipantRepository{participants: []domain.Participant{
		{ID: 1, Email: "soon@example.com", Name: "Soon"},
		{ID: 2, Email: "later@example.com", Name: "Later"},
		{ID: 3, Email: "never@example.com", Name: "Never"},
	}}
	gearDB := &fakeGearDB{memberships: map[string]domain.Membership{
		"soon@example.com":  {Email: "soon@example.com", MembershipExpires: timePtr(expiringSoon)},
		"later@example.com": {Email: "later@example.com", MembershipExpires: timePtr(expiringLater)},
	}}

	t.Run("only imminent expirations are reminded", func(t *testing.T) {
		sender := &fakeSender{}
		svc := newTestMembershipService(newFakeMembershipRepository(), participants, gearDB, sender)

		require.NoError(t, svc.SendRenewalReminders(context.Background()))
		assert.Equal(t, []string{"soon@example.com"}, sender.sent)
	})

	t.Run("at most one reminder per membership period", func(t *testing.T) {
		sender := &fakeSender{}
		svc := newTestMembershipService(newFakeMembershipRepository(), participants, gearDB, sender)

		require.NoError(t, svc.SendRenewalReminders(context.Background()))
		require.NoError(t, svc.SendRenewalReminders(context.Background()))
		assert.Equal(t, []string{"soon@example.com"}, sender.sent)
	})

	t.Run("a bad address does not block the run", func(t *testing.T) {
		repo := newFakeMembershipRepository()
		sender := &fakeSender{sendErr: errors.New("mailbox unavailable")}
		svc := newTestMembershipService(repo, participants, gearDB, sender)

		require.NoError(t, svc.SendRenewalReminders(context.Background()))
		// Nothing recorded, so the next run retries.
		assert.Empty(t, repo.reminders)
	})
}
