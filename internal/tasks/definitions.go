package tasks

import (
	"context"

	"github.com/mitoc/trips-api/internal/cache"
)

type TripService interface {
	RunDueLotteries(ctx context.Context) error
}

type MembershipService interface {
	SendRenewalReminders(ctx context.Context) error
}

// Define wires the club's recurring jobs into the registry.
func Define(r *Registry, trips TripService, memberships MembershipService) {
	r.Register("run_lottery", cache.DefaultLockTTL, trips.RunDueLotteries)
	r.Register("send_membership_reminders", cache.DefaultLockTTL, memberships.SendRenewalReminders)
}
