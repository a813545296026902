package v1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitoc/trips-api/internal/api/middleware"
	"github.com/mitoc/trips-api/internal/domain"
	"github.com/mitoc/trips-api/internal/pkg/signups"
	"github.com/mitoc/trips-api/internal/service"
)

type fakeTripService struct {
	trip       domain.Trip
	signups    []domain.Signup
	reorderErr error
	reorders   int
}

func (f *fakeTripService) CreateTrip(_ context.Context, trip domain.Trip) (domain.Trip, error) {
	trip.ID = 1
	return trip, nil
}

func (f *fakeTripService) GetTrip(_ context.Context, id uint) (domain.Trip, error) {
	if id != f.trip.ID {
		return domain.Trip{}, service.ErrTripNotFound
	}
	return f.trip, nil
}

func (f *fakeTripService) ListUpcomingTrips(_ context.Context) ([]domain.Trip, error) {
	return []domain.Trip{f.trip}, nil
}

func (f *fakeTripService) SignUp(_ context.Context, tripID, participantID uint, notes string, _ bool) (domain.Signup, error) {
	return domain.Signup{ID: 1, TripID: tripID, ParticipantID: participantID, Notes: notes}, nil
}

func (f *fakeTripService) Withdraw(_ context.Context, _, _ uint) (*domain.Signup, error) {
	return nil, nil
}

func (f *fakeTripService) GetSignups(_ context.Context, _ uint) ([]domain.Signup, error) {
	return f.signups, nil
}

func (f *fakeTripService) Reorder(_ context.Context, _ uint, _ []signups.OrderEntry, _ *int) error {
	if f.reorderErr != nil {
		return f.reorderErr
	}
	f.reorders++
	return nil
}

func (f *fakeTripService) CreateLotteryAdjustment(_ context.Context, adjustment domain.LotteryAdjustment) (domain.LotteryAdjustment, error) {
	adjustment.ID = 1
	return adjustment, nil
}

func (f *fakeTripService) ListLotteryAdjustments(_ context.Context, _ uint) ([]domain.LotteryAdjustment, error) {
	return nil, nil
}

type fakeParticipantService struct {
	participant domain.Participant
}

func (f *fakeParticipantService) GetParticipant(_ context.Context, id uint) (domain.Participant, error) {
	if id != f.participant.ID {
		return domain.Participant{}, service.ErrParticipantNotFound
	}
	return f.participant, nil
}

func (f *fakeParticipantService) RequestPairing(_ context.Context, _ uint, _ *uint) error {
	return nil
}

func setupTripRouter(svc *fakeTripService, caller domain.Participant) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(ctx *gin.Context) {
		ctx.Set(middleware.ContextKeyUserID, caller.ID)
	})

	handler := NewTripHandler(svc, &fakeParticipantService{participant: caller})
	router.GET("/trips/:tripID/admin/signups", handler.HandleGetAdminSignups)
	router.POST("/trips/:tripID/admin/signups", handler.HandleReorderSignups)

	return router
}

func leaderTripFixture() domain.Trip {
	return domain.Trip{
		ID:                  1,
		Name:                "Presidential Traverse",
		MaximumParticipants: 2,
		CreatorID:           7,
		SignupsOpenAt:       time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		SignupsCloseAt:      time.Date(2024, time.January, 3, 9, 0, 0, 0, time.UTC),
	}
}

func TestHandleReorderSignups(t *testing.T) {
	leader := domain.Participant{ID: 7, Role: "leader"}
	body := `{"signups":[{"id":3},{"id":1},{"id":2,"deleted":true}]}`

	t.Run("success returns an empty object", func(t *testing.T) {
		svc := &fakeTripService{trip: leaderTripFixture()}
		router := setupTripRouter(svc, leader)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/trips/1/admin/signups", strings.NewReader(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{}`, w.Body.String())
		assert.Equal(t, 1, svc.reorders)
	})

	t.Run("capacity-only edit with no signups is accepted", func(t *testing.T) {
		svc := &fakeTripService{trip: leaderTripFixture()}
		router := setupTripRouter(svc, leader)

		w := httptest.NewRecorder()
		empty := `{"signups":[],"maximum_participants":3}`
		req := httptest.NewRequest(http.MethodPost, "/trips/1/admin/signups", strings.NewReader(empty))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, svc.reorders)
	})

	t.Run("stale signups map to 409", func(t *testing.T) {
		svc := &fakeTripService{trip: leaderTripFixture(), reorderErr: service.ErrStaleSignups}
		router := setupTripRouter(svc, leader)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/trips/1/admin/signups", strings.NewReader(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "recently added or removed")
	})

	t.Run("invalid capacity maps to 400", func(t *testing.T) {
		svc := &fakeTripService{trip: leaderTripFixture(), reorderErr: service.ErrCapacityInvalid}
		router := setupTripRouter(svc, leader)

		w := httptest.NewRecorder()
		withCapacity := `{"signups":[{"id":1}],"maximum_participants":0}`
		req := httptest.NewRequest(http.MethodPost, "/trips/1/admin/signups", strings.NewReader(withCapacity))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non-leaders are rejected", func(t *testing.T) {
		svc := &fakeTripService{trip: leaderTripFixture()}
		router := setupTripRouter(svc, domain.Participant{ID: 9, Role: "participant"})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/trips/1/admin/signups", strings.NewReader(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, 0, svc.reorders)
	})

	t.Run("unknown trip maps to 404", func(t *testing.T) {
		svc := &fakeTripService{trip: leaderTripFixture()}
		router := setupTripRouter(svc, leader)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/trips/99/admin/signups", strings.NewReader(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandleGetAdminSignups(t *testing.T) {
	partnerA := uint(20)
	partnerB := uint(10)
	trip := leaderTripFixture()
	svc := &fakeTripService{
		trip: trip,
		signups: []domain.Signup{
			{
				ID:            1,
				TripID:        1,
				ParticipantID: 10,
				Placement:     domain.PlacementOnTrip,
				Participant:   domain.Participant{ID: 10, Name: "Alice", PairedWithID: &partnerA},
			},
			{
				ID:            2,
				TripID:        1,
				ParticipantID: 20,
				Placement:     domain.PlacementWaitlisted,
				Order:         1,
				Participant:   domain.Participant{ID: 20, Name: "Bob", PairedWithID: &partnerB},
			},
		},
	}
	router := setupTripRouter(svc, domain.Participant{ID: 7, Role: "leader"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/trips/1/admin/signups", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"maximum_participants":2`)
	// Reciprocal pairing is rendered on both rows.
	assert.Contains(t, w.Body.String(), `"name":"Alice"`)
	assert.Contains(t, w.Body.String(), `"name":"Bob"`)
}
