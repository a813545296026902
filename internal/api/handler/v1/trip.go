package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mitoc/trips-api/internal/api/handler/v1/request"
	"github.com/mitoc/trips-api/internal/api/handler/v1/response"
	"github.com/mitoc/trips-api/internal/domain"
	"github.com/mitoc/trips-api/internal/pkg/signups"
	"github.com/mitoc/trips-api/internal/service"
)

type TripService interface {
	CreateTrip(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	GetTrip(ctx context.Context, id uint) (domain.Trip, error)
	ListUpcomingTrips(ctx context.Context) ([]domain.Trip, error)
	SignUp(ctx context.Context, tripID, participantID uint, notes string, leaderPlaced bool) (domain.Signup, error)
	Withdraw(ctx context.Context, tripID, participantID uint) (*domain.Signup, error)
	GetSignups(ctx context.Context, tripID uint) ([]domain.Signup, error)
	Reorder(ctx context.Context, tripID uint, proposed []signups.OrderEntry, newCapacity *int) error
	CreateLotteryAdjustment(ctx context.Context, adjustment domain.LotteryAdjustment) (domain.LotteryAdjustment, error)
	ListLotteryAdjustments(ctx context.Context, participantID uint) ([]domain.LotteryAdjustment, error)
}

type TripHandler struct {
	svc  TripService
	pSvc ParticipantService
}

func NewTripHandler(svc TripService, pSvc ParticipantService) *TripHandler {
	return &TripHandler{
		svc:  svc,
		pSvc: pSvc,
	}
}

// HandleListTrips godoc
// @Summary      List upcoming trips
// @Tags         trips
// @Produce      json
// @Success      200  {array}   domain.Trip
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /trips [get]
// @Security BearerAuth
func (h *TripHandler) HandleListTrips(ctx *gin.Context) {
	trips, err := h.svc.ListUpcomingTrips(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListTrips -> h.svc.ListUpcomingTrips -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, trips)
}

// HandleGetTrip godoc
// @Summary      Get a trip with its roster and waitlist
// @Tags         trips
// @Produce      json
// @Param        tripID  path      int  true  "trip ID"
// @Success      200     {object}  domain.Trip
// @Failure      401     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /trips/{tripID} [get]
// @Security BearerAuth
func (h *TripHandler) HandleGetTrip(ctx *gin.Context) {
	tripID, ok := pathID(ctx, "tripID")
	if !ok {
		return
	}

	trip, err := h.svc.GetTrip(ctx.Request.Context(), tripID)
	if err != nil {
		if errors.Is(err, service.ErrTripNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("trip", "ID", tripID))
			return
		}

		err = fmt.Errorf("v1.HandleGetTrip -> h.svc.GetTrip -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, trip)
}

// HandleCreateTrip godoc
// @Summary      Create a trip
// @Description  Creates a trip. Only leaders and chairs may create trips.
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateTripRequest  true  "trip details"
// @Success      201    {object}  domain.Trip
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /trips [post]
// @Security BearerAuth
func (h *TripHandler) HandleCreateTrip(ctx *gin.Context) {
	participant, respErr := getParticipantFromContext(ctx, h.pSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if !participant.IsLeader() {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("participant %v is not a leader", participant.ID)))
		return
	}

	var input request.CreateTripRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	trip := domain.Trip{
		Name:                input.Name,
		Description:         input.Description,
		TripDate:            input.TripDate,
		MaximumParticipants: input.MaximumParticipants,
		Algorithm:           domain.TripAlgorithm(input.Algorithm),
		Program:             input.Program,
		HonorPairing:        true,
		CreatorID:           participant.ID,
	}
	if input.SignupsOpenAt != nil {
		trip.SignupsOpenAt = *input.SignupsOpenAt
	}
	if input.SignupsCloseAt != nil {
		trip.SignupsCloseAt = *input.SignupsCloseAt
	}
	if input.HonorPairing != nil {
		trip.HonorPairing = *input.HonorPairing
	}
	for _, leaderID := range input.LeaderIDs {
		trip.Leaders = append(trip.Leaders, domain.Participant{ID: leaderID})
	}

	created, err := h.svc.CreateTrip(ctx.Request.Context(), trip)
	if err != nil {
		err = fmt.Errorf("v1.HandleCreateTrip -> h.svc.CreateTrip -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleCreateSignup godoc
// @Summary      Sign up for a trip
// @Description  Places the signup on the roster if capacity allows, otherwise the waitlist. Leaders may place another participant directly, bypassing the signup window.
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        tripID  path      int                          true  "trip ID"
// @Param        input   body      request.CreateSignupRequest  true  "signup details"
// @Success      201     {object}  domain.Signup
// @Failure      400     {object}  response.Err
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /trips/{tripID}/signup [post]
// @Security BearerAuth
func (h *TripHandler) HandleCreateSignup(ctx *gin.Context) {
	participant, respErr := getParticipantFromContext(ctx, h.pSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	tripID, ok := pathID(ctx, "tripID")
	if !ok {
		return
	}

	var input request.CreateSignupRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	targetID := participant.ID
	leaderPlaced := false
	if input.ParticipantID != 0 && input.ParticipantID != participant.ID {
		trip, err := h.svc.GetTrip(ctx.Request.Context(), tripID)
		if err != nil {
			if errors.Is(err, service.ErrTripNotFound) {
				response.RenderErr(ctx, response.ErrNotFound("trip", "ID", tripID))
				return
			}

			err = fmt.Errorf("v1.HandleCreateSignup -> h.svc.GetTrip -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
			return
		}
		if !trip.HasLeader(participant.ID) {
			response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("participant %v does not lead trip %v", participant.ID, tripID)))
			return
		}

		targetID = input.ParticipantID
		leaderPlaced = true
	}

	signup, err := h.svc.SignUp(ctx.Request.Context(), tripID, targetID, input.Notes, leaderPlaced)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTripNotFound):
			response.RenderErr(ctx, response.ErrNotFound("trip", "ID", tripID))
		case errors.Is(err, service.ErrTripClosed):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrTripClosed))
		case errors.Is(err, service.ErrSignupExists):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrSignupExists))
		default:
			err = fmt.Errorf("v1.HandleCreateSignup -> h.svc.SignUp -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, signup)
}

// HandleDeleteSignup godoc
// @Summary      Withdraw from a trip
// @Description  Deletes the caller's signup. Freeing a roster spot promotes the first waitlisted participant.
// @Tags         trips
// @Produce      json
// @Param        tripID  path  int  true  "trip ID"
// @Success      204
// @Failure      401     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /trips/{tripID}/signup [delete]
// @Security BearerAuth
func (h *TripHandler) HandleDeleteSignup(ctx *gin.Context) {
	participant, respErr := getParticipantFromContext(ctx, h.pSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	tripID, ok := pathID(ctx, "tripID")
	if !ok {
		return
	}

	if _, err := h.svc.Withdraw(ctx.Request.Context(), tripID, participant.ID); err != nil {
		if errors.Is(err, service.ErrSignupNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("signup", "tripID", tripID))
			return
		}

		err = fmt.Errorf("v1.HandleDeleteSignup -> h.svc.Withdraw -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleGetAdminSignups godoc
// @Summary      Get the leader's reorder snapshot
// @Description  Returns every signup on the trip (roster then waitlist, in order), for the participant-ordering modal.
// @Tags         trips
// @Produce      json
// @Param        tripID  path      int  true  "trip ID"
// @Success      200     {object}  response.AdminSignupsResponse
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /trips/{tripID}/admin/signups [get]
// @Security BearerAuth
func (h *TripHandler) HandleGetAdminSignups(ctx *gin.Context) {
	trip, ok := h.leaderTrip(ctx)
	if !ok {
		return
	}

	list, err := h.svc.GetSignups(ctx.Request.Context(), trip.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetAdminSignups -> h.svc.GetSignups -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewAdminSignups(trip, list))
}

// HandleReorderSignups godoc
// @Summary      Apply a leader's signup ordering
// @Description  Takes the exact desired final state of a trip's signups and applies it atomically. The submitted list must match the live signups; if any were added or removed since the snapshot, the request fails with 409 and nothing changes.
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        tripID  path      int                            true  "trip ID"
// @Param        input   body      request.ReorderSignupsRequest  true  "desired final state"
// @Success      200     {object}  map[string]interface{}
// @Failure      400     {object}  response.Err
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      409     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /trips/{tripID}/admin/signups [post]
// @Security BearerAuth
func (h *TripHandler) HandleReorderSignups(ctx *gin.Context) {
	trip, ok := h.leaderTrip(ctx)
	if !ok {
		return
	}

	var input request.ReorderSignupsRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	proposed := make([]signups.OrderEntry, 0, len(input.Signups))
	for _, s := range input.Signups {
		proposed = append(proposed, signups.OrderEntry{SignupID: s.ID, Deleted: s.Deleted})
	}

	err := h.svc.Reorder(ctx.Request.Context(), trip.ID, proposed, input.MaximumParticipants)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStaleSignups):
			response.RenderErr(ctx, response.ErrStaleData(service.ErrStaleSignups))
		case errors.Is(err, service.ErrCapacityInvalid):
			response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("couldn't change trip size to %v", *input.MaximumParticipants)))
		default:
			err = fmt.Errorf("v1.HandleReorderSignups -> h.svc.Reorder -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{})
}

// HandleCreateLotteryAdjustment godoc
// @Summary      Create a lottery adjustment
// @Description  Chairs only: temporarily bias a participant's lottery ranking (negative adjustments rank earlier).
// @Tags         lottery
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateLotteryAdjustmentRequest  true  "adjustment"
// @Success      201    {object}  domain.LotteryAdjustment
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /lottery_adjustments [post]
// @Security BearerAuth
func (h *TripHandler) HandleCreateLotteryAdjustment(ctx *gin.Context) {
	participant, respErr := getParticipantFromContext(ctx, h.pSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if !participant.IsChair() {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("participant %v is not a chair", participant.ID)))
		return
	}

	var input request.CreateLotteryAdjustmentRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	adjustment := domain.LotteryAdjustment{
		ParticipantID: input.ParticipantID,
		CreatorID:     participant.ID,
		Adjustment:    input.Adjustment,
	}
	if input.ExpiresAt != nil {
		adjustment.ExpiresAt = *input.ExpiresAt
	}

	created, err := h.svc.CreateLotteryAdjustment(ctx.Request.Context(), adjustment)
	if err != nil {
		err = fmt.Errorf("v1.HandleCreateLotteryAdjustment -> h.svc.CreateLotteryAdjustment -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleListLotteryAdjustments godoc
// @Summary      List a participant's active lottery adjustments
// @Tags         lottery
// @Produce      json
// @Param        participant_id  query     int  true  "participant ID"
// @Success      200             {array}   domain.LotteryAdjustment
// @Failure      400             {object}  response.Err
// @Failure      401             {object}  response.Err
// @Failure      403             {object}  response.Err
// @Failure      500             {object}  response.Err
// @Router       /lottery_adjustments [get]
// @Security BearerAuth
func (h *TripHandler) HandleListLotteryAdjustments(ctx *gin.Context) {
	participant, respErr := getParticipantFromContext(ctx, h.pSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if !participant.IsChair() {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("participant %v is not a chair", participant.ID)))
		return
	}

	raw := ctx.Query("participant_id")
	participantID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid participant_id %q", raw)))
		return
	}

	adjustments, err := h.svc.ListLotteryAdjustments(ctx.Request.Context(), uint(participantID))
	if err != nil {
		err = fmt.Errorf("v1.HandleListLotteryAdjustments -> h.svc.ListLotteryAdjustments -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, adjustments)
}

// leaderTrip loads the trip from the path and checks the caller leads it.
func (h *TripHandler) leaderTrip(ctx *gin.Context) (domain.Trip, bool) {
	participant, respErr := getParticipantFromContext(ctx, h.pSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return domain.Trip{}, false
	}

	tripID, ok := pathID(ctx, "tripID")
	if !ok {
		return domain.Trip{}, false
	}

	trip, err := h.svc.GetTrip(ctx.Request.Context(), tripID)
	if err != nil {
		if errors.Is(err, service.ErrTripNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("trip", "ID", tripID))
			return domain.Trip{}, false
		}

		err = fmt.Errorf("v1.leaderTrip -> h.svc.GetTrip -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return domain.Trip{}, false
	}

	if !trip.HasLeader(participant.ID) && !participant.IsChair() {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("participant %v does not lead trip %v", participant.ID, tripID)))
		return domain.Trip{}, false
	}

	return trip, true
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Param(name)

	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid %v %q", name, raw)))
		return 0, false
	}

	return uint(id), true
}
