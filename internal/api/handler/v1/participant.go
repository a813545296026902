package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mitoc/trips-api/internal/api/handler/v1/request"
	"github.com/mitoc/trips-api/internal/api/handler/v1/response"
	"github.com/mitoc/trips-api/internal/domain"
	"github.com/mitoc/trips-api/internal/service"
)

type MembershipService interface {
	GetMembership(ctx context.Context, email string) domain.Membership
	InitiateWaiver(ctx context.Context, participantID uint) (string, error)
}

type ParticipantHandler struct {
	svc  ParticipantService
	mSvc MembershipService
}

func NewParticipantHandler(svc ParticipantService, mSvc MembershipService) *ParticipantHandler {
	return &ParticipantHandler{
		svc:  svc,
		mSvc: mSvc,
	}
}

// HandleGetProfile godoc
// @Summary      Get the authenticated participant
// @Tags         participants
// @Produce      json
// @Success      200  {object}  domain.Participant
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /participants/me [get]
// @Security BearerAuth
func (h *ParticipantHandler) HandleGetProfile(ctx *gin.Context) {
	participant, respErr := getParticipantFromContext(ctx, h.svc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ctx.JSON(http.StatusOK, participant)
}

// HandleRequestPairing godoc
// @Summary      Request or clear a lottery pairing
// @Description  Records the caller's desired partner. Pairing only takes effect on trips once the partner requests the caller back. A null partner_id clears the request.
// @Tags         participants
// @Accept       json
// @Produce      json
// @Param        input  body  request.RequestPairingRequest  true  "partner"
// @Success      204
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /participants/me/pairing [put]
// @Security BearerAuth
func (h *ParticipantHandler) HandleRequestPairing(ctx *gin.Context) {
	participant, respErr := getParticipantFromContext(ctx, h.svc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var input request.RequestPairingRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	err := h.svc.RequestPairing(ctx.Request.Context(), participant.ID, input.PartnerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfPairing):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrSelfPairing))
		case errors.Is(err, service.ErrParticipantNotFound):
			response.RenderErr(ctx, response.ErrBadRequest(errors.New("no such partner")))
		default:
			err = fmt.Errorf("v1.HandleRequestPairing -> h.svc.RequestPairing -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleGetMembership godoc
// @Summary      Get the caller's membership status
// @Description  Looks the caller up in the gear database. An unreachable gear database reads as "no membership" rather than an error.
// @Tags         participants
// @Produce      json
// @Success      200  {object}  response.MembershipResponse
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /participants/me/membership [get]
// @Security BearerAuth
func (h *ParticipantHandler) HandleGetMembership(ctx *gin.Context) {
	participant, respErr := getParticipantFromContext(ctx, h.svc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	membership := h.mSvc.GetMembership(ctx.Request.Context(), participant.Email)

	ctx.JSON(http.StatusOK, response.MembershipResponse{
		Email:             membership.Email,
		Active:            membership.Active(time.Now()),
		MembershipExpires: membership.MembershipExpires,
		WaiverExpires:     membership.WaiverExpires,
	})
}

// HandleInitiateWaiver godoc
// @Summary      Start a waiver signature
// @Description  Opens an e-signature envelope for the caller and returns the URL to sign at.
// @Tags         participants
// @Produce      json
// @Success      201  {object}  response.WaiverResponse
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /participants/me/waiver [post]
// @Security BearerAuth
func (h *ParticipantHandler) HandleInitiateWaiver(ctx *gin.Context) {
	participant, respErr := getParticipantFromContext(ctx, h.svc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	url, err := h.mSvc.InitiateWaiver(ctx.Request.Context(), participant.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleInitiateWaiver -> h.mSvc.InitiateWaiver -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, response.WaiverResponse{SigningURL: url})
}
