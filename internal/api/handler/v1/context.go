package v1

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/mitoc/trips-api/internal/api/handler/v1/response"
	"github.com/mitoc/trips-api/internal/api/middleware"
	"github.com/mitoc/trips-api/internal/domain"
	"github.com/mitoc/trips-api/internal/service"
)

type ParticipantService interface {
	GetParticipant(ctx context.Context, id uint) (domain.Participant, error)
	RequestPairing(ctx context.Context, id uint, partnerID *uint) error
}

// getParticipantFromContext resolves the authenticated participant from
// the ID the JWT middleware stored on the request.
func getParticipantFromContext(ctx *gin.Context, svc ParticipantService) (domain.Participant, *response.Err) {
	rawID, exists := ctx.Get(middleware.ContextKeyUserID)
	if !exists {
		return domain.Participant{}, response.ErrWrongCredentials(errors.New("not authenticated"))
	}

	id, ok := rawID.(uint)
	if !ok {
		return domain.Participant{}, response.ErrWrongCredentials(errors.New("invalid authentication context"))
	}

	participant, err := svc.GetParticipant(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrParticipantNotFound) {
			return domain.Participant{}, response.ErrWrongCredentials(errors.New("participant no longer exists"))
		}

		return domain.Participant{}, response.ErrInternalServerError(fmt.Errorf("getParticipantFromContext -> svc.GetParticipant -> %w", err))
	}

	return participant, nil
}
