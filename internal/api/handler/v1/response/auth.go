package response

import "github.com/mitoc/trips-api/internal/domain"

type LoginResponse struct {
	Token       string             `json:"token"`
	Participant domain.Participant `json:"participant"`
}
