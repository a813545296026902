// Package waivers talks to the e-signature provider that hosts the
// club's liability waiver. The participant signing is the releasor;
// a guardian may be CC'd but that flow lives entirely provider-side.
package waivers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mitoc/trips-api/internal/config"
	"github.com/mitoc/trips-api/internal/domain"
)

type Client struct {
	conf       *config.WaiversConfig
	httpClient *http.Client
}

func NewClient(conf *config.WaiversConfig) *Client {
	return &Client{
		conf: conf,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type envelopeRequest struct {
	AccountID     string `json:"account_id"`
	TemplateID    string `json:"template_id"`
	ClientOrderID string `json:"client_order_id"`
	Releasor      signer `json:"releasor"`
}

type signer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type envelopeResponse struct {
	EnvelopeID string `json:"envelope_id"`
	SigningURL string `json:"signing_url"`
}

// InitiateWaiver creates a signing envelope for the participant and
// returns the URL where they complete the waiver. The generated client
// order ID makes retried requests idempotent on the provider side.
func (c *Client) InitiateWaiver(ctx context.Context, participant domain.Participant) (string, error) {
	payload, err := json.Marshal(envelopeRequest{
		AccountID:     c.conf.AccountID,
		TemplateID:    c.conf.TemplateID,
		ClientOrderID: uuid.NewString(),
		Releasor: signer{
			Name:  participant.Name,
			Email: participant.Email,
		},
	})
	if err != nil {
		return "", fmt.Errorf("json.Marshal -> %w", err)
	}

	endpoint := fmt.Sprintf("%v/v2/envelopes", c.conf.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Integration-Key", c.conf.IntegrationID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("c.httpClient.Do -> %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("e-signature service returned status %v", resp.StatusCode)
	}

	var envelope envelopeResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("json.Decode -> %w", err)
	}

	return envelope.SigningURL, nil
}
