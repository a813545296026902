// Package geardb is a client for the club's gear-rental database, the
// authority on who holds a current membership and waiver.
package geardb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mitoc/trips-api/internal/config"
	"github.com/mitoc/trips-api/internal/domain"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(conf *config.GearDBConfig) *Client {
	return &Client{
		baseURL: conf.BaseURL,
		apiKey:  conf.APIKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type memberResponse struct {
	Email             string     `json:"email"`
	MembershipExpires *time.Time `json:"membership_expires"`
	WaiverExpires     *time.Time `json:"waiver_expires"`
}

// LookupMembership fetches membership and waiver expiry for an email.
// An email the gear database has never seen returns an empty membership,
// not an error.
func (c *Client) LookupMembership(ctx context.Context, email string) (domain.Membership, error) {
	endpoint := fmt.Sprintf("%v/api/members?email=%v", c.baseURL, url.QueryEscape(email))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Membership{}, fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Membership{}, fmt.Errorf("c.httpClient.Do -> %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.Membership{Email: email}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Membership{}, fmt.Errorf("gear database returned status %v", resp.StatusCode)
	}

	var member memberResponse
	if err := json.NewDecoder(resp.Body).Decode(&member); err != nil {
		return domain.Membership{}, fmt.Errorf("json.Decode -> %w", err)
	}

	return domain.Membership{
		Email:             member.Email,
		MembershipExpires: member.MembershipExpires,
		WaiverExpires:     member.WaiverExpires,
	}, nil
}
