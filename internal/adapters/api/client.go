// Package api is the REST collaborator for conversation state.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/domain"
)

// Client talks to the platform conversations API. Implements
// core.ConversationsAPI.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// CreateCall places an outbound call and returns the new conversation id.
func (c *Client) CreateCall(ctx context.Context, phoneNumber string) (domain.ConversationID, error) {
	body := struct {
		PhoneNumber string `json:"phoneNumber"`
	}{PhoneNumber: phoneNumber}

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v2/conversations/calls", body, &resp); err != nil {
		return "", err
	}
	return domain.ConversationID(resp.ID), nil
}

// Participants fetches the conversation-calls participant list.
func (c *Client) Participants(ctx context.Context, id domain.ConversationID) ([]domain.Participant, error) {
	var resp struct {
		Participants []domain.Participant `json:"participants"`
	}
	path := fmt.Sprintf("/api/v2/conversations/calls/%s", id)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Participants, nil
}

// PatchParticipant updates a participant's muted/held/state fields.
func (c *Client) PatchParticipant(ctx context.Context, id domain.ConversationID, participantID string, patch domain.ParticipantPatch) error {
	path := fmt.Sprintf("/api/v2/conversations/calls/%s/participants/%s", id, participantID)
	return c.do(ctx, http.MethodPatch, path, patch, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	trackingID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("trackingid", trackingID)

	log.Debug().Str("module", "api").
		Str("method", method).
		Str("path", path).
		Str("trackingId", trackingID).
		Msg("request")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.NewCallError(domain.ErrGeneric, "request failed",
			"method", method, "path", path, "trackingId", trackingID).WithCause(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.NewCallError(domain.ErrGeneric, "request returned error status",
			"method", method, "path", path,
			"status", resp.StatusCode, "body", string(respBody),
			"trackingId", trackingID)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return domain.NewCallError(domain.ErrGeneric, "failed to decode response",
				"method", method, "path", path).WithCause(err)
		}
	}
	return nil
}
