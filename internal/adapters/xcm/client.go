package xcm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"remoteevents/internal/domain"
)

type httpMatcher struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewHTTPMatcher returns a ContactMatcher that calls the CRM's extended
// contact matcher over HTTP.
func NewHTTPMatcher(client *http.Client, baseURL, apiKey string) domain.ContactMatcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpMatcher{client: client, baseURL: baseURL, apiKey: apiKey}
}

type matchRequest struct {
	Profile string            `json:"profile"`
	Fields  map[string]string `json:"fields"`
}

type matchResponse struct {
	ContactID string `json:"contact_id"`
}

func (m *httpMatcher) MatchOrCreate(ctx context.Context, profile string, fields map[string]string) (string, error) {
	body, err := json.Marshal(matchRequest{Profile: profile, Fields: fields})
	if err != nil {
		return "", fmt.Errorf("failed to encode match request: %w", err)
	}
	url := fmt.Sprintf("%s/match", m.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call contact matcher: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("contact matcher returned status: %d", resp.StatusCode)
	}

	var data matchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("failed to decode match response: %w", err)
	}
	if data.ContactID == "" {
		return "", fmt.Errorf("contact matcher returned no contact id")
	}
	return data.ContactID, nil
}
