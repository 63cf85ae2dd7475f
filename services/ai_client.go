package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// httpAIClient, AIClient'ın dış öneri servisine HTTP ile giden
// implementasyonu.
type httpAIClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPAIClient, constructor — interface döner.
func NewHTTPAIClient(baseURL, apiKey string) AIClient {
	return &httpAIClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type suggestRequest struct {
	Message string `json:"message"`
	Tone    string `json:"tone,omitempty"`
}

type suggestResponse struct {
	Suggestions []string `json:"suggestions"`
}

// SuggestReplies, orijinal mesaj için yanıt önerileri ister.
func (c *httpAIClient) SuggestReplies(ctx context.Context, originalMessage, tone string) ([]string, error) {
	body, err := json.Marshal(suggestRequest{Message: originalMessage, Tone: tone})
	if err != nil {
		return nil, fmt.Errorf("failed to encode suggestion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/suggestions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build suggestion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("suggestion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("suggestion service returned %d", resp.StatusCode)
	}

	var out suggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode suggestion response: %w", err)
	}
	return out.Suggestions, nil
}
