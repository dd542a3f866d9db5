package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"cultivation-system/utils"
)

// TextGenerator is the opaque text-generation backend: given text, returns
// text. No schema conformance is guaranteed by the backend itself; the
// content pipeline owns validation.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// BackendClient talks to the external text-generation service over HTTP.
type BackendClient struct {
	BaseURL    string
	Token      string
	Model      string
	HTTPClient *http.Client
}

// NewBackendClientFromEnv builds the client from environment configuration.
// Returns nil when AI_SERVICE_URL is unset so callers can fall back to the
// static seed catalog. AI_TIMEOUT_SECONDS overrides the shared client's
// timeout.
func NewBackendClientFromEnv() *BackendClient {
	baseURL := os.Getenv("AI_SERVICE_URL")
	if baseURL == "" {
		return nil
	}

	client := utils.HTTPClient
	if raw := os.Getenv("AI_TIMEOUT_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			client = &http.Client{Timeout: time.Duration(secs) * time.Second}
		}
	}

	return &BackendClient{
		BaseURL:    baseURL,
		Token:      os.Getenv("AI_SERVICE_TOKEN"),
		Model:      os.Getenv("AI_MODEL"),
		HTTPClient: client,
	}
}

func (c *BackendClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	payload := map[string]string{"prompt": prompt}
	if c.Model != "" {
		payload["model"] = c.Model
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call generation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("generation service returned status %d: %s", resp.StatusCode, string(snippet))
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode generation response: %w", err)
	}
	return out.Text, nil
}
