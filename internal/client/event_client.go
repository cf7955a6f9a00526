package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/reelworthy/api/internal/config"
	"github.com/reelworthy/api/internal/detect"
)

// AudioEventClient calls an audio-classification inference service (an
// AST-style model behind HTTP) and implements detect.AudioEventClassifier.
type AudioEventClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// classifyAudioRequest is the inference service's input: a normalized PCM
// chunk and its sample rate.
type classifyAudioRequest struct {
	Samples    []float64 `json:"samples"`
	SampleRate int       `json:"sample_rate"`
	TopK       int       `json:"top_k,omitempty"`
}

func NewAudioEventClient(cfg *config.InferenceConfig) *AudioEventClient {
	return &AudioEventClient{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
		baseURL: cfg.AudioURL,
		apiKey:  cfg.APIKey,
	}
}

// IsConfigured returns true if the client has a service URL
func (c *AudioEventClient) IsConfigured() bool {
	return c != nil && c.baseURL != ""
}

// ClassifyAudio sends one PCM chunk and returns the ranked label list.
func (c *AudioEventClient) ClassifyAudio(ctx context.Context, samples []float64, rate int) ([]detect.LabelScore, error) {
	reqBody := classifyAudioRequest{
		Samples:    samples,
		SampleRate: rate,
		TopK:       10,
	}

	var results []detect.LabelScore
	if err := postJSON(ctx, c.httpClient, c.baseURL+"/classify", c.apiKey, reqBody, &results); err != nil {
		return nil, fmt.Errorf("audio event classification: %w", err)
	}
	return results, nil
}

// postJSON sends a JSON request and decodes a JSON response, shared by
// the inference clients.
func postJSON(ctx context.Context, hc *http.Client, url, apiKey string, in, out interface{}) error {
	bodyBytes, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("inference service returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
