package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/reelworthy/api/internal/config"
	"github.com/reelworthy/api/internal/detect"
)

// SentimentClient calls a text-classification inference service and
// implements detect.SentimentClassifier.
type SentimentClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

type classifyTextRequest struct {
	Text string `json:"text"`
}

func NewSentimentClient(cfg *config.InferenceConfig) *SentimentClient {
	return &SentimentClient{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
		baseURL: cfg.TextURL,
		apiKey:  cfg.APIKey,
	}
}

// IsConfigured returns true if the client has a service URL
func (c *SentimentClient) IsConfigured() bool {
	return c != nil && c.baseURL != ""
}

// ClassifySentiment scores one text chunk. The service returns a ranked
// label list; the top entry wins.
func (c *SentimentClient) ClassifySentiment(ctx context.Context, text string) (detect.Sentiment, error) {
	var results []detect.Sentiment
	if err := postJSON(ctx, c.httpClient, c.baseURL+"/classify", c.apiKey, classifyTextRequest{Text: text}, &results); err != nil {
		return detect.Sentiment{}, fmt.Errorf("sentiment classification: %w", err)
	}
	if len(results) == 0 {
		return detect.Sentiment{}, fmt.Errorf("sentiment classification: empty response")
	}
	return results[0], nil
}
