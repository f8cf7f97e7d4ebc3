package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"carboncue-backend/config"
	"carboncue-backend/internal/engine"

	"github.com/rs/zerolog/log"
)

const serviceName = "prediction service"

// maxDetailBytes caps how much of an error body is carried into UpstreamError.
const maxDetailBytes = 512

// Client is an engine.EmissionPredictor backed by the HTTP model service.
// Each category is served by its own endpoint under BaseURL.
type Client struct {
	baseURL   string
	endpoints map[engine.ActivityType]string
	headers   map[string]string
	client    *http.Client
}

type predictionResponse struct {
	Prediction *float64 `json:"prediction"`
}

// New builds a Client from the predictor configuration. Categories without a
// configured endpoint default to "predict/<category>".
func New(cfg config.PredictorConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("predictor base_url is not configured")
	}

	endpoints := make(map[engine.ActivityType]string, len(engine.ActivityTypes))
	for _, t := range engine.ActivityTypes {
		endpoints[t] = "predict/" + string(t)
	}
	for k, v := range cfg.Endpoints {
		t, err := engine.ParseActivityType(k)
		if err != nil {
			return nil, fmt.Errorf("predictor endpoint: %w", err)
		}
		endpoints[t] = strings.TrimPrefix(v, "/")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		endpoints: endpoints,
		headers:   cfg.Headers,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// Endpoint returns the full URL used for the given category.
func (c *Client) Endpoint(t engine.ActivityType) string {
	return c.baseURL + "/" + c.endpoints[t]
}

// Predict posts the activity's feature map and returns the predicted kg CO2e.
func (c *Client) Predict(ctx context.Context, activity engine.Activity) (float64, error) {
	body, err := json.Marshal(activity.Features())
	if err != nil {
		return 0, fmt.Errorf("failed to marshal features: %w", err)
	}

	url := c.Endpoint(activity.Type())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("prediction request failed")
		return 0, &engine.UpstreamError{Service: serviceName, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, &engine.UpstreamError{Service: serviceName, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Str("url", url).Msg("prediction service returned an error")
		return 0, &engine.UpstreamError{Service: serviceName, Status: resp.StatusCode, Detail: detail(raw)}
	}

	var pr predictionResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return 0, &engine.UpstreamError{Service: serviceName, Detail: "malformed response", Err: err}
	}
	if pr.Prediction == nil {
		return 0, &engine.UpstreamError{Service: serviceName, Detail: "response has no prediction"}
	}
	return *pr.Prediction, nil
}

// detail extracts a short message from an error body, preferring the
// "error" or "detail" field of a JSON object.
func detail(raw []byte) string {
	var obj map[string]any
	if json.Unmarshal(raw, &obj) == nil {
		for _, k := range []string{"error", "detail", "message"} {
			if s, ok := obj[k].(string); ok && s != "" {
				return s
			}
		}
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > maxDetailBytes {
		s = s[:maxDetailBytes]
	}
	return s
}
