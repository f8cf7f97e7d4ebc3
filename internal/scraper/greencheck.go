package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"carboncue-backend/internal/engine"

	"github.com/patrickmn/go-cache"
)

const greenService = "green hosting check"

const greenCacheTTL = 6 * time.Hour

type greenCheckResponse struct {
	URL      string `json:"url"`
	Green    bool   `json:"green"`
	HostedBy string `json:"hosted_by"`
}

// GreenChecker asks a greencheck API whether a host runs on renewable
// energy. Answers are cached per host.
type GreenChecker struct {
	baseURL string
	client  *http.Client
	cache   *cache.Cache
}

// NewGreenChecker creates a checker against baseURL, e.g.
// https://api.thegreenwebfoundation.org/api/v3/greencheck.
func NewGreenChecker(baseURL string, client *http.Client) *GreenChecker {
	return &GreenChecker{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
		cache:   cache.New(greenCacheTTL, time.Hour),
	}
}

// Check reports whether host is served from green infrastructure.
func (g *GreenChecker) Check(ctx context.Context, host string) (bool, error) {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return false, fmt.Errorf("empty host")
	}
	if v, ok := g.cache.Get(host); ok {
		return v.(bool), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/"+url.PathEscape(host), nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return false, &engine.UpstreamError{Service: greenService, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, &engine.UpstreamError{Service: greenService, Status: resp.StatusCode}
	}

	var gr greenCheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return false, &engine.UpstreamError{Service: greenService, Detail: "malformed response", Err: err}
	}

	g.cache.Set(host, gr.Green, cache.DefaultExpiration)
	return gr.Green, nil
}
