package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"carboncue-backend/config"
	"carboncue-backend/internal/engine"
	"carboncue-backend/internal/parse"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const pageService = "website fetch"

// maxPageBytes bounds the HTML document read into memory for parsing.
const maxPageBytes = 10 << 20

// Analysis is the outcome of analysing one page.
type Analysis struct {
	URL          string                        `json:"url"`
	Host         string                        `json:"host"`
	Breakdown    engine.ByteBreakdown          `json:"breakdown"`
	AssetCount   int                           `json:"assetCount"`
	FailedAssets int                           `json:"failedAssets"`
	GreenHosting bool                          `json:"greenHosting"`
	Emissions    *engine.WebsiteEmissionResult `json:"emissions"`
}

// asset is one resource referenced by the page.
type asset struct {
	url  string
	hint engine.AssetCategory
}

// Service fetches a page and its assets and reports their weight.
type Service struct {
	cfg    config.WebsiteConfig
	client *http.Client
	green  *GreenChecker
}

// NewService creates a page analyzer using the website configuration.
func NewService(cfg config.WebsiteConfig) *Service {
	transport := &http.Transport{}
	if !cfg.AllowPrivateNetworks {
		transport.DialContext = publicDialer(30 * time.Second).DialContext
	}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Warn().Err(err).Str("proxy", cfg.HTTPProxy).Msg("invalid proxy URL, website fetches will not use a proxy")
		} else {
			// Connections go to the proxy, which may itself be internal.
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.FetchTimeout,
	}
	return &Service{
		cfg:    cfg,
		client: client,
		green:  NewGreenChecker(cfg.GreenCheckURL, client),
	}
}

// Analyze fetches pageURL, sizes every referenced asset, looks up green
// hosting for the host and computes the per-visit emissions. Emissions is nil
// when nothing was transferred. A failed page fetch or green hosting lookup
// fails the whole analysis with an UpstreamError.
func (s *Service) Analyze(ctx context.Context, pageURL string) (*Analysis, error) {
	u, err := normalizeURL(pageURL)
	if err != nil {
		return nil, &engine.ValidationError{Message: "A valid http(s) URL is required."}
	}

	var (
		breakdown engine.ByteBreakdown
		assets    []asset
		failed    int
		green     bool
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		breakdown, assets, failed, err = s.weigh(egCtx, u)
		return err
	})
	eg.Go(func() error {
		ok, err := s.green.Check(egCtx, u.Hostname())
		if err != nil {
			return err
		}
		green = ok
		return nil
	})
	if err := eg.Wait(); err != nil {
		if errors.Is(err, ErrBlockedAddress) {
			return nil, &engine.ValidationError{Message: "The URL must point at a public address."}
		}
		return nil, err
	}

	a := &Analysis{
		URL:          u.String(),
		Host:         u.Hostname(),
		Breakdown:    breakdown,
		AssetCount:   len(assets),
		FailedAssets: failed,
		GreenHosting: green,
	}
	if res, ok := engine.CalculateWebsiteEmissions(breakdown.Total(), green); ok {
		a.Emissions = &res
	}
	log.Info().Str("url", a.URL).Int64("bytes", breakdown.Total()).Int("assets", a.AssetCount).
		Int("failed", failed).Bool("green", green).Msg("website analysed")
	return a, nil
}

// weigh downloads the page and its assets and returns the byte breakdown.
// Individual asset failures are counted and skipped; only a failure to load
// the page itself is an error.
func (s *Service) weigh(ctx context.Context, page *url.URL) (engine.ByteBreakdown, []asset, int, error) {
	var breakdown engine.ByteBreakdown

	body, contentType, err := s.fetchPage(ctx, page.String())
	if err != nil {
		return breakdown, nil, 0, err
	}
	breakdown.Add(parse.Classify(contentType, page.String(), engine.AssetHTML), int64(len(body)))

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return breakdown, nil, 0, fmt.Errorf("goquery.NewDocumentFromReader: %w", err)
	}
	assets := discoverAssets(doc, page, s.cfg.MaxAssets)

	var mu sync.Mutex
	failed := 0
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.cfg.Concurrency)
	for _, a := range assets {
		a := a
		eg.Go(func() error {
			n, ct, err := s.fetchSize(egCtx, a.url)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				log.Debug().Err(err).Str("asset", a.url).Msg("asset fetch failed")
				failed++
				return nil
			}
			breakdown.Add(parse.Classify(ct, a.url, a.hint), n)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return breakdown, nil, 0, &engine.UpstreamError{Service: pageService, Err: err}
	}
	return breakdown, assets, failed, nil
}

func (s *Service) newRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	return req, nil
}

// fetchPage downloads the HTML document.
func (s *Service) fetchPage(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := s.newRequest(ctx, rawURL)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", &engine.UpstreamError{Service: pageService, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &engine.UpstreamError{Service: pageService, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, "", &engine.UpstreamError{Service: pageService, Status: resp.StatusCode, Err: err}
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// fetchSize downloads one asset and returns the number of bytes received.
func (s *Service) fetchSize(ctx context.Context, rawURL string) (int64, string, error) {
	req, err := s.newRequest(ctx, rawURL)
	if err != nil {
		return 0, "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, "", fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read response body: %w", err)
	}
	return n, resp.Header.Get("Content-Type"), nil
}

// discoverAssets collects the unique http(s) resources a page references,
// in document order, up to limit.
func discoverAssets(doc *goquery.Document, base *url.URL, limit int) []asset {
	seen := make(map[string]struct{})
	var out []asset

	add := func(ref string, hint engine.AssetCategory) {
		if limit > 0 && len(out) >= limit {
			return
		}
		ref = strings.TrimSpace(ref)
		if ref == "" || strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "#") {
			return
		}
		u, err := base.Parse(ref)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return
		}
		u.Fragment = ""
		key := u.String()
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, asset{url: key, hint: hint})
	}

	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, err := base.Parse(href); err == nil {
			base = b
		}
	}

	doc.Find("link[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		rel := strings.Fields(strings.ToLower(sel.AttrOr("rel", "")))
		as := strings.ToLower(sel.AttrOr("as", ""))
		switch {
		case hasToken(rel, "stylesheet"):
			add(href, engine.AssetCSS)
		case hasToken(rel, "icon") || hasToken(rel, "apple-touch-icon"):
			add(href, engine.AssetImage)
		case hasToken(rel, "preload") || hasToken(rel, "modulepreload"):
			add(href, preloadHint(as, hasToken(rel, "modulepreload")))
		}
	})
	doc.Find("script[src]").Each(func(_ int, sel *goquery.Selection) {
		add(sel.AttrOr("src", ""), engine.AssetJS)
	})
	doc.Find("img, source, video[poster]").Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("src"); ok {
			add(src, engine.AssetImage)
		}
		if srcset, ok := sel.Attr("srcset"); ok {
			add(firstSrcsetCandidate(srcset), engine.AssetImage)
		}
		if poster, ok := sel.Attr("poster"); ok {
			add(poster, engine.AssetImage)
		}
	})
	return out
}

func preloadHint(as string, module bool) engine.AssetCategory {
	switch {
	case module || as == "script":
		return engine.AssetJS
	case as == "style":
		return engine.AssetCSS
	case as == "font":
		return engine.AssetFont
	case as == "image":
		return engine.AssetImage
	default:
		return engine.AssetOther
	}
}

func hasToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}

// firstSrcsetCandidate returns the URL of the first srcset entry.
func firstSrcsetCandidate(srcset string) string {
	first, _, _ := strings.Cut(srcset, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// normalizeURL accepts bare hosts ("example.org") as https.
func normalizeURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return nil, fmt.Errorf("unsupported url %q", raw)
	}
	return u, nil
}
