// ABOUTME: Best-effort page metadata fetcher for saved links
// ABOUTME: Never fails: any network or parse problem yields a hostname-based fallback
package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/stash/internal/models"
	"golang.org/x/net/html"
)

const (
	defaultTimeout   = 4 * time.Second
	defaultMaxBytes  = 2 << 20
	defaultUserAgent = "Mozilla/5.0 (compatible; StashBot/1.0)"
	maxRedirects     = 5
)

// Config controls the fetcher.
type Config struct {
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = defaultMaxBytes
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
}

// Fetcher scrapes page metadata over HTTP.
type Fetcher struct {
	client *http.Client
	config Config
	logger *log.Logger
}

// New creates a fetcher. Zero config fields take their defaults.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		config: cfg,
		logger: log.WithPrefix("metadata"),
	}
}

// Fetch downloads rawURL and extracts its metadata. Failures are logged and
// answered with Fallback(rawURL).
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) models.Metadata {
	md, err := f.fetch(ctx, rawURL)
	if err != nil {
		f.logger.Warn("metadata fetch failed", "url", rawURL, "err", err)
		return Fallback(rawURL)
	}
	return md
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (models.Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return models.Metadata{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return models.Metadata{}, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Metadata{}, fmt.Errorf("fetch: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes))
	if err != nil {
		return models.Metadata{}, fmt.Errorf("read body: %w", err)
	}

	md, err := Extract(rawURL, string(body))
	if err != nil {
		return models.Metadata{}, err
	}
	f.logger.Debug("metadata fetched", "url", rawURL, "title", md.Title, "categories", len(md.Categories))
	return md, nil
}

// Extract builds Metadata from an HTML document served at rawURL
func Extract(rawURL, body string) (models.Metadata, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return models.Metadata{}, fmt.Errorf("parse html: %w", err)
	}
	p := parsePage(doc)
	host := Hostname(rawURL)

	title := p.first("og:title", "twitter:title")
	if title == "" {
		title = cleanText(p.title)
	}
	if title == "" {
		title = host
	}

	siteName := p.first("og:site_name")
	if siteName == "" {
		siteName = host
	}

	return models.Metadata{
		Title:       title,
		ImageURL:    models.StringPtr(strings.TrimSpace(p.first("og:image", "twitter:image"))),
		SiteName:    models.StringPtr(siteName),
		Categories:  CleanCategories(rawCategories(body, p)),
		Description: p.first("og:description", "description", "twitter:description"),
	}, nil
}

// Fallback is the metadata used when a page cannot be fetched: the hostname
// (or "Untitled") as title, no image, no site name, no categories.
func Fallback(rawURL string) models.Metadata {
	title := Hostname(rawURL)
	if title == "" {
		title = "Untitled"
	}
	return models.Metadata{Title: title, Categories: []string{}}
}
