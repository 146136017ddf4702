// ABOUTME: The add flow: fetch metadata, merge tags, insert, file into a collection, enrich
// ABOUTME: Shared by the CLI, the MCP tools, and the HTTP API
package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/harper/stash/internal/metadata"
	"github.com/harper/stash/internal/models"
	"github.com/harper/stash/internal/storage/sqlite"
)

// ErrInvalidURL is returned for input that is not an http(s) URL with a host
var ErrInvalidURL = errors.New("invalid url")

// MetadataFetcher scrapes a page. Implementations never fail.
type MetadataFetcher interface {
	Fetch(ctx context.Context, rawURL string) models.Metadata
}

// Tagger suggests tags for a link
type Tagger interface {
	SuggestTags(ctx context.Context, url, title, description string) ([]string, error)
}

// LinkRequest is a user's request to save a link
type LinkRequest struct {
	URL        string   `json:"url"`
	Tags       []string `json:"tags,omitempty"`
	Note       string   `json:"note,omitempty"`
	Collection string   `json:"collection,omitempty"`
}

// Linker runs the add flow
type Linker struct {
	store    *sqlite.Storage
	fetcher  MetadataFetcher
	tagger   Tagger
	enricher *Enricher
	logger   *log.Logger
}

// NewLinker creates a Linker. tagger and enricher may be nil.
func NewLinker(store *sqlite.Storage, fetcher MetadataFetcher, tagger Tagger, enricher *Enricher) *Linker {
	return &Linker{
		store:    store,
		fetcher:  fetcher,
		tagger:   tagger,
		enricher: enricher,
		logger:   log.WithPrefix("add"),
	}
}

// Save stores a link and returns the new row, or sqlite.ErrDuplicateURL when
// the URL is already saved. Collection membership and enrichment are best
// effort.
func (l *Linker) Save(ctx context.Context, req LinkRequest) (*models.Save, error) {
	target, err := NormalizeURL(req.URL)
	if err != nil {
		return nil, err
	}

	md := l.fetcher.Fetch(ctx, target)

	tags := append([]string{}, req.Tags...)
	tags = append(tags, md.Categories...)
	if l.tagger != nil {
		suggested, err := l.tagger.SuggestTags(ctx, target, md.Title, md.Description)
		if err != nil {
			l.logger.Warn("tag suggestion failed", "url", target, "err", err)
		}
		tags = append(tags, suggested...)
	}

	var category *string
	if tags = models.NormalizeTags(tags); len(tags) > 0 {
		encoded := models.EncodeTags(tags)
		category = &encoded
	}

	id, err := l.store.AddSave(ctx, models.SaveInput{
		URL:      target,
		Title:    md.Title,
		ImageURL: md.ImageURL,
		SiteName: md.SiteName,
		Platform: metadata.DetectPlatform(target),
		Category: category,
		Note:     models.StringPtr(strings.TrimSpace(req.Note)),
	})
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Collection); name != "" {
		l.fileInto(ctx, id, name)
	}

	l.enricher.EnrichAsync(id)

	save, err := l.store.GetSaveByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload save %d: %w", id, err)
	}
	return save, nil
}

func (l *Linker) fileInto(ctx context.Context, saveID int64, name string) {
	idx, err := loadCollectionIndex(ctx, l.store)
	if err != nil {
		l.logger.Warn("collection lookup failed", "collection", name, "err", err)
		return
	}
	collectionID, _, err := idx.resolve(ctx, name)
	if err != nil {
		l.logger.Warn("collection not resolved", "collection", name, "err", err)
		return
	}
	if err := l.store.AddToCollection(ctx, collectionID, saveID); err != nil {
		l.logger.Warn("collection membership failed", "collection", name, "err", err)
	}
}

// NormalizeURL trims raw and assumes https when no scheme is given. Only
// http and https URLs with a host are accepted.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return raw, nil
}
