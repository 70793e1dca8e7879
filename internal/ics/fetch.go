package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	appLog "coursecal/internal/log"
	"coursecal/internal/model"
)

// Source is one holiday feed: either a remote URL or a local file.
type Source struct {
	ID       string
	URL      string
	Path     string
	ClassDay bool
}

// origin is a log-safe description of where the feed comes from.
func (s Source) origin() string {
	if s.Path != "" {
		return s.Path
	}
	return redactURL(s.URL)
}

// FetchResult is the body of one feed and whether it came from the cache.
type FetchResult struct {
	Source    Source
	Body      []byte
	FromCache bool
}

// cacheMeta is the HTTP validator state stored next to a cached body.
type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher loads holiday feeds. Remote feeds use conditional requests
// (ETag / Last-Modified) against an on-disk cache, and fall back to the
// cached body when the network or the server fails.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher creates a Fetcher caching under cacheDir.
func NewFetcher(cacheDir string) *Fetcher {
	if cacheDir == "" {
		cacheDir = filepath.Join(".", "cache", "feeds")
	}
	return &Fetcher{
		client:   &http.Client{Timeout: 15 * time.Second},
		cacheDir: cacheDir,
	}
}

// Fetch returns the body of src.
func (f *Fetcher) Fetch(ctx context.Context, src Source) (FetchResult, error) {
	switch {
	case src.Path != "":
		body, err := os.ReadFile(src.Path)
		if err != nil {
			return FetchResult{}, fmt.Errorf("feed %s: %w", src.ID, err)
		}
		return FetchResult{Source: src, Body: body}, nil
	case src.URL != "":
		return f.fetchRemote(ctx, src)
	default:
		return FetchResult{}, fmt.Errorf("feed %s: no url or path", src.ID)
	}
}

func (f *Fetcher) fetchRemote(ctx context.Context, src Source) (FetchResult, error) {
	dir := f.cachePath(src.URL)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return FetchResult{}, err
	}

	meta, _ := loadMeta(dir)
	cached, _ := os.ReadFile(filepath.Join(dir, "body.ics"))

	fallback := func(reason error) (FetchResult, error) {
		if len(cached) == 0 {
			return FetchResult{}, fmt.Errorf("feed %s: %w", src.ID, reason)
		}
		appLog.Error("feed fetch failed, using cached body", reason, "id", src.ID, "url", redactURL(src.URL))
		return FetchResult{Source: src, Body: cached, FromCache: true}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return FetchResult{}, err
	}
	if meta.URL == src.URL && len(cached) > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	appLog.Debug("feed fetch start", "id", src.ID, "url", redactURL(src.URL))

	resp, err := f.client.Do(req)
	if err != nil {
		return fallback(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fallback(err)
		}
		next := cacheMeta{
			URL:          src.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := saveCache(dir, next, body); err != nil {
			appLog.Error("feed cache save failed", err, "id", src.ID)
		}
		appLog.Info("feed fetched", "id", src.ID, "url", redactURL(src.URL), "bytes", len(body))
		return FetchResult{Source: src, Body: body}, nil

	case http.StatusNotModified:
		if len(cached) == 0 {
			return FetchResult{}, fmt.Errorf("feed %s: 304 Not Modified without cached body", src.ID)
		}
		appLog.Debug("feed not modified", "id", src.ID)
		return FetchResult{Source: src, Body: cached, FromCache: true}, nil

	default:
		return fallback(errors.New(resp.Status))
	}
}

func (f *Fetcher) cachePath(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadMeta(dir string) (cacheMeta, error) {
	var meta cacheMeta
	data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(data, &meta)
	return meta, err
}

func saveCache(dir string, meta cacheMeta, body []byte) error {
	// Body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(dir, "body.ics"), body, 0o600); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "meta.json"), data, 0o600)
}

// redactURL keeps scheme and host only; feed URLs often embed tokens.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}

// HolidayDates fetches, parses and expands every feed into fixed dates
// within [from, to]. A failing feed is logged and skipped; its error is
// included in the joined error returned alongside the dates that did load.
func (f *Fetcher) HolidayDates(ctx context.Context, sources []Source, from, to time.Time) ([]model.FixedDate, error) {
	var (
		events []ParsedEvent
		errs   []error
	)
	for _, src := range sources {
		res, err := f.Fetch(ctx, src)
		if err != nil {
			appLog.Error("feed unavailable", err, "id", src.ID, "origin", src.origin())
			errs = append(errs, err)
			continue
		}
		parsed, err := ParseICS(res.Source, res.Body, from.Location())
		if err != nil {
			errs = append(errs, fmt.Errorf("feed %s: %w", src.ID, err))
			continue
		}
		events = append(events, parsed...)
	}

	dates, err := ExpandFixedDates(events, ExpandConfig{From: from, To: to})
	if err != nil {
		errs = append(errs, err)
	}
	return dates, errors.Join(errs...)
}
