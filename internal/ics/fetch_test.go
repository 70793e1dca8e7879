package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_LocalPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holidays.ics")
	require.NoError(t, os.WriteFile(path, []byte(holidayFeed), 0o644))

	f := NewFetcher(t.TempDir())
	res, err := f.Fetch(context.Background(), Source{ID: "local", Path: path})
	require.NoError(t, err)
	assert.Equal(t, holidayFeed, string(res.Body))
	assert.False(t, res.FromCache)

	_, err = f.Fetch(context.Background(), Source{ID: "missing", Path: path + ".nope"})
	assert.Error(t, err)

	_, err = f.Fetch(context.Background(), Source{ID: "empty"})
	assert.Error(t, err)
}

func TestFetcher_ConditionalGet(t *testing.T) {
	var hits, notModified atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(holidayFeed))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	src := Source{ID: "remote", URL: srv.URL + "/holidays.ics"}

	first, err := f.Fetch(context.Background(), src)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, holidayFeed, string(first.Body))

	second, err := f.Fetch(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Body, second.Body)

	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, int32(1), notModified.Load())
}

func TestFetcher_FallsBackToCache(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(holidayFeed))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	src := Source{ID: "flaky", URL: srv.URL}

	_, err := f.Fetch(context.Background(), src)
	require.NoError(t, err)

	fail.Store(true)
	res, err := f.Fetch(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, holidayFeed, string(res.Body))
}

func TestFetcher_FailureWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	_, err := f.Fetch(context.Background(), Source{ID: "gone", URL: srv.URL})
	assert.Error(t, err)
}

func TestFetcher_HolidayDates(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "holidays.ics")
	require.NoError(t, os.WriteFile(good, []byte(holidayFeed), 0o644))

	f := NewFetcher(t.TempDir())
	dates, err := f.HolidayDates(context.Background(), []Source{
		{ID: "good", Path: good},
		{ID: "missing", Path: filepath.Join(dir, "missing.ics")},
	}, date(2018, 8, 27), date(2018, 12, 7))

	assert.Error(t, err, "the missing feed is reported")
	assert.Len(t, dates, 5, "the good feed still loads")
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://example.com/...(redacted)", redactURL("https://user:pw@example.com/cal/private-token.ics?key=1"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
