package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursecal/internal/config"
	"coursecal/internal/model"
	"coursecal/internal/outline"
	"coursecal/internal/schedule"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testSchedule(t *testing.T) *schedule.Schedule {
	t.Helper()
	laborDay, err := model.NewFixedDate("Labor Day", date(2018, 9, 3), time.Time{}, false)
	require.NoError(t, err)
	sem, err := model.NewSemester("Fall 2018", date(2018, 8, 27), date(2018, 9, 14), []model.FixedDate{laborDay})
	require.NoError(t, err)
	course, err := model.NewCourse("COS 243", "Web", sem, []string{"Mon", "Wed", "Fri"}, nil)
	require.NoError(t, err)

	src := outline.Source{Type: "root", Children: []outline.Source{
		{Type: "headline", Props: outline.Props{Title: "Intro", Tags: []string{"topic"}, Level: 1}},
		{Type: "headline", Props: outline.Props{Title: "Quiz 1", Tags: []string{"hw", "before"}, Level: 1}},
	}}
	s, err := schedule.New(course, src, date(2018, 8, 29))
	require.NoError(t, err)
	return s
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	s := testSchedule(t)
	return NewServer(cfg, BuilderFunc(func(context.Context) (*schedule.Schedule, error) {
		return s, nil
	}))
}

func do(t *testing.T, h http.Handler, method, path string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_NotBuiltYet(t *testing.T) {
	srv := newTestServer(t, config.DefaultConfig())
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	for _, path := range []string{"/api/calendar", "/api/outline", "/calendar.ics", "/"} {
		rec := do(t, h, http.MethodGet, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "schedule not built yet", body["error"])
	}
}

func TestServer_Calendar(t *testing.T) {
	srv := newTestServer(t, config.DefaultConfig())
	require.NoError(t, srv.Rebuild(context.Background()))

	rec := do(t, srv.Handler(), http.MethodGet, "/api/calendar")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var resp calendarResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "COS 243", resp.Course)
	assert.Equal(t, "Fall 2018", resp.Semester)
	assert.Equal(t, 9, resp.CourseDays)
	assert.Equal(t, 8, resp.ClassDays)
	require.Len(t, resp.Days, 9)

	first := resp.Days[0]
	assert.Equal(t, "2018-08-27", first.Date)
	assert.Equal(t, "Mon", first.Weekday)
	assert.Equal(t, []string{"Intro"}, first.Topics)
	assert.Equal(t, []string{"Quiz 1"}, first.Assignments)
	assert.True(t, first.FirstDayOfWeek)

	labor := resp.Days[3]
	assert.Equal(t, "2018-09-03", labor.Date)
	assert.False(t, labor.ClassDay)
	assert.Equal(t, "Labor Day", labor.Override)
	assert.NotNil(t, labor.Assignments, "empty lists are [] not null")

	assert.True(t, resp.Days[1].NearestToToday)
}

func TestServer_Outline(t *testing.T) {
	srv := newTestServer(t, config.DefaultConfig())
	require.NoError(t, srv.Rebuild(context.Background()))

	rec := do(t, srv.Handler(), http.MethodGet, "/api/outline")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp outlineResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.DeepestLevel)
	assert.Equal(t, outline.RootTitle, resp.Root.Title)
	assert.Empty(t, resp.Root.Date)
	require.Len(t, resp.Root.Children, 2)
	assert.Equal(t, "Intro", resp.Root.Children[0].Title)
	assert.Equal(t, "2018-08-27", resp.Root.Children[0].Date)
	assert.Equal(t, []string{"hw", "before"}, resp.Root.Children[1].Tags)
}

func TestServer_ICS(t *testing.T) {
	srv := newTestServer(t, config.DefaultConfig())
	require.NoError(t, srv.Rebuild(context.Background()))

	rec := do(t, srv.Handler(), http.MethodGet, "/calendar.ics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "BEGIN:VCALENDAR"))
	assert.Equal(t, 9, strings.Count(body, "BEGIN:VEVENT"))
}

func TestServer_Page(t *testing.T) {
	srv := newTestServer(t, config.DefaultConfig())
	require.NoError(t, srv.Rebuild(context.Background()))

	rec := do(t, srv.Handler(), http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data-ready="true"`)
	assert.Contains(t, body, "Intro")
	assert.Contains(t, body, "Mon 27 Aug")

	assert.Equal(t, http.StatusNotFound, do(t, srv.Handler(), http.MethodGet, "/nope").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, srv.Handler(), http.MethodPost, "/api/calendar").Code)
}

func TestServer_BasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "prof", Password: "secret"}
	srv := newTestServer(t, cfg)
	require.NoError(t, srv.Rebuild(context.Background()))
	h := srv.Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health").Code)

	rec := do(t, h, http.MethodGet, "/api/calendar")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")

	rec = do(t, h, http.MethodGet, "/api/calendar", func(r *http.Request) { r.SetBasicAuth("prof", "wrong") })
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/calendar", func(r *http.Request) { r.SetBasicAuth("prof", "secret") })
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_RebuildFailureKeepsSchedule(t *testing.T) {
	good := testSchedule(t)
	fail := false
	srv := NewServer(config.DefaultConfig(), BuilderFunc(func(context.Context) (*schedule.Schedule, error) {
		if fail {
			return nil, errors.New("outline missing")
		}
		return good, nil
	}))

	require.NoError(t, srv.Rebuild(context.Background()))
	_, builtAt := srv.Schedule()

	fail = true
	assert.Error(t, srv.Rebuild(context.Background()))

	current, again := srv.Schedule()
	assert.Same(t, good, current)
	assert.Equal(t, builtAt, again)
}
