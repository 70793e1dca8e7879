package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursecal/internal/config"
)

// writeCourse initializes a config and outline under a temp dir.
func writeCourse(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	out, err := run(t, "init", "--config", path)
	require.NoError(t, err, out)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	cfg.Timezone = "UTC"
	cfg.CacheDir = filepath.Join(filepath.Dir(path), "cache")
	require.NoError(t, cfg.Save(path))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return buf.String(), err
}

func TestNowFunc(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"

	now, err := nowFunc("", cfg)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), now(), time.Minute)

	now, err = nowFunc("2018-09-03", cfg)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2018, 9, 3, 12, 0, 0, 0, time.UTC), now())

	now, err = nowFunc("2018-09-03T08:30:00Z", cfg)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2018, 9, 3, 8, 30, 0, 0, time.UTC), now())

	_, err = nowFunc("next tuesday", cfg)
	assert.Error(t, err)
}

func TestICSFileName(t *testing.T) {
	assert.Equal(t, "cos-243.ics", icsFileName("COS 243"))
	assert.Equal(t, "intro-to-c.ics", icsFileName("Intro to C++"))
	assert.Equal(t, "course.ics", icsFileName("!!!"))
}

func TestInit_RefusesToOverwrite(t *testing.T) {
	path := writeCourse(t)

	_, err := run(t, "init", "--config", path)
	assert.Error(t, err)

	_, err = run(t, "init", "--config", path, "--force")
	assert.NoError(t, err)
}

func TestShow(t *testing.T) {
	path := writeCourse(t)

	out, err := run(t, "show", "--config", path, "--now", "2018-09-03", "--todos")
	require.NoError(t, err)
	assert.Contains(t, out, "Mon/27-Aug")
	assert.Contains(t, out, "Labor Day")
	assert.Contains(t, out, "Todo")
	assert.Contains(t, out, "COS 243 Fall 2018: 45 course days")
}

func TestOutlineCmd(t *testing.T) {
	path := writeCourse(t)

	out, err := run(t, "outline", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "|  Introduction  [Mon/27-Aug]")
	assert.Contains(t, out, "|  |  MDN HTTP")
}

func TestExport(t *testing.T) {
	path := writeCourse(t)

	out, err := run(t, "export", "--config", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))

	dst := filepath.Join(t.TempDir(), "out", "cos243.ics")
	_, err = run(t, "export", "--config", path, "--out", dst)
	require.NoError(t, err)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, 45, strings.Count(string(data), "BEGIN:VEVENT"))
}

func TestExport_Glob(t *testing.T) {
	path := writeCourse(t)
	outDir := t.TempDir()

	_, err := run(t, "export", filepath.Join(filepath.Dir(path), "**", "*.yaml"), "--out", outDir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(outDir, "cos-243.ics"))
	assert.NoError(t, err)

	_, err = run(t, "export", filepath.Join(filepath.Dir(path), "*.nothing"))
	assert.Error(t, err)
}
