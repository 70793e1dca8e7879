package capture

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsNormalize(t *testing.T) {
	opts := Options{URL: "http://127.0.0.1:8080/", OutputPath: "out.png"}
	require.NoError(t, opts.normalize())

	assert.Equal(t, DefaultWidth, opts.Width)
	assert.Equal(t, DefaultHeight, opts.Height)
	assert.Equal(t, time.Duration(DefaultTimeoutSec)*time.Second, opts.Timeout)

	custom := Options{URL: "u", OutputPath: "o", Width: 800, Height: 480, Timeout: time.Second}
	require.NoError(t, custom.normalize())
	assert.Equal(t, 800, custom.Width)
	assert.Equal(t, 480, custom.Height)
	assert.Equal(t, time.Second, custom.Timeout)
}

func TestSchedulePNG_RequiresURLAndOutput(t *testing.T) {
	assert.Error(t, SchedulePNG(context.Background(), Options{OutputPath: "out.png"}))
	assert.Error(t, SchedulePNG(context.Background(), Options{URL: "http://127.0.0.1:8080/"}))
}
