package printing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChromedpRenderer_Defaults(t *testing.T) {
	r := NewChromedpRenderer(ChromedpConfig{})
	defer r.Close()

	assert.Equal(t, defaultChromeTimeout, r.config.DefaultTimeout)
	assert.NotNil(t, r.allocCtx)

	remote := NewChromedpRenderer(ChromedpConfig{RemoteURL: "ws://127.0.0.1:9222", DefaultTimeout: time.Second})
	defer remote.Close()
	assert.Equal(t, time.Second, remote.config.DefaultTimeout)
}

func TestChromedpRenderer_RejectsEmptyHTML(t *testing.T) {
	r := NewChromedpRenderer(ChromedpConfig{})
	defer r.Close()

	for _, req := range []*RenderRequest{nil, {HTML: "   "}} {
		_, err := r.Render(context.Background(), req)
		var renderErr *RenderError
		require.True(t, errors.As(err, &renderErr))
		assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
	}
}

func TestCompleteHTML(t *testing.T) {
	t.Run("wraps fragments", func(t *testing.T) {
		out := completeHTML(&RenderRequest{HTML: "<p>hi</p>", Title: "A&B"})
		assert.Contains(t, out, "<!DOCTYPE html>")
		assert.Contains(t, out, "<title>A&amp;B</title>")
		assert.Contains(t, out, "<body><p>hi</p></body>")
	})

	t.Run("keeps full documents", func(t *testing.T) {
		doc := "<!doctype html><html><body>x</body></html>"
		assert.Equal(t, doc, completeHTML(&RenderRequest{HTML: doc}))
	})
}

func TestRenderError(t *testing.T) {
	cause := errors.New("socket closed")
	err := NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", cause)
	assert.Equal(t, "chromedp execution failed: socket closed", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "generated PDF is empty", NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil).Error())
}
