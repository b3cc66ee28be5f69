package stub

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnTracker(t *testing.T) {
	t.Parallel()

	t.Run("hook tracks accept and close events", func(t *testing.T) {
		t.Parallel()
		tr := newConnTracker()
		hook := tr.hook()
		c1, c2 := net.Pipe()
		defer func() { _ = c1.Close(); _ = c2.Close() }()

		hook(c1, http.StateNew)
		assert.Equal(t, 1, tr.count())
		hook(c1, http.StateActive) // ignored
		assert.Equal(t, 1, tr.count())
		hook(c1, http.StateClosed)
		assert.Zero(t, tr.count())
	})

	t.Run("hijacked connections are untracked", func(t *testing.T) {
		t.Parallel()
		tr := newConnTracker()
		hook := tr.hook()
		c1, c2 := net.Pipe()
		defer func() { _ = c1.Close(); _ = c2.Close() }()

		hook(c1, http.StateNew)
		hook(c1, http.StateHijacked)
		assert.Zero(t, tr.count())
	})

	t.Run("drain on an empty set completes immediately", func(t *testing.T) {
		t.Parallel()
		tr := newConnTracker()
		assert.NoError(t, tr.drain(context.Background()))
	})

	t.Run("drain closes connections and waits for their close events", func(t *testing.T) {
		t.Parallel()
		tr := newConnTracker()
		c1, c2 := net.Pipe()
		defer func() { _ = c2.Close() }()
		tr.add(c1)

		// Simulate the transport reporting the forced closure back.
		go func() {
			time.Sleep(20 * time.Millisecond)
			tr.remove(c1)
		}()

		require.NoError(t, tr.drain(context.Background()))
		assert.Zero(t, tr.count())
	})

	t.Run("drain respects context when a close is never reported", func(t *testing.T) {
		t.Parallel()
		tr := newConnTracker()
		c1, c2 := net.Pipe()
		defer func() { _ = c1.Close(); _ = c2.Close() }()
		tr.add(c1)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, tr.drain(ctx), context.DeadlineExceeded)
	})
}
