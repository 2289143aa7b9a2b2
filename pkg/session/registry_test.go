package session

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	id       string
	closes   atomic.Int32
	closeErr error
}

func (t *fakeTransport) SessionID() string { return t.id }

func (t *fakeTransport) Close() error {
	t.closes.Add(1)
	return t.closeErr
}

func TestRegistry_AddAndGet(t *testing.T) {
	r := NewRegistry()
	h := &fakeTransport{id: "a"}

	require.NoError(t, r.Add("a", h))

	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Same(t, h, got)
	assert.Equal(t, 1, r.Len())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_CapacityBound(t *testing.T) {
	r := NewRegistry(WithMaxSessions(2))

	require.NoError(t, r.Add("a", &fakeTransport{id: "a"}))
	require.NoError(t, r.Add("b", &fakeTransport{id: "b"}))

	err := r.Add("c", &fakeTransport{id: "c"})
	require.Error(t, err)
	var capErr *ErrCapacityExceeded
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 2, capErr.Max)

	// re-adding a tracked id never trips the limit
	require.NoError(t, r.Add("a", &fakeTransport{id: "a"}))
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_RemoveFreesCapacity(t *testing.T) {
	r := NewRegistry(WithMaxSessions(1))
	h1 := &fakeTransport{id: "a"}
	h2 := &fakeTransport{id: "b"}

	require.NoError(t, r.Add("a", h1))
	require.Error(t, r.Add("b", h2))

	r.Remove("a")
	assert.Equal(t, int32(1), h1.closes.Load())

	require.NoError(t, r.Add("b", h2))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	h := &fakeTransport{id: "a"}
	require.NoError(t, r.Add("a", h))

	r.Remove("a")
	r.Remove("a")
	r.Remove("never-added")
	assert.Equal(t, int32(1), h.closes.Load())
}

func TestRegistry_IdleEviction(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewRegistry(WithClock(clock), WithIdleTimeout(time.Minute))

	idle := &fakeTransport{id: "idle"}
	busy := &fakeTransport{id: "busy"}
	require.NoError(t, r.Add("idle", idle))
	require.NoError(t, r.Add("busy", busy))

	clock.Advance(45 * time.Second)
	_, ok := r.Get("busy") // refreshes the sliding window
	require.True(t, ok)

	clock.Advance(30 * time.Second)
	r.Cleanup()

	assert.Equal(t, 1, r.Len())
	_, ok = r.Get("idle")
	assert.False(t, ok)
	assert.Equal(t, int32(1), idle.closes.Load(), "transport closed exactly once on eviction")
	assert.Equal(t, int32(0), busy.closes.Load())
}

type hookTransport struct {
	id      string
	onClose func()
}

func (t *hookTransport) SessionID() string { return t.id }

func (t *hookTransport) Close() error {
	t.onClose()
	return nil
}

func TestRegistry_SweepDoesNotKillReaddedSessions(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewRegistry(WithClock(clock), WithIdleTimeout(time.Minute))

	// Tearing down one session re-registers the other id with a fresh
	// transport, as a reconnect handoff would. The sweep that evicted the
	// old sessions must not touch the replacements.
	freshA := &fakeTransport{id: "a"}
	freshB := &fakeTransport{id: "b"}
	require.NoError(t, r.Add("a", &hookTransport{id: "a", onClose: func() {
		require.NoError(t, r.Add("b", freshB))
	}}))
	require.NoError(t, r.Add("b", &hookTransport{id: "b", onClose: func() {
		require.NoError(t, r.Add("a", freshA))
	}}))

	clock.Advance(2 * time.Minute)
	r.Cleanup()

	assert.Equal(t, 2, r.Len())
	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Same(t, freshA, got)
	got, ok = r.Get("b")
	require.True(t, ok)
	assert.Same(t, freshB, got)
	assert.Zero(t, freshA.closes.Load())
	assert.Zero(t, freshB.closes.Load())
}

func TestRegistry_GetRefreshesActivity(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewRegistry(WithClock(clock), WithIdleTimeout(time.Minute))

	h := &fakeTransport{id: "a"}
	require.NoError(t, r.Add("a", h))

	// keep touching the session just inside the window
	for i := 0; i < 5; i++ {
		clock.Advance(50 * time.Second)
		_, ok := r.Get("a")
		require.True(t, ok)
		r.Cleanup()
	}
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_StopClosesEverything(t *testing.T) {
	r := NewRegistry()
	handles := make([]*fakeTransport, 5)
	for i := range handles {
		handles[i] = &fakeTransport{id: fmt.Sprintf("s%d", i)}
		require.NoError(t, r.Add(handles[i].id, handles[i]))
	}
	r.StartSweep()

	require.NoError(t, r.Stop())
	assert.Equal(t, 0, r.Len())
	for _, h := range handles {
		assert.Equal(t, int32(1), h.closes.Load())
	}
}

func TestRegistry_StopAggregatesCloseErrors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add("ok", &fakeTransport{id: "ok"}))
	require.NoError(t, r.Add("bad", &fakeTransport{id: "bad", closeErr: errors.New("socket gone")}))

	err := r.Stop()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Equal(t, 0, r.Len())
}
