package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedwagon-io/weatherflux/internal/lib/logger/sl"
)

func TestStore_ReloadSwapsSnapshot(t *testing.T) {
	path := writeConfig(t, `{"tags": {"*": {"v": 1}}}`)
	store, err := NewStore(sl.Discard(), path)
	require.NoError(t, err)

	first := store.Load()

	var calls int
	store.OnChange(func(prev, next *Snapshot) {
		calls++
		assert.Same(t, first, prev)
		assert.NotSame(t, prev, next)
	})

	require.NoError(t, os.WriteFile(path, []byte(`{"tags": {"*": {"v": 2}}, "isu-mode": "strict"}`), 0o644))
	require.NoError(t, store.Reload())

	second := store.Load()
	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, second.Strict())
	v, _ := second.Engine().Tags["*"].Get("v")
	assert.Equal(t, 2.0, v)
	assert.Equal(t, 1, calls)
}

func TestStore_ReloadFailureKeepsSnapshot(t *testing.T) {
	path := writeConfig(t, `{"filters": ["obs_st"]}`)
	store, err := NewStore(sl.Discard(), path)
	require.NoError(t, err)

	before := store.Load()
	var failures []error
	store.OnError(func(err error) { failures = append(failures, err) })

	require.NoError(t, os.WriteFile(path, []byte(`{"filters": `), 0o644))
	assert.ErrorIs(t, store.Reload(), ErrInvalid)
	assert.Same(t, before, store.Load())
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], ErrInvalid)

	require.NoError(t, os.Remove(path))
	assert.ErrorIs(t, store.Reload(), ErrNotFound)
	assert.Same(t, before, store.Load())
}

func TestNewStore_Failure(t *testing.T) {
	_, err := NewStore(sl.Discard(), writeConfig(t, ``))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestStore_WatchStopsOnCancel(t *testing.T) {
	store, err := NewStore(sl.Discard(), writeConfig(t, `{"filters": []}`))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Watch(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
}
