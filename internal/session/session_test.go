package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_StatusIsOverwritten(t *testing.T) {
	sess := New("s-1")
	sess.SetStatus("first")
	sess.SetStatus("second")

	view := sess.Snapshot()
	assert.Equal(t, "s-1", view.ID)
	assert.Equal(t, "second", view.Status)
	assert.Equal(t, StateIdle, view.State)
}

func TestSession_RendererSeesEveryChange(t *testing.T) {
	var mu sync.Mutex
	var views []View
	sess := New("s-1", WithRenderer(RendererFunc(func(v View) {
		mu.Lock()
		defer mu.Unlock()
		views = append(views, v)
	})))

	sess.SetLoading(true)
	sess.SetStatus("submitting")
	sess.SetLoading(false)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, views, 3)
	assert.True(t, views[0].Loading)
	assert.Equal(t, "submitting", views[1].Status)
	assert.False(t, views[2].Loading)
}

func TestSession_CompleteSetsRedirectWithState(t *testing.T) {
	var views []View
	sess := New("s-1", WithRenderer(RendererFunc(func(v View) { views = append(views, v) })))
	sess.SetOrderID("O1")
	sess.SetState(StatePolling)

	sess.Complete("done", "https://videox.com")
	sess.Complete("done again", "https://other.example")

	for _, v := range views {
		if v.State == StateCompleted {
			assert.Equal(t, "https://videox.com", v.RedirectURL)
		}
	}
	view := sess.Snapshot()
	assert.Equal(t, StateCompleted, view.State)
	assert.Equal(t, "done again", view.Status)
	assert.Equal(t, "https://videox.com", view.RedirectURL)

	sess.SetOrderID("O2")
	assert.Empty(t, sess.Snapshot().RedirectURL)
	assert.Equal(t, StateIdle, sess.Snapshot().State)
}

func TestSession_TryBeginLoadingHasOneWinner(t *testing.T) {
	sess := New("s-1")

	const callers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	won := 0
	start := make(chan struct{})
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if sess.TryBeginLoading() {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, won)
	assert.True(t, sess.IsLoading())

	sess.SetLoading(false)
	assert.True(t, sess.TryBeginLoading())
}

func TestSession_Busy(t *testing.T) {
	sess := New("s-1")
	assert.False(t, sess.Busy())

	sess.SetLoading(true)
	assert.True(t, sess.Busy())
	sess.SetLoading(false)

	_, cancel := context.WithCancel(context.Background())
	done := sess.Track(cancel)
	assert.True(t, sess.Busy())

	close(done)
	assert.False(t, sess.Busy())
}

func TestSession_TrackStopsPreviousLoop(t *testing.T) {
	sess := New("s-1")

	firstCtx, firstCancel := context.WithCancel(context.Background())
	firstDone := sess.Track(firstCancel)
	go func() {
		defer close(firstDone)
		<-firstCtx.Done()
	}()

	_, secondCancel := context.WithCancel(context.Background())
	secondDone := sess.Track(secondCancel)

	select {
	case <-firstDone:
	default:
		t.Fatal("first loop still running after second was tracked")
	}
	assert.ErrorIs(t, firstCtx.Err(), context.Canceled)

	close(secondDone)
	<-sess.Done()
}

func TestSession_DoneWithoutLoop(t *testing.T) {
	sess := New("s-1")

	select {
	case <-sess.Done():
	case <-time.After(time.Second):
		t.Fatal("Done should be closed when no loop is attached")
	}

	sess.Cancel()
}

func TestState_Terminal(t *testing.T) {
	assert.False(t, StateIdle.Terminal())
	assert.False(t, StatePolling.Terminal())
	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateExhausted.Terminal())
	assert.True(t, StateErrored.Terminal())
	assert.True(t, StateCancelled.Terminal())
}

func TestStore(t *testing.T) {
	store := NewStore()

	sess, created := store.GetOrCreate("")
	require.True(t, created)
	assert.NotEmpty(t, sess.ID())

	same, created := store.GetOrCreate(sess.ID())
	assert.False(t, created)
	assert.Same(t, sess, same)

	other, created := store.GetOrCreate("unknown")
	assert.True(t, created)
	assert.NotEqual(t, sess.ID(), other.ID())
	assert.Equal(t, 2, store.Len())

	_, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, store.Len())

	loopCtx, cancel := context.WithCancel(context.Background())
	done := sess.Track(cancel)
	go func() {
		defer close(done)
		<-loopCtx.Done()
	}()

	store.Close()
	assert.ErrorIs(t, loopCtx.Err(), context.Canceled)
}

func TestStore_SweepEvictsIdleSessions(t *testing.T) {
	store := NewStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	idle, _ := store.GetOrCreate("")
	finished, _ := store.GetOrCreate("")
	finished.Complete("done", "https://videox.com")
	loading, _ := store.GetOrCreate("")
	loading.SetLoading(true)
	polling, _ := store.GetOrCreate("")
	loopCtx, cancel := context.WithCancel(context.Background())
	done := polling.Track(cancel)
	go func() {
		defer close(done)
		<-loopCtx.Done()
	}()

	now = now.Add(10 * time.Minute)
	recent, _ := store.GetOrCreate("")
	assert.Equal(t, 0, store.Sweep(time.Hour))

	now = now.Add(time.Hour)
	_, ok := store.Get(recent.ID())
	require.True(t, ok)

	assert.Equal(t, 2, store.Sweep(30*time.Minute))
	assert.Equal(t, 3, store.Len())
	_, ok = store.Get(idle.ID())
	assert.False(t, ok)
	_, ok = store.Get(finished.ID())
	assert.False(t, ok)
	_, ok = store.Get(loading.ID())
	assert.True(t, ok)
	_, ok = store.Get(polling.ID())
	assert.True(t, ok)
	assert.NoError(t, loopCtx.Err())

	store.Close()
}

func TestStore_RunStopsWithContext(t *testing.T) {
	store := NewStore()
	store.GetOrCreate("")

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		store.Run(ctx, time.Millisecond, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	require.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
