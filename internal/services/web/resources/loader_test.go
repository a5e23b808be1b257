package resources

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type gatedFetch struct {
	mu      sync.Mutex
	calls   []Key
	release chan struct{}
	started chan Key
	err     error
}

func newGatedFetch() *gatedFetch {
	return &gatedFetch{release: make(chan struct{}), started: make(chan Key, 8)}
}

func (g *gatedFetch) fetch(ctx context.Context, key Key) ([]string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, key)
	g.mu.Unlock()
	g.started <- key
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if g.err != nil {
		return nil, g.err
	}
	return []string{key.CampaignID}, nil
}

func (g *gatedFetch) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func waitStarted(t *testing.T, g *gatedFetch) Key {
	t.Helper()
	select {
	case key := <-g.started:
		return key
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not start")
		return Key{}
	}
}

func TestLoaderStartsIdle(t *testing.T) {
	t.Parallel()

	loader := NewLoader(newGatedFetch().fetch)
	snapshot := loader.Snapshot()
	if snapshot.State != StateIdle {
		t.Fatalf("state = %v, want idle", snapshot.State)
	}
	got, err := loader.Wait(context.Background())
	if err != nil || got.State != StateIdle {
		t.Fatalf("Wait() = %v, %v; want idle snapshot", got.State, err)
	}
}

func TestLoaderTransitionsToSuccess(t *testing.T) {
	t.Parallel()

	fetch := newGatedFetch()
	loader := NewLoader(fetch.fetch)
	loader.Load(context.Background(), Key{CampaignID: "camp-1"})
	waitStarted(t, fetch)

	if state := loader.Snapshot().State; state != StateLoading {
		t.Fatalf("state = %v, want loading", state)
	}
	close(fetch.release)

	snapshot, err := loader.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if snapshot.State != StateSuccess {
		t.Fatalf("state = %v, want success", snapshot.State)
	}
	if len(snapshot.Items) != 1 || snapshot.Items[0] != "camp-1" {
		t.Fatalf("items = %v, want [camp-1]", snapshot.Items)
	}
}

func TestLoaderTransitionsToError(t *testing.T) {
	t.Parallel()

	fetch := newGatedFetch()
	fetch.err = errors.New("boom")
	close(fetch.release)
	loader := NewLoader(fetch.fetch)
	loader.Load(context.Background(), Key{CampaignID: "camp-1"})

	snapshot, err := loader.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if snapshot.State != StateError || !errors.Is(snapshot.Err, fetch.err) {
		t.Fatalf("snapshot = %+v, want error state with fetch error", snapshot)
	}
	if len(snapshot.Items) != 0 {
		t.Fatalf("items = %v, want none on error", snapshot.Items)
	}
}

func TestLoaderSameKeyDoesNotRefetch(t *testing.T) {
	t.Parallel()

	fetch := newGatedFetch()
	close(fetch.release)
	loader := NewLoader(fetch.fetch)
	key := Key{CampaignID: "camp-1", UserID: "user-1"}

	loader.Load(context.Background(), key)
	if _, err := loader.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	loader.Load(context.Background(), key)
	if _, err := loader.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if got := fetch.callCount(); got != 1 {
		t.Fatalf("fetch calls = %d, want 1", got)
	}
}

func TestLoaderKeyChangeRefetchesAndDropsStaleResult(t *testing.T) {
	t.Parallel()

	fetch := newGatedFetch()
	loader := NewLoader(fetch.fetch)

	loader.Load(context.Background(), Key{CampaignID: "camp-1"})
	waitStarted(t, fetch)
	loader.Load(context.Background(), Key{CampaignID: "camp-2"})
	waitStarted(t, fetch)
	close(fetch.release)

	snapshot, err := loader.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if snapshot.State != StateSuccess || snapshot.Key.CampaignID != "camp-2" {
		t.Fatalf("snapshot = %+v, want success for camp-2", snapshot)
	}
	if len(snapshot.Items) != 1 || snapshot.Items[0] != "camp-2" {
		t.Fatalf("items = %v, want [camp-2]", snapshot.Items)
	}
	if got := fetch.callCount(); got != 2 {
		t.Fatalf("fetch calls = %d, want 2", got)
	}
}

func TestLoaderUserChangeRefetches(t *testing.T) {
	t.Parallel()

	fetch := newGatedFetch()
	close(fetch.release)
	loader := NewLoader(fetch.fetch)

	loader.Load(context.Background(), Key{CampaignID: "camp-1"})
	_, _ = loader.Wait(context.Background())
	loader.Load(context.Background(), Key{CampaignID: "camp-1", UserID: "user-1"})
	_, _ = loader.Wait(context.Background())

	if got := fetch.callCount(); got != 2 {
		t.Fatalf("fetch calls = %d, want 2", got)
	}
}

func TestLoaderCloseDiscardsInFlightResult(t *testing.T) {
	t.Parallel()

	fetched := make(chan struct{})
	loader := NewLoader(func(ctx context.Context, key Key) ([]string, error) {
		defer close(fetched)
		<-ctx.Done()
		return []string{"late"}, nil
	})
	loader.Load(context.Background(), Key{CampaignID: "camp-1"})
	loader.Close()

	select {
	case <-fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("close did not cancel the fetch")
	}
	// Give the completion a chance to apply if it were going to.
	time.Sleep(10 * time.Millisecond)

	snapshot := loader.Snapshot()
	if snapshot.State != StateLoading || len(snapshot.Items) != 0 {
		t.Fatalf("snapshot = %+v, want frozen loading state", snapshot)
	}
	loader.Load(context.Background(), Key{CampaignID: "camp-2"})
	if got := loader.Snapshot().Key.CampaignID; got != "camp-1" {
		t.Fatalf("key after close = %q, want camp-1", got)
	}
	if _, err := loader.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() after close error = %v", err)
	}
}

func TestLoaderParentCancelStopsFetch(t *testing.T) {
	t.Parallel()

	fetch := newGatedFetch()
	loader := NewLoader(fetch.fetch)
	ctx, cancel := context.WithCancel(context.Background())
	loader.Load(ctx, Key{CampaignID: "camp-1"})
	waitStarted(t, fetch)
	cancel()

	snapshot, err := loader.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if snapshot.State != StateError || !errors.Is(snapshot.Err, context.Canceled) {
		t.Fatalf("snapshot = %+v, want canceled error", snapshot)
	}
}

func TestLoaderWaitHonorsContext(t *testing.T) {
	t.Parallel()

	fetch := newGatedFetch()
	loader := NewLoader(fetch.fetch)
	defer loader.Close()
	loader.Load(context.Background(), Key{CampaignID: "camp-1"})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	snapshot, err := loader.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait() error = %v, want deadline exceeded", err)
	}
	if snapshot.State != StateLoading {
		t.Fatalf("state = %v, want loading", snapshot.State)
	}
}

func TestLoaderReloadRefetchesCurrentKey(t *testing.T) {
	t.Parallel()

	fetch := newGatedFetch()
	close(fetch.release)
	loader := NewLoader(fetch.fetch)

	loader.Reload(context.Background())
	if got := fetch.callCount(); got != 0 {
		t.Fatalf("reload of idle loader fetched %d times", got)
	}
	loader.Load(context.Background(), Key{CampaignID: "camp-1"})
	_, _ = loader.Wait(context.Background())
	loader.Reload(context.Background())
	snapshot, _ := loader.Wait(context.Background())

	if got := fetch.callCount(); got != 2 {
		t.Fatalf("fetch calls = %d, want 2", got)
	}
	if snapshot.Key.CampaignID != "camp-1" || snapshot.State != StateSuccess {
		t.Fatalf("snapshot = %+v, want success for camp-1", snapshot)
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	tests := map[State]string{
		StateIdle:    "idle",
		StateLoading: "loading",
		StateSuccess: "success",
		StateError:   "error",
		State(42):    "unknown",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Fatalf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
