package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/econext-bridge/internal/econext"
)

// fakeFetcher returns queued results in order, repeating the last one.
type fakeFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	calls   int
	sets    []setCall
	setErr  error
	block   chan struct{}
	active  int
	maxSeen int
}

type fetchResult struct {
	snap econext.Snapshot
	err  error
}

type setCall struct {
	id    string
	value econext.Value
}

func (f *fakeFetcher) FetchAll(ctx context.Context) (econext.Snapshot, error) {
	f.mu.Lock()
	f.active++
	if f.active > f.maxSeen {
		f.maxSeen = f.active
	}
	idx := f.calls
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	f.calls++
	res := f.results[idx]
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()
	return res.snap, res.err
}

func (f *fakeFetcher) SetParam(_ context.Context, id string, value econext.Value) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets = append(f.sets, setCall{id: id, value: value})
	return f.setErr
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func snapshotA() econext.Snapshot {
	return econext.Snapshot{
		econext.ParamUID:        {Value: econext.Text("2L7SDPN6KQ38CIH2401K01U")},
		econext.ParamDeviceName: {Value: econext.Text("ecoMAX360i")},
		"68":                    {Value: econext.Number(7.3)},
		"702":                   {Value: econext.Number(24)},
	}
}

func TestRefresh_SuccessReplacesSnapshot(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{{snap: snapshotA()}}}
	c := New(f, Options{})

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if !c.LastUpdateSuccess() {
		t.Error("LastUpdateSuccess() = false after good refresh")
	}
	if c.LastError() != nil {
		t.Errorf("LastError() = %v, want nil", c.LastError())
	}
	if v, ok := c.GetValue("68"); !ok || v.String() != "7.3" {
		t.Errorf("GetValue(68) = %v, %v", v, ok)
	}
	if _, ok := c.GetValue("999"); ok {
		t.Error("GetValue(999) should be absent")
	}
	if c.LastRefresh().IsZero() {
		t.Error("LastRefresh() not recorded")
	}
}

func TestRefresh_FailureKeepsPreviousSnapshot(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{
		{snap: snapshotA()},
		{err: econext.ErrConnectionFailed},
	}}
	c := New(f, Options{})
	ctx := context.Background()

	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("first Refresh() error = %v", err)
	}
	before := c.Snapshot()

	err := c.Refresh(ctx)
	if !errors.Is(err, econext.ErrConnectionFailed) {
		t.Fatalf("Refresh() error = %v, want ErrConnectionFailed", err)
	}
	if c.LastUpdateSuccess() {
		t.Error("LastUpdateSuccess() = true after failed refresh")
	}
	if !errors.Is(c.LastError(), econext.ErrConnectionFailed) {
		t.Errorf("LastError() = %v", c.LastError())
	}
	if v, ok := c.GetValue("68"); !ok || v.String() != "7.3" {
		t.Errorf("previous snapshot lost: %v, %v", v, ok)
	}
	if c.Snapshot().Len() != before.Len() {
		t.Error("snapshot changed on failure")
	}

	st := c.Status()
	if st.ConsecutiveFailures != 1 || st.LastErrorKind != "connection_failed" || st.ParamCount != 4 {
		t.Errorf("Status() = %+v", st)
	}
}

func TestSet_DoesNotMutateSnapshot(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{{snap: snapshotA()}}}
	c := New(f, Options{})
	c.Refresh(context.Background()) //nolint:errcheck // fixture

	if err := c.Set(context.Background(), "702", econext.Number(25)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if len(f.sets) != 1 || f.sets[0].id != "702" || f.sets[0].value.String() != "25" {
		t.Errorf("SetParam calls = %+v", f.sets)
	}
	if v, _ := c.GetValue("702"); v.String() != "24" {
		t.Errorf("GetValue(702) = %v, want unchanged 24", v)
	}
}

func TestPatch_SwapsSnapshotAndNotifies(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{{snap: snapshotA()}}}
	c := New(f, Options{})
	c.Refresh(context.Background()) //nolint:errcheck // fixture

	held := c.Snapshot()
	var got []Update
	c.AddListener(func(u Update) { got = append(got, u) })

	c.Patch("702", econext.Number(25))

	if v, _ := c.GetValue("702"); v.String() != "25" {
		t.Errorf("GetValue(702) = %v, want 25", v)
	}
	if v, _ := held.Value("702"); v.String() != "24" {
		t.Errorf("previously held snapshot mutated: %v", v)
	}
	if len(got) != 1 || !got[0].Patched || !got[0].Success {
		t.Errorf("listener updates = %+v", got)
	}
}

func TestDeviceIdentity(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{{snap: snapshotA()}}}
	c := New(f, Options{})

	if id := c.DeviceIdentity(); id.UID != econext.UnknownUID || id.Name != econext.DefaultDeviceName {
		t.Errorf("DeviceIdentity() before refresh = %+v", id)
	}

	c.Refresh(context.Background()) //nolint:errcheck // fixture

	if id := c.DeviceIdentity(); id.UID != "2L7SDPN6KQ38CIH2401K01U" || id.Name != "ecoMAX360i" {
		t.Errorf("DeviceIdentity() = %+v", id)
	}
}

func TestListeners_ReceiveEveryAttempt(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{
		{snap: snapshotA()},
		{err: econext.ErrAuthRejected},
	}}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := New(f, Options{Clock: func() time.Time { return at }})

	var updates []Update
	c.AddListener(func(u Update) { updates = append(updates, u) })
	c.AddListener(func(Update) { panic("listener bug") })

	c.Refresh(context.Background()) //nolint:errcheck // fixture
	c.Refresh(context.Background()) //nolint:errcheck // fixture

	if len(updates) != 2 {
		t.Fatalf("updates = %d, want 2", len(updates))
	}
	if !updates[0].Success || updates[1].Success {
		t.Errorf("success flags = %v, %v", updates[0].Success, updates[1].Success)
	}
	if !errors.Is(updates[1].Err, econext.ErrAuthRejected) {
		t.Errorf("second update err = %v", updates[1].Err)
	}
	if updates[1].Snapshot.Len() != 4 {
		t.Error("failed update should carry the retained snapshot")
	}
	if !updates[0].At.Equal(at) {
		t.Errorf("At = %v, want %v", updates[0].At, at)
	}
}

func TestRefresh_Serialized(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{{snap: snapshotA()}}, block: make(chan struct{})}
	c := New(f, Options{})

	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Refresh(context.Background()) //nolint:errcheck // fixture
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(f.block)
	wg.Wait()

	if f.maxSeen != 1 {
		t.Errorf("max concurrent fetches = %d, want 1", f.maxSeen)
	}
	if f.callCount() != 3 {
		t.Errorf("fetches = %d, want 3", f.callCount())
	}
}

func TestRun_InitialAndRequestedRefresh(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{{snap: snapshotA()}}}
	c := New(f, Options{Interval: time.Hour})

	refreshed := make(chan struct{}, 8)
	c.AddListener(func(Update) { refreshed <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	waitFor(t, refreshed, "initial refresh")

	c.RequestRefresh()
	waitFor(t, refreshed, "requested refresh")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	if f.callCount() != 2 {
		t.Errorf("fetches = %d, want 2", f.callCount())
	}
}

func TestRun_TickerRefresh(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{{snap: snapshotA()}}}
	c := New(f, Options{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	deadline := time.After(time.Second)
	for f.callCount() < 3 {
		select {
		case <-deadline:
			t.Fatalf("fetches = %d after 1s, want >= 3", f.callCount())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRequestRefresh_Coalesces(t *testing.T) {
	c := New(&fakeFetcher{results: []fetchResult{{snap: snapshotA()}}}, Options{})

	for range 5 {
		c.RequestRefresh()
	}
	if len(c.refreshRequests) != 1 {
		t.Errorf("pending requests = %d, want 1", len(c.refreshRequests))
	}
}

func TestWaitReady(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{
		{err: econext.ErrConnectionFailed},
		{err: econext.ErrConnectionFailed},
		{snap: snapshotA()},
	}}
	c := New(f, Options{})

	if err := c.WaitReady(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("WaitReady() error = %v", err)
	}
	if f.callCount() != 3 {
		t.Errorf("fetches = %d, want 3", f.callCount())
	}

	failing := New(&fakeFetcher{results: []fetchResult{{err: econext.ErrAuthRejected}}}, Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := failing.WaitReady(ctx, 5*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitReady() error = %v, want deadline exceeded", err)
	}
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}
