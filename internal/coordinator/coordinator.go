package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/econext-bridge/internal/econext"
)

// DefaultInterval is the polling period when Options.Interval is zero.
const DefaultInterval = 30 * time.Second

// Fetcher is the subset of the wire client the coordinator needs.
// *econext.Client satisfies it.
type Fetcher interface {
	FetchAll(ctx context.Context) (econext.Snapshot, error)
	SetParam(ctx context.Context, id string, value econext.Value) error
}

// Logger is the logging interface used by the coordinator.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Coordinator.
type Options struct {
	// Interval between scheduled refreshes. Zero means DefaultInterval.
	Interval time.Duration

	Logger Logger

	// Clock overrides time.Now; tests use it to pin timestamps.
	Clock func() time.Time
}

// Update is delivered to listeners after every refresh attempt and patch.
type Update struct {
	Snapshot econext.Snapshot
	Success  bool
	Err      error

	// Patched is true when the update came from Patch rather than a fetch.
	Patched bool

	At time.Time
}

// Identity is the controller's stable identity.
type Identity struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// Status summarises the refresh history for health reporting.
type Status struct {
	Success             bool      `json:"success"`
	LastError           string    `json:"last_error,omitempty"`
	LastErrorKind       string    `json:"last_error_kind,omitempty"`
	LastRefresh         time.Time `json:"last_refresh"`
	LastSuccess         time.Time `json:"last_success"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	ParamCount          int       `json:"param_count"`
}

// Coordinator owns the last-known parameter snapshot of one controller.
//
// The snapshot is replaced wholesale on every successful refresh and on
// every Patch; it is never modified in place, so a Snapshot obtained from
// the coordinator stays consistent for as long as the caller holds it.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - At most one refresh is in flight at a time.
type Coordinator struct {
	fetcher  Fetcher
	interval time.Duration
	logger   Logger
	now      func() time.Time

	// refreshMu serialises fetches.
	refreshMu sync.Mutex

	mu          sync.RWMutex
	snap        econext.Snapshot
	success     bool
	lastErr     error
	lastRefresh time.Time
	lastSuccess time.Time
	failures    int

	listenersMu sync.RWMutex
	listeners   []func(Update)

	// refreshRequests has capacity 1 so concurrent requests coalesce.
	refreshRequests chan struct{}
}

// New creates a Coordinator. No fetch happens until Refresh or Run.
func New(fetcher Fetcher, opts Options) *Coordinator {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	var logger Logger = noopLogger{}
	if opts.Logger != nil {
		logger = opts.Logger
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	return &Coordinator{
		fetcher:         fetcher,
		interval:        interval,
		logger:          logger,
		now:             now,
		snap:            econext.Snapshot{},
		refreshRequests: make(chan struct{}, 1),
	}
}

// Interval returns the polling period.
func (c *Coordinator) Interval() time.Duration {
	return c.interval
}

// Refresh fetches a full snapshot. On success the held snapshot is replaced
// and the success flag set; on failure the previous snapshot is kept, the
// error recorded and the flag cleared. The fetch error is returned as is.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	snap, err := c.fetcher.FetchAll(ctx)
	at := c.now()

	c.mu.Lock()
	c.lastRefresh = at
	if err != nil {
		c.success = false
		c.lastErr = err
		c.failures++
	} else {
		c.snap = snap
		c.success = true
		c.lastErr = nil
		c.lastSuccess = at
		c.failures = 0
	}
	update := Update{Snapshot: c.snap, Success: c.success, Err: err, At: at}
	failures := c.failures
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("refresh failed",
			"error", err,
			"kind", econext.ErrorKind(err),
			"consecutive_failures", failures,
		)
	} else {
		c.logger.Debug("refresh ok", "params", snap.Len())
	}

	c.notify(update)
	return err
}

// Snapshot returns the current snapshot. Callers must not modify it.
func (c *Coordinator) Snapshot() econext.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Get looks up a parameter in the current snapshot.
func (c *Coordinator) Get(id string) (econext.Parameter, bool) {
	return c.Snapshot().Get(id)
}

// GetValue returns the value of a parameter in the current snapshot.
func (c *Coordinator) GetValue(id string) (econext.Value, bool) {
	return c.Snapshot().Value(id)
}

// Set writes a parameter to the controller. It does not touch the held
// snapshot; callers follow up with Patch or RequestRefresh.
func (c *Coordinator) Set(ctx context.Context, id string, value econext.Value) error {
	return c.fetcher.SetParam(ctx, id, value)
}

// Patch records a successful write locally by swapping in a copy of the
// snapshot with parameter id set to value, then notifies listeners.
func (c *Coordinator) Patch(id string, value econext.Value) {
	at := c.now()

	c.mu.Lock()
	c.snap = c.snap.With(id, value)
	update := Update{Snapshot: c.snap, Success: c.success, Err: c.lastErr, Patched: true, At: at}
	c.mu.Unlock()

	c.logger.Debug("snapshot patched", "param_id", id, "value", value.String())
	c.notify(update)
}

// DeviceIdentity returns the controller UID and name from the current
// snapshot, with defaults when either is missing.
func (c *Coordinator) DeviceIdentity() Identity {
	uid, name := c.Snapshot().Identity()
	return Identity{UID: uid, Name: name}
}

// LastUpdateSuccess reports whether the most recent refresh succeeded.
func (c *Coordinator) LastUpdateSuccess() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.success
}

// LastError returns the error of the most recent refresh, nil after a success.
func (c *Coordinator) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// LastRefresh returns when the most recent refresh attempt finished.
func (c *Coordinator) LastRefresh() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRefresh
}

// Status returns a summary of the refresh history.
func (c *Coordinator) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Status{
		Success:             c.success,
		LastRefresh:         c.lastRefresh,
		LastSuccess:         c.lastSuccess,
		ConsecutiveFailures: c.failures,
		ParamCount:          c.snap.Len(),
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
		s.LastErrorKind = econext.ErrorKind(c.lastErr)
	}
	return s
}

// AddListener registers fn to receive every Update. Listeners run on the
// goroutine that caused the update and must not block.
func (c *Coordinator) AddListener(fn func(Update)) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, fn)
	c.listenersMu.Unlock()
}

func (c *Coordinator) notify(u Update) {
	c.listenersMu.RLock()
	listeners := make([]func(Update), len(c.listeners))
	copy(listeners, c.listeners)
	c.listenersMu.RUnlock()

	for _, fn := range listeners {
		c.callListener(fn, u)
	}
}

func (c *Coordinator) callListener(fn func(Update), u Update) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("coordinator listener panic recovered", "panic", r)
		}
	}()
	fn(u)
}

// RequestRefresh asks Run for an out-of-schedule refresh. It never blocks;
// requests made while one is pending are merged.
func (c *Coordinator) RequestRefresh() {
	select {
	case c.refreshRequests <- struct{}{}:
	default:
	}
}

// Run refreshes immediately, then every Interval and on each RequestRefresh,
// until ctx is cancelled. Refresh errors are recorded and logged, not returned.
func (c *Coordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Refresh(ctx) //nolint:errcheck // recorded in state and logged

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-c.refreshRequests:
			ticker.Reset(c.interval)
		}
		if ctx.Err() != nil {
			return
		}
		c.Refresh(ctx) //nolint:errcheck // recorded in state and logged
	}
}

// WaitReady retries Refresh until it succeeds, waiting retryDelay between
// attempts. It is used at startup, where nothing can be published until
// the controller identity is known.
func (c *Coordinator) WaitReady(ctx context.Context, retryDelay time.Duration) error {
	for {
		err := c.Refresh(ctx)
		if err == nil {
			return nil
		}
		c.logger.Info("controller not ready, retrying", "retry_in", retryDelay.String())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
	}
}
