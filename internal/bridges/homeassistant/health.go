package homeassistant

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/econext-bridge/internal/coordinator"
)

// DefaultHealthInterval applies when Options.HealthInterval is zero.
const DefaultHealthInterval = 30 * time.Second

// StatusProvider reports the polling history. *coordinator.Coordinator
// satisfies it.
type StatusProvider interface {
	Status() coordinator.Status
}

// healthConfig is fixed for the lifetime of a reporter.
type healthConfig struct {
	uid      string
	version  string
	topic    string
	entities int
	interval time.Duration

	publisher MQTTClient
	status    StatusProvider

	// logger is consulted on every failure so SetLogger on the bridge
	// takes effect immediately.
	logger func() Logger
}

// healthReporter publishes a retained HealthMessage on the health topic
// every interval, plus "starting" and "stopping" around the loop.
type healthReporter struct {
	cfg     healthConfig
	started time.Time

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func newHealthReporter(cfg healthConfig) *healthReporter {
	if cfg.interval <= 0 {
		cfg.interval = DefaultHealthInterval
	}
	return &healthReporter{cfg: cfg, started: time.Now(), done: make(chan struct{})}
}

func (h *healthReporter) start(ctx context.Context) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		tick := time.NewTicker(h.cfg.interval)
		defer tick.Stop()

		for {
			if err := h.publishCurrent(); err != nil {
				h.logFailure(err)
			}
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case <-tick.C:
			}
		}
	}()
}

// stop ends the loop and publishes "stopping". Later calls do nothing.
func (h *healthReporter) stop() {
	h.once.Do(func() {
		close(h.done)
		h.wg.Wait()
		if err := h.publish(HealthStopping, ""); err != nil {
			h.logFailure(err)
		}
	})
}

func (h *healthReporter) publishCurrent() error {
	return h.publish(h.current())
}

// current is healthy only while the broker is connected and the last
// controller refresh succeeded.
func (h *healthReporter) current() (HealthStatus, string) {
	if h.cfg.publisher == nil || !h.cfg.publisher.IsConnected() {
		return HealthDegraded, "MQTT disconnected"
	}
	if h.cfg.status == nil {
		return HealthHealthy, ""
	}

	switch st := h.cfg.status.Status(); {
	case st.Success:
		return HealthHealthy, ""
	case st.LastErrorKind != "":
		return HealthDegraded, "controller refresh failing: " + st.LastErrorKind
	default:
		return HealthDegraded, "controller not yet polled"
	}
}

func (h *healthReporter) publish(status HealthStatus, reason string) error {
	if h.cfg.publisher == nil {
		return nil
	}

	var refresh coordinator.Status
	if h.cfg.status != nil {
		refresh = h.cfg.status.Status()
	}
	msg := NewHealthMessage(BridgeID, h.cfg.uid, h.cfg.version, status, refresh, h.cfg.entities, h.started)
	msg.Reason = reason

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return h.cfg.publisher.Publish(h.cfg.topic, payload, qosAtLeastOnce, true)
}

func (h *healthReporter) logFailure(err error) {
	if h.cfg.logger == nil {
		return
	}
	if logger := h.cfg.logger(); logger != nil {
		logger.Error("health publish failed", "topic", h.cfg.topic, "error", err)
	}
}
