package homeassistant

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/econext-bridge/internal/coordinator"
	"github.com/nerrad567/econext-bridge/internal/econext"
	"github.com/nerrad567/econext-bridge/internal/entity"
	"github.com/nerrad567/econext-bridge/internal/infrastructure/mqtt"
)

// Bridge operation constants.
const (
	// BridgeID identifies this bridge in health messages.
	BridgeID = "econext"

	// commandTimeout bounds a single write triggered from MQTT.
	commandTimeout = 15 * time.Second

	// birthTopicSuffix is appended to the discovery prefix; Home Assistant
	// publishes "online" there when it starts.
	birthTopicSuffix = "/status"

	qosAtLeastOnce byte = 1
)

// Bridge exposes the controller's entities to Home Assistant over MQTT
// discovery. It handles:
//   - Publishing retained discovery configs for every entity
//   - Publishing entity state and availability after every coordinator update
//   - Routing Home Assistant commands to entity write operations
//   - Health reporting and graceful shutdown
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	mqtt            MQTTClient
	source          Source
	entities        *entity.Index
	topics          mqtt.Topics
	discoveryPrefix string
	health          *healthReporter

	// publishMu serialises publish passes so two updates cannot interleave
	// and leave the cache out of step with the broker.
	publishMu sync.Mutex

	// State cache for change detection: topic -> last payload.
	stateCache   map[string]string
	stateCacheMu sync.Mutex

	// Shutdown coordination
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context    // Bridge-level context, cancelled on Stop()
	ctxCancel context.CancelFunc // Cancel function for ctx

	logger   Logger
	loggerMu sync.RWMutex
}

// MQTTClient is the interface for MQTT operations. *mqtt.Client satisfies it.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	IsConnected() bool
}

// Source is the coordinator view the bridge needs.
type Source interface {
	Snapshot() econext.Snapshot
	LastUpdateSuccess() bool
	Status() coordinator.Status
}

// Logger is the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options holds configuration for creating a bridge.
type Options struct {
	MQTTClient MQTTClient
	Source     Source
	Entities   *entity.Index

	// UID is the controller identity; all topics are built under it.
	UID string

	DiscoveryPrefix string
	TopicPrefix     string

	Version        string
	HealthInterval time.Duration

	// Logger is an optional structured logger.
	Logger Logger
}

// New creates a bridge. Call Start to publish discovery and subscribe.
func New(opts Options) (*Bridge, error) {
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("%w: MQTT client is required", ErrInvalidOptions)
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("%w: source is required", ErrInvalidOptions)
	}
	if opts.Entities == nil {
		return nil, fmt.Errorf("%w: entities are required", ErrInvalidOptions)
	}
	if opts.UID == "" || opts.UID == econext.UnknownUID {
		return nil, fmt.Errorf("%w: controller UID is required", ErrInvalidOptions)
	}
	if opts.DiscoveryPrefix == "" || opts.TopicPrefix == "" {
		return nil, fmt.Errorf("%w: topic prefixes are required", ErrInvalidOptions)
	}

	ctx, ctxCancel := context.WithCancel(context.Background())
	topics := mqtt.NewTopics(opts.TopicPrefix, opts.UID)

	b := &Bridge{
		mqtt:            opts.MQTTClient,
		source:          opts.Source,
		entities:        opts.Entities,
		topics:          topics,
		discoveryPrefix: opts.DiscoveryPrefix,
		stateCache:      make(map[string]string),
		done:            make(chan struct{}),
		ctx:             ctx,
		ctxCancel:       ctxCancel,
		logger:          opts.Logger,
	}

	b.health = newHealthReporter(healthConfig{
		uid:       opts.UID,
		version:   opts.Version,
		topic:     topics.Health(),
		entities:  opts.Entities.Len(),
		interval:  opts.HealthInterval,
		publisher: opts.MQTTClient,
		status:    opts.Source,
		logger:    b.getLogger,
	})

	return b, nil
}

// Topics returns the topic builder used by the bridge.
func (b *Bridge) Topics() mqtt.Topics {
	return b.topics
}

// Start publishes discovery and current state, subscribes to command and
// Home Assistant birth topics, and starts health reporting.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.health.publish(HealthStarting, "bridge starting"); err != nil {
		b.logError("failed to publish starting status", err)
	}

	if err := b.mqtt.Subscribe(b.topics.AllCommands(), qosAtLeastOnce, b.handleCommand); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logInfo("subscribed to commands", "topic", b.topics.AllCommands())

	birth := b.discoveryPrefix + birthTopicSuffix
	if err := b.mqtt.Subscribe(birth, qosAtLeastOnce, b.handleBirth); err != nil {
		return fmt.Errorf("subscribe to %s: %w", birth, err)
	}

	b.PublishAll()

	b.health.start(ctx)

	b.logInfo("bridge started",
		"uid", b.topics.UID,
		"entities", b.entities.Len())

	return nil
}

// Stop gracefully shuts down the bridge.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)

		// Cancel bridge context to abort in-flight commands
		b.ctxCancel()

		for _, topic := range []string{b.topics.AllCommands(), b.discoveryPrefix + birthTopicSuffix} {
			if err := b.mqtt.Unsubscribe(topic); err != nil && b.mqtt.IsConnected() {
				b.logError("failed to unsubscribe", err, "topic", topic)
			}
		}

		b.health.stop()

		b.wg.Wait()

		b.logInfo("bridge stopped")
	})
}

// HandleUpdate is registered as a coordinator listener. It republishes
// whatever changed: discovery configs (bounds, firmware version), states
// and availability.
func (b *Bridge) HandleUpdate(u coordinator.Update) {
	select {
	case <-b.done:
		return
	default:
	}
	b.publish(u.Snapshot, u.Success)
}

// PublishAll publishes discovery, state and availability for every entity,
// skipping payloads identical to the last ones sent.
func (b *Bridge) PublishAll() {
	b.publish(b.source.Snapshot(), b.source.LastUpdateSuccess())
}

func (b *Bridge) publish(snap econext.Snapshot, success bool) {
	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	published := 0
	for _, e := range b.entities.All() {
		published += b.publishEntity(e, snap, success)
	}

	if published > 0 {
		b.logDebug("published entity updates", "messages", published, "refresh_ok", success)
	}
}

// publishEntity returns the number of messages sent.
// Every read is taken from snap so one pass never mixes two refreshes.
func (b *Bridge) publishEntity(e entity.Entity, snap econext.Snapshot, success bool) int {
	e = entity.At(e, snap, success)
	key := e.Key()
	sent := 0

	cfg, err := json.Marshal(DiscoveryPayload(e, snap, b.topics))
	if err != nil {
		b.logError("failed to encode discovery config", err)
	} else {
		topic := mqtt.Discovery(b.discoveryPrefix, string(e.Capability()), b.topics.UID, key)
		sent += b.publishIfChanged(topic, string(cfg))
	}

	availability := mqtt.PayloadOffline
	if e.Available() {
		availability = mqtt.PayloadOnline
	}
	sent += b.publishIfChanged(b.topics.Availability(key), availability)

	if state, ok := e.State(); ok {
		sent += b.publishIfChanged(b.topics.State(key), state)
	}

	return sent
}

// publishIfChanged publishes payload retained on topic unless it matches the
// cached payload. A failed publish leaves the cache untouched so the next
// pass retries.
func (b *Bridge) publishIfChanged(topic, payload string) int {
	if b.stateUnchanged(topic, payload) {
		return 0
	}
	if err := b.mqtt.Publish(topic, []byte(payload), qosAtLeastOnce, true); err != nil {
		b.logError("publish failed", fmt.Errorf("%s: %w", topic, err))
		return 0
	}
	b.stateCacheMu.Lock()
	b.stateCache[topic] = payload
	b.stateCacheMu.Unlock()
	return 1
}

// stateUnchanged reports whether payload matches the last one published on topic.
func (b *Bridge) stateUnchanged(topic, payload string) bool {
	b.stateCacheMu.Lock()
	defer b.stateCacheMu.Unlock()
	cached, ok := b.stateCache[topic]
	return ok && cached == payload
}

// ClearStateCache forgets everything published so the next pass resends
// it all.
func (b *Bridge) ClearStateCache() {
	b.stateCacheMu.Lock()
	defer b.stateCacheMu.Unlock()

	// Replace with fresh map to allow GC of old entries
	b.stateCache = make(map[string]string)
}

// handleBirth republishes everything when Home Assistant comes online, so
// a restarted Home Assistant with a non-persistent broker still discovers
// the entities.
func (b *Bridge) handleBirth(_ string, payload []byte) error {
	if string(payload) != mqtt.PayloadOnline {
		return nil
	}
	b.logInfo("home assistant online, republishing discovery")
	b.ClearStateCache()
	b.PublishAll()
	return nil
}

// handleCommand routes a payload on <prefix>/<uid>/<key>/set to the entity.
func (b *Bridge) handleCommand(topic string, payload []byte) error {
	select {
	case <-b.done:
		return nil
	default:
	}

	key, ok := b.topics.CommandKey(topic)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}

	e, ok := b.entities.Get(key)
	if !ok {
		b.logWarn("command for unknown entity", "key", key)
		return fmt.Errorf("%w: %s", ErrUnknownEntity, key)
	}

	commandID := uuid.NewString()
	b.logInfo("received command",
		"command_id", commandID,
		"key", key,
		"payload", string(payload))

	b.wg.Add(1)
	defer b.wg.Done()

	ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
	defer cancel()

	if err := entity.Command(ctx, e, string(payload)); err != nil {
		b.logWarn("command failed",
			"command_id", commandID,
			"key", key,
			"error", err)
		// Re-send the current state so Home Assistant drops its optimistic value.
		b.resendState(e)
		return err
	}

	b.logDebug("command applied", "command_id", commandID, "key", key)
	return nil
}

func (b *Bridge) resendState(e entity.Entity) {
	state, ok := e.State()
	if !ok {
		return
	}
	topic := b.topics.State(e.Key())
	if err := b.mqtt.Publish(topic, []byte(state), qosAtLeastOnce, true); err != nil {
		b.logError("publish failed", fmt.Errorf("%s: %w", topic, err))
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
}

func (b *Bridge) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

func (b *Bridge) logError(msg string, err error, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
	}
}

func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

// BridgeMetrics contains bridge data for the API.
type BridgeMetrics struct {
	Connected       bool   `json:"connected"`
	Status          string `json:"status"`
	EntitiesManaged int    `json:"entities_managed"`
	CachedTopics    int    `json:"cached_topics"`
}

// GetMetrics returns current bridge metrics.
func (b *Bridge) GetMetrics() BridgeMetrics {
	status, _ := b.health.current()

	b.stateCacheMu.Lock()
	cached := len(b.stateCache)
	b.stateCacheMu.Unlock()

	return BridgeMetrics{
		Connected:       b.mqtt.IsConnected(),
		Status:          string(status),
		EntitiesManaged: b.entities.Len(),
		CachedTopics:    cached,
	}
}
