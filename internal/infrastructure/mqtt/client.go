package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/econext-bridge/internal/infrastructure/config"
)

// Logger receives handler failures and connection events.
// *logging.Logger and *slog.Logger satisfy it.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Availability is the bridge status topic owned by the client. Offline is
// registered as the Last Will, Online is published on every (re)connect and
// Offline again on Close. An empty Topic disables all three.
type Availability struct {
	Topic   string
	Online  string
	Offline string
}

// MessageHandler handles one received message. Handlers run on paho's
// goroutines and must not block for long; a returned error is only logged.
type MessageHandler func(topic string, payload []byte) error

// Client is a paho client that remembers its subscriptions across
// reconnects and keeps the bridge status topic current.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Client struct {
	paho   pahomqtt.Client
	cfg    config.MQTTConfig
	status Availability

	connected atomic.Bool

	subMu         sync.Mutex
	subscriptions map[string]subscription

	hookMu sync.RWMutex
	hooks  hooks
}

type subscription struct {
	qos     byte
	handler MessageHandler
}

// hooks are optional and may be replaced at any time.
type hooks struct {
	onConnect    func()
	onDisconnect func(error)
	logger       Logger
}

// Connect dials the broker and waits up to defaultConnectTimeout for the
// session. Later drops are retried by paho with the configured backoff.
func Connect(cfg config.MQTTConfig, status Availability) (*Client, error) {
	c := &Client{
		cfg:           cfg,
		status:        status,
		subscriptions: make(map[string]subscription),
	}

	opts := buildClientOptions(cfg)
	configureLWT(opts, status)
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.onConnected() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.onLost(err) })

	c.paho = pahomqtt.NewClient(opts)
	if err := c.await(c.paho.Connect(), ErrConnectionFailed, defaultConnectTimeout); err != nil {
		return nil, err
	}

	// The OnConnect handler runs asynchronously and may not have fired yet.
	c.connected.Store(true)
	return c, nil
}

func (c *Client) onConnected() {
	c.connected.Store(true)
	c.resubscribe()
	c.publishStatus(c.status.Online)

	if fn := c.getHooks().onConnect; fn != nil {
		fn()
	}
}

func (c *Client) onLost(err error) {
	c.connected.Store(false)

	h := c.getHooks()
	if h.logger != nil {
		h.logger.Warn("MQTT connection lost", "error", err)
	}
	if h.onDisconnect != nil {
		h.onDisconnect(err)
	}
}

// resubscribe restores every tracked subscription after a reconnect. Tokens
// are awaited off the callback goroutine so paho's router is not blocked.
func (c *Client) resubscribe() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for topic, sub := range c.subscriptions {
		token := c.paho.Subscribe(topic, sub.qos, c.wrapHandler(sub.handler))
		go func() {
			if err := c.await(token, ErrSubscribeFailed, defaultPublishTimeout); err != nil {
				if logger := c.getHooks().logger; logger != nil {
					logger.Warn("MQTT resubscribe failed", "topic", topic, "error", err)
				}
			}
		}()
	}
}

func (c *Client) publishStatus(payload string) pahomqtt.Token {
	if c.status.Topic == "" {
		return nil
	}
	return c.paho.Publish(c.status.Topic, byte(c.cfg.QoS), true, payload)
}

// Close publishes the offline status, waits briefly for it to leave, then
// disconnects. Closing a client that never connected is a no-op.
func (c *Client) Close() error {
	if c.paho == nil {
		return nil
	}

	if c.IsConnected() {
		if token := c.publishStatus(c.status.Offline); token != nil {
			token.WaitTimeout(defaultPublishTimeout)
		}
	}

	c.paho.Disconnect(defaultDisconnectQuiesce)
	c.connected.Store(false)
	return nil
}

// HealthCheck returns ErrNotConnected while the broker link is down.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected reports whether the broker session is up.
func (c *Client) IsConnected() bool {
	return c.paho != nil && c.connected.Load() && c.paho.IsConnected()
}

// SetOnConnect sets a callback run after the initial connect and every reconnect.
func (c *Client) SetOnConnect(fn func()) {
	c.hookMu.Lock()
	c.hooks.onConnect = fn
	c.hookMu.Unlock()
}

// SetOnDisconnect sets a callback run when the connection drops.
func (c *Client) SetOnDisconnect(fn func(err error)) {
	c.hookMu.Lock()
	c.hooks.onDisconnect = fn
	c.hookMu.Unlock()
}

// SetLogger sets the logger for handler failures and connection loss.
func (c *Client) SetLogger(logger Logger) {
	c.hookMu.Lock()
	c.hooks.logger = logger
	c.hookMu.Unlock()
}

func (c *Client) getHooks() hooks {
	c.hookMu.RLock()
	defer c.hookMu.RUnlock()
	return c.hooks
}
