package econext

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Endpoints of the local controller API.
const (
	EndpointAllParams = "/econet/allParams"
	EndpointNewParam  = "/econet/newParam"
)

// Client defaults.
const (
	DefaultPort    = 8080
	DefaultTimeout = 10 * time.Second

	// maxBodySize caps how much of a response is read. Full snapshots of
	// current firmware are well under 1MB.
	maxBodySize = 8 << 20

	// envelopeField is the field name used by firmware that wraps the
	// parameter object in a JSON string.
	envelopeField = "allParams"

	queryParamValue = "newParamValue"
)

// SetParamKey selects the query key that identifies a parameter on write.
type SetParamKey string

// Known query-key conventions.
const (
	SetParamByIndex SetParamKey = "index"
	SetParamByName  SetParamKey = "name"
)

func (k SetParamKey) queryKey() string {
	if k == SetParamByName {
		return "newParamName"
	}
	return "newParamIndex"
}

// ParseSetParamKey converts a config value. Empty selects SetParamByIndex.
func ParseSetParamKey(s string) (SetParamKey, error) {
	switch SetParamKey(s) {
	case "", SetParamByIndex:
		return SetParamByIndex, nil
	case SetParamByName:
		return SetParamByName, nil
	default:
		return "", fmt.Errorf("%w: unknown set_param_key %q", ErrInvalidConfig, s)
	}
}

// Logger is the logging interface used by the client.
type Logger interface {
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

// Config holds the connection settings for one controller.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration

	SetParamKey SetParamKey

	// HTTPClient overrides the transport; tests pass httptest clients.
	HTTPClient *http.Client

	Logger Logger
}

// Client talks to one ecoNET controller over its local HTTP API.
// It never retries; retry cadence belongs to the caller.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Client struct {
	host     string
	port     int
	baseURL  string
	username string
	password string
	timeout  time.Duration
	setKey   SetParamKey
	http     *http.Client
	logger   Logger
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidConfig)
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, cfg.Port)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	setKey, err := ParseSetParamKey(string(cfg.SetParamKey))
	if err != nil {
		return nil, err
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	var logger Logger = noopLogger{}
	if cfg.Logger != nil {
		logger = cfg.Logger
	}

	return &Client{
		host:     cfg.Host,
		port:     cfg.Port,
		baseURL:  "http://" + net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		username: cfg.Username,
		password: cfg.Password,
		timeout:  cfg.Timeout,
		setKey:   setKey,
		http:     httpClient,
		logger:   logger,
	}, nil
}

// Host returns the controller host.
func (c *Client) Host() string { return c.host }

// Port returns the controller port.
func (c *Client) Port() int { return c.port }

// FetchAll downloads every parameter in one request.
//
// Both response shapes are accepted:
//
//	{"0": {...}, "1": {...}}                      direct
//	{"allParams": "{\"0\": {...}, \"1\": {...}}"}  envelope
//
// Entries of the direct object that are not JSON objects are skipped.
func (c *Client) FetchAll(ctx context.Context) (Snapshot, error) {
	body, err := c.get(ctx, EndpointAllParams, nil)
	if err != nil {
		return nil, err
	}

	snap, err := decodeSnapshot(body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("fetched parameters", "count", snap.Len())
	return snap, nil
}

// SetParam writes one parameter. Success means HTTP 200; the response body
// is ignored.
func (c *Client) SetParam(ctx context.Context, id string, value Value) error {
	if id == "" {
		return fmt.Errorf("%w: empty parameter id", ErrInvalidConfig)
	}
	query := url.Values{}
	query.Set(c.setKey.queryKey(), id)
	query.Set(queryParamValue, value.String())

	if _, err := c.get(ctx, EndpointNewParam, query); err != nil {
		return err
	}

	c.logger.Debug("set parameter", "param_id", id, "value", value.String())
	return nil
}

// TestConnection fetches all parameters and extracts the controller identity.
// It is used during pairing only.
func (c *Client) TestConnection(ctx context.Context) (DeviceInfo, error) {
	snap, err := c.FetchAll(ctx)
	if err != nil {
		return DeviceInfo{}, err
	}
	uid, name := snap.Identity()
	return DeviceInfo{UID: uid, Name: name, ParamCount: snap.Len()}, nil
}

// get performs one authenticated GET and maps the outcome to the error kinds.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", ErrConnectionFailed, err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrAuthRejected
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrConnectionFailed, err)
	}
	return body, nil
}

// decodeSnapshot normalises both response shapes to a Snapshot.
func decodeSnapshot(body []byte) (Snapshot, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	if inner, ok := envelopePayload(top); ok {
		var embedded string
		if err := json.Unmarshal(inner, &embedded); err != nil {
			return nil, fmt.Errorf("%w: envelope field is not a string: %w", ErrMalformedPayload, err)
		}
		top = nil
		if err := json.Unmarshal([]byte(embedded), &top); err != nil {
			return nil, fmt.Errorf("%w: embedded payload: %w", ErrMalformedPayload, err)
		}
	}

	snap := make(Snapshot, len(top))
	for id, raw := range top {
		if !isJSONObject(raw) {
			continue
		}
		var p Parameter
		if err := json.Unmarshal(raw, &p); err != nil {
			continue
		}
		snap[id] = p
	}
	return snap, nil
}

// envelopePayload reports whether top is an envelope: it has the allParams
// field, or it has exactly one field and that field is a JSON string.
func envelopePayload(top map[string]json.RawMessage) (json.RawMessage, bool) {
	if raw, ok := top[envelopeField]; ok {
		return raw, true
	}
	if len(top) != 1 {
		return nil, false
	}
	for _, raw := range top {
		if isJSONString(raw) {
			return raw, true
		}
	}
	return nil, false
}

func isJSONObject(raw json.RawMessage) bool {
	return firstByte(raw) == '{'
}

func isJSONString(raw json.RawMessage) bool {
	return firstByte(raw) == '"'
}

func firstByte(raw json.RawMessage) byte {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return b
		}
	}
	return 0
}
