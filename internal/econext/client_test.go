package econext

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

// directParams is a trimmed allParams response from an ecoMAX360i.
const directParams = `{
	"0":   {"value": "S024.25", "name": "SoftVer"},
	"10":  {"value": "2L7SDPN6KQ38CIH2401K01U", "name": "UID"},
	"61":  {"value": 48.5, "name": "TempCWU", "unit": "°C"},
	"68":  {"value": 7.3, "name": "TempWthr", "unit": "°C", "info": 2},
	"162": {"value": 2, "name": "WorkMode"},
	"374": {"value": "ecoMAX360i", "name": "Nazwa"},
	"485": {"value": true, "name": "CoolingSupport"},
	"702": {"value": 24, "name": "SummerOn", "minv": 22, "maxv": 30, "minvDP": 703},
	"703": {"value": 22, "name": "SummerOff", "minv": 0, "maxv": 24, "maxvDP": "702"},
	"999": "not an object"
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	port, _ := strconv.Atoi(u.Port())

	client, err := NewClient(Config{
		Host:       u.Hostname(),
		Port:       port,
		Username:   "admin",
		Password:   "password",
		Timeout:    2 * time.Second,
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client, srv
}

func respondJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body)) //nolint:errcheck // test server
	}
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		wantURL string
	}{
		{name: "defaults", cfg: Config{Host: "192.168.1.100"}, wantURL: "http://192.168.1.100:8080"},
		{name: "custom port", cfg: Config{Host: "192.168.1.100", Port: 80}, wantURL: "http://192.168.1.100:80"},
		{name: "ipv6", cfg: Config{Host: "fe80::1", Port: 8080}, wantURL: "http://[fe80::1]:8080"},
		{name: "missing host", cfg: Config{}, wantErr: true},
		{name: "bad port", cfg: Config{Host: "h", Port: 70000}, wantErr: true},
		{name: "bad key", cfg: Config{Host: "h", SetParamKey: "key"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.cfg)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("NewClient() error = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClient() error = %v", err)
			}
			if c.baseURL != tt.wantURL {
				t.Errorf("baseURL = %q, want %q", c.baseURL, tt.wantURL)
			}
			if c.timeout != DefaultTimeout {
				t.Errorf("timeout = %v, want %v", c.timeout, DefaultTimeout)
			}
		})
	}
}

func TestFetchAll_Direct(t *testing.T) {
	var gotUser, gotPass, gotPath string
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		gotPath = r.URL.Path
		respondJSON(directParams)(w, r)
	})

	snap, err := client.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}

	if gotUser != "admin" || gotPass != "password" {
		t.Errorf("basic auth = %q/%q, want admin/password", gotUser, gotPass)
	}
	if gotPath != EndpointAllParams {
		t.Errorf("path = %q, want %q", gotPath, EndpointAllParams)
	}
	if snap.Len() != 9 {
		t.Errorf("Len() = %d, want 9 (non-object entry skipped)", snap.Len())
	}
	if _, ok := snap.Get("999"); ok {
		t.Error("non-object entry should be skipped")
	}

	p, ok := snap.Get("702")
	if !ok {
		t.Fatal("param 702 missing")
	}
	if p.MinVDP != "703" || p.MaxVDP != "" {
		t.Errorf("702 DP pointers = %q/%q, want 703/empty", p.MinVDP, p.MaxVDP)
	}
	if p.MinV == nil || *p.MinV != 22 || p.MaxV == nil || *p.MaxV != 30 {
		t.Errorf("702 static bounds = %v/%v, want 22/30", p.MinV, p.MaxV)
	}
	if q, _ := snap.Get("703"); q.MaxVDP != "702" {
		t.Errorf("703 maxvDP = %q, want 702 (string pointer)", q.MaxVDP)
	}
	if v, _ := snap.Value("485"); v.String() != "1" {
		t.Errorf("boolean value = %q, want 1", v.String())
	}
	if v, _ := snap.Value("0"); v.String() != "S024.25" {
		t.Errorf("software version = %q, want S024.25", v.String())
	}
	if p, _ := snap.Get("68"); p.Info == nil || *p.Info != 2 || p.Unit != "°C" {
		t.Errorf("68 info/unit = %v/%q", p.Info, p.Unit)
	}
}

func TestFetchAll_EnvelopeMatchesDirect(t *testing.T) {
	embedded, err := json.Marshal(directParams)
	if err != nil {
		t.Fatal(err)
	}

	direct, _ := newTestServer(t, respondJSON(directParams))
	wrapped, _ := newTestServer(t, respondJSON(`{"allParams": `+string(embedded)+`}`))
	other, _ := newTestServer(t, respondJSON(`{"data": `+string(embedded)+`}`))

	want, err := direct.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("direct FetchAll() error = %v", err)
	}

	for name, c := range map[string]*Client{"allParams": wrapped, "single field": other} {
		t.Run(name, func(t *testing.T) {
			got, err := c.FetchAll(context.Background())
			if err != nil {
				t.Fatalf("FetchAll() error = %v", err)
			}
			gotJSON, _ := json.Marshal(got)
			wantJSON, _ := json.Marshal(want)
			if string(gotJSON) != string(wantJSON) {
				t.Errorf("envelope snapshot differs:\n got %s\nwant %s", gotJSON, wantJSON)
			}
		})
	}
}

func TestFetchAll_Errors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantErr  error
		wantCode int
	}{
		{
			name:    "unauthorized",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusUnauthorized) },
			wantErr: ErrAuthRejected,
		},
		{
			name:     "server error",
			handler:  func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			wantErr:  ErrUnexpectedStatus,
			wantCode: http.StatusInternalServerError,
		},
		{
			name:     "no content is not success",
			handler:  func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) },
			wantErr:  ErrUnexpectedStatus,
			wantCode: http.StatusNoContent,
		},
		{
			name:    "invalid embedded json",
			handler: respondJSON(`{"allParams": "not valid json {{{"}`),
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "envelope not a string",
			handler: respondJSON(`{"allParams": 42}`),
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "invalid body",
			handler: respondJSON(`<html>`),
			wantErr: ErrMalformedPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestServer(t, tt.handler)

			_, err := client.FetchAll(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("FetchAll() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrAPI) {
				t.Errorf("error %v does not wrap ErrAPI", err)
			}
			if tt.wantCode != 0 {
				var se *StatusError
				if !errors.As(err, &se) || se.Code != tt.wantCode {
					t.Errorf("StatusError = %v, want code %d", err, tt.wantCode)
				}
				if !strings.Contains(err.Error(), strconv.Itoa(tt.wantCode)) {
					t.Errorf("error %q should mention status code", err)
				}
			}
		})
	}
}

func TestFetchAll_ConnectionFailed(t *testing.T) {
	client, srv := newTestServer(t, respondJSON(directParams))
	srv.Close()

	_, err := client.FetchAll(context.Background())
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("FetchAll() error = %v, want ErrConnectionFailed", err)
	}
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		t.Errorf("cause should be preserved, got %v", err)
	}
}

func TestFetchAll_Timeout(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	client.timeout = 50 * time.Millisecond

	_, err := client.FetchAll(context.Background())
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("FetchAll() error = %v, want ErrConnectionFailed", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error %v should carry context.DeadlineExceeded", err)
	}
}

func TestSetParam(t *testing.T) {
	tests := []struct {
		name    string
		key     SetParamKey
		value   Value
		wantKey string
		wantVal string
	}{
		{"index integral", SetParamByIndex, Number(25), "newParamIndex", "25"},
		{"index fractional", SetParamByIndex, Number(21.5), "newParamIndex", "21.5"},
		{"name", SetParamByName, Number(45), "newParamName", "45"},
		{"text", SetParamByIndex, Text("on"), "newParamIndex", "on"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var query url.Values
			var path string
			client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				path = r.URL.Path
				query = r.URL.Query()
				w.WriteHeader(http.StatusOK)
			})
			client.setKey = tt.key

			if err := client.SetParam(context.Background(), "103", tt.value); err != nil {
				t.Fatalf("SetParam() error = %v", err)
			}
			if path != EndpointNewParam {
				t.Errorf("path = %q, want %q", path, EndpointNewParam)
			}
			if got := query.Get(tt.wantKey); got != "103" {
				t.Errorf("%s = %q, want 103", tt.wantKey, got)
			}
			if got := query.Get("newParamValue"); got != tt.wantVal {
				t.Errorf("newParamValue = %q, want %q", got, tt.wantVal)
			}
		})
	}
}

func TestSetParam_Errors(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	if err := client.SetParam(context.Background(), "103", Number(45)); !errors.Is(err, ErrAuthRejected) {
		t.Errorf("SetParam() error = %v, want ErrAuthRejected", err)
	}
	if err := client.SetParam(context.Background(), "", Number(45)); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("SetParam(\"\") error = %v, want ErrInvalidConfig", err)
	}
}

func TestTestConnection(t *testing.T) {
	client, _ := newTestServer(t, respondJSON(directParams))

	info, err := client.TestConnection(context.Background())
	if err != nil {
		t.Fatalf("TestConnection() error = %v", err)
	}
	if info.UID != "2L7SDPN6KQ38CIH2401K01U" {
		t.Errorf("UID = %q", info.UID)
	}
	if info.Name != "ecoMAX360i" {
		t.Errorf("Name = %q", info.Name)
	}
	if info.ParamCount != 9 {
		t.Errorf("ParamCount = %d, want 9", info.ParamCount)
	}
}

func TestTestConnection_Defaults(t *testing.T) {
	client, _ := newTestServer(t, respondJSON(`{"68": {"value": 7.3}}`))

	info, err := client.TestConnection(context.Background())
	if err != nil {
		t.Fatalf("TestConnection() error = %v", err)
	}
	if info.UID != UnknownUID || info.Name != DefaultDeviceName || info.ParamCount != 1 {
		t.Errorf("info = %+v, want defaults with 1 param", info)
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrAuthRejected, "auth_rejected"},
		{&StatusError{Code: 500}, "unexpected_status"},
		{ErrConnectionFailed, "connection_failed"},
		{ErrMalformedPayload, "malformed_payload"},
		{errors.New("x"), "other"},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
