package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nerrad567/econext-bridge/internal/controller"
	"github.com/nerrad567/econext-bridge/internal/econext"
	"github.com/nerrad567/econext-bridge/internal/infrastructure/config"
	"github.com/nerrad567/econext-bridge/internal/infrastructure/database"
)

// cleanEnv clears overrides that would leak from the host environment.
func cleanEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configEnv,
		"ECONEXT_DEVICE_HOST",
		"ECONEXT_DEVICE_PORT",
		"ECONEXT_DEVICE_USERNAME",
		"ECONEXT_DEVICE_PASSWORD",
		"ECONEXT_DATABASE_PATH",
		"ECONEXT_MQTT_PORT",
		"ECONEXT_API_PORT",
		"ECONEXT_ENTITIES_FILE",
		"ECONEXT_LOG_LEVEL",
		"ECONEXT_LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

// fakeController serves a minimal allParams response.
func fakeController(t *testing.T, status int) (host, port string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != econext.EndpointAllParams {
			http.NotFound(w, r)
			return
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck // test response
		w.Write([]byte(`{
			"10":  {"value": "2L7SDPN6KQ38CIH2401K01U"},
			"374": {"value": "ecoMAX360i"},
			"68":  {"value": 7.5, "unit": "°C"},
			"702": {"value": 24, "minvDP": 703, "maxv": 30}
		}`))
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	return u.Hostname(), u.Port()
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	cleanEnv(t)
	cmd := newRootCmd()

	want := []string{"run", "pair", "params", "version"}
	for _, name := range want {
		found, _, err := cmd.Find([]string{name})
		if err != nil || found.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if cmd.PersistentFlags().Lookup("config") == nil {
		t.Error("--config flag not registered")
	}
}

func TestRootCommand_ConfigFromEnv(t *testing.T) {
	cleanEnv(t)
	t.Setenv(configEnv, "/etc/econext/config.yaml")

	cmd := newRootCmd()
	if got := cmd.PersistentFlags().Lookup("config").DefValue; got != "/etc/econext/config.yaml" {
		t.Errorf("--config default = %q", got)
	}
}

func TestVersionCommand(t *testing.T) {
	cleanEnv(t)
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, version) || !strings.Contains(out, commit) {
		t.Errorf("version output = %q", out)
	}
}

func TestLoadConfig(t *testing.T) {
	cleanEnv(t)

	t.Run("defaults need a host", func(t *testing.T) {
		if _, err := loadConfig("", nil); err == nil {
			t.Error("loadConfig() should fail without device.host")
		}
	})

	t.Run("override supplies host", func(t *testing.T) {
		dev := deviceFlags{host: "192.168.1.50", port: 8000, username: "admin"}
		cfg, err := loadConfig("", dev.apply)
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.Device.Host != "192.168.1.50" || cfg.Device.Port != 8000 || cfg.Device.Username != "admin" {
			t.Errorf("device = %+v", cfg.Device)
		}
		if cfg.Device.Password != "" {
			t.Error("unset flag overwrote password")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := loadConfig("/nonexistent/config.yaml", nil); err == nil {
			t.Error("loadConfig() should fail with a missing file")
		}
	})
}

func TestParamsCommand(t *testing.T) {
	cleanEnv(t)
	host, port := fakeController(t, http.StatusOK)

	out, err := execute(t, "params", "--host", host, "--port", port)
	if err != nil {
		t.Fatalf("params: %v", err)
	}

	var got map[string]map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(got) != 4 {
		t.Errorf("got %d params, want 4", len(got))
	}
	if got["702"]["minvDP"] != "703" || got["702"]["maxv"] != 30.0 {
		t.Errorf("param 702 = %v", got["702"])
	}
}

func TestParamsCommand_SelectedIDs(t *testing.T) {
	cleanEnv(t)
	host, port := fakeController(t, http.StatusOK)

	out, err := execute(t, "params", "--host", host, "--port", port, "68", "374")
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	var got map[string]map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(got) != 2 || got["68"]["value"] != 7.5 || got["374"]["value"] != "ecoMAX360i" {
		t.Errorf("selected params = %v", got)
	}

	if _, err := execute(t, "params", "--host", host, "--port", port, "9999"); err == nil {
		t.Error("unknown parameter id should fail")
	}
}

func TestParamsCommand_AuthRejected(t *testing.T) {
	cleanEnv(t)
	host, port := fakeController(t, http.StatusUnauthorized)

	_, err := execute(t, "params", "--host", host, "--port", port)
	if !errors.Is(err, econext.ErrAuthRejected) {
		t.Errorf("error = %v, want ErrAuthRejected", err)
	}
}

func TestPairCommand(t *testing.T) {
	cleanEnv(t)
	t.Setenv("ECONEXT_DATABASE_PATH", filepath.Join(t.TempDir(), "econext.db"))
	host, port := fakeController(t, http.StatusOK)

	out, err := execute(t, "pair", "--host", host, "--port", port)
	if err != nil {
		t.Fatalf("pair: %v", err)
	}
	var c controller.Controller
	if err := json.Unmarshal([]byte(out), &c); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if c.UID != "2L7SDPN6KQ38CIH2401K01U" || c.Name != "ecoMAX360i" || c.Host != host || c.ParamCount != 4 {
		t.Errorf("paired controller = %+v", c)
	}

	// The registry persists across invocations.
	_, err = execute(t, "pair", "--host", host, "--port", port)
	var pairErr *controller.PairError
	if !errors.As(err, &pairErr) || pairErr.Reason != controller.ReasonAlreadyPaired {
		t.Errorf("second pair error = %v, want already_configured", err)
	}
}

func TestPairCommand_Reasons(t *testing.T) {
	cleanEnv(t)
	t.Setenv("ECONEXT_DATABASE_PATH", filepath.Join(t.TempDir(), "econext.db"))

	tests := []struct {
		name   string
		status int
		want   string
	}{
		{"bad credentials", http.StatusUnauthorized, controller.ReasonInvalidAuth},
		{"server error", http.StatusInternalServerError, controller.ReasonUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port := fakeController(t, tt.status)
			_, err := execute(t, "pair", "--host", host, "--port", port)
			var pairErr *controller.PairError
			if !errors.As(err, &pairErr) || pairErr.Reason != tt.want {
				t.Errorf("error = %v, want reason %s", err, tt.want)
			}
		})
	}

	t.Run("unreachable", func(t *testing.T) {
		// Reserve a port, then close it so nothing listens there.
		srv := httptest.NewServer(http.NotFoundHandler())
		u, _ := url.Parse(srv.URL)
		srv.Close()

		_, err := execute(t, "pair", "--host", u.Hostname(), "--port", u.Port())
		var pairErr *controller.PairError
		if !errors.As(err, &pairErr) || pairErr.Reason != controller.ReasonCannotConnect {
			t.Errorf("error = %v, want cannot_connect", err)
		}
	})
}

func TestRun_InvalidConfig(t *testing.T) {
	cleanEnv(t)
	if err := run(context.Background(), "/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestRun_ShutdownBeforeControllerReady(t *testing.T) {
	cleanEnv(t)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	configContent := `
device:
  host: "127.0.0.1"
  port: 1
  timeout: 1
  poll_interval: 30

database:
  path: "` + filepath.Join(dir, "econext.db") + `"

logging:
  level: error
  format: text
  output: stderr
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := run(ctx, configPath); err != nil {
		t.Fatalf("run() = %v, want clean shutdown", err)
	}

	db, err := database.Open(config.DatabaseConfig{Path: filepath.Join(dir, "econext.db")})
	if err != nil {
		t.Fatalf("reopening database: %v", err)
	}
	defer db.Close()
	applied, err := db.AppliedVersions(context.Background())
	if err != nil {
		t.Fatalf("AppliedVersions() error = %v", err)
	}
	if len(applied) == 0 {
		t.Error("migrations should be applied even when shutdown is already requested")
	}
}

func TestLoadEntityTable(t *testing.T) {
	table, err := loadEntityTable(config.EntitiesConfig{})
	if err != nil {
		t.Fatalf("default table: %v", err)
	}
	if len(table.Sensors) == 0 {
		t.Error("default table has no sensors")
	}

	if _, err := loadEntityTable(config.EntitiesConfig{File: "/nonexistent/entities.yaml"}); err == nil {
		t.Error("missing override file should fail")
	}
}
