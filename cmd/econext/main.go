// econext-bridge exposes an ecoNET Next heating controller on the local
// network to Home Assistant.
//
// The bridge polls the controller's local HTTP API, derives entities from
// the raw parameter snapshot, publishes them over MQTT discovery and serves
// a local REST/WebSocket API with Prometheus metrics.
//
// Commands:
//
//	econext-bridge run      run the bridge (default)
//	econext-bridge pair     test a controller and register it
//	econext-bridge params   dump one parameter snapshot as JSON
//	econext-bridge version  print build information
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nerrad567/econext-bridge/internal/econext"
	"github.com/nerrad567/econext-bridge/internal/infrastructure/config"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// configEnv names the environment variable holding the config file path.
const configEnv = "ECONEXT_CONFIG"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

// rootOptions holds flags shared by every command.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "econext-bridge",
		Short:         "Bridge an ecoNET Next heating controller to Home Assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts.configPath)
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv(configEnv),
		"path to the YAML config file (env "+configEnv+"); built-in defaults when empty")

	cmd.AddCommand(
		newRunCmd(opts),
		newPairCmd(opts),
		newParamsCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// deviceFlags overrides the device section of the config from the command line.
type deviceFlags struct {
	host     string
	port     int
	username string
	password string
}

func (f *deviceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.host, "host", "", "controller host (overrides device.host)")
	cmd.Flags().IntVar(&f.port, "port", 0, "controller port (overrides device.port)")
	cmd.Flags().StringVar(&f.username, "username", "", "controller username")
	cmd.Flags().StringVar(&f.password, "password", "", "controller password")
}

func (f *deviceFlags) apply(cfg *config.Config) {
	if f.host != "" {
		cfg.Device.Host = f.host
	}
	if f.port != 0 {
		cfg.Device.Port = f.port
	}
	if f.username != "" {
		cfg.Device.Username = f.username
	}
	if f.password != "" {
		cfg.Device.Password = f.password
	}
}

// loadConfig reads path, or the built-in defaults when path is empty,
// applies override and validates the result.
func loadConfig(path string, override func(*config.Config)) (*config.Config, error) {
	var cfg *config.Config
	if path == "" {
		cfg = config.Default()
	} else {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newDeviceClient builds the wire client for the configured controller.
func newDeviceClient(cfg *config.Config, log econext.Logger) (*econext.Client, error) {
	client, err := econext.NewClient(econext.Config{
		Host:        cfg.Device.Host,
		Port:        cfg.Device.Port,
		Username:    cfg.Device.Username,
		Password:    cfg.Device.Password,
		Timeout:     cfg.GetDeviceTimeout(),
		SetParamKey: econext.SetParamKey(cfg.Device.SetParamKey),
		Logger:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating controller client: %w", err)
	}
	return client, nil
}
