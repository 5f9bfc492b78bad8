package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/econext-bridge/internal/econext"
	"github.com/nerrad567/econext-bridge/internal/infrastructure/logging"
)

func newParamsCmd(opts *rootOptions) *cobra.Command {
	var dev deviceFlags

	cmd := &cobra.Command{
		Use:   "params [id...]",
		Short: "Fetch one parameter snapshot and print it as JSON",
		Long: `Params downloads every parameter from the controller once and prints
the normalised snapshot keyed by parameter ID. Pass IDs to print only those.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath, dev.apply)
			if err != nil {
				return err
			}
			log := logging.NewWithWriter(quietLogging(cfg.Logging), version, cmd.ErrOrStderr())

			client, err := newDeviceClient(cfg, log)
			if err != nil {
				return err
			}

			snap, err := client.FetchAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetching parameters (%s): %w", econext.ErrorKind(err), err)
			}

			if len(args) > 0 {
				selected := make(econext.Snapshot, len(args))
				for _, id := range args {
					p, ok := snap.Get(id)
					if !ok {
						return fmt.Errorf("parameter %s not found", id)
					}
					selected[id] = p
				}
				snap = selected
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		},
	}
	dev.register(cmd)
	return cmd
}
