package main

import (
	"github.com/spf13/cobra"

	"github.com/spacedriveapp/sdcore/internal/config"
)

// newReloadCmd sends SIGHUP to a running daemon, identified by its PID
// file, the teacher's sendSIGHUP pattern repurposed from "reload the sync
// engine's token cache" to "re-read sdcored.toml's log level".
func newReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Signal a running daemon to re-read its config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return sendSIGHUP(config.PIDFilePath(resolvedCfg))
		},
	}
}
