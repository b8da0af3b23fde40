package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spacedriveapp/sdcore/internal/wire"
)

// newStatusCmd reports whether sdcored is reachable over its RPC socket,
// the CLI's cheapest possible health check — dial, issue one core query,
// done — mirroring the teacher's status command's role of "show what's
// configured and reachable" without needing a dedicated daemon status
// action of its own.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the sdcored daemon is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := socketPath()
			c, err := dial(path)
			if err != nil {
				return err
			}
			defer c.Close()

			if _, err := c.call(wire.RequestQuery, "library.list", struct{}{}); err != nil {
				return err
			}

			if flagJSON {
				fmt.Printf("{\"reachable\": true, \"socket\": %q}\n", path)
				return nil
			}
			color.Green("sdcored is reachable at %s", path)
			return nil
		},
	}
}
