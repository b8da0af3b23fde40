package main

import (
	"encoding/json"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/spacedriveapp/sdcore/internal/wire"
)

type deviceRow struct {
	ID      string
	Name    string
	IsLocal bool
}

func newDeviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Manage devices paired into the open library",
	}
	cmd.AddCommand(newDeviceListCmd())
	return cmd
}

func newDeviceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every device paired into --library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := dial(socketPath())
			if err != nil {
				return err
			}
			defer c.Close()

			out, err := c.callLibraryScoped(wire.RequestQuery, "device.list", struct{}{})
			if err != nil {
				return err
			}

			var rows []deviceRow
			if err := wire.Unmarshal(out, &rows); err != nil {
				return internalError("decoding device.list response: " + err.Error())
			}

			if flagJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Name", "Local"})
			for _, r := range rows {
				local := ""
				if r.IsLocal {
					local = "*"
				}
				table.Append([]string{r.ID, r.Name, local})
			}
			table.Render()
			return nil
		},
	}
}
