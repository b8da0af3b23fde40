package main

import (
	"encoding/json"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/spacedriveapp/sdcore/internal/wire"
)

type locationRow struct {
	ID            string
	RootPath      string
	IndexMode     string
	WatcherActive bool
}

func newLocationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Manage locations within the open library",
	}
	cmd.AddCommand(newLocationListCmd())
	return cmd
}

func newLocationListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every location registered in --library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := dial(socketPath())
			if err != nil {
				return err
			}
			defer c.Close()

			out, err := c.callLibraryScoped(wire.RequestQuery, "location.list", struct{}{})
			if err != nil {
				return err
			}

			var rows []locationRow
			if err := wire.Unmarshal(out, &rows); err != nil {
				return internalError("decoding location.list response: " + err.Error())
			}

			if flagJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Root Path", "Index Mode", "Watching"})
			for _, r := range rows {
				watching := "no"
				if r.WatcherActive {
					watching = "yes"
				}
				table.Append([]string{r.ID, r.RootPath, r.IndexMode, watching})
			}
			table.Render()
			return nil
		},
	}
}
