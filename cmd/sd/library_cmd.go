package main

import (
	"encoding/json"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/spacedriveapp/sdcore/internal/wire"
)

// libraryDescriptor mirrors internal/library.Descriptor's wire shape
// (msgpack field names, not json tags — see internal/wire's codec note).
type libraryDescriptor struct {
	ID            string
	Name          string
	Description   string
	SchemaVersion int
}

func newLibraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage libraries",
	}
	cmd.AddCommand(newLibraryCreateCmd())
	cmd.AddCommand(newLibraryRenameCmd())
	cmd.AddCommand(newLibraryDeleteCmd())
	cmd.AddCommand(newLibraryListCmd())
	return cmd
}

func newLibraryCreateCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create and open a new library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(socketPath())
			if err != nil {
				return err
			}
			defer c.Close()

			out, err := c.call(wire.RequestAction, "library.create", struct {
				Name        string
				Description string
			}{Name: args[0], Description: description})
			if err != nil {
				return err
			}
			return printLibrary(out)
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "library description")
	return cmd
}

func newLibraryRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a library",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(socketPath())
			if err != nil {
				return err
			}
			defer c.Close()

			_, err = c.call(wire.RequestAction, "library.rename", struct {
				ID   string
				Name string
			}{ID: args[0], Name: args[1]})
			if err != nil {
				return err
			}
			color.Green("renamed %s to %q", args[0], args[1])
			return nil
		},
	}
}

func newLibraryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a closed library's on-disk directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := confirmDestructive("deleting library " + args[0]); err != nil {
				return err
			}

			c, err := dial(socketPath())
			if err != nil {
				return err
			}
			defer c.Close()

			_, err = c.call(wire.RequestAction, "library.delete", struct{ ID string }{ID: args[0]})
			if err != nil {
				return err
			}
			color.Green("deleted library %s", args[0])
			return nil
		},
	}
}

func newLibraryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every known library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := dial(socketPath())
			if err != nil {
				return err
			}
			defer c.Close()

			out, err := c.call(wire.RequestQuery, "library.list", struct{}{})
			if err != nil {
				return err
			}

			var libs []libraryDescriptor
			if err := wire.Unmarshal(out, &libs); err != nil {
				return internalError("decoding library.list response: " + err.Error())
			}

			if flagJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(libs)
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Name", "Description", "Schema"})
			for _, l := range libs {
				table.Append([]string{l.ID, l.Name, l.Description, itoa(l.SchemaVersion)})
			}
			table.Render()
			return nil
		},
	}
}

func printLibrary(out wire.RawMessage) error {
	var desc libraryDescriptor
	if err := wire.Unmarshal(out, &desc); err != nil {
		return internalError("decoding library response: " + err.Error())
	}
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(desc)
	}
	color.Green("library %s (%s) ready", desc.Name, desc.ID)
	return nil
}
