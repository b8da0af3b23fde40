package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"

	"github.com/spacedriveapp/sdcore/internal/wire"
)

// knownPayloads maps a handler name to a pointer-producing func returning a
// zero value of its typed payload struct, so `sd call` can decode loosely
// typed `key=value` flags into the same shape the handler itself expects
// (action.Decode on the daemon side) instead of shipping a raw string map
// for the handlers this CLI already knows about.
var knownPayloads = map[string]func() any{
	"library.create": func() any { return &struct{ Name, Description string }{} },
	"library.open":   func() any { return &struct{ ID string }{} },
	"library.close":  func() any { return &struct{ ID string }{} },
	"library.rename": func() any { return &struct{ ID, Name string }{} },
	"library.delete": func() any { return &struct{ ID string }{} },
}

// newCallCmd is the escape hatch spec.md §6 implies by "commands mirror
// action kinds one-to-one": any action or query the daemon registers can
// be invoked by name without `sd` needing a dedicated subcommand for it,
// the same role the teacher's generic graph.Client.Do plays underneath
// its per-command wrappers.
func newCallCmd() *cobra.Command {
	var args []string
	var isQuery bool

	cmd := &cobra.Command{
		Use:   "call <action-or-query-name> [key=value ...]",
		Short: "Invoke any registered action or query by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			name := cmdArgs[0]
			raw := make(map[string]string, len(cmdArgs)-1+len(args))
			for _, kv := range append(cmdArgs[1:], args...) {
				parts := strings.SplitN(kv, "=", 2)
				if len(parts) != 2 {
					return userError("argument " + kv + " must be key=value")
				}
				raw[parts[0]] = parts[1]
			}

			payload, err := buildPayload(name, raw)
			if err != nil {
				return err
			}

			kind := wire.RequestAction
			if isQuery {
				kind = wire.RequestQuery
			}

			c, err := dial(socketPath())
			if err != nil {
				return err
			}
			defer c.Close()

			var out wire.RawMessage
			if strings.HasPrefix(name, "library.") {
				out, err = c.call(kind, name, payload)
			} else {
				out, err = c.callLibraryScoped(kind, name, payload)
			}
			if err != nil {
				return err
			}

			return printRaw(out)
		},
	}

	cmd.Flags().StringArrayVar(&args, "arg", nil, "additional key=value payload field (repeatable)")
	cmd.Flags().BoolVar(&isQuery, "query", false, "dispatch as a query instead of an action")
	return cmd
}

// buildPayload decodes raw into the handler's known typed payload via
// mapstructure's weakly-typed input support (every CLI flag arrives as a
// string; mapstructure coerces to the destination field's real type), or
// falls back to shipping raw itself for a handler `sd` doesn't know about.
func buildPayload(name string, raw map[string]string) (any, error) {
	newPayload, ok := knownPayloads[name]
	if !ok {
		return raw, nil
	}

	dst := newPayload()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return nil, internalError("building payload decoder: " + err.Error())
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, userError("decoding arguments for " + name + ": " + err.Error())
	}
	return dst, nil
}

func printRaw(out wire.RawMessage) error {
	if len(out) == 0 {
		fmt.Println("ok")
		return nil
	}

	var generic any
	if err := wire.Unmarshal(out, &generic); err != nil {
		return internalError("decoding response: " + err.Error())
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(generic)
}
