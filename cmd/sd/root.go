package main

import (
	"github.com/spf13/cobra"

	"github.com/spacedriveapp/sdcore/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// Exit codes per spec.md §6: "0 success, 1 user error (validation, not
// found), 2 internal error, 3 daemon unreachable."
const (
	exitOK                = 0
	exitUserError         = 1
	exitInternalError     = 2
	exitDaemonUnreachable = 3
)

// cliError pairs a message with the exit code main() should use, the CLI
// counterpart to the daemon's wire.ErrorBody taxonomy.
type cliError struct {
	code int
	msg  string
}

func (e *cliError) Error() string { return e.msg }

func userError(msg string) error     { return &cliError{code: exitUserError, msg: msg} }
func internalError(msg string) error { return &cliError{code: exitInternalError, msg: msg} }
func unreachableError(msg string) error {
	return &cliError{code: exitDaemonUnreachable, msg: msg}
}

// Global persistent flags, bound in newRootCmd.
var (
	flagConfigPath string
	flagSocket     string
	flagLibrary    string
	flagJSON       bool
	flagYes        bool
)

// newRootCmd builds the sd root command: a thin client that dials
// sdcored's RPC socket and mirrors action/query kinds one-to-one, the same
// "cmd/*.go calls into a shared Engine" shape as the teacher's CLI, except
// the "Engine" lives in another process reached over internal/wire framing
// instead of an in-process method call.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sd",
		Short:         "Spacedrive CLI",
		Long:          "sd talks to a running sdcored daemon over its local RPC socket, mirroring action and query kinds one-to-one.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "daemon config file path (for resolving the default socket path)")
	cmd.PersistentFlags().StringVar(&flagSocket, "socket", "", "override the RPC socket path")
	cmd.PersistentFlags().StringVar(&flagLibrary, "library", "", "library id to open for library-scoped commands")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagYes, "yes", "y", false, "auto-confirm destructive actions (also: SD_CLI_YES=1)")

	cmd.AddCommand(newLibraryCmd())
	cmd.AddCommand(newLocationCmd())
	cmd.AddCommand(newDeviceCmd())
	cmd.AddCommand(newCallCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// socketPath resolves the daemon socket the same way sdcored itself does:
// daemon config file (if present) then the XDG default, so `sd` needs no
// flags at all when the daemon is running with its own default config.
func socketPath() string {
	if flagSocket != "" {
		return flagSocket
	}
	path := flagConfigPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		cfg = config.DefaultConfig()
	}
	return config.SocketPath(cfg)
}
