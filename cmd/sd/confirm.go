package main

import (
	"os"

	"github.com/manifoldco/promptui"
	"github.com/mattn/go-isatty"

	"github.com/spacedriveapp/sdcore/internal/config"
)

// confirmDestructive implements spec §7's destructive-action confirmation
// policy: --yes or SD_CLI_YES=1 auto-confirms; a non-interactive session
// (no TTY) with neither set refuses rather than risk blocking forever;
// an interactive TTY prompts via promptui, the teacher's pattern of
// gating irreversible operations behind an explicit yes/no (pause.go's
// confirmation for a resume after a big-delete-safety trip).
func confirmDestructive(action string) error {
	if flagYes || config.CLIYesFromEnv() {
		return nil
	}

	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return userError(action + " requires confirmation; pass --yes or set SD_CLI_YES=1 in non-interactive sessions")
	}

	prompt := promptui.Prompt{
		Label:     action + " — are you sure",
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		return userError(action + " not confirmed")
	}
	return nil
}
