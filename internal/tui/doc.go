// Package tui provides terminal user interface components for devenv-ctl.
//
// This package uses the Bubble Tea framework for two interactive screens.
//
// # Environment Picker
//
// The picker lists recorded environments grouped by working tree:
//
//	result, err := tui.RunPicker(records, lifecycle.BootstrapVersion)
//	switch result.Action {
//	case tui.ActionShell:
//	    // Open a shell in result.Record
//	case tui.ActionStatus:
//	    // Print status for result.Record
//	case tui.ActionDestroy:
//	    // Destroy result.Record
//	case tui.ActionQuit:
//	    // Exit
//	}
//
// Header rows are skipped during keyboard navigation (j/k or arrows).
//
// # Overrides Form
//
// RunOverrides collects per-call ensure overrides (distro, machine name,
// user, internal port) and validates them before returning.
//
// # Dependencies
//
// Uses the Charm libraries:
//   - github.com/charmbracelet/bubbletea - TUI framework
//   - github.com/charmbracelet/bubbles - UI components
//   - github.com/charmbracelet/lipgloss - Styling
package tui
