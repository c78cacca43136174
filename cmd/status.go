package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/devenv"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/health"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/lifecycle"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show detailed status of the project's dev environment",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))

	// tableHeaderStyle keeps tabs intact for tabwriter.
	tableHeaderStyle = headingStyle.TabWidth(lipgloss.NoTabConversion)
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	rec, err := loadRecord(cmd)
	if err != nil {
		return err
	}
	printStatus(cmd.OutOrStdout(), *rec, time.Now())
	return nil
}

func printStatus(w io.Writer, rec devenv.Record, now time.Time) {
	result := health.Check(rec, lifecycle.BootstrapVersion, now)

	fmt.Fprintln(w, headingStyle.Render("Dev Environment: "+rec.ID))
	fmt.Fprintf(w, "Project: %s\n", rec.ProjectID)
	fmt.Fprintf(w, "Name: %s\n", rec.ProjectName)
	if rec.Worktree != "" {
		fmt.Fprintf(w, "Worktree: %s\n", rec.Worktree)
	}
	fmt.Fprintf(w, "Provider: %s\n", rec.Provider)
	fmt.Fprintf(w, "Status: %s\n", rec.Status)
	fmt.Fprintf(w, "Distro: %s\n", rec.Distro)
	if rec.IP != "" {
		fmt.Fprintf(w, "IP: %s\n", rec.IP)
	}
	if rec.Domain != "" {
		fmt.Fprintf(w, "Domain: %s\n", rec.Domain)
	}
	fmt.Fprintf(w, "Age: %s\n", result.Age)
	fmt.Fprintln(w)

	fmt.Fprintln(w, headingStyle.Render("Health Checks:"))
	fmt.Fprintf(w, "  Container: %s\n", boolStatus(result.ContainerRunning))
	fmt.Fprintf(w, "  Bootstrapped: %s (revision %d of %d)\n",
		boolStatus(result.Bootstrapped), rec.BootstrapVersion, lifecycle.BootstrapVersion)
	fmt.Fprintf(w, "  Address: %s\n", boolStatus(result.Addressable))
}

func boolStatus(b bool) string {
	if b {
		return "✓"
	}
	return "✗"
}
