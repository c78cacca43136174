package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/health"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/lifecycle"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ps"},
	Short:   "List all recorded dev environments",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	records, err := manager(cmd).List()
	if err != nil {
		return fmt.Errorf("failed to list dev environments: %w", err)
	}

	if len(records) == 0 {
		logInfo("No dev environments found. Create one with: devenv-ctl ensure")
		return nil
	}

	now := time.Now()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, tableHeaderStyle.Render("PROJECT\tCONTAINER\tIP\tAGE\tWORKTREE\tSTATUS"))
	fmt.Fprintln(w, "-------\t---------\t--\t---\t--------\t------")

	for _, rec := range records {
		status := health.GetSummary(rec, lifecycle.BootstrapVersion)
		ip := rec.IP
		if ip == "" {
			ip = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.ProjectID, rec.ID, ip, health.GetAge(rec, now), rec.Worktree, formatStatus(status))
	}

	return w.Flush()
}

func formatStatus(status health.Status) string {
	switch status {
	case health.StatusHealthy:
		return "✓ healthy"
	case health.StatusNotBootstrapped:
		return "⚠ not-bootstrapped"
	case health.StatusNoAddress:
		return "⚠ no-address"
	case health.StatusStopped:
		return "● stopped"
	case health.StatusMissing:
		return "✗ missing"
	default:
		return string(status)
	}
}
