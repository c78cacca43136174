package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:     "events",
	Aliases: []string{"audit-log"},
	Short:   "Display the lifecycle event trail for a project",
	Args:    cobra.NoArgs,
	RunE:    runEvents,
}

var (
	eventsProject string
	eventsJSON    bool
)

func init() {
	eventsCmd.Flags().StringVar(&eventsProject, "project", "", "Project id (default: the current project)")
	eventsCmd.Flags().BoolVar(&eventsJSON, "jsonl", false, "Output events as JSON lines")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	id := eventsProject
	if id == "" {
		id = manager(cmd).ProjectInfo().ProjectID
	}

	events, err := currentApp(cmd).Audit.Events(id)
	if err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}

	if len(events) == 0 {
		logInfo("No events found for project %s", id)
		return nil
	}

	w := cmd.OutOrStdout()
	for _, e := range events {
		if eventsJSON {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to marshal event: %w", err)
			}
			fmt.Fprintln(w, string(data))
			continue
		}
		ts := e.Timestamp.Local().Format("2006-01-02 15:04:05")
		if e.Details != "" {
			fmt.Fprintf(w, "[%s] %-9s %s (%s)\n", ts, e.Type, e.Container, e.Details)
		} else {
			fmt.Fprintf(w, "[%s] %-9s %s\n", ts, e.Type, e.Container)
		}
	}

	return nil
}
