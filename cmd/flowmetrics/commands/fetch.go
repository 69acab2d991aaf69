package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newFetchCmd() *cobra.Command {
	var (
		project   string
		daysBack  int
		types     []string
		states    []string
		assignees []string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch work items and store a snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			items, err := a.service.Fetch(ctx, a.fetchOptions(project, daysBack, types, states, assignees))
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "fetched %d work items\n", len(items))
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "project name (default from config)")
	cmd.Flags().IntVar(&daysBack, "days-back", 0, "changed-date window in days (default from config)")
	cmd.Flags().StringSliceVar(&types, "type", nil, "work item types to include")
	cmd.Flags().StringSliceVar(&states, "state", nil, "states to include")
	cmd.Flags().StringSliceVar(&assignees, "assignee", nil, "assignees to include")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print fetched items as JSON")

	return cmd
}
