package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSnapshotsCmd() *cobra.Command {
	var (
		project string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List stored work item snapshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if a.snapshots == nil {
				return fmt.Errorf("no database configured, set database.dsn to store snapshots")
			}

			if project == "" {
				project = a.cfg.Azure.Project
			}

			snaps, err := a.snapshots.List(ctx, project, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(snaps) == 0 {
				_, _ = fmt.Fprintln(out, "no snapshots")
				return nil
			}
			for _, s := range snaps {
				_, _ = fmt.Fprintf(out, "%s  %s  %d items  %s\n",
					s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.ItemCount, s.Project)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "project name (default from config)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum snapshots to list")

	return cmd
}
