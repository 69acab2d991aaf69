package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"flowmetrics/internal/domain/flow"
	"flowmetrics/internal/domain/metrics"
)

func newReportCmd() *cobra.Command {
	var (
		project      string
		daysBack     int
		types        []string
		states       []string
		assignees    []string
		filter       string
		weeks        int
		fromSnapshot bool
		saveSnapshot bool
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Produce a flow metrics report",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			metricOpts := metrics.Options{Filter: filter, ThroughputWeeks: weeks}
			if metricOpts.Filter == "" {
				metricOpts.Filter = a.cfg.Metrics.Filter
			}
			if metricOpts.ThroughputWeeks == 0 {
				metricOpts.ThroughputWeeks = a.cfg.Metrics.ThroughputWeeks
			}

			report, err := a.service.Report(ctx, flow.ReportOptions{
				Fetch:        a.fetchOptions(project, daysBack, types, states, assignees),
				Metrics:      metricOpts,
				FromSnapshot: fromSnapshot,
				Snapshot:     saveSnapshot,
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "project name (default from config)")
	cmd.Flags().IntVar(&daysBack, "days-back", 0, "changed-date window in days (default from config)")
	cmd.Flags().StringSliceVar(&types, "type", nil, "work item types to include")
	cmd.Flags().StringSliceVar(&states, "state", nil, "states to include")
	cmd.Flags().StringSliceVar(&assignees, "assignee", nil, "assignees to include")
	cmd.Flags().StringVar(&filter, "filter", "", "CEL expression selecting items, e.g. type != \"Epic\"")
	cmd.Flags().IntVar(&weeks, "weeks", 0, "throughput window in weeks (default from config)")
	cmd.Flags().BoolVar(&fromSnapshot, "from-snapshot", false, "report from the latest stored snapshot")
	cmd.Flags().BoolVar(&saveSnapshot, "save-snapshot", false, "persist fetched items as a snapshot")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}

func printReport(w io.Writer, r *metrics.Report) {
	fmt.Fprintf(w, "Items: %d (excluded %d)\n", r.TotalItems, r.Excluded)
	printSummary(w, "Lead time", r.LeadTime)
	printSummary(w, "Cycle time", r.CycleTime)

	if len(r.Throughput) > 0 {
		fmt.Fprintln(w, "Throughput (closed per week):")
		for _, wc := range r.Throughput {
			fmt.Fprintf(w, "  %s  %d\n", wc.WeekStart.Format("2006-01-02"), wc.Closed)
		}
	}

	printCounts(w, "By state", r.ByState)
	printCounts(w, "By type", r.ByType)
}

func printSummary(w io.Writer, name string, s metrics.Summary) {
	if s.Count == 0 {
		return
	}
	fmt.Fprintf(w, "%s: avg %.1fd, median %.1fd, p85 %.1fd (%d items)\n",
		name, s.AverageDays, s.MedianDays, s.P85Days, s.Count)
}

func printCounts(w io.Writer, name string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", name)
	for k, v := range counts {
		fmt.Fprintf(w, "  %s: %d\n", k, v)
	}
}
