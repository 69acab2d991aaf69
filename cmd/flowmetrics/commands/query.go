package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Build and validate WIQL queries",
	}

	cmd.AddCommand(newQueryBuildCmd())
	cmd.AddCommand(newQueryValidateCmd())

	return cmd
}

func newQueryBuildCmd() *cobra.Command {
	var (
		project   string
		daysBack  int
		types     []string
		states    []string
		assignees []string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Assemble a work item query and print the WIQL text",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			q, err := a.service.BuildQuery(a.fetchOptions(project, daysBack, types, states, assignees))
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), q.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "project name (default from config)")
	cmd.Flags().IntVar(&daysBack, "days-back", 0, "changed-date window in days (default from config)")
	cmd.Flags().StringSliceVar(&types, "type", nil, "work item types to include")
	cmd.Flags().StringSliceVar(&states, "state", nil, "states to include")
	cmd.Flags().StringSliceVar(&assignees, "assignee", nil, "assignees to include")

	return cmd
}

func newQueryValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [wiql|file|-]",
		Short: "Validate WIQL text and print the canonical form",
		Long:  "Validates the given WIQL text or file, or text read from stdin when the argument is \"-\" or omitted.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			text, err := queryText(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			res := a.service.ValidateText(text)
			out := cmd.OutOrStdout()

			if res.Canonical != "" {
				_, _ = fmt.Fprintln(out, res.Canonical)
			}
			if res.Valid {
				_, _ = fmt.Fprintln(out, "OK")
				return nil
			}

			for _, msg := range res.Errors {
				_, _ = fmt.Fprintf(out, "error: %s\n", msg)
			}
			return fmt.Errorf("query failed validation with %d error(s)", len(res.Errors))
		},
	}

	return cmd
}

func queryText(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		// An argument naming an existing file is read; anything else is
		// taken as WIQL text.
		if data, err := os.ReadFile(args[0]); err == nil {
			return strings.TrimSpace(string(data)), nil
		}
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read query from stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("no query text given")
	}
	return text, nil
}
