package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func runsCmd() *cobra.Command {
	var deleteID string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored analysis runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := buildDeps(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer d.Close()

			out := cmd.OutOrStdout()

			if deleteID != "" {
				if err := d.store.DeleteRun(deleteID); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %s\n", successStyle.Render("deleted"), deleteID)
				return nil
			}

			runs, err := d.store.ListRuns()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, dimStyle.Render("no runs stored"))
				return nil
			}

			for _, r := range runs {
				status := successStyle.Render(r.Status)
				if r.Status != "completed" {
					status = errorStyle.Render(r.Status)
				}
				llm := ""
				if r.LLMUsed {
					llm = keyIssueStyle.Render(" ai")
				}
				fmt.Fprintf(out, "%s  %s  %s%s  %s\n",
					r.ID,
					titleStyle.Render(r.Title),
					status,
					llm,
					dimStyle.Render(r.CreatedAt.Format("2006-01-02 15:04")),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&deleteID, "delete", "", "delete the run with this ID instead of listing")
	return cmd
}
