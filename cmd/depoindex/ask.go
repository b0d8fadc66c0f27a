package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/depolab/depoindex/internal/index"
)

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <run-id> <question...>",
		Short: "Find the topic most relevant to a question",
		Long:  "Embeds the question and returns the stored topic whose segment embedding is nearest by cosine similarity.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer d.Close()

			runID := args[0]
			question := strings.Join(args[1:], " ")

			run, err := d.store.GetRun(runID)
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run %s not found", runID)
			}

			topics, vectors, err := d.store.GetVectors(runID)
			if err != nil {
				return err
			}

			lookup, err := index.NewLookup(d.embedder, vectors, topics)
			if err != nil {
				return err
			}
			topic, score, err := lookup.Ask(cmd.Context(), question)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if topic == index.UnknownTopic {
				fmt.Fprintln(out, dimStyle.Render("no matching topic"))
				return nil
			}
			fmt.Fprintf(out, "%s %s\n", titleStyle.Render(topic), dimStyle.Render(fmt.Sprintf("(similarity %.3f)", score)))
			return nil
		},
	}
}
