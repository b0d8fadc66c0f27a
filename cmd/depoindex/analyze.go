package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/depolab/depoindex/internal/chunker"
	"github.com/depolab/depoindex/internal/pipeline"
	"github.com/depolab/depoindex/internal/transcript"
)

func analyzeCmd() *cobra.Command {
	var (
		titleFlag string
		useAI     bool
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <transcript-file>",
		Short: "Analyze a deposition transcript",
		Long:  "Parse a transcript, cluster its segments into topics, and store the resulting table of contents as a run.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !transcript.IsSupportedExtension(path) {
				return fmt.Errorf("unsupported file type %q (supported: .txt .pdf .docx .html)", filepath.Ext(path))
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			var logOut io.Writer = io.Discard
			if verbose {
				logOut = cmd.ErrOrStderr()
			}
			d, err := buildDeps(logOut)
			if err != nil {
				return err
			}
			defer d.Close()

			gemini := d.gemini
			if !useAI {
				gemini = nil
			}
			if useAI && gemini == nil {
				return fmt.Errorf("--ai requires a Gemini API key (set GEMINI_API_KEY)")
			}

			w := pipeline.NewWorker(d.embedder, gemini, d.store, d.log,
				chunker.Config{
					WindowLines:  d.cfg.Pipeline.WindowLines,
					OverlapLines: d.cfg.Pipeline.OverlapLines,
				},
				d.cfg.Pipeline.MaxConcurrentEmbed,
				d.cfg.Pipeline.NumClusters,
				d.cfg.Pipeline.NumTopics,
			)

			now := time.Now()
			job := &pipeline.Job{
				ID:        uuid.NewString(),
				RunID:     uuid.NewString(),
				Status:    pipeline.StatusQueued,
				Phase:     "queued",
				Filename:  filepath.Base(path),
				Title:     titleFlag,
				UseLLM:    gemini != nil,
				CreatedAt: now,
				UpdatedAt: now,
			}
			job.SetFileData(data)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", dimStyle.Render("Analyzing"), path)

			w.Process(context.Background(), job)

			snap := job.Snapshot()
			if snap.Status == pipeline.StatusFailed {
				return fmt.Errorf("analysis failed: %v", snap.Progress.Errors)
			}

			run, err := d.store.GetRun(snap.RunID)
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run %s not found after processing", snap.RunID)
			}

			if snap.Status == pipeline.StatusDupSkipped {
				fmt.Fprintf(out, "%s identical transcript already analyzed as run %s\n",
					dimStyle.Render("Skipped:"), run.ID)
			}
			renderRunSummary(out, run)
			renderTOC(out, run.TOC)
			for _, e := range snap.Progress.Errors {
				fmt.Fprintf(out, "%s %s\n", errorStyle.Render("warning:"), e)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&titleFlag, "title", "", "override the transcript title")
	cmd.Flags().BoolVar(&useAI, "ai", false, "enable generative topic analysis (requires Gemini API key)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline phases to stderr")
	return cmd
}
