package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/depolab/depoindex/internal/export"
)

func exportCmd() *cobra.Command {
	var (
		format    string
		outPath   string
		annotated bool
	)

	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Export a run's table of contents or annotated transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer d.Close()

			run, err := d.store.GetRun(args[0])
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run %s not found", args[0])
			}

			doc := &export.Document{
				Title: run.Title,
				TOC:   run.TOC,
			}
			basename := "toc"
			if annotated {
				doc.Sections = run.Sections
				basename = "annotated_transcript"
			}

			if format == "md" {
				format = export.FormatMarkdown
			}
			f, err := export.New(format)
			if err != nil {
				return err
			}
			out, err := f.Format(doc)
			if err != nil {
				return err
			}

			if outPath == "" {
				if format == export.FormatDOCX {
					outPath = basename + f.Extension()
				} else {
					cmd.OutOrStdout().Write(out)
					return nil
				}
			}
			if err := os.WriteFile(outPath, out, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", successStyle.Render("wrote"), outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", export.FormatMarkdown, "output format: markdown, json, html, docx")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&annotated, "annotated", false, "export the annotated transcript instead of the TOC")
	return cmd
}
