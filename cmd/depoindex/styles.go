package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/depolab/depoindex/internal/index"
	"github.com/depolab/depoindex/internal/store"
)

var (
	// titleStyle for section headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// successStyle for success indicators
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// errorStyle for error indicators
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// keyIssueStyle highlights key-issue topics
	keyIssueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	// boxStyle for summary boxes
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

// renderRunSummary prints a completed run as a bordered summary box.
func renderRunSummary(w io.Writer, run *store.Run) {
	status := successStyle.Render(run.Status)
	if run.Status != "completed" {
		status = errorStyle.Render(run.Status)
	}

	topics := 0
	if run.TOC != nil {
		topics = len(run.TOC.Entries)
	}

	content := fmt.Sprintf("%s %s\n%s %s\n%s %s\n%s %d segments, %d topics",
		dimStyle.Render("Run:"), run.ID,
		dimStyle.Render("Title:"), titleStyle.Render(run.Title),
		dimStyle.Render("Status:"), status,
		dimStyle.Render("Found:"), run.SegmentCount, topics,
	)
	fmt.Fprintln(w, boxStyle.Render(content))
}

// renderTOC prints the table of contents entries.
func renderTOC(w io.Writer, toc *index.TOC) {
	if toc == nil || len(toc.Entries) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no topics found"))
		return
	}
	fmt.Fprintln(w, titleStyle.Render("Table of Contents"))
	for _, e := range toc.Entries {
		topic := e.Topic
		if e.IsKeyIssue {
			topic = keyIssueStyle.Render(topic + " ★")
		}
		fmt.Fprintf(w, "  %s %s\n", topic, dimStyle.Render(fmt.Sprintf("(page %d, line %d)", e.Page, e.Line)))
	}
}
