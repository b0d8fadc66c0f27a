package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/depolab/depoindex/internal/export"
	"github.com/depolab/depoindex/internal/index"
	"github.com/depolab/depoindex/internal/store"
)

// handleListRuns lists stored analysis runs.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.orchestrator.Store().ListRuns()
	if err != nil {
		jsonError(w, "failed to list runs: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []store.RunSummary{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"runs": runs})
}

// handleGetRun returns a full run including its table of contents.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run)
}

// handleDeleteRun removes a run and its vectors.
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if err := s.orchestrator.Store().DeleteRun(runID); err != nil {
		jsonError(w, "failed to delete run: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": runID})
}

// handleExportTOC renders the run's table of contents in the requested
// format (markdown by default).
func (s *Server) handleExportTOC(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	s.writeExport(w, r, &export.Document{
		Title: run.Title,
		TOC:   run.TOC,
	}, "toc")
}

// handleExportAnnotated renders the annotated transcript.
func (s *Server) handleExportAnnotated(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	s.writeExport(w, r, &export.Document{
		Title:    run.Title,
		TOC:      run.TOC,
		Sections: run.Sections,
	}, "annotated_transcript")
}

// handleAsk answers a question against a run's segment embeddings.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		jsonError(w, "question is required", http.StatusBadRequest)
		return
	}

	topics, vectors, err := s.orchestrator.Store().GetVectors(run.ID)
	if err != nil {
		jsonError(w, "failed to load vectors: "+err.Error(), http.StatusInternalServerError)
		return
	}

	lookup, err := index.NewLookup(s.orchestrator.Embedder(), vectors, topics)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	topic, score, err := lookup.Ask(r.Context(), req.Question)
	if err != nil {
		jsonError(w, "ask failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"run_id":   run.ID,
		"question": req.Question,
		"topic":    topic,
		"score":    score,
	})
}

// loadRun fetches the run named in the URL, writing the error response on
// failure.
func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*store.Run, bool) {
	runID := chi.URLParam(r, "runID")
	run, err := s.orchestrator.Store().GetRun(runID)
	if err != nil {
		jsonError(w, "failed to load run: "+err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return nil, false
	}
	return run, true
}

var exportContentTypes = map[string]string{
	export.FormatMarkdown: "text/markdown; charset=utf-8",
	export.FormatJSON:     "application/json",
	export.FormatHTML:     "text/html; charset=utf-8",
	export.FormatDOCX:     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// writeExport renders the document in the format named by the ?format=
// query parameter and writes it with a download filename.
func (s *Server) writeExport(w http.ResponseWriter, r *http.Request, doc *export.Document, basename string) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = export.FormatMarkdown
	}
	if format == "md" {
		format = export.FormatMarkdown
	}

	f, err := export.New(format)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	out, err := f.Format(doc)
	if err != nil {
		jsonError(w, "export failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", exportContentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", basename+f.Extension()))
	w.Write(out)
}
