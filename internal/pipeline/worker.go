package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/depolab/depoindex/internal/chunker"
	"github.com/depolab/depoindex/internal/cluster"
	"github.com/depolab/depoindex/internal/embed"
	"github.com/depolab/depoindex/internal/index"
	"github.com/depolab/depoindex/internal/llm"
	"github.com/depolab/depoindex/internal/store"
	"github.com/depolab/depoindex/internal/transcript"
)

// How many segments each embedding task covers.
const embedBatchSize = 32

// Worker processes a single analysis job.
type Worker struct {
	embedder embed.Embedder
	gemini   *llm.Client
	store    *store.Store
	log      *slog.Logger
	chunkCfg chunker.Config

	maxConcurrentEmbed int
	numClusters        int
	numTopics          int
}

func NewWorker(embedder embed.Embedder, gemini *llm.Client, st *store.Store, log *slog.Logger, chunkCfg chunker.Config, maxEmbed, numClusters, numTopics int) *Worker {
	if maxEmbed <= 0 {
		maxEmbed = 5
	}
	if numClusters <= 0 {
		numClusters = 5
	}
	if numTopics <= 0 {
		numTopics = 5
	}
	return &Worker{
		embedder:           embedder,
		gemini:             gemini,
		store:              st,
		log:                log,
		chunkCfg:           chunkCfg,
		maxConcurrentEmbed: maxEmbed,
		numClusters:        numClusters,
		numTopics:          numTopics,
	}
}

// Process runs the full analysis pipeline for a job: parse, chunk, embed,
// cluster, label, and store. The generative stage degrades gracefully: a
// Gemini failure downgrades the run instead of failing it.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "run_id", job.RunID)

	// Phase 1: Parse.
	job.SetStatus(StatusParsing, "parsing")
	reader, err := transcript.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	tr, err := reader.Read(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if job.Title != "" {
		tr.Title = job.Title
	}

	contentHash := ContentHashHex([]byte(tr.FullText()))
	job.SetContentHash(contentHash)

	// Phase 1.5: Dedup check against stored runs.
	if existingID, err := w.store.FindRunByHash(contentHash); err != nil {
		log.Warn("dedup check failed, proceeding", "error", err)
	} else if existingID != "" {
		log.Info("duplicate transcript, skipping", "existing_run_id", existingID)
		job.SetRunID(existingID)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	}

	// Phase 2: Chunk into line windows.
	job.SetStatus(StatusChunking, "chunking")
	segments := chunker.Split(tr, w.chunkCfg)
	job.SetTotalSegments(len(segments))
	estTokens := 0
	for _, s := range segments {
		estTokens += chunker.EstimateTokens(s.Text)
	}
	log.Info("chunked transcript", "segments", len(segments), "pages", tr.PageCount(), "est_tokens", estTokens)

	if len(segments) == 0 {
		log.Warn("no segments produced")
		job.AddError("no transcript content")
		job.SetStatus(StatusFailed, "chunking")
		return
	}

	// Phase 3: Embed segments with bounded concurrency.
	job.SetStatus(StatusEmbedding, "embedding")
	vectors, embedErrs := w.embedSegments(ctx, job, segments)
	for _, e := range embedErrs {
		job.AddError(e)
	}
	hadErrors := len(embedErrs) > 0

	// Phase 4: Cluster and label.
	var entries []index.Entry
	segTopics := make([]string, len(segments))

	embedded, embeddedIdx := compactVectors(vectors)
	if len(embedded) >= 2 {
		job.SetStatus(StatusClustering, "clustering")
		k := w.numClusters
		if k > len(embedded) {
			k = len(embedded)
		}
		result, err := cluster.KMeans(embedded, k)
		if err != nil {
			log.Error("clustering failed", "error", err)
			job.AddError(fmt.Sprintf("cluster: %s", err))
			hadErrors = true
		} else {
			job.SetStatus(StatusLabeling, "labeling")
			texts := make([]string, len(embedded))
			for i, origIdx := range embeddedIdx {
				texts[i] = segments[origIdx].Text
			}
			names := cluster.Labels(cluster.GroupTexts(texts, result.Labels))

			clustered := make([]chunker.Segment, len(embedded))
			for i, origIdx := range embeddedIdx {
				clustered[i] = segments[origIdx]
			}
			entries = index.FromClusters(clustered, result.Labels, names)
			for i, origIdx := range embeddedIdx {
				segTopics[origIdx] = names[result.Labels[i]]
			}
		}
	} else {
		log.Warn("not enough embedded segments to cluster", "embedded", len(embedded))
	}

	// Fall back to heuristic entries when clustering produced nothing.
	if len(entries) == 0 {
		entries = index.Heuristic(tr)
		log.Info("heuristic fallback", "entries", len(entries))
	}

	// Phase 5: Generative enrichment, optional.
	toc := &index.TOC{Title: tr.Title}
	llmUsed := false
	if job.UseLLM && w.gemini != nil {
		llmEntries, clusters, enhanced := w.generativeAnalysis(ctx, log, job, tr)
		if len(llmEntries) > 0 || enhanced != "" {
			llmUsed = true
			entries = index.Merge(entries, llmEntries)
			toc.Clusters = clusters
			toc.EnhancedMarkdown = enhanced
		}
	}
	job.SetLLMUsed(llmUsed)

	toc.Entries = index.FilterAndSort(entries)
	sections := index.Annotate(entries)
	job.SetTopicsFound(len(toc.Entries))
	log.Info("analysis complete", "entries", len(toc.Entries), "sections", len(sections), "llm_used", llmUsed)

	if len(toc.Entries) == 0 {
		job.AddError("no topics produced")
		job.SetStatus(StatusFailed, "labeling")
		return
	}

	// Phase 6: Persist the run and its vectors.
	job.SetStatus(StatusStoring, "storing")
	run := &store.Run{
		ID:           job.RunID,
		Title:        tr.Title,
		SourceFile:   job.Filename,
		Status:       string(StatusCompleted),
		LLMUsed:      llmUsed,
		SegmentCount: len(segments),
		ContentHash:  contentHash,
		TOC:          toc,
		Sections:     sections,
	}
	if hadErrors {
		run.Status = string(StatusPartial)
	}
	if err := w.store.SaveRun(run); err != nil {
		log.Error("save run failed", "error", err)
		job.AddError(fmt.Sprintf("store run: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}
	if len(embedded) > 0 {
		topics := make([]string, len(embedded))
		for i, origIdx := range embeddedIdx {
			topics[i] = segTopics[origIdx]
		}
		if err := w.store.SaveVectors(job.RunID, topics, embedded); err != nil {
			log.Error("save vectors failed", "error", err)
			job.AddError(fmt.Sprintf("store vectors: %s", err))
			hadErrors = true
		}
	}

	if hadErrors {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}

// embedSegments embeds all segments in batches with bounded concurrency
// and per-batch retries. A failed batch leaves nil vectors for its
// segments; the error messages are returned for job bookkeeping.
func (w *Worker) embedSegments(ctx context.Context, job *Job, segments []chunker.Segment) ([][]float32, []string) {
	vectors := make([][]float32, len(segments))

	p := pool.New().WithMaxGoroutines(w.maxConcurrentEmbed)
	var mu sync.Mutex
	var errs []string

	for start := 0; start < len(segments); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(segments) {
			end = len(segments)
		}
		start, end := start, end
		p.Go(func() {
			texts := chunker.Texts(segments[start:end])

			var batch [][]float32
			var lastErr error
			for attempt := range MaxRetries {
				batch, lastErr = w.embedder.Embed(ctx, texts)
				if lastErr == nil || !IsRetryable(lastErr) {
					break
				}
				w.log.Warn("retryable embedding error", "batch_start", start, "attempt", attempt, "error", lastErr)
				select {
				case <-time.After(Backoff(attempt)):
				case <-ctx.Done():
					lastErr = ctx.Err()
				}
				if ctx.Err() != nil {
					break
				}
			}

			mu.Lock()
			defer mu.Unlock()
			if lastErr != nil {
				errs = append(errs, fmt.Sprintf("embed segments %d-%d: %s", start, end-1, lastErr))
				return
			}
			copy(vectors[start:end], batch)
			job.AddSegmentsEmbedded(len(batch))
		})
	}
	p.Wait()

	return vectors, errs
}

// generativeAnalysis runs the Gemini stages with retries. Failures are
// logged and recorded but never fail the job.
func (w *Worker) generativeAnalysis(ctx context.Context, log *slog.Logger, job *Job, tr *transcript.Transcript) ([]index.Entry, []llm.ClusterSummary, string) {
	var topics []llm.Topic
	var lastErr error
	for attempt := range MaxRetries {
		topics, lastErr = w.gemini.GenerateTopics(ctx, tr.FullText(), w.numTopics)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		log.Warn("retryable topic generation error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			lastErr = ctx.Err()
		}
	}
	if lastErr != nil {
		log.Warn("topic generation failed, continuing without", "error", lastErr)
		job.AddError(fmt.Sprintf("gemini topics: %s", lastErr))
		return nil, nil, ""
	}
	if len(topics) == 0 {
		return nil, nil, ""
	}

	clusters, err := w.gemini.RefineClusters(ctx, topics, 3)
	if err != nil {
		log.Warn("cluster refinement failed, continuing without", "error", err)
		job.AddError(fmt.Sprintf("gemini clusters: %s", err))
	}

	enhanced, err := w.gemini.EnhancedTOC(ctx, topics)
	if err != nil {
		log.Warn("enhanced toc failed, continuing without", "error", err)
		job.AddError(fmt.Sprintf("gemini toc: %s", err))
	}

	return index.FromTopics(topics), clusters, enhanced
}

// compactVectors returns the non-nil vectors and their original indexes.
func compactVectors(vectors [][]float32) ([][]float32, []int) {
	var out [][]float32
	var idx []int
	for i, v := range vectors {
		if v != nil {
			out = append(out, v)
			idx = append(idx, i)
		}
	}
	return out, idx
}
