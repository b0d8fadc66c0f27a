package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/depolab/depoindex/internal/chunker"
	"github.com/depolab/depoindex/internal/config"
	"github.com/depolab/depoindex/internal/embed"
	"github.com/depolab/depoindex/internal/llm"
	"github.com/depolab/depoindex/internal/store"
)

// Orchestrator manages the transcript analysis pipeline.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	embedder embed.Embedder
	gemini   *llm.Client
	store    *store.Store
	log      *slog.Logger
	cfg      *config.Config
	chunkCfg chunker.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. gemini may be nil, which disables
// generative analysis.
func NewOrchestrator(cfg *config.Config, embedder embed.Embedder, gemini *llm.Client, st *store.Store, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL()),
		queue:    make(chan *Job, cfg.Pipeline.MaxQueueSize),
		embedder: embedder,
		gemini:   gemini,
		store:    st,
		log:      log,
		cfg:      cfg,
		chunkCfg: chunker.Config{
			WindowLines:  cfg.Pipeline.WindowLines,
			OverlapLines: cfg.Pipeline.OverlapLines,
		},
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.Pipeline.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.embedder, o.gemini, o.store, o.log, o.chunkCfg,
				o.cfg.Pipeline.MaxConcurrentEmbed, o.cfg.Pipeline.NumClusters, o.cfg.Pipeline.NumTopics)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.Pipeline.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Store returns the run store for direct use by API handlers.
func (o *Orchestrator) Store() *store.Store {
	return o.store
}

// Embedder returns the configured embedder, for ask lookups.
func (o *Orchestrator) Embedder() embed.Embedder {
	return o.embedder
}

// Gemini returns the generative client, or nil when disabled.
func (o *Orchestrator) Gemini() *llm.Client {
	return o.gemini
}
