package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"igvalue/ig-value-estimator/internal/repositories"
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(id uuid.UUID)
}

type worker struct {
	analysisRepo repositories.AnalysisRepository
	analyzer     AnalyzerService
	jobQueue     chan uuid.UUID
	concurrency  int
	pollInterval time.Duration
	wg           sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once
	logger       *zap.Logger
}

func NewWorker(
	analysisRepo repositories.AnalysisRepository,
	analyzer AnalyzerService,
	concurrency int,
	queueSize int,
	pollInterval time.Duration,
	logger *zap.Logger,
) Worker {
	if queueSize <= 0 {
		queueSize = 100
	}
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	return &worker{
		analysisRepo: analysisRepo,
		analyzer:     analyzer,
		jobQueue:     make(chan uuid.UUID, queueSize),
		concurrency:  concurrency,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		logger:       logger,
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.logger.Info("Starting worker", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	// Jobs queued before a restart, or dropped from a full queue, are picked
	// up here.
	w.wg.Add(1)
	go w.pollPendingJobs()
}

// Stop implements Worker.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("Stopping worker")
		close(w.stopChan)
		w.wg.Wait()
		w.logger.Info("Worker stopped")
	})
}

// EnqueueJob implements Worker. It never blocks; a full queue leaves the job
// for the poller.
func (w *worker) EnqueueJob(id uuid.UUID) {
	select {
	case <-w.stopChan:
		w.logger.Warn("Worker stopped, cannot enqueue job", zap.String("analysis_id", id.String()))
	case w.jobQueue <- id:
		w.logger.Debug("Job enqueued", zap.String("analysis_id", id.String()))
	default:
		w.logger.Warn("Job queue full, leaving job for poller", zap.String("analysis_id", id.String()))
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			w.logger.Debug("Worker goroutine stopped", zap.Int("worker", workerID))
			return
		case id := <-w.jobQueue:
			if err := w.analyzer.AnalyzeJob(ctx, id); err != nil {
				w.logger.Warn("Analysis job failed",
					zap.Int("worker", workerID),
					zap.String("analysis_id", id.String()),
					zap.Error(err),
				)
			}
		}
	}
}

func (w *worker) pollPendingJobs() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			pendingJobs, err := w.analysisRepo.FindPendingJobs(10)
			if err != nil {
				w.logger.Warn("Failed to fetch pending jobs", zap.Error(err))
				continue
			}

			if len(pendingJobs) > 0 {
				w.logger.Info("Found pending jobs", zap.Int("count", len(pendingJobs)))
			}

			for _, job := range pendingJobs {
				w.EnqueueJob(job.ID)
			}
		}
	}
}
