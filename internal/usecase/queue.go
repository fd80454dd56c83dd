package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"edurag/internal/domain"
)

// ErrQueueClosed is returned by Enqueue after Close.
var ErrQueueClosed = errors.New("ingest queue closed")

// Ingester is the part of IngestUseCase the queue drives.
type Ingester interface {
	Ingest(ctx context.Context, documentID string) error
}

// IngestQueue hands document ids from the upload path to background workers.
// The outcome of each job is visible only as the document's processing state.
type IngestQueue struct {
	mu     sync.RWMutex
	closed bool
	jobs   chan string
	wg     sync.WaitGroup

	ingester Ingester
	workers  int
	logger   *slog.Logger
}

func NewIngestQueue(ingester Ingester, workers, size int, logger *slog.Logger) *IngestQueue {
	if workers <= 0 {
		workers = 1
	}
	if size < 0 {
		size = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestQueue{
		jobs:     make(chan string, size),
		ingester: ingester,
		workers:  workers,
		logger:   logger,
	}
}

// Start launches the workers. They run until Close; ctx is handed to each ingestion.
func (q *IngestQueue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func(worker int) {
			defer q.wg.Done()
			for id := range q.jobs {
				q.process(ctx, worker, id)
			}
		}(i)
	}
	q.logger.Info("ingest workers started", "workers", q.workers)
}

func (q *IngestQueue) process(ctx context.Context, worker int, id string) {
	// the ingester records success or failure on the document itself
	if err := q.ingester.Ingest(ctx, id); errors.Is(err, domain.ErrNotFound) {
		q.logger.Warn("skipping queued document", "document_id", id, "worker", worker, "error", err)
	}
}

// Enqueue schedules a document for ingestion. It blocks while the queue is full.
func (q *IngestQueue) Enqueue(ctx context.Context, documentID string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- documentID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs and waits for queued ones to finish.
func (q *IngestQueue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	q.wg.Wait()
	q.logger.Info("ingest workers stopped")
}

// Pending returns the number of queued jobs not yet picked up.
func (q *IngestQueue) Pending() int {
	return len(q.jobs)
}
