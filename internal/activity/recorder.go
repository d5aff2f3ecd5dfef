package activity

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type worker struct {
	id     int
	pool   chan chan Entry
	jobs   chan Entry
	logger *slog.Logger
}

func (w *worker) start(wg *sync.WaitGroup, write func(Entry)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			w.pool <- w.jobs
			entry, ok := <-w.jobs
			if !ok {
				w.logger.Debug("activity worker stopped", "worker_id", w.id)
				return
			}
			write(entry)
		}
	}()
}

type RecorderConfig struct {
	Workers      int
	QueueSize    int
	WriteTimeout time.Duration
}

// AsyncRecorder queues entries and writes them from a worker pool.
// A full queue drops the entry with a warning; write errors are logged and swallowed.
type AsyncRecorder struct {
	repo         RepositoryAPI
	logger       *slog.Logger
	writeTimeout time.Duration

	queue   chan Entry
	pool    chan chan Entry
	workers int
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	once    sync.Once
}

func NewAsyncRecorder(repo RepositoryAPI, cfg RecorderConfig, logger *slog.Logger) *AsyncRecorder {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}

	r := &AsyncRecorder{
		repo:         repo,
		logger:       logger,
		writeTimeout: writeTimeout,
		queue:        make(chan Entry, queueSize),
		pool:         make(chan chan Entry, workers),
		workers:      workers,
	}

	for i := 0; i < workers; i++ {
		w := &worker{id: i, pool: r.pool, jobs: make(chan Entry), logger: logger}
		w.start(&r.wg, r.write)
	}

	r.wg.Add(1)
	go r.dispatch()

	logger.Info("activity recorder started", "workers", workers, "queue_size", queueSize)
	return r
}

func (r *AsyncRecorder) dispatch() {
	defer r.wg.Done()

	for entry := range r.queue {
		jobs := <-r.pool
		jobs <- entry
	}

	// queue closed and drained: release every worker
	for i := 0; i < r.workers; i++ {
		jobs := <-r.pool
		close(jobs)
	}
}

func (r *AsyncRecorder) Record(_ context.Context, entry Entry) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.logger.Warn("activity recorder closed, dropping entry", "action", entry.Action, "company_id", entry.CompanyID)
		return
	}

	select {
	case r.queue <- entry:
	default:
		r.logger.Warn("activity queue full, dropping entry",
			"action", entry.Action,
			"company_id", entry.CompanyID,
			"queue_capacity", cap(r.queue))
	}
}

func (r *AsyncRecorder) write(entry Entry) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("activity write panicked", "action", entry.Action, "panic", rec)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	if err := r.repo.Create(ctx, ToDataModel(entry)); err != nil {
		r.logger.Error("failed to record activity",
			"action", entry.Action,
			"company_id", entry.CompanyID,
			"user_id", entry.UserID,
			"error", err)
	}
}

// Shutdown stops intake and waits for queued entries to be written or ctx to expire.
func (r *AsyncRecorder) Shutdown(ctx context.Context) error {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("activity recorder shutdown complete")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
