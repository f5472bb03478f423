package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopbridge/backend/internal/domain/reconcile"
)

// ---------------------------------------------------------------------------
// Sync Job
// ---------------------------------------------------------------------------

// SyncJobStatus represents the status of a scheduled sync job
type SyncJobStatus string

const (
	SyncJobStatusPending SyncJobStatus = "PENDING"
	SyncJobStatusRunning SyncJobStatus = "RUNNING"
	SyncJobStatusSuccess SyncJobStatus = "SUCCESS"
	SyncJobStatusPartial SyncJobStatus = "PARTIAL"
	SyncJobStatusSkipped SyncJobStatus = "SKIPPED"
	SyncJobStatusFailed  SyncJobStatus = "FAILED"
)

// SyncJob is one scheduled invocation of a sync run over a set of resource
// keys. Retry of individual writes happens inside the run; a job that
// fails outright simply waits for the next interval.
type SyncJob struct {
	ID          uuid.UUID
	Operation   reconcile.SyncOperation
	Keys        []reconcile.ResourceKey
	Status      SyncJobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time

	// RunID is the identifier of the run the job produced
	RunID uuid.UUID

	// Outcome counts copied from the run's batch report
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
}

// NewSyncJob creates a pending sync job
func NewSyncJob(operation reconcile.SyncOperation, keys []reconcile.ResourceKey) *SyncJob {
	return &SyncJob{
		ID:        uuid.New(),
		Operation: operation,
		Keys:      keys,
		Status:    SyncJobStatusPending,
	}
}

// Start marks the job as running
func (j *SyncJob) Start() {
	now := time.Now()
	j.Status = SyncJobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// CompleteFromRun records the outcome of the run the job produced
func (j *SyncJob) CompleteFromRun(run *reconcile.SyncRun) {
	now := time.Now()
	j.CompletedAt = &now
	j.RunID = run.ID

	switch run.State() {
	case reconcile.RunStateSkipped:
		j.Status = SyncJobStatusSkipped
	case reconcile.RunStateFailed:
		j.Status = SyncJobStatusFailed
		j.Error = run.FailureReason()
	default:
		j.Status = SyncJobStatusSuccess
		if run.Report != nil {
			j.Total = run.Report.Total
			j.Succeeded = run.Report.Succeeded
			j.Failed = run.Report.Failed
			j.Skipped = run.Report.Skipped
			if run.Report.Failed > 0 {
				j.Status = SyncJobStatusPartial
			}
		}
	}
}

// Fail marks the job as failed before a run could finish
func (j *SyncJob) Fail(err string) {
	now := time.Now()
	j.Status = SyncJobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ---------------------------------------------------------------------------
// Ports
// ---------------------------------------------------------------------------

// SyncRunner executes one synchronization pass and returns the finished run
type SyncRunner interface {
	Run(ctx context.Context, operation reconcile.SyncOperation, keys []reconcile.ResourceKey) (*reconcile.SyncRun, error)
}

// KeyCatalog lists the resource keys enabled for synchronization
type KeyCatalog interface {
	ListSyncEnabledKeys(ctx context.Context) ([]reconcile.ResourceKey, error)
}

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

// Config holds the sync scheduler parameters
type Config struct {
	// Enabled indicates whether interval triggering is active
	Enabled bool
	// QuantityInterval is the spacing between quantity runs; zero disables them
	QuantityInterval time.Duration
	// PriceInterval is the spacing between price runs; zero disables them
	PriceInterval time.Duration
	// MaxConcurrentJobs is the worker pool size
	MaxConcurrentJobs int
	// JobTimeout bounds one job end to end
	JobTimeout time.Duration
	// HistoryLimit caps the in-memory job history
	HistoryLimit int
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		QuantityInterval:  5 * time.Minute,
		PriceInterval:     30 * time.Minute,
		MaxConcurrentJobs: 2,
		JobTimeout:        10 * time.Minute,
		HistoryLimit:      100,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.MaxConcurrentJobs <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.QuantityInterval < 0 || c.PriceInterval < 0 {
		return ErrInvalidConfig
	}
	if c.HistoryLimit <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// SyncScheduler
// ---------------------------------------------------------------------------

// SyncScheduler triggers full-catalog sync runs on fixed intervals and
// drains them through a bounded worker pool. Per-resource mutual exclusion
// is the lock manager's job, not the scheduler's: overlapping jobs for the
// same operation degrade to skipped runs, never to double writes.
type SyncScheduler struct {
	cfg    Config
	runner SyncRunner
	keys   KeyCatalog
	logger *zap.Logger

	jobs      chan *SyncJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	historyMu sync.RWMutex
	history   []*SyncJob
}

// NewSyncScheduler creates a new sync scheduler
func NewSyncScheduler(cfg Config, runner SyncRunner, keys KeyCatalog, logger *zap.Logger) (*SyncScheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &SyncScheduler{
		cfg:     cfg,
		runner:  runner,
		keys:    keys,
		logger:  logger,
		jobs:    make(chan *SyncJob, 16),
		history: make([]*SyncJob, 0, cfg.HistoryLimit),
	}, nil
}

// Start starts the worker pool and, when enabled, the interval triggers
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.cfg.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	if s.cfg.Enabled {
		if s.cfg.QuantityInterval > 0 {
			s.wg.Add(1)
			go s.intervalLoop(ctx, reconcile.OperationQuantitySync, s.cfg.QuantityInterval)
		}
		if s.cfg.PriceInterval > 0 {
			s.wg.Add(1)
			go s.intervalLoop(ctx, reconcile.OperationPriceSync, s.cfg.PriceInterval)
		}
	}

	s.logger.Info("sync scheduler started",
		zap.Int("workers", s.cfg.MaxConcurrentJobs),
		zap.Bool("interval_triggers", s.cfg.Enabled),
		zap.Duration("quantity_interval", s.cfg.QuantityInterval),
		zap.Duration("price_interval", s.cfg.PriceInterval),
	)
	return nil
}

// Stop gracefully stops the scheduler, waiting for in-flight jobs up to
// the context deadline
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	close(s.jobs)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("sync scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("sync scheduler stop timed out")
		return ctx.Err()
	}
}

// TriggerSync enqueues one run for the operation over every sync-enabled
// resource. Used by the interval loops and callable directly for on-demand
// runs.
func (s *SyncScheduler) TriggerSync(ctx context.Context, operation reconcile.SyncOperation) error {
	keys, err := s.keys.ListSyncEnabledKeys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		s.logger.Debug("no sync-enabled resources, nothing to schedule",
			zap.String("operation", operation.String()),
		)
		return nil
	}
	return s.SubmitJob(NewSyncJob(operation, keys))
}

// SubmitJob submits a job for execution
func (s *SyncScheduler) SubmitJob(job *SyncJob) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	select {
	case s.jobs <- job:
		s.logger.Debug("sync job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("operation", job.Operation.String()),
			zap.Int("resources", len(job.Keys)),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// intervalLoop enqueues a job for the operation on every tick
func (s *SyncScheduler) intervalLoop(ctx context.Context, operation reconcile.SyncOperation, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.TriggerSync(ctx, operation); err != nil {
				s.logger.Error("scheduled sync trigger failed",
					zap.String("operation", operation.String()),
					zap.Error(err),
				)
			}
		}
	}
}

// worker drains jobs from the queue
func (s *SyncScheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-s.jobs:
			if !ok {
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob executes a single job through the runner
func (s *SyncScheduler) processJob(ctx context.Context, job *SyncJob, workerID int) {
	job.Start()
	s.logger.Info("sync job started",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("operation", job.Operation.String()),
		zap.Int("resources", len(job.Keys)),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	run, err := s.runner.Run(jobCtx, job.Operation, job.Keys)
	if err != nil {
		job.Fail(err.Error())
		s.logger.Error("sync job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("operation", job.Operation.String()),
			zap.Error(err),
		)
		s.addToHistory(job)
		return
	}

	job.CompleteFromRun(run)
	s.logger.Info("sync job finished",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("run_id", run.ID.String()),
		zap.String("status", string(job.Status)),
		zap.Int("total", job.Total),
		zap.Int("succeeded", job.Succeeded),
		zap.Int("failed", job.Failed),
		zap.Int("skipped", job.Skipped),
	)
	s.addToHistory(job)
}

// addToHistory prepends a finished job to the bounded history
func (s *SyncScheduler) addToHistory(job *SyncJob) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*SyncJob{job}, s.history...)
	if len(s.history) > s.cfg.HistoryLimit {
		s.history = s.history[:s.cfg.HistoryLimit]
	}
}

// History returns the most recent finished jobs, newest first
func (s *SyncScheduler) History(limit int) []*SyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	result := make([]*SyncJob, limit)
	copy(result, s.history[:limit])
	return result
}
