package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foodcost/pricefeed/errors"
	"github.com/foodcost/pricefeed/internal/util"
	"github.com/foodcost/pricefeed/logger"
	"github.com/foodcost/pricefeed/market"
	"github.com/foodcost/pricefeed/status"
)

// Scheduler owns the registry of recurring collection jobs. Each job
// runs on its own timer goroutine; different jobs may execute
// concurrently, but a job never overlaps itself: a trigger that finds
// its job already running is dropped, not queued.
type Scheduler struct {
	store      market.Store
	collectors *Registry
	log        *zap.SugaredLogger
	tracker    *status.Tracker
	history    *executionLog

	mu   sync.RWMutex
	jobs map[string]*jobState

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	timeNow func() time.Time
}

// jobState pairs the registered job with its trigger machinery. The
// running flag is the overlap guard; stop ends the job's timer loop.
type jobState struct {
	job     *Job
	cadence Cadence
	running atomic.Bool
	stop    chan struct{}
	trigger chan struct{}
}

// NewScheduler creates a scheduler over an injected storage boundary
// and collector registry. A nil log falls back to the global logger.
func NewScheduler(store market.Store, collectors *Registry, log *zap.SugaredLogger) *Scheduler {
	if log == nil {
		log = logger.Logger
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		store:      store,
		collectors: collectors,
		log:        log,
		tracker:    status.NewTracker(),
		history:    &executionLog{},
		jobs:       make(map[string]*jobState),
		ctx:        ctx,
		cancel:     cancel,
		timeNow:    time.Now,
	}
}

// ScheduleCollection registers a recurring job binding one collector
// kind to a cadence and target set, computes its first trigger time,
// and starts its timer. Scheduling a kind with no registered collector
// is an error.
func (s *Scheduler) ScheduleCollection(kind market.SourceKind, spec Spec) (string, error) {
	if _, ok := s.collectors.Get(kind); !ok {
		return "", errors.Wrapf(errors.ErrInvalidRequest, "no collector registered for source kind %q", kind)
	}

	cadence, recognized := ParseCadence(spec.Cadence)
	if !recognized {
		s.log.Warnw("Unrecognized cadence expression, falling back to hourly",
			logger.FieldCadence, spec.Cadence,
			logger.FieldJobName, spec.Name)
	}

	now := s.timeNow()
	job := &Job{
		ID:            uuid.NewString(),
		Name:          spec.Name,
		Source:        kind,
		CadenceExpr:   spec.Cadence,
		SupplierIDs:   spec.SupplierIDs,
		IngredientIDs: spec.IngredientIDs,
		Active:        true,
		NextRunAt:     cadence.Next(now),
		CreatedAt:     now,
	}

	js := &jobState{
		job:     job,
		cadence: cadence,
		stop:    make(chan struct{}),
		trigger: make(chan struct{}),
	}

	s.mu.Lock()
	s.jobs[job.ID] = js
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runLoop(js)

	s.log.Infow("Collection job scheduled",
		logger.FieldJobID, job.ID,
		logger.FieldJobName, job.Name,
		logger.FieldSource, kind,
		logger.FieldCadence, cadence.String(),
		logger.FieldNextRunAt, job.NextRunAt.Format(time.RFC3339))

	return job.ID, nil
}

// CancelSchedule stops a job's timer and removes it from the registry.
// An in-flight execution is allowed to finish; only future triggers
// stop. Unknown job ids are an error.
func (s *Scheduler) CancelSchedule(jobID string) error {
	s.mu.Lock()
	js, ok := s.jobs[jobID]
	if ok {
		delete(s.jobs, jobID)
	}
	s.mu.Unlock()

	if !ok {
		return errors.NewNotFoundError("schedule %s", jobID)
	}

	close(js.stop)
	s.log.Infow("Collection job cancelled",
		logger.FieldJobID, jobID,
		logger.FieldJobName, js.job.Name)
	return nil
}

// TriggerNow requests an immediate execution of a job, off-cadence. If
// the job is already executing the trigger is dropped, preserving the
// no-self-overlap invariant.
func (s *Scheduler) TriggerNow(jobID string) error {
	s.mu.RLock()
	js, ok := s.jobs[jobID]
	s.mu.RUnlock()

	if !ok {
		return errors.NewNotFoundError("schedule %s", jobID)
	}

	select {
	case js.trigger <- struct{}{}:
	default:
		// Timer loop is busy executing; a second concurrent run is
		// not queued.
		s.log.Debugw("Trigger dropped, job already running", logger.FieldJobID, jobID)
	}
	return nil
}

// Schedules returns a read-only snapshot of all registered jobs.
func (s *Scheduler) Schedules() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Job, 0, len(s.jobs))
	for _, js := range s.jobs {
		job := *js.job
		job.Running = js.running.Load()
		out = append(out, job)
	}
	return out
}

// Statistics summarizes the registry and the scheduler's recent errors.
func (s *Scheduler) Statistics() Stats {
	s.mu.RLock()
	stats := Stats{TotalSchedules: len(s.jobs)}
	for _, js := range s.jobs {
		if js.job.Active {
			stats.ActiveSchedules++
		}
		if js.running.Load() {
			stats.RunningSchedules++
		}
	}
	s.mu.RUnlock()

	stats.RecentErrors = s.tracker.Snapshot().RecentErrors
	return stats
}

// RecentExecutions returns the bounded in-memory execution history,
// oldest first.
func (s *Scheduler) RecentExecutions() []Execution {
	return s.history.snapshot()
}

// Stop ends all job timers and waits for in-flight executions to
// finish. Collectors' scoped resources are released separately via
// Registry.CloseAll.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.log.Infow("Scheduler stopped")
}

// runLoop is one job's timer goroutine: wait for the next trigger time
// (or a manual trigger), execute, recompute, repeat.
func (s *Scheduler) runLoop(js *jobState) {
	defer s.wg.Done()

	for {
		s.mu.RLock()
		next := js.job.NextRunAt
		s.mu.RUnlock()

		timer := time.NewTimer(time.Until(next))

		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-js.stop:
			timer.Stop()
			return
		case <-js.trigger:
			timer.Stop()
			s.execute(js)
		case <-timer.C:
			s.execute(js)
		}
	}
}

// execute runs one job execution if the job is not already running.
// Run bookkeeping (timestamps, next trigger time) is updated whether
// the run succeeded or failed.
func (s *Scheduler) execute(js *jobState) {
	if !js.running.CompareAndSwap(false, true) {
		// Concurrent trigger for a running job is ignored, not queued.
		return
	}
	defer js.running.Store(false)

	started := s.timeNow()
	count, err := s.runCollection(js.job)
	completed := s.timeNow()

	execution := Execution{
		ID:           uuid.NewString(),
		JobID:        js.job.ID,
		Status:       ExecutionStatusCompleted,
		StartedAt:    started,
		CompletedAt:  util.Ptr(completed),
		DurationMs:   int(completed.Sub(started).Milliseconds()),
		Observations: count,
	}

	if err != nil {
		execution.Status = ExecutionStatusFailed
		execution.ErrorMessage = err.Error()
		s.tracker.RecordError(err, "", "")
		s.log.Errorw("Collection job failed",
			logger.FieldJobID, js.job.ID,
			logger.FieldJobName, js.job.Name,
			logger.FieldDurationMS, execution.DurationMs,
			logger.FieldError, err)
	} else {
		s.tracker.RecordSuccess()
		s.log.Infow("Collection job completed",
			logger.FieldJobID, js.job.ID,
			logger.FieldJobName, js.job.Name,
			logger.FieldObservations, count,
			logger.FieldDurationMS, execution.DurationMs)
	}

	s.history.append(execution)

	// Next run is computed on schedule regardless of outcome.
	next := js.cadence.Next(completed)
	s.mu.Lock()
	js.job.LastRunAt = util.Ptr(started)
	js.job.NextRunAt = next
	s.mu.Unlock()
}

// runCollection is the execution body: resolve targets, collect per
// supplier sequentially, validate, persist. A per-supplier failure is
// logged and the loop proceeds to the next supplier; a panic escaping a
// collector is caught here so a bad strategy cannot crash the
// scheduler.
func (s *Scheduler) runCollection(job *Job) (count int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("collection panicked: %v", r)
		}
	}()

	collector, ok := s.collectors.Get(job.Source)
	if !ok {
		return 0, errors.Wrapf(errors.ErrInvalidRequest, "collector for source kind %q no longer registered", job.Source)
	}

	suppliers, err := s.store.ListSuppliers(s.ctx, job.SupplierIDs)
	if err != nil {
		return 0, errors.Wrap(err, "failed to load target suppliers")
	}
	ingredients, err := s.store.ListIngredients(s.ctx, job.IngredientIDs)
	if err != nil {
		return 0, errors.Wrap(err, "failed to load target ingredients")
	}
	if len(suppliers) == 0 || len(ingredients) == 0 {
		return 0, errors.Newf("job %q resolved no targets (%d suppliers, %d ingredients)",
			job.Name, len(suppliers), len(ingredients))
	}

	// Suppliers are processed one at a time so a single source is
	// never hit by parallel requests from the same job.
	for _, supplier := range suppliers {
		observations, err := collector.CollectPrices(s.ctx, supplier, ingredients)
		if err != nil {
			s.tracker.RecordError(err, supplier.ID, "")
			s.log.Warnw("Supplier collection failed, continuing with next supplier",
				logger.FieldJobID, job.ID,
				logger.FieldSupplier, supplier.Name,
				logger.FieldSupplierID, supplier.ID,
				logger.FieldError, err)
			continue
		}

		accepted := collector.ValidateData(observations)
		if len(accepted) == 0 {
			continue
		}

		if err := s.store.InsertObservations(s.ctx, accepted); err != nil {
			s.tracker.RecordError(err, supplier.ID, "")
			s.log.Errorw("Failed to persist observations",
				logger.FieldJobID, job.ID,
				logger.FieldSupplier, supplier.Name,
				logger.FieldSupplierID, supplier.ID,
				logger.FieldCount, len(accepted),
				logger.FieldError, err)
			continue
		}

		count += len(accepted)
	}

	return count, nil
}
