// Package service runs report jobs: a bounded queue, a fixed worker pool and a
// per job fan out over stores
package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"storepulse/internal/core/tz"
	perr "storepulse/internal/platform/errors"
	"storepulse/internal/platform/logger"
	"storepulse/internal/platform/metrics"
	"storepulse/internal/services/reports/domain"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Config controls concurrency and result retention
type Config struct {
	JobWorkers    int // goroutines draining the queue; <=0 -> 1
	QueueSize     int // pending jobs before Trigger fails; <=0 -> 1
	EntityWorkers int // stores computed in parallel inside one job; <=0 -> 1

	Retention    time.Duration // age after which results are removed; 0 disables
	CleanupEvery time.Duration // janitor period; <=0 -> 1h
}

// Option customizes a Service
type Option func(*Service)

// WithClock replaces the wall clock, used for created and completed stamps
func WithClock(now func() time.Time) Option { return func(s *Service) { s.clock = now } }

// WithIDs replaces the job id generator
func WithIDs(next func() string) Option { return func(s *Service) { s.newID = next } }

// Service owns the job queue and the workers that drain it
type Service struct {
	In   Inputs
	Jobs domain.JobStore
	Sink domain.ResultSink
	Agg  *Aggregator
	Cfg  Config

	m     *jobMetrics
	queue chan string

	// mu orders Trigger sends against the shutdown drain
	mu     sync.RWMutex
	closed bool

	clock func() time.Time
	newID func() string
}

var _ domain.ServicePort = (*Service)(nil)

// New constructs the report service, zones resolves store timezones
func New(
	in Inputs,
	jobs domain.JobStore,
	sink domain.ResultSink,
	zones *tz.Converter,
	cfg Config,
	reg *metrics.Registry,
	opts ...Option,
) *Service {
	if in == nil {
		panic("reports.Service requires non nil inputs")
	}
	if jobs == nil {
		panic("reports.Service requires a non nil JobStore")
	}
	if sink == nil {
		panic("reports.Service requires a non nil ResultSink")
	}
	if zones == nil {
		panic("reports.Service requires a timezone converter")
	}
	if reg == nil {
		reg = metrics.NewBare()
	}
	cfg.JobWorkers = max(cfg.JobWorkers, 1)
	cfg.QueueSize = max(cfg.QueueSize, 1)
	cfg.EntityWorkers = max(cfg.EntityWorkers, 1)
	if cfg.CleanupEvery <= 0 {
		cfg.CleanupEvery = time.Hour
	}

	s := &Service{
		In:    in,
		Jobs:  jobs,
		Sink:  sink,
		Agg:   &Aggregator{In: in, Zones: zones},
		Cfg:   cfg,
		queue: make(chan string, cfg.QueueSize),
		clock: time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(s)
	}
	s.m = newJobMetrics(reg, func() float64 { return float64(len(s.queue)) })
	return s
}

// Trigger records a Running job and queues it without waiting
// a full queue fails the job at once and returns Unavailable with its id
func (s *Service) Trigger(ctx context.Context) (string, error) {
	id := s.newID()
	job := domain.Job{ID: id, Status: domain.StatusRunning, CreatedAt: s.clock().UTC()}
	if err := s.Jobs.Create(ctx, job); err != nil {
		return "", err
	}

	l := logger.C(logger.WithJob(ctx, id)).With().Str("mod", "reports").Logger()

	s.mu.RLock()
	reason := ""
	switch {
	case s.closed:
		reason = "shutting down"
	default:
		select {
		case s.queue <- id:
		default:
			reason = "queue full"
		}
	}
	s.mu.RUnlock()

	if reason == "" {
		l.Info().Int("queued", len(s.queue)).Msg("reports: job queued")
		return id, nil
	}

	s.reject(ctx, id, reason)
	l.Warn().Str("reason", reason).Msg("reports: job rejected")
	return id, perr.Unavailablef("report job rejected: %s", reason)
}

func (s *Service) reject(ctx context.Context, id, reason string) {
	out := domain.Outcome{CompletedAt: s.clock().UTC(), Error: reason}
	if err := s.Jobs.Transition(ctx, id, domain.StatusFailed, out); err != nil {
		logger.C(ctx).Error().Err(err).Str("job_id", id).Msg("reports: could not fail rejected job")
	}
	s.m.jobs.WithLabelValues("rejected").Inc()
}

// Poll returns the job, unknown ids are NotFound and a Failed job is a value
func (s *Service) Poll(ctx context.Context, id string) (domain.Job, error) {
	return s.Jobs.Get(ctx, id)
}

// Download returns the job and, once Complete, the report bytes when the sink can serve them
func (s *Service) Download(ctx context.Context, id string) (domain.Job, []byte, error) {
	job, err := s.Jobs.Get(ctx, id)
	if err != nil || job.Status != domain.StatusComplete {
		return job, nil, err
	}
	rd, ok := s.Sink.(domain.ReportReader)
	if !ok {
		return job, nil, nil
	}
	body, err := rd.Read(job.ResultHandle)
	if err != nil {
		return job, nil, err
	}
	return job, body, nil
}

// Stats summarizes a Complete report, NotFound while running or when the sink keeps no file
func (s *Service) Stats(ctx context.Context, id string) (domain.ReportStats, error) {
	job, err := s.Jobs.Get(ctx, id)
	if err != nil {
		return domain.ReportStats{}, err
	}
	rd, ok := s.Sink.(domain.ReportReader)
	if job.Status != domain.StatusComplete || !ok {
		return domain.ReportStats{}, perr.NotFoundf("report %s has no stats (status %s)", id, job.Status)
	}
	return rd.Stats(job.ResultHandle)
}

// Run starts the workers and blocks until ctx ends
// the jobs in flight finish, queued ones that never started are failed
func (s *Service) Run(ctx context.Context) error {
	l := logger.C(ctx).With().Str("mod", "reports").Logger()
	l.Info().Int("workers", s.Cfg.JobWorkers).Int("queue", s.Cfg.QueueSize).Msg("reports: workers started")

	var wg sync.WaitGroup
	for i := 0; i < s.Cfg.JobWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx)
		}()
	}
	<-ctx.Done()
	wg.Wait()

	n := s.drain(context.WithoutCancel(ctx))
	l.Info().Int("abandoned", n).Msg("reports: workers stopped")
	return nil
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-s.queue:
			// a started job always reaches a terminal state
			_ = s.execute(context.WithoutCancel(ctx), id)
		}
	}
}

func (s *Service) drain(ctx context.Context) int {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	n := 0
	for {
		select {
		case id := <-s.queue:
			s.reject(ctx, id, "shutting down")
			n++
		default:
			return n
		}
	}
}

// RunSync records a job and runs it inline, the error is the job level failure
func (s *Service) RunSync(ctx context.Context) (domain.Job, error) {
	id := s.newID()
	if err := s.Jobs.Create(ctx, domain.Job{ID: id, Status: domain.StatusRunning, CreatedAt: s.clock().UTC()}); err != nil {
		return domain.Job{}, err
	}
	runErr := s.execute(ctx, id)
	job, err := s.Jobs.Get(ctx, id)
	if err != nil {
		return job, err
	}
	return job, runErr
}

// execute owns job id from dequeue to its single terminal transition
func (s *Service) execute(ctx context.Context, id string) error {
	ctx = logger.WithJob(ctx, id)
	l := logger.C(ctx).With().Str("mod", "reports").Logger()
	t0 := time.Now()

	out, runErr := s.compute(ctx, id)
	status := domain.StatusComplete
	if runErr != nil {
		status = domain.StatusFailed
		out.ResultHandle = ""
		out.Error = runErr.Error()
	}
	out.CompletedAt = s.clock().UTC()

	if err := s.finish(ctx, id, status, out); err != nil {
		l.Error().Err(err).Str("result", string(status)).Msg("reports: terminal transition failed")
		s.m.jobs.WithLabelValues("error").Inc()
		return err
	}

	elapsed := time.Since(t0)
	s.m.jobs.WithLabelValues(strings.ToLower(string(status))).Inc()
	s.m.duration.Observe(elapsed.Seconds())

	ev := l.Info()
	if runErr != nil {
		ev = l.Error().Err(runErr)
	}
	ev.Int("entities", out.Entities).
		Int("failed_entities", out.FailedEntities).
		Dur("elapsed", elapsed).
		Str("result", string(status)).
		Str("handle", out.ResultHandle).
		Msg("reports: job finished")
	return runErr
}

// transitionAttempts bounds retries of the terminal write, a job left Running is never picked up again
const transitionAttempts = 3

// transitionPause is the base wait between attempts, a seam for tests
var transitionPause = 200 * time.Millisecond

func (s *Service) finish(ctx context.Context, id string, status domain.Status, out domain.Outcome) error {
	var err error
	for attempt := 1; attempt <= transitionAttempts; attempt++ {
		if err = s.Jobs.Transition(ctx, id, status, out); err == nil || !perr.Retryable(err) {
			return err
		}
		logger.C(ctx).Warn().Err(err).Int("attempt", attempt).Msg("reports: terminal transition retry")
		time.Sleep(time.Duration(attempt) * transitionPause)
	}
	return err
}

// compute turns a panic in the stores or the sink into a job failure, entity panics never get here
func (s *Service) compute(ctx context.Context, id string) (out domain.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.C(ctx).Error().Str("panic", fmt.Sprint(r)).Bytes("stack", debug.Stack()).Msg("reports: job panicked")
			err = perr.PanicErrf("report job panicked: %v", r)
		}
	}()

	now, err := s.referenceNow(ctx)
	if err != nil {
		return out, err
	}
	ids, err := s.In.ListEntityIDs(ctx)
	if err != nil {
		return out, err
	}

	rows := make([]domain.MetricRow, len(ids))
	var failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.Cfg.EntityWorkers)
	for i, storeID := range ids {
		g.Go(func() error {
			row, ok := s.entityRow(ctx, storeID, now)
			rows[i] = row
			if !ok {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	out.Entities = len(ids)
	out.FailedEntities = int(failed.Load())
	s.m.entities.WithLabelValues("ok").Add(float64(out.Entities - out.FailedEntities))
	s.m.entities.WithLabelValues("failed").Add(float64(out.FailedEntities))

	handle, err := s.Sink.Write(ctx, id, rows)
	if err != nil {
		return out, err
	}
	out.ResultHandle = handle
	return out, nil
}

// referenceNow is the newest observation, the wall clock when there are none
func (s *Service) referenceNow(ctx context.Context) (time.Time, error) {
	ts, ok, err := s.In.MaxObservedTimestamp(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		now := s.clock().UTC()
		logger.C(ctx).Warn().Time("now", now).Msg("reports: no observations, using wall clock")
		return now, nil
	}
	return ts.UTC(), nil
}

// entityRow never fails the job, errors and panics become a zero row
func (s *Service) entityRow(ctx context.Context, storeID string, now time.Time) (row domain.MetricRow, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.C(ctx).Error().Str("entity_id", storeID).Str("panic", fmt.Sprint(r)).
				Msg("reports: store computation panicked, zero row")
			row, ok = domain.MetricRow{StoreID: storeID}, false
		}
	}()
	row, err := s.Agg.ComputeRow(ctx, storeID, now)
	if err != nil {
		logger.C(ctx).Error().Err(err).Str("entity_id", storeID).Msg("reports: store computation failed, zero row")
		return domain.MetricRow{StoreID: storeID}, false
	}
	return row, true
}

// Sweep removes results older than the retention when the sink supports it
func (s *Service) Sweep(ctx context.Context) (int, error) {
	c, ok := s.Sink.(domain.Cleaner)
	if !ok || s.Cfg.Retention <= 0 {
		return 0, nil
	}
	n, err := c.Cleanup(s.Cfg.Retention)
	if err != nil {
		return n, err
	}
	if n > 0 {
		logger.C(ctx).Info().Int("removed", n).Dur("retention", s.Cfg.Retention).Msg("reports: old results removed")
	}
	return n, nil
}

// RunJanitor sweeps every CleanupEvery until ctx ends
func (s *Service) RunJanitor(ctx context.Context) error {
	if _, ok := s.Sink.(domain.Cleaner); !ok || s.Cfg.Retention <= 0 {
		return nil
	}
	t := time.NewTicker(s.Cfg.CleanupEvery)
	defer t.Stop()
	for {
		if _, err := s.Sweep(ctx); err != nil {
			logger.C(ctx).Error().Err(err).Msg("reports: cleanup failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}
