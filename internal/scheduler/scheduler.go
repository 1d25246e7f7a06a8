package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"feedpress/internal/logger"
	"feedpress/internal/service"
)

// ReportFunc receives the report of every completed run.
type ReportFunc func(*service.RunReport)

type Scheduler struct {
	runner     service.FeedRunner
	interval   time.Duration
	runTimeout time.Duration
	onReport   ReportFunc
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
	ctx        context.Context // parent of every run, cancelled by Stop
	cancel     context.CancelFunc
}

// New returns a scheduler that runs runner every interval. A run is cut off
// after runTimeout, or after interval when runTimeout is zero.
func New(runner service.FeedRunner, interval, runTimeout time.Duration, onReport ReportFunc) *Scheduler {
	if runTimeout <= 0 {
		runTimeout = interval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner:     runner,
		interval:   interval,
		runTimeout: runTimeout,
		onReport:   onReport,
		stopCh:     make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
	logger.Info("scheduler started", "module", "scheduler", "action", "run", "resource", "feed", "result", "ok", "interval_ms", s.interval.Milliseconds())
}

// Stop cancels the in-flight run and waits for it to return.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		close(s.stopCh)
		s.wg.Wait()
		logger.Info("scheduler stopped", "module", "scheduler", "action", "run", "resource", "feed", "result", "ok")
	})
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.tick()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) tick() {
	select {
	case <-s.stopCh:
		return
	default:
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.runTimeout)
	defer cancel()

	report, err := s.runner.RunAll(ctx)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyRunning) {
			logger.Warn("scheduled run skipped", "module", "scheduler", "action", "run", "resource", "feed", "result", "skipped", "reason", "already running")
			return
		}
		logger.Error("scheduled run failed", "module", "scheduler", "action", "run", "resource", "feed", "result", "failed", "error", err)
		return
	}
	if report.Cancelled {
		logger.Warn("scheduled run cancelled", "module", "scheduler", "action", "run", "resource", "feed", "result", "cancelled", "run_id", report.RunID)
	}
	if s.onReport != nil {
		s.onReport(report)
	}
}
