/*
scheduler.go - Periodic holiday cache refresh

PURPOSE:
  Keeps the holiday cache warm so the first records request of the day does
  not pay for the feed fetch. Each tick calls RefreshHolidays(false), which
  is a no-op while the cache is younger than 24 hours.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on Start
  - Source failures are logged by the engine; the scheduler only logs
    storage errors

USAGE:
  scheduler := NewHolidayScheduler(engine, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RefreshHolidays endpoint (manual refresh)
  - timeclock/holiday.go: HolidayCache
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/timeclock-engine/timeclock"
)

// HolidayScheduler refreshes the holiday cache on a ticker.
type HolidayScheduler struct {
	Engine        *timeclock.Engine
	Logger        *zap.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewHolidayScheduler creates a new scheduler.
func NewHolidayScheduler(engine *timeclock.Engine, logger *zap.Logger) *HolidayScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HolidayScheduler{
		Engine:        engine,
		Logger:        logger,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
	}
}

// Start begins the scheduler.
func (s *HolidayScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.Logger.Info("holiday scheduler disabled")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run(s.ticker, s.stop)

	s.Logger.Info("holiday scheduler started", zap.Duration("interval", s.CheckInterval))
}

// Stop stops the scheduler and waits for an in-flight refresh.
func (s *HolidayScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.ticker = nil
		s.Logger.Info("holiday scheduler stopped")
	}
}

func (s *HolidayScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()

	// Run immediately on start
	s.RunNow()

	for {
		select {
		case <-ticker.C:
			s.RunNow()
		case <-stop:
			return
		}
	}
}

// RunNow performs one refresh check.
func (s *HolidayScheduler) RunNow() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.Engine.RefreshHolidays(ctx, false); err != nil {
		s.Logger.Error("holiday refresh failed", zap.Error(err))
	}
}

// NextRunTime returns when the next scheduled check will occur.
func (s *HolidayScheduler) NextRunTime() time.Time {
	return time.Now().Add(s.CheckInterval)
}
