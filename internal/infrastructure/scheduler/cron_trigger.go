package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// UnitProvider lists the business units to warm
type UnitProvider interface {
	ListUnitIDs(ctx context.Context) ([]string, error)
}

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	// Hour and Minute of the daily run, 24h clock
	Hour   int
	Minute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration

	// IncludeAllUnits also warms the cross-unit aggregate
	IncludeAllUnits bool
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		Hour:            2, // 2am
		Minute:          0,
		CheckInterval:   time.Minute,
		IncludeAllUnits: true,
	}
}

// ParseCronSchedule reads the minute and hour fields of a daily cron
// expression such as "30 2 * * *". An empty expression means 02:00.
func ParseCronSchedule(expr string) (hour, minute int, err error) {
	parts := strings.Fields(expr)
	if len(parts) == 0 {
		return 2, 0, nil
	}
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSchedule, expr)
	}

	minute, err = strconv.Atoi(parts[0])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute must be 0-59, got %q", ErrInvalidSchedule, parts[0])
	}
	hour, err = strconv.Atoi(parts[1])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour must be 0-23, got %q", ErrInvalidSchedule, parts[1])
	}
	return hour, minute, nil
}

// CronTrigger submits the daily warm-up for every business unit
type CronTrigger struct {
	config    CronTriggerConfig
	scheduler *Scheduler
	units     UnitProvider
	logger    *zap.Logger
	now       func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(
	config CronTriggerConfig,
	scheduler *Scheduler,
	units UnitProvider,
	logger *zap.Logger,
) *CronTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronTrigger{
		config:    config,
		scheduler: scheduler,
		units:     units,
		logger:    logger,
		now:       time.Now,
	}
}

// Start starts the cron trigger
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Warm-up trigger started",
		zap.Int("daily_hour", c.config.Hour),
		zap.Int("daily_minute", c.config.Minute),
		zap.Duration("check_interval", c.config.CheckInterval),
	)

	return nil
}

// Stop stops the cron trigger
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Warm-up trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs the warm-up at most once per day at the configured time
func (c *CronTrigger) checkAndTrigger(ctx context.Context) bool {
	now := c.now()
	currentDate := now.Format("2006-01-02")

	c.mu.Lock()
	if c.lastRunDate == currentDate || !c.shouldRun(now) {
		c.mu.Unlock()
		return false
	}
	c.lastRunDate = currentDate
	c.mu.Unlock()

	c.logger.Info("Triggering daily analytics warm-up")
	if err := c.TriggerNow(ctx); err != nil {
		c.logger.Error("Daily analytics warm-up failed", zap.Error(err))
	}
	return true
}

func (c *CronTrigger) shouldRun(now time.Time) bool {
	return now.Hour() == c.config.Hour && now.Minute() == c.config.Minute
}

// NextRunTime returns the next time the daily warm-up fires after now
func (c *CronTrigger) NextRunTime() time.Time {
	now := c.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), c.config.Hour, c.config.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// TriggerNow submits warm-up jobs for every unit immediately
func (c *CronTrigger) TriggerNow(ctx context.Context) error {
	unitIDs, err := c.units.ListUnitIDs(ctx)
	if err != nil {
		return fmt.Errorf("list business units: %w", err)
	}

	c.logger.Info("Scheduling analytics warm-up",
		zap.Int("unit_count", len(unitIDs)),
	)

	if c.config.IncludeAllUnits {
		if err := c.scheduler.ScheduleWarmUp(nil); err != nil {
			return err
		}
	}
	for _, id := range unitIDs {
		unitID := id
		if err := c.scheduler.ScheduleWarmUp(&unitID); err != nil {
			c.logger.Error("Failed to schedule warm-up for unit",
				zap.String("unit_id", id),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}
