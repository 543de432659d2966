// Package sweep periodically finds capsules that have become openable and
// notifies their owners exactly once.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mileusna/crontab"

	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/dbx"
	"github.com/dmitrijs2005/timecapsule/internal/logging"
	"github.com/dmitrijs2005/timecapsule/internal/server/lifecycle"
	"github.com/dmitrijs2005/timecapsule/internal/server/metrics"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
	"github.com/dmitrijs2005/timecapsule/internal/server/notify"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/capsules"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/users"
)

var (
	ErrSweepInProgress = errors.New("sweep already in progress")
	errInterrupted     = errors.New("sweep interrupted")
)

type Dispatcher interface {
	Dispatch(ctx context.Context, user *models.User, c *models.Capsule) notify.Outcome
}

// Result summarises one sweep. Delivered, Skipped, Failed and MissingUser
// partition the candidates that reached a decision; AlreadyMarked counts
// conditional updates that found the capsule already flagged, and
// MarkErrors counts updates that failed outright.
type Result struct {
	Candidates    int
	Delivered     int
	Skipped       int
	Failed        int
	MissingUser   int
	AlreadyMarked int
	MarkErrors    int
}

// Processed is the number of due capsules the sweep looked at.
func (r Result) Processed() int { return r.Candidates }

type Options struct {
	Schedule string
	OnStart  bool
	Timeout  time.Duration
	// StatusHook, when set, is told after every finished tick whether the
	// sweep could query the store.
	StatusHook func(serving bool)
}

type Scheduler struct {
	db         dbx.DBTX
	repos      repomanager.RepositoryManager
	dispatcher Dispatcher
	clock      lifecycle.Clock
	opts       Options
	log        logging.Logger

	running sync.Mutex
}

func NewScheduler(db dbx.DBTX, repos repomanager.RepositoryManager, dispatcher Dispatcher,
	clock lifecycle.Clock, opts Options, log logging.Logger) *Scheduler {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Minute
	}
	return &Scheduler{
		db:         db,
		repos:      repos,
		dispatcher: dispatcher,
		clock:      clock,
		opts:       opts,
		log:        log.With("module", "sweep"),
	}
}

// Sweep runs one pass. A call made while another pass is running returns
// ErrSweepInProgress immediately.
func (s *Scheduler) Sweep(ctx context.Context) (Result, error) {
	if !s.running.TryLock() {
		metrics.SweepOverlaps.Inc()
		return Result{}, ErrSweepInProgress
	}
	defer s.running.Unlock()

	start := time.Now()
	now := s.clock.Now()

	capsRepo := s.repos.Capsules(s.db)
	usersRepo := s.repos.Users(s.db)

	due, err := capsRepo.ListDueUnnotified(ctx, now)
	if err != nil {
		metrics.RecordSweep("error", 0, time.Since(start).Seconds())
		s.log.Error(ctx, "check notifications error", "error", err)
		return Result{}, fmt.Errorf("list due capsules: %w", err)
	}

	res := Result{Candidates: len(due)}
	s.log.Info(ctx, "found capsules ready for notifications", "count", len(due))

	for _, c := range due {
		if err := ctx.Err(); err != nil {
			metrics.RecordSweep("interrupted", res.Candidates, time.Since(start).Seconds())
			return res, fmt.Errorf("%w: %w", errInterrupted, err)
		}
		s.process(ctx, capsRepo, usersRepo, c, now, &res)
	}

	metrics.RecordSweep("ok", res.Candidates, time.Since(start).Seconds())
	s.log.Info(ctx, "sweep finished",
		"candidates", res.Candidates,
		"delivered", res.Delivered,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"missing_user", res.MissingUser,
		"already_marked", res.AlreadyMarked,
	)
	return res, nil
}

func (s *Scheduler) process(ctx context.Context, capsRepo capsules.Repository, usersRepo users.Repository,
	c *models.Capsule, now time.Time, res *Result) {
	log := s.log.With("capsule_id", c.ID, "user_id", c.UserID)

	user, err := usersRepo.GetByID(ctx, c.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			res.MissingUser++
			log.Warn(ctx, "user not found for capsule")
			return
		}
		res.Failed++
		log.Error(ctx, "failed to load capsule owner", "error", err)
		return
	}

	if !lifecycle.ShouldNotify(c, now) {
		res.AlreadyMarked++
		return
	}

	outcome := s.dispatcher.Dispatch(ctx, user, c)
	metrics.NotificationsTotal.WithLabelValues(outcome.String()).Inc()

	switch outcome {
	case notify.Delivered:
		res.Delivered++
	case notify.SkippedByPreference:
		res.Skipped++
	default:
		res.Failed++
	}

	if !outcome.MarksNotified() {
		return
	}

	won, err := capsRepo.MarkNotified(ctx, c.ID)
	if err != nil {
		res.MarkErrors++
		log.Error(ctx, "failed to mark capsule notified", "error", err)
		return
	}
	if !won {
		res.AlreadyMarked++
		log.Info(ctx, "capsule was already marked notified")
	}
}

// Run schedules sweeps on the configured cron expression until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ctab := crontab.New()
	defer ctab.Shutdown()

	if err := ctab.AddJob(s.opts.Schedule, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule sweep %q: %w", s.opts.Schedule, err)
	}
	s.log.Info(ctx, "sweep scheduled", "schedule", s.opts.Schedule)
	s.report(true)

	if s.opts.OnStart {
		s.tick(ctx)
	}

	<-ctx.Done()
	s.report(false)
	s.log.Info(ctx, "sweep scheduler stopped")
	return nil
}

func (s *Scheduler) tick(parent context.Context) {
	if parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, s.opts.Timeout)
	defer cancel()

	_, err := s.Sweep(ctx)
	switch {
	case errors.Is(err, ErrSweepInProgress):
		s.log.Warn(ctx, "previous sweep still running, tick skipped")
	case errors.Is(err, errInterrupted):
		s.log.Warn(ctx, "sweep did not finish in time", "error", err)
	case err != nil:
		s.report(false)
	default:
		s.report(true)
	}
}

func (s *Scheduler) report(serving bool) {
	if s.opts.StatusHook != nil {
		s.opts.StatusHook(serving)
	}
}
