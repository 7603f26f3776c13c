package coursesync

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// DefaultDebounce is how long the dispatcher waits for writes to settle before sending.
const DefaultDebounce = 3 * time.Second

// ErrDispatcherStopped is returned by Notify once Run has returned.
var ErrDispatcherStopped = errors.New("coursesync: dispatcher stopped")

// TokenSource returns the current bearer credential, or "" when signed out.
type TokenSource func() string

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	Transport Transport
	Tokens    TokenSource
	Debounce  time.Duration
	Logger    zerolog.Logger
}

// Dispatcher coalesces snapshots per course and forwards the latest one once the
// debounce window passes without further writes.
type Dispatcher struct {
	transport Transport
	tokens    TokenSource
	debounce  time.Duration
	logger    zerolog.Logger

	events  chan Snapshot
	stopped chan struct{}
}

// NewDispatcher constructs a dispatcher. Call Run to start it.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = func() string { return "" }
	}
	return &Dispatcher{
		transport: cfg.Transport,
		tokens:    tokens,
		debounce:  debounce,
		logger:    logger.With().Str("component", "coursesync_dispatcher").Logger(),
		events:    make(chan Snapshot, 16),
		stopped:   make(chan struct{}),
	}
}

// Notify hands a snapshot to the running dispatcher.
func (d *Dispatcher) Notify(snapshot Snapshot) error {
	select {
	case <-d.stopped:
		return ErrDispatcherStopped
	case d.events <- snapshot:
		return nil
	}
}

// Run owns the debounce timers until ctx is cancelled. Snapshots still pending at that
// point are dropped.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.stopped)

	pending := make(map[string]Snapshot)
	timers := make(map[string]*debounceTimer)
	due := make(chan debounceTick)
	defer func() {
		for _, timer := range timers {
			timer.Stop()
		}
	}()

	var generation uint64
	for {
		select {
		case <-ctx.Done():
			return
		case snapshot := <-d.events:
			courseID := snapshot.CourseID
			pending[courseID] = snapshot
			if timer, ok := timers[courseID]; ok {
				timer.Stop()
			}
			generation++
			tick := debounceTick{courseID: courseID, generation: generation}
			timers[courseID] = &debounceTimer{
				Timer: time.AfterFunc(d.debounce, func() {
					select {
					case due <- tick:
					case <-ctx.Done():
					}
				}),
				generation: generation,
			}
		case tick := <-due:
			timer, ok := timers[tick.courseID]
			if !ok || timer.generation != tick.generation {
				continue
			}
			snapshot := pending[tick.courseID]
			delete(pending, tick.courseID)
			delete(timers, tick.courseID)
			d.send(ctx, snapshot)
		}
	}
}

type debounceTick struct {
	courseID   string
	generation uint64
}

type debounceTimer struct {
	*time.Timer
	generation uint64
}

func (d *Dispatcher) send(ctx context.Context, snapshot Snapshot) {
	token := d.tokens()
	if token == "" || d.transport == nil {
		return
	}

	var err error
	if snapshot.ProgressPercent >= 100 {
		err = d.transport.CompleteCourse(ctx, token, snapshot)
	} else {
		err = d.transport.UpdateProgress(ctx, token, snapshot)
	}
	if err != nil {
		d.logger.Warn().Err(err).Str("course_id", snapshot.CourseID).Msg("progress sync failed")
		return
	}
	d.logger.Debug().Str("course_id", snapshot.CourseID).Int("progress_percent", snapshot.ProgressPercent).Msg("progress synced")
}
