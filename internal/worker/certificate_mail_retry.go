package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const defaultRetryBatch = 50

// PendingEmailRetrier resends certificate emails that were never delivered.
type PendingEmailRetrier interface {
	RetryPendingEmails(ctx context.Context, window time.Duration, limit int) (int, error)
}

// CertificateMailRetrier periodically retries undelivered certificate emails.
type CertificateMailRetrier struct {
	retrier  PendingEmailRetrier
	schedule string
	window   time.Duration
	batch    int
	logger   zerolog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewCertificateMailRetrier builds a retrier running on a cron schedule such as "@every 15m".
func NewCertificateMailRetrier(retrier PendingEmailRetrier, schedule string, window time.Duration, logger zerolog.Logger) *CertificateMailRetrier {
	return &CertificateMailRetrier{
		retrier:  retrier,
		schedule: schedule,
		window:   window,
		batch:    defaultRetryBatch,
		logger:   logger.With().Str("component", "certificate_mail_retrier").Logger(),
	}
}

// Start schedules the retry job. Calling Start twice is a no-op.
func (w *CertificateMailRetrier) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(w.schedule, func() { w.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid email retry schedule %q: %w", w.schedule, err)
	}
	c.Start()

	w.cron = c
	w.running = true
	w.logger.Info().Str("schedule", w.schedule).Dur("window", w.window).Msg("certificate email retries scheduled")
	return nil
}

// Stop halts scheduling and waits for a running job to finish.
func (w *CertificateMailRetrier) Stop() {
	w.mu.Lock()
	c := w.cron
	w.cron = nil
	w.running = false
	w.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// RunOnce performs a single retry pass and returns the number of emails delivered.
func (w *CertificateMailRetrier) RunOnce(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}

	sent, err := w.retrier.RetryPendingEmails(ctx, w.window, w.batch)
	if err != nil {
		w.logger.Error().Err(err).Msg("certificate email retry failed")
		return sent
	}
	if sent > 0 {
		w.logger.Info().Int("sent", sent).Msg("pending certificate emails delivered")
	}
	return sent
}
