// Package supervisor owns the outer retry loop: it runs one session at a
// time and decides, from the way each session ended, whether to exit, fail
// or start a fresh session.
package supervisor

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/danmuck/linkctl/internal/config"
	"github.com/danmuck/linkctl/internal/observability"
	"github.com/danmuck/linkctl/internal/reconcile"
	"github.com/danmuck/linkctl/internal/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrNoTransport = errors.New("supervisor: transport factory is required")

type Decision int

const (
	DecisionExit Decision = iota + 1
	DecisionFail
	DecisionRetry
)

func (d Decision) String() string {
	switch d {
	case DecisionExit:
		return "exit"
	case DecisionFail:
		return "fail"
	case DecisionRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// Decide maps a session outcome to the supervisor's next step. Done always
// exits; an error is fatal in dump mode and retried otherwise.
func Decide(reason session.QuitReason, mode reconcile.Mode) Decision {
	if reason.Kind != session.QuitError {
		return DecisionExit
	}
	if mode == reconcile.ModeDump {
		return DecisionFail
	}
	return DecisionRetry
}

// TransportFactory opens the media server connection for one session.
type TransportFactory func(ctx context.Context) (session.Transport, error)

type Config struct {
	Mode reconcile.Mode
	// Desired is shared read-only by every session.
	Desired    []config.ExpandedLink
	Debounce   time.Duration
	Session    session.Config
	DumpFormat config.Format
	DumpOut    io.Writer
	Logger     *zerolog.Logger
}

type Supervisor struct {
	cfg          Config
	logger       zerolog.Logger
	newTransport TransportFactory

	sessions  atomic.Int64
	connected atomic.Bool
	lastError atomic.Pointer[string]
}

func New(cfg Config, newTransport TransportFactory) *Supervisor {
	cfg.Session = cfg.Session.WithDefaults()
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Supervisor{
		cfg:          cfg,
		logger:       logger,
		newTransport: newTransport,
	}
}

// Run starts sessions until one ends with Done, a dump session fails, or
// ctx is cancelled. Only the dump failure is returned as an error.
func (s *Supervisor) Run(ctx context.Context) error {
	if s.newTransport == nil {
		return ErrNoTransport
	}
	s.logger.Info().
		Str("mode", s.cfg.Mode.String()).
		Int("desired", len(s.cfg.Desired)).
		Msg("supervisor.Supervisor.Run starting")

	failures := 0
	for {
		started := time.Now()
		reason := s.runSession(ctx)
		if ctx.Err() != nil {
			s.logger.Info().Msg("supervisor.Supervisor.Run stopped")
			return nil
		}

		switch Decide(reason, s.cfg.Mode) {
		case DecisionExit:
			s.logger.Info().Msg("supervisor.Supervisor.Run done")
			return nil
		case DecisionFail:
			return reason.Err
		}

		// a session that stayed up past the longest delay starts the schedule over
		if time.Since(started) > s.cfg.Session.Backoff.MaxDelay {
			failures = 0
		}
		failures++
		delay := session.NextBackoffDelay(s.cfg.Session.Backoff, failures, nil)
		s.logger.Warn().
			Err(reason.Err).
			Int("attempt", failures).
			Dur("retry_in", delay).
			Msg("supervisor.Supervisor.Run session failed, retrying")
		if err := session.WaitBackoff(ctx, s.cfg.Session.Backoff, failures, nil); err != nil {
			s.logger.Info().Msg("supervisor.Supervisor.Run stopped")
			return nil
		}
	}
}

func (s *Supervisor) runSession(ctx context.Context) session.QuitReason {
	n := s.sessions.Add(1)
	logger := s.logger.With().
		Str("session", uuid.NewString()).
		Int64("seq", n).
		Logger()
	ctx = logger.WithContext(ctx)

	transport, err := s.newTransport(ctx)
	if err != nil {
		reason := session.Failed(err)
		s.finish(logger, reason)
		return reason
	}

	controller := reconcile.New(s.cfg.Desired, reconcile.Options{
		Mode:       s.cfg.Mode,
		Debounce:   s.cfg.Debounce,
		DumpFormat: s.cfg.DumpFormat,
		DumpOut:    s.cfg.DumpOut,
		Logger:     &logger,
	})
	s.connected.Store(true)
	observability.SetSessionConnected(true)
	logger.Debug().Msg("supervisor.Supervisor session started")

	reason := session.Run(ctx, s.cfg.Session, transport, controller)
	s.finish(logger, reason)
	return reason
}

func (s *Supervisor) finish(logger zerolog.Logger, reason session.QuitReason) {
	s.connected.Store(false)
	observability.SetSessionConnected(false)
	observability.RecordSessionEnd(reason.Kind.String())
	if reason.Err != nil {
		msg := reason.Err.Error()
		s.lastError.Store(&msg)
	}
	logger.Debug().Stringer("reason", reason).Msg("supervisor.Supervisor session ended")
}

// Status reports the loop state for the admin server.
func (s *Supervisor) Status() observability.Status {
	st := observability.Status{
		Mode:       s.cfg.Mode.String(),
		Connected:  s.connected.Load(),
		Sessions:   s.sessions.Load(),
		DesiredLen: len(s.cfg.Desired),
	}
	if msg := s.lastError.Load(); msg != nil {
		st.LastError = *msg
	}
	return st
}
