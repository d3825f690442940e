// Package confirmation tracks a submitted bundle until it settles.
//
// A bundle moves Pending -> Landed -> (processed/confirmed) -> Finalized, or
// ends Failed. Invalid is tolerated for a short grace period since freshly
// submitted bundles are not always visible yet. Running out of polls ends in
// Unknown, which is reported separately from failure: the bundle may still land.
package confirmation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hxuan190/sol-arbitrage/internal/domain"
	"github.com/hxuan190/sol-arbitrage/internal/metrics"
	"github.com/hxuan190/sol-arbitrage/internal/retry"
)

var (
	ErrOutcomeUnknown = errors.New("bundle outcome unknown")
	ErrBundleFailed   = errors.New("bundle failed")
	ErrBundleInvalid  = errors.New("bundle invalid")
)

// StatusSource reports bundle state for each phase.
type StatusSource interface {
	InflightStatus(ctx context.Context, bundleID string) (*domain.BundleStatus, error)
	FinalStatus(ctx context.Context, bundleID string) (*domain.BundleStatus, error)
}

type Options struct {
	Delay                time.Duration
	LandingAttempts      int
	FinalizationAttempts int
	InvalidGrace         int
}

func DefaultOptions() Options {
	return Options{
		Delay:                2 * time.Second,
		LandingAttempts:      30,
		FinalizationAttempts: 60,
		InvalidGrace:         3,
	}
}

type Poller struct {
	source StatusSource
	opts   Options
}

func NewPoller(source StatusSource, opts Options) *Poller {
	return &Poller{source: source, opts: opts}
}

// errKeepPolling marks a non-terminal observation.
var errKeepPolling = errors.New("bundle not settled")

// terminal carries a settled failure out of retry.Do without further polls.
type terminal struct{ err error }

func (t *terminal) Error() string { return t.err.Error() }
func (t *terminal) Unwrap() error { return t.err }

func (p *Poller) policy() retry.Policy {
	return retry.Policy{
		Backoff: p.opts.Delay,
		Fixed:   true,
		Retryable: func(err error) bool {
			var t *terminal
			return !errors.As(err, &t)
		},
	}
}

// Wait blocks until bundleID is finalized, fails, or the poll budget runs out.
// The returned status is never nil, and its Attempts counts every poll.
func (p *Poller) Wait(ctx context.Context, bundleID string) (*domain.BundleStatus, error) {
	status := &domain.BundleStatus{BundleID: bundleID, State: domain.BundlePending}
	defer func() { metrics.BundlePolls.Observe(float64(status.Attempts)) }()

	if err := retry.Sleep(ctx, p.opts.Delay); err != nil {
		return status, err
	}

	if err := p.landing(ctx, status); err != nil {
		return p.finish(status, err)
	}
	return p.finish(status, p.finalization(ctx, status))
}

func (p *Poller) landing(ctx context.Context, status *domain.BundleStatus) error {
	policy := p.policy()
	policy.MaxAttempts = p.opts.LandingAttempts
	phasePolls := 0

	_, err := retry.Do(ctx, policy, func(ctx context.Context) (struct{}, error) {
		status.Attempts++
		phasePolls++

		obs, err := p.source.InflightStatus(ctx, status.BundleID)
		if err != nil {
			log.Debug().Err(err).Str("bundleId", status.BundleID).Msg("[BundlePoller] inflight status unavailable")
			return struct{}{}, err
		}
		p.observe(status, obs)

		switch obs.State {
		case domain.BundleLanded:
			return struct{}{}, nil
		case domain.BundleFailed:
			return struct{}{}, &terminal{ErrBundleFailed}
		case domain.BundleInvalid:
			if phasePolls > p.opts.InvalidGrace {
				return struct{}{}, &terminal{ErrBundleInvalid}
			}
		}
		return struct{}{}, errKeepPolling
	})
	return err
}

func (p *Poller) finalization(ctx context.Context, status *domain.BundleStatus) error {
	policy := p.policy()
	policy.MaxAttempts = p.opts.FinalizationAttempts

	_, err := retry.Do(ctx, policy, func(ctx context.Context) (struct{}, error) {
		status.Attempts++

		obs, err := p.source.FinalStatus(ctx, status.BundleID)
		if err != nil {
			log.Debug().Err(err).Str("bundleId", status.BundleID).Msg("[BundlePoller] bundle status unavailable")
			return struct{}{}, err
		}
		p.observe(status, obs)

		if obs.Err != "" {
			return struct{}{}, &terminal{fmt.Errorf("%w: %s", ErrBundleFailed, obs.Err)}
		}
		switch obs.State {
		case domain.BundleFinalized:
			return struct{}{}, nil
		case domain.BundleFailed:
			return struct{}{}, &terminal{ErrBundleFailed}
		}
		return struct{}{}, errKeepPolling
	})
	return err
}

func (p *Poller) observe(status *domain.BundleStatus, obs *domain.BundleStatus) {
	if obs.State != status.State {
		log.Debug().
			Str("bundleId", status.BundleID).
			Str("from", string(status.State)).
			Str("to", string(obs.State)).
			Int("poll", status.Attempts).
			Msg("[BundlePoller] state change")
	}
	status.State = obs.State
	if obs.Slot != 0 {
		status.Slot = obs.Slot
	}
	status.Err = obs.Err
}

func (p *Poller) finish(status *domain.BundleStatus, err error) (*domain.BundleStatus, error) {
	var t *terminal
	switch {
	case err == nil:
		status.State = domain.BundleFinalized
		status.ConfirmedAt = time.Now()
	case errors.As(err, &t):
		status.State = domain.BundleFailed
		err = t.err
		if status.Err == "" {
			status.Err = err.Error()
		}
	case errors.Is(err, retry.ErrExhausted):
		status.State = domain.BundleUnknown
		err = fmt.Errorf("%w: bundle %s still %s after %d polls", ErrOutcomeUnknown, status.BundleID, lastState(err), status.Attempts)
	default:
		// cancelled: the bundle state is whatever was last observed
		return status, err
	}

	metrics.BundleOutcomes.WithLabelValues(string(status.State)).Inc()
	log.Info().
		Str("bundleId", status.BundleID).
		Str("state", string(status.State)).
		Uint64("slot", status.Slot).
		Int("polls", status.Attempts).
		Msg("[BundlePoller] bundle settled")
	return status, err
}

func lastState(err error) string {
	if errors.Is(err, errKeepPolling) {
		return "unsettled"
	}
	return "unobservable"
}
