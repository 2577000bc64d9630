package transport

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
	"github.com/tilinna/clock"
	"golang.org/x/time/rate"

	"github.com/vectorcore/pipeline/pkg/finalize"
	"github.com/vectorcore/pipeline/pkg/stats"
)

// Request is the unit a Service executes: an opaque Exec closure a
// sink's RequestBuilder produced (an HTTP POST, an S3 PUT, ...), plus
// the metadata a Service needs to finalize and report on it.
type Request struct {
	ByteSize   int
	Finalizers finalize.List
	Exec       func(ctx context.Context) error
}

// Service executes a stream of Requests with bounded concurrency, a
// per-attempt RetryLogic, a token-bucket rate limiter, and a
// per-request timeout, finalizing each request's handles with the
// terminal outcome once its attempts are exhausted or it succeeds.
//
// Grounded on the teacher's Client.post retry loop (exponential
// backoff via cenkalti/backoff, clock-injected for testability),
// generalized to run many requests concurrently behind a permit pool
// instead of one goroutine per metrics flush.
type Service struct {
	Config Config
	Logic  RetryLogic
	Clock  clock.Clock
	Logger logrus.FieldLogger

	// OnTerminal, if set, is called once per Request that reaches a
	// terminal outcome (Delivered, Rejected, or Aborted), after its
	// finalizers have been resolved. Sinks use this to surface
	// operator-visible reporting (spec.md §7: "operator-visible
	// reporting is via a structured event emitted once per terminal
	// outcome") without the Service itself knowing anything about
	// events.
	OnTerminal func(Outcome)

	limiter *rate.Limiter
	sem     chan struct{}
}

// Outcome is the terminal-outcome notification passed to OnTerminal:
// the resolved finalize.Outcome plus the attempt count a sink can use
// to describe what happened.
type Outcome struct {
	finalize.Outcome
	Attempts int
}

// Run consumes in until it is closed or ctx is done, dispatching each
// Request through the concurrency/rate/retry pipeline. On ctx
// cancellation, in-flight requests are abandoned and their finalizers
// resolve Aborted; Run returns once all dispatched goroutines have
// exited.
func (s *Service) Run(ctx context.Context, in <-chan Request) {
	s.init()

	statser := stats.FromContext(ctx)
	done := make(chan struct{})
	inFlight := 0

	results := make(chan struct{})
	for {
		select {
		case <-ctx.Done():
			for inFlight > 0 {
				<-results
				inFlight--
			}
			return
		case req, ok := <-in:
			if !ok {
				for inFlight > 0 {
					<-results
					inFlight--
				}
				return
			}
			if err := s.acquire(ctx); err != nil {
				s.finish(req, finalize.Outcome{Status: finalize.Aborted, Err: err}, 0, statser, "")
				continue
			}
			inFlight++
			go func(r Request) {
				defer func() {
					s.release()
					select {
					case results <- struct{}{}:
					case <-done:
					}
				}()
				s.execute(ctx, r, statser)
			}(req)
		case <-results:
			inFlight--
		}
	}
}

func (s *Service) init() {
	if s.Clock == nil {
		s.Clock = clock.Realtime()
	}
	if s.Logic == nil {
		s.Logic = DefaultHTTPRetryLogic{}
	}
	if s.Logger == nil {
		s.Logger = logrus.StandardLogger()
	}
	if s.Config.Concurrency.Kind == ConcurrencyFixed && s.sem == nil {
		n := s.Config.Concurrency.Fixed
		if n <= 0 {
			n = 1
		}
		s.sem = make(chan struct{}, n)
	}
	if s.Config.RateLimitNum > 0 && s.limiter == nil {
		period := s.Config.RateLimitPeriod
		if period <= 0 {
			period = time.Second
		}
		s.limiter = rate.NewLimiter(rate.Limit(float64(s.Config.RateLimitNum)/period.Seconds()), s.Config.RateLimitNum)
	}
}

func (s *Service) acquire(ctx context.Context) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if s.sem != nil {
		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *Service) release() {
	if s.sem != nil {
		<-s.sem
	}
}

// execute runs a single request's full retry lifecycle: each attempt
// gets its own per-request timeout (enforced independently of the
// retry budget, per §4.5), classified by s.Logic, retried with
// exponential backoff (base 1s, factor 2, jitter +/-25%, cap 30s) up
// to RetryAttempts or RetryMaxDuration, whichever comes first.
func (s *Service) execute(ctx context.Context, req Request, statser stats.Statser) {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     time.Second,
		RandomizationFactor: 0.25,
		Multiplier:          2,
		MaxInterval:         30 * time.Second,
		MaxElapsedTime:      s.Config.RetryMaxDuration,
		Clock:               s.Clock,
	}
	b.Reset()

	attempts := 0
	for {
		attempts++
		attemptCtx, cancel := s.withAttemptTimeout(ctx)
		err := req.Exec(attemptCtx)
		cancel()

		class, retryAfter := s.Logic.Classify(err)
		switch class {
		case ClassSuccess:
			s.finish(req, finalize.Outcome{Status: finalize.Delivered, ByteSize: req.ByteSize}, attempts, statser, "service.delivered")
			return
		case ClassFatal:
			s.finish(req, finalize.Outcome{Status: finalize.Rejected, Err: err}, attempts, statser, "service.rejected")
			return
		}

		if ctx.Err() != nil {
			s.finish(req, finalize.Outcome{Status: finalize.Aborted, Err: ctx.Err()}, attempts, statser, "")
			return
		}

		if s.Config.RetryAttempts > 0 && attempts >= s.Config.RetryAttempts {
			s.finish(req, finalize.Outcome{Status: finalize.Rejected, Err: err}, attempts, statser, "service.retries_exhausted")
			return
		}

		wait := retryAfter
		if wait <= 0 {
			wait = b.NextBackOff()
		}
		if wait == backoff.Stop {
			s.finish(req, finalize.Outcome{Status: finalize.Rejected, Err: err}, attempts, statser, "service.retries_exhausted")
			return
		}

		s.Logger.WithError(err).WithField("attempt", attempts).WithField("sleep", wait).Warn("request failed, retrying")
		statser.Count("service.retried", 1, nil)

		timer := s.Clock.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.finish(req, finalize.Outcome{Status: finalize.Aborted, Err: ctx.Err()}, attempts, statser, "")
			return
		case <-timer.C:
		}
	}
}

// finish resolves req's finalizers, counts metric (if non-empty), and
// notifies OnTerminal - the single place every terminal outcome in
// execute funnels through, so operator reporting can't be added to one
// branch and forgotten on another.
func (s *Service) finish(req Request, o finalize.Outcome, attempts int, statser stats.Statser, metric string) {
	req.Finalizers.ResolveAll(o)
	if metric != "" {
		statser.Count(metric, 1, nil)
	}
	if s.OnTerminal != nil {
		s.OnTerminal(Outcome{Outcome: o, Attempts: attempts})
	}
}

// withAttemptTimeout returns a context cancelled after Config.Timeout,
// measured against s.Clock so tests can control it with a mock clock.
// Enforced independently of the retry budget: a timeout is itself a
// retryable failure, classified by whatever error Exec returns when
// its context expires.
func (s *Service) withAttemptTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	attemptCtx, cancel := context.WithCancel(ctx)
	timer := s.Clock.NewTimer(s.Config.Timeout)
	stop := make(chan struct{})
	go func() {
		select {
		case <-timer.C:
			cancel()
		case <-stop:
			timer.Stop()
		}
	}()
	return attemptCtx, func() {
		close(stop)
		cancel()
	}
}
