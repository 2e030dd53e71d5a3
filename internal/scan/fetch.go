package scan

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/kamilsk/retry/v5"
	"github.com/kamilsk/retry/v5/strategy"
	"github.com/pkg/errors"

	"github.com/tdh8316/statuscheck/internal/httpx"
)

var ErrRetriesExhausted = errors.New("retries exhausted")

var errRateLimited = errors.New("rate limited")

// FetchStatus GETs rawURL and returns the final status code and the number of
// retries it took. 429 responses and timeout/connect failures are retried
// after a fixed delay; any other transport failure is returned as an error.
func (s *Scanner) FetchStatus(ctx context.Context, rawURL string) (int, int, error) {
	return s.fetch(ctx, rawURL, nil)
}

func (s *Scanner) fetch(ctx context.Context, rawURL string, onRetry func(Retry)) (int, int, error) {
	log := s.log.WithField("url", rawURL)

	var (
		status  int
		retries int
		pending *Retry // set when the last attempt may be retried
		failure error
	)

	action := func(ctx context.Context) error {
		pending, failure = nil, nil
		if err := ctx.Err(); err != nil {
			failure = err
			return err
		}

		req, err := httpx.NewRequest(ctx, http.MethodGet, rawURL, nil, s.cfg.Header)
		if err != nil {
			failure = errors.Wrapf(err, "failed to GET %s", rawURL)
			return failure
		}

		log.WithField("attempt", retries+1).Debug("request")

		resp, err := s.client.Do(req)
		switch {
		case err == nil:
			status = resp.StatusCode
			drain(resp.Body)
			if status != http.StatusTooManyRequests {
				return nil
			}
			pending = &Retry{URL: rawURL, Reason: RateLimited}
			return errRateLimited

		case ctx.Err() != nil:
			failure = ctx.Err()
			return failure

		case isTransient(err):
			log.WithError(err).Debug("transient failure")
			pending = &Retry{URL: rawURL, Reason: TransportError, Err: err}
			return err

		default:
			failure = errors.Wrapf(err, "failed to GET %s", rawURL)
			return failure
		}
	}

	retryable := func(_ strategy.Breaker, attempt uint, _ error) bool {
		return attempt == 0 || pending != nil
	}
	limit := func(strategy.Breaker, uint, error) bool { return true }
	if s.cfg.MaxRetries > 0 {
		limit = strategy.Limit(uint(s.cfg.MaxRetries) + 1)
	}
	notify := func(_ strategy.Breaker, attempt uint, _ error) bool {
		if attempt == 0 || pending == nil {
			return true
		}
		retries++
		ev := *pending
		ev.Attempt = retries
		ev.Delay = s.cfg.RetryDelay
		if onRetry != nil {
			onRetry(ev)
		}
		return true
	}

	err := retry.Do(ctx, action, retryable, limit, notify, s.wait(s.cfg.RetryDelay))
	switch {
	case err == nil:
		return status, retries, nil
	case ctx.Err() != nil:
		return 0, retries, ctx.Err()
	case failure != nil:
		return 0, retries, failure
	case pending != nil:
		cause := ErrRetriesExhausted
		if pending.Err != nil {
			cause = errors.Wrap(ErrRetriesExhausted, pending.Err.Error())
		}
		return 0, retries, errors.Wrapf(cause, "failed to GET %s after %d retries", rawURL, retries)
	default:
		return 0, retries, errors.Wrapf(err, "failed to GET %s", rawURL)
	}
}

// waitFixed pauses before every retry. The pause is cut short when the
// breaker is released.
func waitFixed(d time.Duration) strategy.Strategy {
	return strategy.Wait(d)
}

// isTransient reports whether err is a timeout or a failure to establish the
// connection, directly or through a proxy. DNS resolution failures are not
// transient.
func isTransient(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return false
	}

	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	return opErr.Op == "dial" || opErr.Op == "proxyconnect"
}

func drain(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}
