package scan

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/kamilsk/retry/v5/strategy"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tdh8316/statuscheck/internal/httpx"
)

type Scanner struct {
	client httpx.Doer
	cfg    Config
	log    logrus.FieldLogger

	sleep func(ctx context.Context, d time.Duration) error
	wait  func(d time.Duration) strategy.Strategy
}

func NewScanner(client httpx.Doer, cfg Config, log logrus.FieldLogger) *Scanner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	return &Scanner{
		client: client,
		cfg:    cfg,
		log:    log,
		sleep:  sleepCtx,
		wait:   waitFixed,
	}
}

// Run checks every code and returns the filled buckets. The first fatal
// fetch error aborts the run and no buckets are returned.
func (s *Scanner) Run(ctx context.Context, codes []string, ev Events) (Buckets, error) {
	n := &notifier{ev: ev}

	if s.cfg.Concurrency > 1 && len(codes) > 1 {
		return s.runPool(ctx, codes, n)
	}

	var buckets Buckets
	first := true
	for _, code := range codes {
		if code == "" {
			continue
		}

		if !first {
			if err := s.sleep(ctx, s.cfg.Throttle); err != nil {
				return Buckets{}, err
			}
		}
		first = false

		res, err := s.check(ctx, code, n.retry)
		if err != nil {
			return Buckets{}, err
		}
		n.result(res)
		buckets.Add(res)
	}

	return buckets, nil
}

// runPool fans codes out to a bounded set of workers sharing one rate
// limiter. Results are slotted by input index so bucket order is preserved.
func (s *Scanner) runPool(ctx context.Context, codes []string, n *notifier) (Buckets, error) {
	workers := min(s.cfg.Concurrency, len(codes))

	limit := rate.Inf
	if s.cfg.Throttle > 0 {
		limit = rate.Every(s.cfg.Throttle)
	}
	limiter := rate.NewLimiter(limit, 1)

	type job struct {
		idx  int
		code string
	}
	type done struct {
		idx int
		res Result
	}

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan job)
	results := make(chan done, workers)

	g.Go(func() error {
		defer close(jobs)
		for i, code := range codes {
			if code == "" {
				continue
			}
			select {
			case <-gctx.Done():
				return nil
			case jobs <- job{idx: i, code: code}:
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			defer wg.Done()
			for j := range jobs {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
				res, err := s.check(gctx, j.code, n.retry)
				if err != nil {
					return err
				}
				results <- done{idx: j.idx, res: res}
			}
			return nil
		})
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	slots := make([]*Result, len(codes))
	for d := range results {
		r := d.res
		slots[d.idx] = &r
		n.result(r)
	}

	if err := g.Wait(); err != nil {
		return Buckets{}, firstCause(ctx, err)
	}

	var buckets Buckets
	for _, r := range slots {
		if r != nil {
			buckets.Add(*r)
		}
	}
	return buckets, nil
}

func (s *Scanner) check(ctx context.Context, code string, onRetry func(Retry)) (Result, error) {
	target, err := httpx.JoinURL(s.cfg.BaseURL, code)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	status, retries, err := s.fetch(ctx, target, onRetry)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Code:    code,
		URL:     target,
		Status:  status,
		Elapsed: time.Since(start),
		Retries: retries,
	}
	s.log.WithFields(logrus.Fields{
		"code":    code,
		"status":  status,
		"retries": retries,
	}).Debug("checked")
	return res, nil
}

// notifier delivers Events one at a time. Pool workers report retries while
// the collector reports results, so both go through the same lock.
type notifier struct {
	mu sync.Mutex
	ev Events
}

func (n *notifier) result(r Result) {
	if n.ev.OnResult == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ev.OnResult(r)
}

func (n *notifier) retry(r Retry) {
	if n.ev.OnRetry == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ev.OnRetry(r)
}

// firstCause prefers the caller's cancellation over errors it induced.
func firstCause(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
