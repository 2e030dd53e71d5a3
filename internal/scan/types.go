package scan

import (
	"net/http"
	"time"
)

type Result struct {
	Code string
	URL  string

	Status  int
	Elapsed time.Duration
	Retries int
}

type OtherResult struct {
	Code   string
	Status int
}

// Buckets partitions checked codes by status. Each code lands in exactly one
// bucket, in the order it was checked.
type Buckets struct {
	OK    []string
	Bad   []string
	Other []OtherResult
}

func (b *Buckets) Add(r Result) {
	switch r.Status {
	case http.StatusOK:
		b.OK = append(b.OK, r.Code)
	case http.StatusBadRequest:
		b.Bad = append(b.Bad, r.Code)
	default:
		b.Other = append(b.Other, OtherResult{Code: r.Code, Status: r.Status})
	}
}

func (b Buckets) Len() int {
	return len(b.OK) + len(b.Bad) + len(b.Other)
}

type RetryReason int

const (
	RateLimited RetryReason = iota
	TransportError
)

type Retry struct {
	URL     string
	Reason  RetryReason
	Attempt int
	Delay   time.Duration
	Err     error
}

type Config struct {
	BaseURL string
	Header  http.Header

	RetryDelay time.Duration
	Throttle   time.Duration

	// MaxRetries of 0 means transient failures are retried forever.
	MaxRetries  int
	Concurrency int
}

// Events receives progress callbacks. Both are optional. Calls are
// serialized across both callbacks, also when the scanner runs a worker pool.
type Events struct {
	OnResult func(Result)
	OnRetry  func(Retry)
}
