// Package fetch retrieves a source's current content over HTTP with
// timeout, retry, and per-host rate-limit policy, and extracts comparable
// text from the response.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/carlmjohnson/requests"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/aquaregwatch/regwatch/lib/models"
)

const DefaultUserAgent = "RegWatch/1.0 (Regulatory Monitoring Service; kontakt@aquaregwatch.no)"

// Result is what a fetch cycle hands to the detector.
type Result struct {
	Text       string
	Status     models.FetchStatus
	HTTPStatus int
	Elapsed    time.Duration
	WordCount  int
}

// Options tune a Fetcher. Zero values fall back to defaults.
type Options struct {
	Timeout      time.Duration // per-request timeout
	MaxRetries   int           // attempts for transient failures
	RetryBase    time.Duration // base delay between retry attempts
	HostInterval time.Duration // minimum spacing between requests to one host
	UserAgent    string
}

func (o *Options) fillDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.RetryBase <= 0 {
		o.RetryBase = 2 * time.Second
	}
	if o.HostInterval <= 0 {
		o.HostInterval = 6 * time.Second // at most 10 requests/minute/host
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
}

type Fetcher struct {
	log       *zap.Logger
	transport http.RoundTripper
	opts      Options

	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	rng *rand.Rand
}

func NewFetcher(log *zap.Logger, transport http.RoundTripper, opts Options) *Fetcher {
	opts.fillDefaults()
	return &Fetcher{
		log:       log,
		transport: transport,
		opts:      opts,
		limiters:  make(map[string]*rate.Limiter),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Fetch retrieves the source's current content. Network trouble comes back
// as a Result with a non-ok status plus a typed error; it never panics and
// never touches the snapshot store.
func (f *Fetcher) Fetch(ctx context.Context, src *models.Source) (*Result, error) {
	parsed, err := url.Parse(src.URL)
	if err != nil || parsed.Hostname() == "" {
		return &Result{Status: models.FetchHTTPError},
			&PermanentError{Err: fmt.Errorf("malformed url %q", src.URL)}
	}

	started := time.Now()

	var lastErr error
	for attempt := 0; attempt < f.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := f.sleep(ctx, f.retryDelay(attempt)); err != nil {
				break
			}
		}

		if err := f.limiter(parsed.Hostname()).Wait(ctx); err != nil {
			lastErr = err
			break
		}

		res, err := f.attempt(ctx, src)
		if err == nil {
			res.Elapsed = time.Since(started)
			return res, nil
		}
		if IsPermanent(err) {
			res.Elapsed = time.Since(started)
			return res, err
		}

		lastErr = err
		f.log.Sugar().Infow("retrying fetch",
			"source", src.ID, "attempt", attempt+1, "err", err)
	}

	status := models.FetchHTTPError
	if isTimeout(lastErr) {
		status = models.FetchTimeout
	}
	return &Result{Status: status, Elapsed: time.Since(started)},
		&TransientError{Err: fmt.Errorf("fetch %s: retries exhausted: %w", src.ID, lastErr)}
}

func (f *Fetcher) attempt(ctx context.Context, src *models.Source) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	var body string
	var httpStatus int
	var contentType string

	err := requests.URL(src.URL).
		Transport(f.transport).
		Header("User-Agent", f.opts.UserAgent).
		Header("Accept-Language", "no,nb,nn,en;q=0.5").
		AddValidator(func(res *http.Response) error {
			httpStatus = res.StatusCode
			contentType = res.Header.Get("Content-Type")
			return nil
		}).
		ToString(&body).
		Fetch(ctx)

	if err != nil {
		if isTimeout(err) {
			return &Result{Status: models.FetchTimeout, HTTPStatus: httpStatus},
				&TransientError{Err: err}
		}
		return &Result{Status: models.FetchHTTPError, HTTPStatus: httpStatus},
			&TransientError{Err: err}
	}

	switch {
	case httpStatus >= 500 || httpStatus == http.StatusTooManyRequests:
		return &Result{Status: models.FetchHTTPError, HTTPStatus: httpStatus},
			&TransientError{Err: fmt.Errorf("http %d from %s", httpStatus, src.URL)}

	case httpStatus >= 400:
		return &Result{Status: models.FetchHTTPError, HTTPStatus: httpStatus},
			&PermanentError{Err: fmt.Errorf("http %d from %s", httpStatus, src.URL)}
	}

	text := body
	if contentType == "" || strings.Contains(contentType, "html") {
		text, err = extractText(body, src.Selectors)
		if err != nil {
			return &Result{Status: models.FetchParseError, HTTPStatus: httpStatus},
				&PermanentError{Err: fmt.Errorf("parse %s: %w", src.URL, err)}
		}
	}

	return &Result{
		Text:       text,
		Status:     models.FetchOK,
		HTTPStatus: httpStatus,
		WordCount:  len(strings.Fields(text)),
	}, nil
}

// limiter returns the shared per-host limiter, creating it on first use.
func (f *Fetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	lim, ok := f.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Every(f.opts.HostInterval), 1)
		f.limiters[host] = lim
	}
	return lim
}

func (f *Fetcher) retryDelay(attempt int) time.Duration {
	delay := f.opts.RetryBase << (attempt - 1)

	f.mu.Lock()
	jitter := time.Duration(f.rng.Int63n(int64(f.opts.RetryBase)))
	f.mu.Unlock()

	return delay + jitter
}

func (f *Fetcher) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
