// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// Func is one attempt. It must respect ctx.
type Func func(ctx context.Context) error

// Backoff returns the wait before retry number attempt (0 after the first failure).
type Backoff func(attempt int) time.Duration

// Delayer is implemented by errors that carry their own wait, such as a 429
// with Retry-After. Its delay replaces the backoff for that attempt.
type Delayer interface {
	RetryAfter() time.Duration
}

func Fixed(interval time.Duration) Backoff {
	return func(int) time.Duration { return interval }
}

// Exponential doubles from base, capped at max when max > 0.
func Exponential(base, max time.Duration) Backoff {
	return func(attempt int) time.Duration {
		d := base << attempt
		if d <= 0 || (max > 0 && d > max) {
			return max
		}
		return d
	}
}

// FullJitter picks a random wait in [0, d).
func FullJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(d)))
}

type policy struct {
	attempts int
	maxDelay time.Duration
	backoff  Backoff
	jitter   func(time.Duration) time.Duration
	retryIf  func(error) bool
	onRetry  func(attempt int, err error, wait time.Duration)
}

type Option func(*policy)

// WithMaxAttempts counts the first call. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(p *policy) {
		if n > 0 {
			p.attempts = n
		}
	}
}

// WithMaxDelay caps any single wait, including one asked for by a Delayer.
func WithMaxDelay(d time.Duration) Option {
	return func(p *policy) { p.maxDelay = d }
}

func WithBackoff(b Backoff) Option {
	return func(p *policy) {
		if b != nil {
			p.backoff = b
		}
	}
}

// WithJitter applies j to backoff waits. Delayer waits are taken as is.
func WithJitter(j func(time.Duration) time.Duration) Option {
	return func(p *policy) { p.jitter = j }
}

func WithRetryIf(fn func(error) bool) Option {
	return func(p *policy) {
		if fn != nil {
			p.retryIf = fn
		}
	}
}

// WithOnRetry is called before each wait.
func WithOnRetry(fn func(attempt int, err error, wait time.Duration)) Option {
	return func(p *policy) { p.onRetry = fn }
}

// Do runs fn until it succeeds, the error is not retryable, attempts run out
// or ctx ends. It returns the last error from fn, or ctx's error.
func Do(ctx context.Context, fn Func, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p := &policy{attempts: 3, backoff: Fixed(time.Second), retryIf: IsRetryableError}
	for _, opt := range opts {
		opt(p)
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt+1 >= p.attempts || !p.retryIf(err) {
			return err
		}

		wait := p.wait(attempt, err)
		if p.onRetry != nil {
			p.onRetry(attempt+1, err, wait)
		}
		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

func (p *policy) wait(attempt int, err error) time.Duration {
	var d Delayer
	var wait time.Duration
	if errors.As(err, &d) && d.RetryAfter() > 0 {
		wait = d.RetryAfter()
	} else {
		wait = p.backoff(attempt)
		if p.jitter != nil {
			wait = p.jitter(wait)
		}
	}
	if p.maxDelay > 0 && wait > p.maxDelay {
		wait = p.maxDelay
	}
	return wait
}

// IsRetryableError retries everything except context cancellation and deadline.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
