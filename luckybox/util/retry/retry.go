// Copyright 2025 Google LLC
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

// Package retry runs an operation again, with exponential backoff, until it succeeds or runs out of attempts.
package retry

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	DefaultMaxAttempts = 3
	DefaultDelay       = time.Second
	DefaultBackoff     = 2
)

type Options struct {
	// MaxAttempts is the total number of calls, including the first one.
	MaxAttempts int
	// Delay is the wait before the first retry. Retry k waits Delay * Backoff^(k-1).
	Delay   time.Duration
	Backoff float64
	// ShouldRetry reports whether a failure is worth another attempt. Nil retries everything.
	ShouldRetry func(error) bool
	// Timer overrides the wall-clock timer used between attempts.
	Timer backoff.Timer
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Delay <= 0 {
		o.Delay = DefaultDelay
	}
	if o.Backoff < 1 {
		o.Backoff = DefaultBackoff
	}
	if o.ShouldRetry == nil {
		o.ShouldRetry = func(error) bool { return true }
	}
	return o
}

// Do calls op until it succeeds, returning the first successful result. It gives up with op's
// last error once MaxAttempts calls have failed or ShouldRetry refuses an error. There is no jitter.
func Do[T any](ctx context.Context, op func(context.Context) (T, error), opts Options) (T, error) {
	o := opts.withDefaults()
	exp := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(o.Delay),
		backoff.WithRandomizationFactor(0),
		backoff.WithMultiplier(o.Backoff),
		backoff.WithMaxInterval(time.Duration(math.MaxInt64)),
		backoff.WithMaxElapsedTime(0),
	)
	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(o.MaxAttempts-1)), ctx)
	attempt := 0
	return backoff.RetryNotifyWithTimerAndData(func() (T, error) {
		attempt++
		v, err := op(ctx)
		if err != nil && !o.ShouldRetry(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, b, func(err error, wait time.Duration) {
		zap.S().Debugf("Attempt %d/%d failed, retrying in %s: %v", attempt, o.MaxAttempts, wait, err)
	}, o.Timer)
}
