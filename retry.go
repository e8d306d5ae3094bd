// Copyright 2025 The cbkit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0

package cbkit

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/cbkit/cbkit-go/observe"
)

// RetryPolicy controls how retrying helpers respond to transient failures.
// The schedule is delegated to the backoff library; the kit implements no
// scheduling of its own.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	// Default: 3
	MaxRetries int

	// InitialBackoff is the delay before the first retry; each further
	// retry doubles it (0.1s, 0.2s, 0.4s with the defaults).
	// Default: 100ms
	InitialBackoff time.Duration

	// MaxBackoff caps the delay between retries.
	// Default: 2s
	MaxBackoff time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
	}
}

// withRetry runs op, retrying transient errors per the policy. Non-transient
// errors (not-found, exists, CAS mismatch, parse failures) abort immediately.
// onRetry, when non-nil, is called before each retry sleep.
func withRetry(ctx context.Context, policy RetryPolicy, onRetry func(attempt int, delay time.Duration, err error), op func() error) error {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = policy.InitialBackoff
	expo.Multiplier = 2.0
	expo.MaxInterval = policy.MaxBackoff
	expo.RandomizationFactor = 0
	expo.MaxElapsedTime = 0

	maxRetries := policy.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	schedule := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(maxRetries)), ctx)

	attempt := 0
	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		attempt++
		if onRetry != nil {
			onRetry(attempt, delay, err)
		}
	}
	return backoff.RetryNotify(wrapped, schedule, notify)
}

// retryOp is withRetry wired to the client's policy and observer.
func (c *Client) retryOp(ctx context.Context, op, key string, fn func() error) error {
	return withRetry(ctx, c.retry, func(attempt int, delay time.Duration, err error) {
		c.obs.OnEvent(ctx, observe.Event{
			Type:      observe.EventRetry,
			Level:     observe.LevelWarning,
			Timestamp: time.Now(),
			Op:        op,
			Key:       key,
			ErrClass:  Classify(err).String(),
			Data:      map[string]any{"attempt": attempt, "delay": delay.String()},
		})
	}, fn)
}
