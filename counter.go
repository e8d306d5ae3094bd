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

	gocb "github.com/couchbase/gocb/v2"
)

// CounterResult is the value of a counter document after a mutation.
type CounterResult struct {
	Cas     gocb.Cas
	Content uint64
}

type counterOptions struct {
	initial int64
	delta   uint64
	expiry  time.Duration
	timeout time.Duration
}

// CounterOption customizes an Increment or Decrement.
type CounterOption func(*counterOptions)

// WithInitial seeds the counter when the document does not exist yet.
// Without it, mutating a missing counter fails with document-not-found.
func WithInitial(value uint64) CounterOption {
	return func(o *counterOptions) { o.initial = int64(value) }
}

// WithDelta overrides the default step of 1.
func WithDelta(delta uint64) CounterOption {
	return func(o *counterOptions) { o.delta = delta }
}

// WithCounterExpiry sets a TTL on the counter document.
func WithCounterExpiry(d time.Duration) CounterOption {
	return func(o *counterOptions) { o.expiry = d }
}

// WithCounterTimeout overrides the client's KV timeout for one call.
func WithCounterTimeout(d time.Duration) CounterOption {
	return func(o *counterOptions) { o.timeout = d }
}

func buildCounterOptions(opts []CounterOption) counterOptions {
	o := counterOptions{initial: -1, delta: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.delta == 0 {
		o.delta = 1
	}
	return o
}

// Increment atomically adds to a counter document and returns the new value.
//
// Example:
//
//	res, err := client.Increment(ctx, "visits::home", cbkit.WithInitial(1))
func (c *Client) Increment(ctx context.Context, key string, opts ...CounterOption) (*CounterResult, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}
	if err := validateKey(key); err != nil {
		return nil, &OpError{Op: "increment", Key: key, Err: err}
	}
	o := buildCounterOptions(opts)

	start := time.Now()
	res, err := c.collection.Binary().Increment(key, &gocb.IncrementOptions{
		Context: ctx,
		Initial: o.initial,
		Delta:   o.delta,
		Expiry:  o.expiry,
		Timeout: o.timeout,
	})
	c.observeOp(ctx, "increment", key, start, err)
	if err != nil {
		return nil, &OpError{Op: "increment", Key: key, Err: err}
	}
	return &CounterResult{Cas: res.Cas(), Content: res.Content()}, nil
}

// Decrement atomically subtracts from a counter document and returns the new
// value. Counters are unsigned; the server floors at zero.
func (c *Client) Decrement(ctx context.Context, key string, opts ...CounterOption) (*CounterResult, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}
	if err := validateKey(key); err != nil {
		return nil, &OpError{Op: "decrement", Key: key, Err: err}
	}
	o := buildCounterOptions(opts)

	start := time.Now()
	res, err := c.collection.Binary().Decrement(key, &gocb.DecrementOptions{
		Context: ctx,
		Initial: o.initial,
		Delta:   o.delta,
		Expiry:  o.expiry,
		Timeout: o.timeout,
	})
	c.observeOp(ctx, "decrement", key, start, err)
	if err != nil {
		return nil, &OpError{Op: "decrement", Key: key, Err: err}
	}
	return &CounterResult{Cas: res.Cas(), Content: res.Content()}, nil
}
