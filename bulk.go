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
	"sort"

	gocb "github.com/couchbase/gocb/v2"
	"golang.org/x/sync/errgroup"
)

// DefaultBulkConcurrency bounds in-flight operations per multi call.
const DefaultBulkConcurrency = 8

// BulkResult is the per-key outcome of a multi operation. A failed key does
// not abort the rest of the batch; check Err per entry.
type BulkResult struct {
	Key string
	Cas gocb.Cas
	Err error
}

// BulkResults aggregates per-key outcomes of one multi call.
type BulkResults []BulkResult

// Succeeded returns the number of keys that completed without error.
func (rs BulkResults) Succeeded() int {
	n := 0
	for _, r := range rs {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the entries that carry an error.
func (rs BulkResults) Failed() []BulkResult {
	var failed []BulkResult
	for _, r := range rs {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// FirstError returns the first per-key error, or nil when all succeeded.
func (rs BulkResults) FirstError() error {
	for _, r := range rs {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

type bulkOptions struct {
	concurrency int
}

// BulkOption customizes a multi operation.
type BulkOption func(*bulkOptions)

// WithConcurrency bounds the number of in-flight operations.
func WithConcurrency(n int) BulkOption {
	return func(o *bulkOptions) { o.concurrency = n }
}

// runBulk fans fn out over keys with bounded concurrency. Per-key errors are
// recorded in the result slice; the batch always runs to completion.
func runBulk(ctx context.Context, keys []string, concurrency int, fn func(ctx context.Context, key string) (gocb.Cas, error)) BulkResults {
	if concurrency <= 0 {
		concurrency = DefaultBulkConcurrency
	}
	results := make(BulkResults, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			cas, err := fn(gctx, key)
			results[i] = BulkResult{Key: key, Cas: cas, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// UpsertMulti stores every document in docs, fanning the upserts out
// concurrently. Keys are processed in sorted order.
func (c *Client) UpsertMulti(ctx context.Context, docs map[string]interface{}, opts ...BulkOption) BulkResults {
	if err := c.ensureOpen(); err != nil {
		return closedBulkResults(sortedKeys(docs), err)
	}
	var o bulkOptions
	for _, opt := range opts {
		opt(&o)
	}

	keys := sortedKeys(docs)
	return runBulk(ctx, keys, o.concurrency, func(ctx context.Context, key string) (gocb.Cas, error) {
		res, err := c.Upsert(ctx, key, docs[key])
		if err != nil {
			return 0, err
		}
		return res.Cas, nil
	})
}

// BulkGetResult is the per-key outcome of GetMulti.
type BulkGetResult struct {
	Key    string
	Result *GetResult
	Err    error
}

// GetMulti retrieves every key, fanning the reads out concurrently.
func (c *Client) GetMulti(ctx context.Context, keys []string, opts ...BulkOption) []BulkGetResult {
	results := make([]BulkGetResult, len(keys))
	if err := c.ensureOpen(); err != nil {
		for i, key := range keys {
			results[i] = BulkGetResult{Key: key, Err: err}
		}
		return results
	}
	var o bulkOptions
	for _, opt := range opts {
		opt(&o)
	}
	concurrency := o.concurrency
	if concurrency <= 0 {
		concurrency = DefaultBulkConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			res, err := c.Get(gctx, key)
			results[i] = BulkGetResult{Key: key, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// RemoveMulti deletes every key, fanning the removes out concurrently.
func (c *Client) RemoveMulti(ctx context.Context, keys []string, opts ...BulkOption) BulkResults {
	if err := c.ensureOpen(); err != nil {
		return closedBulkResults(keys, err)
	}
	var o bulkOptions
	for _, opt := range opts {
		opt(&o)
	}

	return runBulk(ctx, keys, o.concurrency, func(ctx context.Context, key string) (gocb.Cas, error) {
		res, err := c.Remove(ctx, key)
		if err != nil {
			return 0, err
		}
		return res.Cas, nil
	})
}

func sortedKeys(docs map[string]interface{}) []string {
	keys := make([]string, 0, len(docs))
	for key := range docs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func closedBulkResults(keys []string, err error) BulkResults {
	results := make(BulkResults, len(keys))
	for i, key := range keys {
		results[i] = BulkResult{Key: key, Err: err}
	}
	return results
}
