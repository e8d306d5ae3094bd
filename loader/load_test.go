// Copyright 2025 The cbkit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0

package loader

import (
	"context"
	"testing"
	"time"

	gocb "github.com/couchbase/gocb/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cbkit "github.com/cbkit/cbkit-go"
)

func records(keys ...string) []Record {
	out := make([]Record, 0, len(keys))
	for _, key := range keys {
		out = append(out, Record{Key: key, Doc: map[string]interface{}{"k": key}})
	}
	return out
}

func TestLoadAllSucceed(t *testing.T) {
	inserted := map[string]int{}
	l := NewWithInsert(func(ctx context.Context, key string, doc interface{}, timeout time.Duration) error {
		inserted[key]++
		return nil
	}, 0, 0)

	stats, err := l.Load(context.Background(), records("c:1", "c:2", "c:3"))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Loaded)
	assert.Zero(t, stats.Skipped)
	assert.Zero(t, stats.Retried)
	assert.Empty(t, stats.Failed)
	assert.Len(t, inserted, 3)
}

func TestLoadSkipsExisting(t *testing.T) {
	l := NewWithInsert(func(ctx context.Context, key string, doc interface{}, timeout time.Duration) error {
		if key == "c:2" {
			return &cbkit.OpError{Op: "insert", Key: key, Err: gocb.ErrDocumentExists}
		}
		return nil
	}, 0, 0)

	stats, err := l.Load(context.Background(), records("c:1", "c:2", "c:3"))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Loaded)
	assert.Equal(t, 1, stats.Skipped)
	assert.Empty(t, stats.Failed)
}

func TestLoadRetriesTimeoutWithLongerDeadline(t *testing.T) {
	var timeouts []time.Duration
	calls := 0
	l := NewWithInsert(func(ctx context.Context, key string, doc interface{}, timeout time.Duration) error {
		calls++
		timeouts = append(timeouts, timeout)
		if calls == 1 {
			return &cbkit.OpError{Op: "insert", Key: key, Err: gocb.ErrTimeout}
		}
		return nil
	}, 2*time.Second, 10*time.Second)

	stats, err := l.Load(context.Background(), records("c:1"))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Loaded)
	assert.Equal(t, 1, stats.Retried)
	require.Len(t, timeouts, 2)
	assert.Equal(t, 2*time.Second, timeouts[0])
	assert.Equal(t, 10*time.Second, timeouts[1])
}

func TestLoadRetriedInsertMayFindExisting(t *testing.T) {
	// The timed-out write may have landed server-side; the retry then sees
	// document-exists, which counts as loaded-enough and is skipped.
	calls := 0
	l := NewWithInsert(func(ctx context.Context, key string, doc interface{}, timeout time.Duration) error {
		calls++
		if calls == 1 {
			return gocb.ErrTimeout
		}
		return gocb.ErrDocumentExists
	}, 0, 0)

	stats, err := l.Load(context.Background(), records("c:1"))
	require.NoError(t, err)
	assert.Zero(t, stats.Loaded)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Retried)
}

func TestLoadReportsFailures(t *testing.T) {
	l := NewWithInsert(func(ctx context.Context, key string, doc interface{}, timeout time.Duration) error {
		if key == "c:2" {
			return gocb.ErrServiceNotAvailable
		}
		return nil
	}, 0, 0)

	stats, err := l.Load(context.Background(), records("c:1", "c:2", "c:3"))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Loaded)
	require.Len(t, stats.Failed, 1)
	assert.Equal(t, "c:2", stats.Failed[0].Key)
	assert.Equal(t, cbkit.KindUnavailable, stats.Failed[0].Kind)
}

func TestLoadStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	l := NewWithInsert(func(ctx context.Context, key string, doc interface{}, timeout time.Duration) error {
		calls++
		cancel()
		return nil
	}, 0, 0)

	stats, err := l.Load(ctx, records("c:1", "c:2", "c:3"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, stats.Loaded)
}
