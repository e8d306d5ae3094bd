// Copyright 2025 The cbkit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0

package observe

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	events []Event
}

func (r *recordingObserver) OnEvent(ctx context.Context, event Event) {
	r.events = append(r.events, event)
}

func TestLevelSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LevelVerbose.SlogLevel())
	assert.Equal(t, slog.LevelInfo, LevelInfo.SlogLevel())
	assert.Equal(t, slog.LevelWarn, LevelWarning.SlogLevel())
	assert.Equal(t, slog.LevelError, LevelError.SlogLevel())
}

func TestSlogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	obs := NewSlogObserver(logger)

	obs.OnEvent(context.Background(), Event{
		Type:     EventOp,
		Level:    LevelInfo,
		Op:       "get",
		Key:      "airline_10",
		Duration: 3 * time.Millisecond,
		Data:     map[string]any{"attempt": 1},
	})

	out := buf.String()
	assert.Contains(t, out, string(EventOp))
	assert.Contains(t, out, "op=get")
	assert.Contains(t, out, "key=airline_10")
	assert.Contains(t, out, "attempt=1")
}

func TestSlogObserverErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	obs := NewSlogObserver(logger)

	obs.OnEvent(context.Background(), Event{
		Type:     EventOp,
		Level:    LevelError,
		Op:       "upsert",
		ErrClass: "timeout",
	})

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "error_class=timeout")
}

func TestNoOpObserver(t *testing.T) {
	// Must not panic, whatever the event.
	NoOpObserver{}.OnEvent(context.Background(), Event{Type: EventOp})
}

func TestMultiObserver(t *testing.T) {
	a := &recordingObserver{}
	b := &recordingObserver{}
	multi := NewMultiObserver(a, nil, b)

	multi.OnEvent(context.Background(), Event{Type: EventRetry, Op: "get"})

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	assert.Equal(t, EventRetry, a.events[0].Type)
}

func TestPrometheusObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewPrometheusObserver(reg)
	ctx := context.Background()

	obs.OnEvent(ctx, Event{Type: EventOp, Op: "get", Duration: 2 * time.Millisecond})
	obs.OnEvent(ctx, Event{Type: EventOp, Op: "get", Duration: 4 * time.Millisecond, ErrClass: "timeout"})
	obs.OnEvent(ctx, Event{Type: EventRetry, Op: "get"})

	assert.Equal(t, 1.0, testutil.ToFloat64(obs.ops.WithLabelValues("get", "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.ops.WithLabelValues("get", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.retries.WithLabelValues("get")))

	// counters + retries + histogram
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 3)
}
