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
	"time"

	cbkit "github.com/cbkit/cbkit-go"
)

const (
	// DefaultTimeout bounds the first insert attempt per record.
	DefaultTimeout = 2500 * time.Millisecond

	// DefaultRetryTimeout bounds the single longer retry after a timeout.
	DefaultRetryTimeout = 10 * time.Second
)

// InsertFunc issues one insert. The production implementation is
// cbkit.Client.Insert; tests substitute their own.
type InsertFunc func(ctx context.Context, key string, doc interface{}, timeout time.Duration) error

// RecordError is one record that could not be loaded.
type RecordError struct {
	Key  string
	Kind cbkit.Kind
	Err  error
}

// Stats summarizes one load run.
type Stats struct {
	Loaded  int
	Skipped int
	Retried int
	Failed  []RecordError
}

// Loader inserts records one at a time with per-record error policy:
// a record that already exists is skipped, a timed-out insert is retried once
// with a longer timeout, and anything else is reported without stopping the
// run.
type Loader struct {
	insert       InsertFunc
	timeout      time.Duration
	retryTimeout time.Duration
}

// New builds a Loader inserting through the given client.
func New(client *cbkit.Client) *Loader {
	return &Loader{
		insert: func(ctx context.Context, key string, doc interface{}, timeout time.Duration) error {
			_, err := client.Insert(ctx, key, doc, cbkit.WithTimeout(timeout))
			return err
		},
		timeout:      DefaultTimeout,
		retryTimeout: DefaultRetryTimeout,
	}
}

// NewWithInsert builds a Loader around a custom insert function.
func NewWithInsert(insert InsertFunc, timeout, retryTimeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if retryTimeout <= 0 {
		retryTimeout = DefaultRetryTimeout
	}
	return &Loader{insert: insert, timeout: timeout, retryTimeout: retryTimeout}
}

// Load inserts every record, applying the per-record error policy. It stops
// early only when ctx is cancelled.
func (l *Loader) Load(ctx context.Context, records []Record) (Stats, error) {
	var stats Stats
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		err := l.insert(ctx, rec.Key, rec.Doc, l.timeout)
		if err != nil && cbkit.Classify(err) == cbkit.KindTimeout {
			// The write may be in flight server-side; one retry with a
			// longer timeout resolves it either way (success or exists).
			stats.Retried++
			err = l.insert(ctx, rec.Key, rec.Doc, l.retryTimeout)
		}

		switch {
		case err == nil:
			stats.Loaded++
		case cbkit.Classify(err) == cbkit.KindExists:
			stats.Skipped++
		default:
			stats.Failed = append(stats.Failed, RecordError{
				Key:  rec.Key,
				Kind: cbkit.Classify(err),
				Err:  err,
			})
		}
	}
	return stats, nil
}
