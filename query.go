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
	"encoding/json"
	"fmt"
	"time"

	gocb "github.com/couchbase/gocb/v2"
)

// Row is one raw SQL++ result row.
type Row json.RawMessage

// Decode unmarshals the row into valuePtr.
func (r Row) Decode(valuePtr interface{}) error {
	return json.Unmarshal(r, valuePtr)
}

// String returns the raw JSON.
func (r Row) String() string {
	return string(r)
}

// QueryMeta carries query metadata and metrics reported by the server.
type QueryMeta struct {
	RequestID     string
	ElapsedTime   time.Duration
	ExecutionTime time.Duration
	ResultCount   uint64
	ErrorCount    uint64

	// Profile holds the server's profiling output when a profile mode
	// was requested, nil otherwise.
	Profile interface{}
}

type queryOptions struct {
	named       map[string]interface{}
	positional  []interface{}
	consistency gocb.QueryScanConsistency
	metrics     bool
	readonly    bool
	adhoc       bool
	profile     gocb.QueryProfileMode
	timeout     time.Duration
	contextID   string
}

// QueryOption customizes one query execution.
type QueryOption func(*queryOptions)

// WithNamedParameters binds named query parameters ($name).
func WithNamedParameters(params map[string]interface{}) QueryOption {
	return func(o *queryOptions) { o.named = params }
}

// WithPositionalParameters binds positional query parameters ($1, $2, ...).
func WithPositionalParameters(params ...interface{}) QueryOption {
	return func(o *queryOptions) { o.positional = params }
}

// WithScanConsistency sets the index consistency requirement. Use
// gocb.QueryScanConsistencyRequestPlus to make the query wait for all
// mutations issued before it (query-own-write).
func WithScanConsistency(sc gocb.QueryScanConsistency) QueryOption {
	return func(o *queryOptions) { o.consistency = sc }
}

// WithMetrics asks the server to report query metrics.
func WithMetrics() QueryOption {
	return func(o *queryOptions) { o.metrics = true }
}

// WithReadonly marks the query as read-only, letting the server reject
// mutations and retry more freely.
func WithReadonly() QueryOption {
	return func(o *queryOptions) { o.readonly = true }
}

// WithAdhoc disables statement preparation for one-off queries.
func WithAdhoc() QueryOption {
	return func(o *queryOptions) { o.adhoc = true }
}

// WithProfile enables server-side query profiling
// (gocb.QueryProfileModePhases or gocb.QueryProfileModeTimings).
func WithProfile(mode gocb.QueryProfileMode) QueryOption {
	return func(o *queryOptions) { o.profile = mode }
}

// WithQueryTimeout overrides the default query timeout (75s server-side).
func WithQueryTimeout(d time.Duration) QueryOption {
	return func(o *queryOptions) { o.timeout = d }
}

// WithClientContextID tags the query for correlation in server logs.
func WithClientContextID(id string) QueryOption {
	return func(o *queryOptions) { o.contextID = id }
}

func buildQueryOptions(ctx context.Context, o *queryOptions) *gocb.QueryOptions {
	return &gocb.QueryOptions{
		Context:              ctx,
		NamedParameters:      o.named,
		PositionalParameters: o.positional,
		ScanConsistency:      o.consistency,
		Metrics:              o.metrics,
		Readonly:             o.readonly,
		Adhoc:                o.adhoc,
		Profile:              o.profile,
		Timeout:              o.timeout,
		ClientContextID:      o.contextID,
	}
}

// Query executes a SQL++ statement against the cluster and collects all rows.
//
// Example:
//
//	rows, meta, err := client.Query(ctx,
//	    "SELECT meta().id, country FROM `travel-sample`.`inventory`.`airline` WHERE country = $country",
//	    cbkit.WithNamedParameters(map[string]interface{}{"country": "France"}),
//	    cbkit.WithMetrics())
func (c *Client) Query(ctx context.Context, statement string, opts ...QueryOption) ([]Row, *QueryMeta, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, nil, err
	}
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	res, err := c.cluster.Query(statement, buildQueryOptions(ctx, &o))
	if err != nil {
		c.observeOp(ctx, "query", "", start, err)
		return nil, nil, &OpError{Op: "query", Err: err}
	}

	var rows []Row
	for res.Next() {
		var raw json.RawMessage
		if rerr := res.Row(&raw); rerr != nil {
			c.observeOp(ctx, "query", "", start, rerr)
			return nil, nil, &OpError{Op: "query", Err: rerr}
		}
		rows = append(rows, Row(raw))
	}
	if rerr := res.Err(); rerr != nil {
		c.observeOp(ctx, "query", "", start, rerr)
		return nil, nil, &OpError{Op: "query", Err: rerr}
	}

	meta := &QueryMeta{}
	if md, merr := res.MetaData(); merr == nil && md != nil {
		meta.RequestID = md.RequestID
		meta.ElapsedTime = md.Metrics.ElapsedTime
		meta.ExecutionTime = md.Metrics.ExecutionTime
		meta.ResultCount = md.Metrics.ResultCount
		meta.ErrorCount = md.Metrics.ErrorCount
		meta.Profile = md.Profile
	}

	c.observeOp(ctx, "query", "", start, nil)
	return rows, meta, nil
}

// UseKeysList renders keys as a JSON array suitable for a USE KEYS clause,
// enforcing the server's key-list size cap.
func UseKeysList(keys ...string) (string, error) {
	encoded, err := json.Marshal(keys)
	if err != nil {
		return "", err
	}
	if len(encoded) > MaxUseKeysBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrKeyListTooLong, len(encoded))
	}
	return string(encoded), nil
}
