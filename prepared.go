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
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultPreparedCapacity is the prepared statement cache size used when
// Prepared is called with capacity <= 0.
const DefaultPreparedCapacity = 128

// StatementName derives a stable, readable name for a statement. The server
// addresses prepared plans by name, so the same text always maps to the same
// plan.
func StatementName(statement string) string {
	sum := md5.Sum([]byte(statement))
	return "cbkit_" + hex.EncodeToString(sum[:])
}

type preparedEntry struct {
	Name       string
	PreparedAt time.Time
	Hits       int64
}

// PreparedStats is a point-in-time snapshot of cache behavior.
type PreparedStats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// PreparedStatements executes SQL++ through the server's prepared statement
// machinery, tracking which statements have been prepared in an LRU cache.
// The first execution of a statement pays the prepare cost; later executions
// reuse the cached plan. Transient execution failures are retried per the
// client's retry policy.
type PreparedStatements struct {
	client *Client
	exec   func(ctx context.Context, statement string, opts ...QueryOption) ([]Row, *QueryMeta, error)

	mu     sync.Mutex
	cache  *lru.Cache[string, *preparedEntry]
	hits   int64
	misses int64
}

// Prepared returns a prepared statement executor backed by an LRU cache of
// the given capacity.
//
// Example:
//
//	prep, err := client.Prepared(64)
//	rows, _, err := prep.Execute(ctx,
//	    "SELECT name FROM `travel-sample`.`inventory`.`airline` WHERE country = $1",
//	    cbkit.WithPositionalParameters("France"))
func (c *Client) Prepared(capacity int) (*PreparedStatements, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}
	if capacity <= 0 {
		capacity = DefaultPreparedCapacity
	}
	cache, err := lru.New[string, *preparedEntry](capacity)
	if err != nil {
		return nil, fmt.Errorf("prepared cache: %w", err)
	}
	return &PreparedStatements{
		client: c,
		exec:   c.Query,
		cache:  cache,
	}, nil
}

// Execute runs the statement as a prepared query. Preparation is left to the
// server: the query runs without the adhoc flag, so the service prepares the
// plan on first sight and reuses it afterwards. The cache records what has
// been prepared so callers can inspect plan reuse via Stats.
func (p *PreparedStatements) Execute(ctx context.Context, statement string, opts ...QueryOption) ([]Row, *QueryMeta, error) {
	name := StatementName(statement)
	p.note(name)

	var (
		rows []Row
		meta *QueryMeta
	)
	err := p.client.retryOp(ctx, "prepared_query", name, func() error {
		var qerr error
		rows, meta, qerr = p.exec(ctx, statement, opts...)
		return qerr
	})
	if err != nil {
		return nil, nil, err
	}
	return rows, meta, nil
}

func (p *PreparedStatements) note(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if entry, ok := p.cache.Get(name); ok {
		entry.Hits++
		p.hits++
		return
	}
	p.misses++
	p.cache.Add(name, &preparedEntry{Name: name, PreparedAt: time.Now()})
}

// Stats reports cache occupancy and hit counters.
func (p *PreparedStatements) Stats() PreparedStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PreparedStats{
		Entries: p.cache.Len(),
		Hits:    p.hits,
		Misses:  p.misses,
	}
}
