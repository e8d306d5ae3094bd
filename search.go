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
	"github.com/couchbase/gocb/v2/search"
)

// SearchHit is one full-text search match.
type SearchHit struct {
	ID     string
	Score  float64
	Fields map[string]interface{}
}

// SearchMeta summarizes a search response.
type SearchMeta struct {
	TotalHits uint64
	MaxScore  float64
	Took      time.Duration
	Errors    map[string]string
}

type searchOptions struct {
	limit   uint32
	skip    uint32
	fields  []string
	timeout time.Duration
}

// SearchOption customizes one search execution.
type SearchOption func(*searchOptions)

// WithLimit caps the number of hits returned.
func WithLimit(n uint32) SearchOption {
	return func(o *searchOptions) { o.limit = n }
}

// WithSkip skips the first n hits, for paging.
func WithSkip(n uint32) SearchOption {
	return func(o *searchOptions) { o.skip = n }
}

// WithFields asks the index to return the named stored fields with each hit.
// Pass "*" for all stored fields.
func WithFields(fields ...string) SearchOption {
	return func(o *searchOptions) { o.fields = fields }
}

// WithSearchTimeout overrides the default search timeout for one call.
func WithSearchTimeout(d time.Duration) SearchOption {
	return func(o *searchOptions) { o.timeout = d }
}

func buildSearchOptions(ctx context.Context, o *searchOptions) *gocb.SearchOptions {
	return &gocb.SearchOptions{
		Context: ctx,
		Limit:   o.limit,
		Skip:    o.skip,
		Fields:  o.fields,
		Timeout: o.timeout,
	}
}

// runSearch executes a prepared request against the named index and drains
// the hits.
func (c *Client) runSearch(ctx context.Context, index string, req gocb.SearchRequest, opts []SearchOption) ([]SearchHit, *SearchMeta, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, nil, err
	}
	var o searchOptions
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	res, err := c.cluster.Search(index, req, buildSearchOptions(ctx, &o))
	if err != nil {
		c.observeOp(ctx, "search", index, start, err)
		return nil, nil, &OpError{Op: "search", Key: index, Err: err}
	}

	var hits []SearchHit
	for res.Next() {
		row := res.Row()
		hit := SearchHit{ID: row.ID, Score: row.Score}
		var fields map[string]interface{}
		if ferr := row.Fields(&fields); ferr == nil {
			hit.Fields = fields
		}
		hits = append(hits, hit)
	}
	if rerr := res.Err(); rerr != nil {
		c.observeOp(ctx, "search", index, start, rerr)
		return nil, nil, &OpError{Op: "search", Key: index, Err: rerr}
	}

	meta := &SearchMeta{}
	if md, merr := res.MetaData(); merr == nil && md != nil {
		meta.TotalHits = md.Metrics.TotalRows
		meta.MaxScore = md.Metrics.MaxScore
		meta.Took = md.Metrics.Took
		meta.Errors = md.Errors
	}

	c.observeOp(ctx, "search", index, start, nil)
	return hits, meta, nil
}

// SearchMatch runs an analyzed match query against one field of the index.
//
// Example:
//
//	hits, _, err := client.SearchMatch(ctx, "hotel-index", "description", "cheap breakfast",
//	    cbkit.WithLimit(10), cbkit.WithFields("name", "city"))
func (c *Client) SearchMatch(ctx context.Context, index, field, terms string, opts ...SearchOption) ([]SearchHit, *SearchMeta, error) {
	return c.runSearch(ctx, index, gocb.SearchRequest{
		SearchQuery: search.NewMatchQuery(terms).Field(field),
	}, opts)
}

// SearchPhrase matches the exact analyzed phrase in one field.
func (c *Client) SearchPhrase(ctx context.Context, index, field, phrase string, opts ...SearchOption) ([]SearchHit, *SearchMeta, error) {
	return c.runSearch(ctx, index, gocb.SearchRequest{
		SearchQuery: search.NewMatchPhraseQuery(phrase).Field(field),
	}, opts)
}

// SearchWildcard matches a wildcard pattern (* and ?) against one field.
func (c *Client) SearchWildcard(ctx context.Context, index, field, pattern string, opts ...SearchOption) ([]SearchHit, *SearchMeta, error) {
	return c.runSearch(ctx, index, gocb.SearchRequest{
		SearchQuery: search.NewWildcardQuery(pattern).Field(field),
	}, opts)
}

// SearchConjunction requires every field=terms pair to match. Pairs are
// supplied as alternating field, terms arguments.
func (c *Client) SearchConjunction(ctx context.Context, index string, fieldTerms map[string]string, opts ...SearchOption) ([]SearchHit, *SearchMeta, error) {
	if len(fieldTerms) == 0 {
		return nil, nil, &OpError{Op: "search", Key: index, Err: fmt.Errorf("%w: no match clauses", gocb.ErrInvalidArgument)}
	}
	queries := make([]search.Query, 0, len(fieldTerms))
	for field, terms := range fieldTerms {
		queries = append(queries, search.NewMatchQuery(terms).Field(field))
	}
	return c.runSearch(ctx, index, gocb.SearchRequest{
		SearchQuery: search.NewConjunctionQuery(queries...),
	}, opts)
}

// SearchQueryString runs a query in the FTS query string syntax
// (e.g. "+city:paris -country:france description:cheap").
func (c *Client) SearchQueryString(ctx context.Context, index, query string, opts ...SearchOption) ([]SearchHit, *SearchMeta, error) {
	return c.runSearch(ctx, index, gocb.SearchRequest{
		SearchQuery: search.NewQueryStringQuery(query),
	}, opts)
}

// SearchN1QL runs a full-text match through SQL++'s SEARCH() function so the
// result can join regular query predicates. The index must cover the
// client's keyspace.
func (c *Client) SearchN1QL(ctx context.Context, index, field, terms string, limit int, opts ...QueryOption) ([]Row, *QueryMeta, error) {
	clause, err := json.Marshal(map[string]interface{}{
		"match": terms,
		"field": field,
	})
	if err != nil {
		return nil, nil, err
	}
	statement := fmt.Sprintf(
		"SELECT meta(d).id, d.* FROM `%s`.`%s`.`%s` AS d WHERE SEARCH(d, %s, {\"index\": \"%s\"}) LIMIT %d",
		c.cfg.Bucket, c.scope.Name(), c.collection.Name(), string(clause), index, limit,
	)
	return c.Query(ctx, statement, opts...)
}
