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
	"fmt"

	gocb "github.com/couchbase/gocb/v2"
	"github.com/couchbase/gocb/v2/search"
	"github.com/couchbase/gocb/v2/vector"
)

// DefaultNumCandidates is the KNN candidate pool size used when a vector
// search does not set one.
const DefaultNumCandidates = 100

type vectorOptions struct {
	numCandidates uint32
	boost         float32
	hasBoost      bool
}

// VectorOption customizes one vector search.
type VectorOption func(*vectorOptions)

// WithNumCandidates widens or narrows the KNN candidate pool. Larger pools
// trade latency for recall.
func WithNumCandidates(n uint32) VectorOption {
	return func(o *vectorOptions) { o.numCandidates = n }
}

// WithVectorBoost weights the vector clause when combined with a text query.
func WithVectorBoost(boost float32) VectorOption {
	return func(o *vectorOptions) {
		o.boost = boost
		o.hasBoost = true
	}
}

func buildVectorQuery(field string, embedding []float32, opts []VectorOption) *vector.Query {
	o := vectorOptions{numCandidates: DefaultNumCandidates}
	for _, opt := range opts {
		opt(&o)
	}
	q := vector.NewQuery(field, embedding).NumCandidates(o.numCandidates)
	if o.hasBoost {
		q = q.Boost(o.boost)
	}
	return q
}

// VectorSearch finds the documents whose stored embedding is nearest to the
// given one, ranked by similarity. The index must define a vector field with
// the same dimensionality as the query embedding.
//
// Example:
//
//	hits, _, err := client.VectorSearch(ctx, "hotel-vectors", "embedding", queryVec,
//	    cbkit.WithNumCandidates(50))
func (c *Client) VectorSearch(ctx context.Context, index, field string, embedding []float32, opts ...VectorOption) ([]SearchHit, *SearchMeta, error) {
	if len(embedding) == 0 {
		return nil, nil, &OpError{Op: "vector_search", Key: index, Err: fmt.Errorf("%w: empty embedding", gocb.ErrInvalidArgument)}
	}
	req := gocb.SearchRequest{
		VectorSearch: vector.NewSearch([]*vector.Query{buildVectorQuery(field, embedding, opts)}, nil),
	}
	return c.runSearch(ctx, index, req, nil)
}

// HybridSearch combines a text match with a vector clause in one request, so
// lexical relevance and embedding similarity both contribute to the score.
func (c *Client) HybridSearch(ctx context.Context, index, textField, terms, vectorField string, embedding []float32, opts ...VectorOption) ([]SearchHit, *SearchMeta, error) {
	if len(embedding) == 0 {
		return nil, nil, &OpError{Op: "vector_search", Key: index, Err: fmt.Errorf("%w: empty embedding", gocb.ErrInvalidArgument)}
	}
	req := gocb.SearchRequest{
		SearchQuery:  search.NewMatchQuery(terms).Field(textField),
		VectorSearch: vector.NewSearch([]*vector.Query{buildVectorQuery(vectorField, embedding, opts)}, nil),
	}
	return c.runSearch(ctx, index, req, nil)
}
