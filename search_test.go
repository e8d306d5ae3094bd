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
	"testing"
	"time"

	gocb "github.com/couchbase/gocb/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchOptions(t *testing.T) {
	var o searchOptions
	for _, opt := range []SearchOption{
		WithLimit(10),
		WithSkip(20),
		WithFields("name", "city"),
		WithSearchTimeout(5 * time.Second),
	} {
		opt(&o)
	}

	sopts := buildSearchOptions(context.Background(), &o)
	assert.Equal(t, uint32(10), sopts.Limit)
	assert.Equal(t, uint32(20), sopts.Skip)
	assert.Equal(t, []string{"name", "city"}, sopts.Fields)
	assert.Equal(t, 5*time.Second, sopts.Timeout)
}

func TestSearchConjunctionRequiresClauses(t *testing.T) {
	c := &Client{}
	_, _, err := c.SearchConjunction(context.Background(), "idx", nil)
	require.ErrorIs(t, err, gocb.ErrInvalidArgument)

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "search", opErr.Op)
	assert.Equal(t, "idx", opErr.Key)
}

func TestVectorSearchRequiresEmbedding(t *testing.T) {
	c := &Client{}
	_, _, err := c.VectorSearch(context.Background(), "idx", "embedding", nil)
	assert.ErrorIs(t, err, gocb.ErrInvalidArgument)

	_, _, err = c.HybridSearch(context.Background(), "idx", "description", "terms", "embedding", []float32{})
	assert.ErrorIs(t, err, gocb.ErrInvalidArgument)
}
