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
	"testing"

	gocb "github.com/couchbase/gocb/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupFieldsValidation(t *testing.T) {
	c := &Client{}
	ctx := context.Background()

	_, err := c.LookupFields(ctx, "doc")
	assert.ErrorIs(t, err, gocb.ErrInvalidArgument)

	paths := make([]string, MaxSubdocOps+1)
	for i := range paths {
		paths[i] = fmt.Sprintf("field%d", i)
	}
	_, err = c.LookupFields(ctx, "doc", paths...)
	require.ErrorIs(t, err, ErrTooManySubdocOps)
	assert.Equal(t, KindInvalidArgument, Classify(err))

	_, err = c.LookupFields(ctx, "", "name")
	assert.ErrorIs(t, err, gocb.ErrInvalidArgument)
}

func TestMutateFieldsValidation(t *testing.T) {
	c := &Client{}
	ctx := context.Background()

	_, err := c.MutateFields(ctx, "doc", nil)
	assert.ErrorIs(t, err, gocb.ErrInvalidArgument)

	fields := make(map[string]interface{}, MaxSubdocOps+1)
	for i := 0; i <= MaxSubdocOps; i++ {
		fields[fmt.Sprintf("field%d", i)] = i
	}
	_, err = c.MutateFields(ctx, "doc", fields)
	require.ErrorIs(t, err, ErrTooManySubdocOps)

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "mutate_in", opErr.Op)
}

func TestLookupResultUnknownPath(t *testing.T) {
	r := &LookupResult{paths: []string{"name"}}

	var out string
	err := r.ContentAt("country", &out)
	assert.ErrorIs(t, err, gocb.ErrInvalidArgument)
	assert.False(t, r.Exists("country"))
}
