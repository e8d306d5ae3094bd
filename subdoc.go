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
	"sort"
	"time"

	gocb "github.com/couchbase/gocb/v2"
)

// LookupResult carries the values read by LookupFields, addressable by path.
type LookupResult struct {
	Cas gocb.Cas

	paths []string
	res   *gocb.LookupInResult
}

// ContentAt decodes the value at the given path into valuePtr.
func (r *LookupResult) ContentAt(path string, valuePtr interface{}) error {
	for i, p := range r.paths {
		if p == path {
			return r.res.ContentAt(uint(i), valuePtr)
		}
	}
	return fmt.Errorf("%w: path %q not requested", gocb.ErrInvalidArgument, path)
}

// Exists reports whether the document has a value at the given path.
func (r *LookupResult) Exists(path string) bool {
	for i, p := range r.paths {
		if p == path {
			return r.res.Exists(uint(i))
		}
	}
	return false
}

// LookupFields reads up to 16 paths from a document in one sub-document
// request, avoiding a full-document transfer.
func (c *Client) LookupFields(ctx context.Context, key string, paths ...string) (*LookupResult, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}
	if err := validateKey(key); err != nil {
		return nil, &OpError{Op: "lookup_in", Key: key, Err: err}
	}
	if len(paths) == 0 {
		return nil, &OpError{Op: "lookup_in", Key: key, Err: fmt.Errorf("%w: no paths", gocb.ErrInvalidArgument)}
	}
	if len(paths) > MaxSubdocOps {
		return nil, &OpError{Op: "lookup_in", Key: key, Err: fmt.Errorf("%w: %d paths", ErrTooManySubdocOps, len(paths))}
	}

	specs := make([]gocb.LookupInSpec, 0, len(paths))
	for _, path := range paths {
		specs = append(specs, gocb.GetSpec(path, nil))
	}

	start := time.Now()
	res, err := c.collection.LookupIn(key, specs, &gocb.LookupInOptions{Context: ctx})
	c.observeOp(ctx, "lookup_in", key, start, err)
	if err != nil {
		return nil, &OpError{Op: "lookup_in", Key: key, Err: err}
	}
	return &LookupResult{Cas: res.Cas(), paths: paths, res: res}, nil
}

// MutateFields upserts up to 16 paths of a document in one sub-document
// request. Fields are applied in sorted path order so requests are
// deterministic. Combine with WithCas to make the patch conditional on the
// CAS returned by an earlier read.
func (c *Client) MutateFields(ctx context.Context, key string, fields map[string]interface{}, opts ...MutateOption) (*MutationResult, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}
	if err := validateKey(key); err != nil {
		return nil, &OpError{Op: "mutate_in", Key: key, Err: err}
	}
	if len(fields) == 0 {
		return nil, &OpError{Op: "mutate_in", Key: key, Err: fmt.Errorf("%w: no fields", gocb.ErrInvalidArgument)}
	}
	if len(fields) > MaxSubdocOps {
		return nil, &OpError{Op: "mutate_in", Key: key, Err: fmt.Errorf("%w: %d fields", ErrTooManySubdocOps, len(fields))}
	}
	var o mutateOptions
	for _, opt := range opts {
		opt(&o)
	}

	paths := make([]string, 0, len(fields))
	for path := range fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	specs := make([]gocb.MutateInSpec, 0, len(paths))
	for _, path := range paths {
		specs = append(specs, gocb.UpsertSpec(path, fields[path], nil))
	}

	start := time.Now()
	res, err := c.collection.MutateIn(key, specs, &gocb.MutateInOptions{
		Context: ctx,
		Cas:     o.cas,
		Timeout: o.timeout,
	})
	c.observeOp(ctx, "mutate_in", key, start, err)
	if err != nil {
		return nil, &OpError{Op: "mutate_in", Key: key, Err: err}
	}
	return &MutationResult{Cas: res.Cas()}, nil
}
