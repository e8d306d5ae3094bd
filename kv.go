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
	"time"

	gocb "github.com/couchbase/gocb/v2"
)

// Operational limits inherited from the server. The kit checks the cheap ones
// client-side before issuing a request.
const (
	// MaxKeyLength is the longest allowed document key, in bytes.
	MaxKeyLength = 250

	// MaxDocumentSize is the largest allowed document, in bytes. Not
	// checked client-side; the server rejects oversized values.
	MaxDocumentSize = 20 << 20

	// MaxSubdocOps is the most sub-document operations one lookup or
	// mutate request may carry.
	MaxSubdocOps = 16

	// MaxUseKeysBytes is the approximate cap on a USE KEYS key list.
	MaxUseKeysBytes = 1772
)

// GetResult carries a retrieved document's CAS and content.
type GetResult struct {
	// Cas is the document's version token at read time.
	Cas gocb.Cas

	// FromReplica is set when the read was served by a replica and may
	// therefore be stale.
	FromReplica bool

	decode func(valuePtr interface{}) error
}

// Content decodes the document into valuePtr.
func (r *GetResult) Content(valuePtr interface{}) error {
	return r.decode(valuePtr)
}

// MutationResult carries the CAS assigned by a successful mutation.
type MutationResult struct {
	Cas gocb.Cas
}

type mutateOptions struct {
	expiry  time.Duration
	cas     gocb.Cas
	timeout time.Duration
}

// MutateOption customizes a single mutation.
type MutateOption func(*mutateOptions)

// WithExpiry sets a TTL on the stored document.
func WithExpiry(d time.Duration) MutateOption {
	return func(o *mutateOptions) { o.expiry = d }
}

// WithCas makes the mutation conditional on the document's current CAS,
// failing with a cas_mismatch error when another writer got there first.
func WithCas(cas gocb.Cas) MutateOption {
	return func(o *mutateOptions) { o.cas = cas }
}

// WithTimeout overrides the SDK's default timeout for this mutation.
func WithTimeout(d time.Duration) MutateOption {
	return func(o *mutateOptions) { o.timeout = d }
}

type getOptions struct {
	timeout time.Duration
}

// GetOption customizes a single read.
type GetOption func(*getOptions)

// WithGetTimeout overrides the SDK's default timeout for this read.
func WithGetTimeout(d time.Duration) GetOption {
	return func(o *getOptions) { o.timeout = d }
}

func validateKey(key string) error {
	if len(key) == 0 {
		return fmt.Errorf("%w: empty key", gocb.ErrInvalidArgument)
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("%w: %d bytes", ErrKeyTooLong, len(key))
	}
	return nil
}

// Get retrieves a document by key.
func (c *Client) Get(ctx context.Context, key string, opts ...GetOption) (*GetResult, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}
	if err := validateKey(key); err != nil {
		return nil, &OpError{Op: "get", Key: key, Err: err}
	}
	var o getOptions
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	res, err := c.collection.Get(key, &gocb.GetOptions{
		Context: ctx,
		Timeout: o.timeout,
	})
	c.observeOp(ctx, "get", key, start, err)
	if err != nil {
		return nil, &OpError{Op: "get", Key: key, Err: err}
	}
	return &GetResult{Cas: res.Cas(), decode: res.Content}, nil
}

// Upsert stores a document, creating or replacing it.
func (c *Client) Upsert(ctx context.Context, key string, doc interface{}, opts ...MutateOption) (*MutationResult, error) {
	return c.mutate(ctx, "upsert", key, func(o *mutateOptions) (*gocb.MutationResult, error) {
		return c.collection.Upsert(key, doc, &gocb.UpsertOptions{
			Context: ctx,
			Expiry:  o.expiry,
			Timeout: o.timeout,
		})
	}, opts)
}

// Insert stores a new document, failing with a document_exists error when the
// key is already present.
func (c *Client) Insert(ctx context.Context, key string, doc interface{}, opts ...MutateOption) (*MutationResult, error) {
	return c.mutate(ctx, "insert", key, func(o *mutateOptions) (*gocb.MutationResult, error) {
		return c.collection.Insert(key, doc, &gocb.InsertOptions{
			Context: ctx,
			Expiry:  o.expiry,
			Timeout: o.timeout,
		})
	}, opts)
}

// Replace overwrites an existing document. Combine with WithCas for
// optimistic locking.
func (c *Client) Replace(ctx context.Context, key string, doc interface{}, opts ...MutateOption) (*MutationResult, error) {
	return c.mutate(ctx, "replace", key, func(o *mutateOptions) (*gocb.MutationResult, error) {
		return c.collection.Replace(key, doc, &gocb.ReplaceOptions{
			Context: ctx,
			Cas:     o.cas,
			Expiry:  o.expiry,
			Timeout: o.timeout,
		})
	}, opts)
}

// Remove deletes a document. Combine with WithCas to fail when the document
// changed since it was read.
func (c *Client) Remove(ctx context.Context, key string, opts ...MutateOption) (*MutationResult, error) {
	return c.mutate(ctx, "remove", key, func(o *mutateOptions) (*gocb.MutationResult, error) {
		return c.collection.Remove(key, &gocb.RemoveOptions{
			Context: ctx,
			Cas:     o.cas,
			Timeout: o.timeout,
		})
	}, opts)
}

// Touch resets a document's expiry without transferring its content.
func (c *Client) Touch(ctx context.Context, key string, expiry time.Duration) (*MutationResult, error) {
	return c.mutate(ctx, "touch", key, func(o *mutateOptions) (*gocb.MutationResult, error) {
		return c.collection.Touch(key, expiry, &gocb.TouchOptions{Context: ctx})
	}, nil)
}

// GetAndTouch retrieves a document and resets its expiry in one round trip.
func (c *Client) GetAndTouch(ctx context.Context, key string, expiry time.Duration) (*GetResult, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}
	if err := validateKey(key); err != nil {
		return nil, &OpError{Op: "get_and_touch", Key: key, Err: err}
	}

	start := time.Now()
	res, err := c.collection.GetAndTouch(key, expiry, &gocb.GetAndTouchOptions{Context: ctx})
	c.observeOp(ctx, "get_and_touch", key, start, err)
	if err != nil {
		return nil, &OpError{Op: "get_and_touch", Key: key, Err: err}
	}
	return &GetResult{Cas: res.Cas(), decode: res.Content}, nil
}

func (c *Client) mutate(ctx context.Context, op, key string, fn func(*mutateOptions) (*gocb.MutationResult, error), opts []MutateOption) (*MutationResult, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}
	if err := validateKey(key); err != nil {
		return nil, &OpError{Op: op, Key: key, Err: err}
	}
	var o mutateOptions
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	res, err := fn(&o)
	c.observeOp(ctx, op, key, start, err)
	if err != nil {
		return nil, &OpError{Op: op, Key: key, Err: err}
	}
	return &MutationResult{Cas: res.Cas()}, nil
}
