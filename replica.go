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
	"time"

	gocb "github.com/couchbase/gocb/v2"
)

// GetWithFallback reads a document from the active node, retrying transient
// failures per the client's retry policy. When the active read still fails
// with a transient error, it falls back to the fastest available replica.
// Replica results are marked FromReplica and may lag the active copy.
func (c *Client) GetWithFallback(ctx context.Context, key string, opts ...GetOption) (*GetResult, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}

	var result *GetResult
	err := c.retryOp(ctx, "get", key, func() error {
		res, err := c.Get(ctx, key, opts...)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err == nil {
		return result, nil
	}
	if !IsTransient(err) {
		return nil, err
	}

	var o getOptions
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	res, rerr := c.collection.GetAnyReplica(key, &gocb.GetAnyReplicaOptions{
		Context: ctx,
		Timeout: o.timeout,
	})
	c.observeOp(ctx, "get_any_replica", key, start, rerr)
	if rerr != nil {
		return nil, &OpError{Op: "get_any_replica", Key: key, Err: rerr}
	}
	return &GetResult{Cas: res.Cas(), FromReplica: true, decode: res.Content}, nil
}
