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
	"errors"
	"fmt"
	"time"

	gocb "github.com/couchbase/gocb/v2"
)

// ErrInsufficientValue reports a transfer larger than the source holds.
var ErrInsufficientValue = errors.New("cbkit: insufficient value for transfer")

type txnOptions struct {
	durability gocb.DurabilityLevel
	timeout    time.Duration
}

// TxnOption customizes one transaction run.
type TxnOption func(*txnOptions)

// WithDurability sets the durability level for the transaction's mutations.
func WithDurability(level gocb.DurabilityLevel) TxnOption {
	return func(o *txnOptions) { o.durability = level }
}

// WithTxnTimeout bounds the whole transaction, attempts and retries included.
func WithTxnTimeout(d time.Duration) TxnOption {
	return func(o *txnOptions) { o.timeout = d }
}

// RunTransaction runs fn inside a server transaction. fn may be invoked more
// than once: the transaction layer retries the whole lambda on conflict, so
// it must not carry side effects beyond the transaction context. Returning an
// error from fn rolls the attempt back.
//
// Failures come back as gocb transaction errors; Classify maps them to
// KindTxnFailed, KindTxnCommitAmbiguous and KindTxnExpired. A commit-ambiguous
// outcome means the commit may or may not have landed and the caller must
// verify before re-applying.
func (c *Client) RunTransaction(ctx context.Context, fn func(tc *gocb.TransactionAttemptContext) error, opts ...TxnOption) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	var o txnOptions
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	_, err := c.cluster.Transactions().Run(fn, &gocb.TransactionOptions{
		DurabilityLevel: o.durability,
		Timeout:         o.timeout,
	})
	c.observeOp(ctx, "transaction", "", start, err)
	if err != nil {
		return &OpError{Op: "transaction", Err: err}
	}
	return nil
}

// applyTransfer moves amount of field from src to dst, mutating both maps.
// JSON numbers arrive as float64; missing or non-numeric fields count as 0 on
// the destination and fail the transfer on the source.
func applyTransfer(src, dst map[string]interface{}, field string, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount %v", gocb.ErrInvalidArgument, amount)
	}
	have, ok := src[field].(float64)
	if !ok {
		return fmt.Errorf("%w: source field %q missing or not a number", gocb.ErrInvalidArgument, field)
	}
	if have < amount {
		return fmt.Errorf("%w: have %v, need %v", ErrInsufficientValue, have, amount)
	}
	got, _ := dst[field].(float64)
	src[field] = have - amount
	dst[field] = got + amount
	return nil
}

// MoveValue transfers amount of a numeric field from one document to another
// atomically, using transactional KV reads and replaces. Both documents must
// exist; a source holding less than amount aborts the transaction with
// ErrInsufficientValue.
//
// Example:
//
//	err := client.MoveValue(ctx, "account::alice", "account::bob", "balance", 25)
func (c *Client) MoveValue(ctx context.Context, srcKey, dstKey, field string, amount float64, opts ...TxnOption) error {
	return c.RunTransaction(ctx, func(tc *gocb.TransactionAttemptContext) error {
		srcDoc, err := tc.Get(c.collection, srcKey)
		if err != nil {
			return err
		}
		dstDoc, err := tc.Get(c.collection, dstKey)
		if err != nil {
			return err
		}

		var src, dst map[string]interface{}
		if err := srcDoc.Content(&src); err != nil {
			return err
		}
		if err := dstDoc.Content(&dst); err != nil {
			return err
		}
		if err := applyTransfer(src, dst, field, amount); err != nil {
			return err
		}

		if _, err := tc.Replace(srcDoc, src); err != nil {
			return err
		}
		if _, err := tc.Replace(dstDoc, dst); err != nil {
			return err
		}
		return nil
	}, opts...)
}

// MoveValueQuery performs the same transfer as MoveValue through
// transactional SQL++ UPDATE statements against the client's keyspace. The
// source is checked first; an insufficient balance aborts before any
// mutation.
func (c *Client) MoveValueQuery(ctx context.Context, srcKey, dstKey, field string, amount float64, opts ...TxnOption) error {
	if amount <= 0 {
		return &OpError{Op: "transaction", Err: fmt.Errorf("%w: amount %v", gocb.ErrInvalidArgument, amount)}
	}
	keyspace := fmt.Sprintf("`%s`.`%s`.`%s`", c.cfg.Bucket, c.scope.Name(), c.collection.Name())

	return c.RunTransaction(ctx, func(tc *gocb.TransactionAttemptContext) error {
		check, err := tc.Query(
			fmt.Sprintf("SELECT d.`%s` AS value FROM %s AS d USE KEYS $1", field, keyspace),
			&gocb.TransactionQueryOptions{PositionalParameters: []interface{}{srcKey}},
		)
		if err != nil {
			return err
		}
		var row struct {
			Value float64 `json:"value"`
		}
		if !check.Next() {
			return fmt.Errorf("%w: source %q", gocb.ErrDocumentNotFound, srcKey)
		}
		if err := check.Row(&row); err != nil {
			return err
		}
		if row.Value < amount {
			return fmt.Errorf("%w: have %v, need %v", ErrInsufficientValue, row.Value, amount)
		}

		debit := fmt.Sprintf("UPDATE %s USE KEYS $1 SET `%s` = `%s` - $2", keyspace, field, field)
		if _, err := tc.Query(debit, &gocb.TransactionQueryOptions{
			PositionalParameters: []interface{}{srcKey, amount},
		}); err != nil {
			return err
		}

		credit := fmt.Sprintf("UPDATE %s USE KEYS $1 SET `%s` = IFMISSINGORNULL(`%s`, 0) + $2", keyspace, field, field)
		if _, err := tc.Query(credit, &gocb.TransactionQueryOptions{
			PositionalParameters: []interface{}{dstKey, amount},
		}); err != nil {
			return err
		}
		return nil
	}, opts...)
}
