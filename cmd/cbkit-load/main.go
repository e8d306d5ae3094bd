// Copyright 2025 The cbkit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0

// cbkit-load bulk-loads a CSV file into a collection, one audited JSON
// document per row.
//
// Usage:
//
//	cbkit-load -file customers.csv -id-field customer_id -rate 200
//
// Connection settings come from CBKIT_* environment variables (or a .env
// file); see cbkit.FromEnv.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	cbkit "github.com/cbkit/cbkit-go"
	"github.com/cbkit/cbkit-go/loader"
	"github.com/cbkit/cbkit-go/observe"
)

func main() {
	var (
		file         = flag.String("file", "", "CSV file to load (required)")
		idField      = flag.String("id-field", "id", "column providing the document ID")
		prefix       = flag.String("prefix", loader.DefaultKeyPrefix, "document key prefix")
		by           = flag.String("by", "cbkit-load", "audit principal recorded in each document")
		ratePerSec   = flag.Float64("rate", 0, "max inserts per second (0 = unlimited)")
		timeout      = flag.Duration("timeout", loader.DefaultTimeout, "per-insert timeout")
		retryTimeout = flag.Duration("retry-timeout", loader.DefaultRetryTimeout, "timeout for the single retry after a timed-out insert")
		verbose      = flag.Bool("v", false, "log every operation")
	)
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	logLevel := slog.LevelWarn
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *file, *idField, *prefix, *by, *ratePerSec, *timeout, *retryTimeout); err != nil {
		logger.Error("load failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, file, idField, prefix, by string, ratePerSec float64, timeout, retryTimeout time.Duration) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := loader.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}
	records, err := loader.TransformAll(rows, loader.TransformOptions{
		IDField:   idField,
		KeyPrefix: prefix,
		Source:    filepath.Base(file),
		Version:   cbkit.Version,
		By:        by,
	})
	if err != nil {
		return err
	}
	logger.Info("parsed input", "file", file, "records", len(records))

	client, err := cbkit.Connect(cbkit.FromEnv(), cbkit.WithObserver(observe.NewSlogObserver(logger)))
	if err != nil {
		return err
	}
	defer client.Close()

	insert := func(ctx context.Context, key string, doc interface{}, timeout time.Duration) error {
		_, err := client.Insert(ctx, key, doc, cbkit.WithTimeout(timeout))
		return err
	}
	if ratePerSec > 0 {
		limiter := rate.NewLimiter(rate.Limit(ratePerSec), 1)
		base := insert
		insert = func(ctx context.Context, key string, doc interface{}, timeout time.Duration) error {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			return base(ctx, key, doc, timeout)
		}
	}

	start := time.Now()
	stats, err := loader.NewWithInsert(insert, timeout, retryTimeout).Load(ctx, records)
	if err != nil {
		return err
	}

	logger.Info("load finished",
		"loaded", stats.Loaded,
		"skipped", stats.Skipped,
		"retried", stats.Retried,
		"failed", len(stats.Failed),
		"elapsed", time.Since(start).Round(time.Millisecond))
	for _, fe := range stats.Failed {
		logger.Warn("record failed", "key", fe.Key, "class", fe.Kind.String(), "error", fe.Err)
	}
	if n := len(stats.Failed); n > 0 {
		return fmt.Errorf("%d of %d records failed", n, len(records))
	}
	return nil
}
