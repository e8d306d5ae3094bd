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
	"sync"
	"time"

	gocb "github.com/couchbase/gocb/v2"

	"github.com/cbkit/cbkit-go/observe"
)

// Client is a connected cluster handle scoped to one collection.
//
// Example:
//
//	client, err := cbkit.Connect(cbkit.FromEnv())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	res, err := client.Get(ctx, "airline_8091")
type Client struct {
	cluster    *gocb.Cluster
	bucket     *gocb.Bucket
	scope      *gocb.Scope
	collection *gocb.Collection

	cfg   *Config
	obs   observe.Observer
	retry RetryPolicy

	mu     sync.RWMutex
	closed bool
}

type connectSettings struct {
	obs    observe.Observer
	tracer gocb.RequestTracer
	meter  gocb.Meter
	retry  RetryPolicy
}

// ClientOption customizes a Client at connect time.
type ClientOption func(*connectSettings)

// WithObserver installs an observer receiving one event per kit operation.
func WithObserver(obs observe.Observer) ClientOption {
	return func(s *connectSettings) {
		if obs != nil {
			s.obs = obs
		}
	}
}

// WithRequestTracer installs a RequestTracer (e.g. observe.NewOTelRequestTracer)
// on the underlying cluster. Overrides the threshold logging tracer that
// Config.SlowOpLogging would install.
func WithRequestTracer(tracer gocb.RequestTracer) ClientOption {
	return func(s *connectSettings) {
		s.tracer = tracer
	}
}

// WithMeter installs a Meter on the underlying cluster.
func WithMeter(meter gocb.Meter) ClientOption {
	return func(s *connectSettings) {
		s.meter = meter
	}
}

// WithRetryPolicy overrides the retry policy used by retrying helpers such as
// GetWithFallback and PreparedQuery.
func WithRetryPolicy(policy RetryPolicy) ClientOption {
	return func(s *connectSettings) {
		s.retry = policy
	}
}

// Connect dials the cluster, waits until the KV and Query services are ready,
// and opens the configured bucket, scope and collection.
func Connect(cfg *Config, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	settings := connectSettings{
		obs:   observe.NoOpObserver{},
		retry: DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(&settings)
	}

	clusterOpts := gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		},
		TimeoutsConfig: gocb.TimeoutsConfig{
			KVTimeout:    cfg.KVTimeout,
			QueryTimeout: cfg.QueryTimeout,
		},
	}
	if cfg.WanProfile {
		if err := clusterOpts.ApplyProfile(gocb.ClusterConfigProfileWanDevelopment); err != nil {
			return nil, &ConnectionError{Endpoint: cfg.Endpoint, Err: err}
		}
	}
	switch {
	case settings.tracer != nil:
		clusterOpts.Tracer = settings.tracer
	case cfg.SlowOpLogging:
		clusterOpts.Tracer = gocb.NewThresholdLoggingTracer(&gocb.ThresholdLoggingOptions{
			QueryThreshold: cfg.SlowQueryThreshold,
			KVThreshold:    cfg.SlowKVThreshold,
			SampleSize:     10,
			Interval:       10 * time.Second,
		})
		if settings.meter == nil {
			settings.meter = gocb.NewLoggingMeter(&gocb.LoggingMeterOptions{
				EmitInterval: time.Minute,
			})
		}
	}
	if settings.meter != nil {
		clusterOpts.Meter = settings.meter
	}

	start := time.Now()
	cluster, err := gocb.Connect(cfg.ConnectionString(), clusterOpts)
	if err != nil {
		trackError("connection_error", "Connect")
		return nil, &ConnectionError{Endpoint: cfg.Endpoint, Err: err}
	}

	readyTimeout := cfg.ReadyTimeout
	if readyTimeout <= 0 {
		readyTimeout = 10 * time.Second
	}
	bucket := cluster.Bucket(cfg.Bucket)
	err = bucket.WaitUntilReady(readyTimeout, &gocb.WaitUntilReadyOptions{
		ServiceTypes: []gocb.ServiceType{gocb.ServiceTypeKeyValue, gocb.ServiceTypeQuery},
	})
	if err != nil {
		_ = cluster.Close(nil)
		trackError("connection_error", "Connect")
		return nil, &ConnectionError{Endpoint: cfg.Endpoint, Err: err}
	}

	var scope *gocb.Scope
	var collection *gocb.Collection
	if cfg.Scope == "" || cfg.Scope == "_default" {
		scope = bucket.DefaultScope()
		collection = bucket.DefaultCollection()
	} else {
		scope = bucket.Scope(cfg.Scope)
		collection = scope.Collection(cfg.Collection)
	}

	client := &Client{
		cluster:    cluster,
		bucket:     bucket,
		scope:      scope,
		collection: collection,
		cfg:        cfg,
		obs:        settings.obs,
		retry:      settings.retry,
	}

	trackConnected()
	client.obs.OnEvent(context.Background(), observe.Event{
		Type:      observe.EventConnect,
		Level:     observe.LevelInfo,
		Timestamp: time.Now(),
		Op:        "connect",
		Duration:  time.Since(start),
		Data:      map[string]any{"endpoint": cfg.Endpoint, "bucket": cfg.Bucket},
	})
	return client, nil
}

// Close shuts down the cluster connection and flushes telemetry.
// Calling Close twice is safe.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	flushTelemetry()
	return c.cluster.Close(nil)
}

// IsClosed reports whether Close has been called.
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Cluster exposes the underlying cluster for SDK calls the kit does not wrap.
func (c *Client) Cluster() *gocb.Cluster { return c.cluster }

// Bucket exposes the underlying bucket.
func (c *Client) Bucket() *gocb.Bucket { return c.bucket }

// Scope exposes the underlying scope.
func (c *Client) Scope() *gocb.Scope { return c.scope }

// Collection exposes the underlying collection.
func (c *Client) Collection() *gocb.Collection { return c.collection }

func (c *Client) ensureOpen() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

// observeOp reports one completed operation to the observer and telemetry.
func (c *Client) observeOp(ctx context.Context, op, key string, start time.Time, err error) {
	elapsed := time.Since(start)
	ev := observe.Event{
		Type:      observe.EventOp,
		Level:     observe.LevelInfo,
		Timestamp: time.Now(),
		Op:        op,
		Key:       key,
		Duration:  elapsed,
	}
	if err != nil {
		ev.Level = observe.LevelError
		ev.ErrClass = Classify(err).String()
		trackError(ev.ErrClass, op)
	}
	c.obs.OnEvent(ctx, ev)

	if threshold := c.slowThreshold(op); threshold > 0 && elapsed > threshold {
		slow := ev
		slow.Type = observe.EventSlowOp
		slow.Level = observe.LevelWarning
		c.obs.OnEvent(ctx, slow)
	}
}

func (c *Client) slowThreshold(op string) time.Duration {
	switch op {
	case "query", "prepared_query", "search", "vector_search", "transaction":
		return c.cfg.SlowQueryThreshold
	default:
		return c.cfg.SlowKVThreshold
	}
}
