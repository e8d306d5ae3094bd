// Copyright 2025 The cbkit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0

package cbkit

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds cluster connection options.
type Config struct {
	// Endpoint is the cluster hostname, without scheme.
	Endpoint string

	// Username and Password authenticate against the cluster.
	Username string
	Password string

	// Bucket, Scope and Collection select the keyspace operated on.
	Bucket     string
	Scope      string
	Collection string

	// UseTLS dials couchbases:// instead of couchbase://.
	// Required for Capella (cloud) clusters.
	UseTLS bool

	// WanProfile applies the "wan_development" config profile, which
	// relaxes timeouts when reaching a cluster across a WAN.
	WanProfile bool

	// ReadyTimeout bounds the initial wait-until-ready check.
	// Default: 10s
	ReadyTimeout time.Duration

	// KVTimeout and QueryTimeout override the SDK defaults when non-zero.
	KVTimeout    time.Duration
	QueryTimeout time.Duration

	// SlowOpLogging installs the SDK's threshold logging tracer and
	// logging meter, so slow operations and latency percentiles are
	// reported through the SDK log.
	SlowOpLogging bool

	// SlowQueryThreshold and SlowKVThreshold tune the threshold tracer.
	// Defaults: 500ms for queries, 100ms for KV.
	SlowQueryThreshold time.Duration
	SlowKVThreshold    time.Duration
}

// DefaultConfig returns a configuration matching a local travel-sample setup.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:           "localhost",
		Username:           "Administrator",
		Password:           "password",
		Bucket:             "travel-sample",
		Scope:              "inventory",
		Collection:         "airline",
		ReadyTimeout:       10 * time.Second,
		SlowQueryThreshold: 500 * time.Millisecond,
		SlowKVThreshold:    100 * time.Millisecond,
	}
}

// FromEnv builds a Config from CBKIT_* environment variables, loading a .env
// file first if one is present in the working directory.
//
// Recognized variables: CBKIT_ENDPOINT, CBKIT_USERNAME, CBKIT_PASSWORD,
// CBKIT_BUCKET, CBKIT_SCOPE, CBKIT_COLLECTION, CBKIT_USE_TLS,
// CBKIT_WAN_PROFILE, CBKIT_READY_TIMEOUT_SECONDS, CBKIT_SLOW_OP_LOGGING.
// Unset variables keep the DefaultConfig value.
func FromEnv() *Config {
	// Missing .env is not an error; environment variables still apply.
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if v := os.Getenv("CBKIT_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("CBKIT_USERNAME"); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv("CBKIT_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("CBKIT_BUCKET"); v != "" {
		cfg.Bucket = v
	}
	if v := os.Getenv("CBKIT_SCOPE"); v != "" {
		cfg.Scope = v
	}
	if v := os.Getenv("CBKIT_COLLECTION"); v != "" {
		cfg.Collection = v
	}
	cfg.UseTLS = envBool("CBKIT_USE_TLS", cfg.UseTLS)
	cfg.WanProfile = envBool("CBKIT_WAN_PROFILE", cfg.WanProfile)
	cfg.SlowOpLogging = envBool("CBKIT_SLOW_OP_LOGGING", cfg.SlowOpLogging)
	if v := os.Getenv("CBKIT_READY_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.ReadyTimeout = time.Duration(secs) * time.Second
		}
	}
	return cfg
}

func envBool(name string, fallback bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// ConnectionString returns the connection string implied by the config.
func (c *Config) ConnectionString() string {
	scheme := "couchbase"
	if c.UseTLS {
		scheme = "couchbases"
	}
	return scheme + "://" + c.Endpoint
}
