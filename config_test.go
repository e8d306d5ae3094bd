// Copyright 2025 The cbkit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0

package cbkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "localhost", cfg.Endpoint)
	assert.Equal(t, "travel-sample", cfg.Bucket)
	assert.Equal(t, "inventory", cfg.Scope)
	assert.Equal(t, "airline", cfg.Collection)
	assert.Equal(t, 10*time.Second, cfg.ReadyTimeout)
	assert.False(t, cfg.UseTLS)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("CBKIT_ENDPOINT", "db.example.com")
	t.Setenv("CBKIT_USERNAME", "app")
	t.Setenv("CBKIT_PASSWORD", "secret")
	t.Setenv("CBKIT_BUCKET", "main")
	t.Setenv("CBKIT_SCOPE", "tenant1")
	t.Setenv("CBKIT_COLLECTION", "orders")
	t.Setenv("CBKIT_USE_TLS", "true")
	t.Setenv("CBKIT_WAN_PROFILE", "1")
	t.Setenv("CBKIT_READY_TIMEOUT_SECONDS", "30")

	cfg := FromEnv()
	assert.Equal(t, "db.example.com", cfg.Endpoint)
	assert.Equal(t, "app", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, "main", cfg.Bucket)
	assert.Equal(t, "tenant1", cfg.Scope)
	assert.Equal(t, "orders", cfg.Collection)
	assert.True(t, cfg.UseTLS)
	assert.True(t, cfg.WanProfile)
	assert.Equal(t, 30*time.Second, cfg.ReadyTimeout)
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("CBKIT_ENDPOINT", "")
	t.Setenv("CBKIT_USE_TLS", "not-a-bool")
	t.Setenv("CBKIT_READY_TIMEOUT_SECONDS", "zero")

	cfg := FromEnv()
	assert.Equal(t, "localhost", cfg.Endpoint)
	assert.False(t, cfg.UseTLS)
	assert.Equal(t, 10*time.Second, cfg.ReadyTimeout)
}

func TestConnectionString(t *testing.T) {
	cfg := &Config{Endpoint: "db.example.com"}
	assert.Equal(t, "couchbase://db.example.com", cfg.ConnectionString())

	cfg.UseTLS = true
	assert.Equal(t, "couchbases://db.example.com", cfg.ConnectionString())
}
