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

func TestBuildCounterOptionsDefaults(t *testing.T) {
	o := buildCounterOptions(nil)
	// No initial value means a missing counter fails instead of seeding.
	assert.Equal(t, int64(-1), o.initial)
	assert.Equal(t, uint64(1), o.delta)
	assert.Zero(t, o.expiry)
}

func TestBuildCounterOptions(t *testing.T) {
	o := buildCounterOptions([]CounterOption{
		WithInitial(5),
		WithDelta(10),
		WithCounterExpiry(time.Hour),
		WithCounterTimeout(2 * time.Second),
	})
	assert.Equal(t, int64(5), o.initial)
	assert.Equal(t, uint64(10), o.delta)
	assert.Equal(t, time.Hour, o.expiry)
	assert.Equal(t, 2*time.Second, o.timeout)
}

func TestBuildCounterOptionsZeroDelta(t *testing.T) {
	o := buildCounterOptions([]CounterOption{WithDelta(0)})
	assert.Equal(t, uint64(1), o.delta)
}
