// Copyright 2025 The cbkit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0

package cbkit

import "testing"

func TestTelemetryDisabled(t *testing.T) {
	t.Setenv("CBKIT_DISABLE_ANALYTICS", "true")

	// With telemetry off, tracking and flushing must be silent no-ops.
	trackEvent("cluster_connected", nil)
	trackError("timeout", "TestTelemetryDisabled")
	trackConnected()
	flushTelemetry()
}
