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
	"sync"

	"github.com/posthog/posthog-go"
)

const (
	posthogAPIKey = "phc_Jk4wN1vqSwz8xQ0dT7cRuYhB2mL5eGfA9pXsE3oD6iU"
	posthogHost   = "https://us.i.posthog.com"
)

var (
	telemetryClient      posthog.Client
	telemetryOnce        sync.Once
	telemetryEnabled     = true
	telemetryInitialized = false
)

// initTelemetry initializes the PostHog client (lazy, called once).
func initTelemetry() {
	telemetryOnce.Do(func() {
		// Check if telemetry is disabled via environment variable
		if os.Getenv("CBKIT_DISABLE_ANALYTICS") == "true" {
			telemetryEnabled = false
			return
		}

		client, err := posthog.NewWithConfig(
			posthogAPIKey,
			posthog.Config{
				Endpoint: posthogHost,
			},
		)
		if err != nil {
			// Failed to initialize, disable telemetry
			telemetryEnabled = false
			return
		}

		telemetryClient = client
		telemetryInitialized = true
	})
}

// trackEvent sends an event to PostHog with static metadata only.
// No keys, values or statements ever leave the process.
func trackEvent(eventName string, properties map[string]interface{}) {
	initTelemetry()

	if !telemetryEnabled || !telemetryInitialized {
		return
	}

	if properties == nil {
		properties = make(map[string]interface{})
	}
	properties["kit_version"] = Version
	properties["kit_language"] = "go"

	// Anonymous distinct ID; we don't track users.
	distinctID := "anonymous"

	// Enqueue event (non-blocking)
	_ = telemetryClient.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      eventName,
		Properties: properties,
	})
}

// trackConnected tracks a successful cluster connection.
func trackConnected() {
	trackEvent("cluster_connected", nil)
}

// trackError tracks error events with error class and location only.
func trackError(errorClass, location string) {
	trackEvent("operation_error", map[string]interface{}{
		"error_class": errorClass,
		"location":    location,
	})
}

// flushTelemetry closes the PostHog client (called on shutdown).
func flushTelemetry() {
	if telemetryInitialized && telemetryClient != nil {
		_ = telemetryClient.Close()
	}
}
