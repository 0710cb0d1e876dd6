package handler

import (
	"testing"
	"time"
)

func TestVisitorLimitersEnforcesBurst(t *testing.T) {
	v := newVisitorLimiters(1, 2)

	if !v.allow("10.0.0.1") || !v.allow("10.0.0.1") {
		t.Fatal("requests within burst must be allowed")
	}
	if v.allow("10.0.0.1") {
		t.Fatal("request beyond burst must be rejected")
	}
	// Buckets are per IP: a different client is unaffected.
	if !v.allow("10.0.0.2") {
		t.Fatal("fresh client must get its own bucket")
	}
}

func TestVisitorLimitersSweepEvictsIdleClients(t *testing.T) {
	v := newVisitorLimiters(1, 1)
	v.allow("10.0.0.1")
	v.lastSeen["10.0.0.1"] = time.Now().Add(-limiterStaleAfter - time.Minute)

	v.sweep()

	if _, ok := v.buckets["10.0.0.1"]; ok {
		t.Fatal("idle bucket should have been evicted")
	}
	if _, ok := v.lastSeen["10.0.0.1"]; ok {
		t.Fatal("idle lastSeen entry should have been evicted")
	}
}
