package utils

import "testing"

func TestSafeEnv(t *testing.T) {
	t.Setenv("_HRPULSE_TEST_A", "")
	t.Setenv("_HRPULSE_TEST_B", " value ")
	if got := SafeEnv("fallback", "_HRPULSE_TEST_A"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	if got := SafeEnv("fallback", "_HRPULSE_TEST_A", "_HRPULSE_TEST_B"); got != "value" {
		t.Fatalf("expected 'value', got %q", got)
	}
}
