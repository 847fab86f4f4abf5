package main

import (
	"strings"
	"testing"
)

func TestLoadRejectsBadThreshold(t *testing.T) {
	t.Setenv("ANALYSIS_PROVIDER", "gemini")
	t.Setenv("CAPTURE_THRESHOLD", "150")

	flags := &globalFlags{}
	if _, err := flags.load(); err == nil || !strings.Contains(err.Error(), "CAPTURE_THRESHOLD") {
		t.Fatalf("expected threshold error, got %v", err)
	}
}

func TestLoadAcceptsMissingCredentials(t *testing.T) {
	t.Setenv("ANALYSIS_PROVIDER", "gemini")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("CAPTURE_THRESHOLD", "60")

	flags := &globalFlags{}
	if _, err := flags.load(); err != nil {
		t.Fatalf("credential problems belong to the analysis step, got %v", err)
	}
}

func TestLoadFlagOverridesAreValidated(t *testing.T) {
	t.Setenv("CAPTURE_THRESHOLD", "60")

	flags := &globalFlags{provider: "pigeon"}
	if _, err := flags.load(); err == nil {
		t.Fatalf("expected unknown provider error")
	}
}
