package logging

import (
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const sampledParent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

func fieldMap(fields []zap.Field) map[string]any {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	return enc.Fields
}

func resetProjectID(t *testing.T) {
	t.Helper()
	projectIDOnce = sync.Once{}
	cachedProjectID = ""
	t.Cleanup(func() {
		projectIDOnce = sync.Once{}
		cachedProjectID = ""
	})
}

func TestParseTraceparent(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		ok      bool
		sampled bool
	}{
		{"sampled", sampledParent, true, true},
		{"not sampled", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-00", true, false},
		{"empty", "", false, false},
		{"short trace id", "00-4bf92f35-00f067aa0ba902b7-01", false, false},
		{"garbage", "not-a-traceparent", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc, ok := parseTraceparent(tt.header)
			if ok != tt.ok || tc.sampled != tt.sampled {
				t.Fatalf("parseTraceparent(%q) = (%+v, %v)", tt.header, tc, ok)
			}
			if ok && tc.traceID != "4bf92f3577b34da6a3ce929d0e0e4736" {
				t.Fatalf("unexpected trace id %q", tc.traceID)
			}
		})
	}
}

func TestRequestFields(t *testing.T) {
	got := fieldMap(requestFields(sampledParent, "demo-project", "req-1"))
	want := map[string]any{
		"logging.googleapis.com/trace":         "projects/demo-project/traces/4bf92f3577b34da6a3ce929d0e0e4736",
		"logging.googleapis.com/spanId":        "00f067aa0ba902b7",
		"logging.googleapis.com/trace_sampled": true,
		"requestId":                            "req-1",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("expected %s=%v, got %v", k, v, got[k])
		}
	}
}

func TestRequestFieldsWithoutProject(t *testing.T) {
	got := fieldMap(requestFields(sampledParent, "", "req-1"))
	if len(got) != 1 || got["requestId"] != "req-1" {
		t.Fatalf("expected only requestId, got %v", got)
	}
	if fields := requestFields("", "", ""); len(fields) != 0 {
		t.Fatalf("expected no fields, got %v", fields)
	}
}

func TestResolveProjectIDPriority(t *testing.T) {
	resetProjectID(t)
	t.Setenv("FIREBASE_PROJECT_ID", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "gcp-project")
	t.Setenv("GCP_PROJECT", "legacy-project")

	if got := resolveProjectID(); got != "gcp-project" {
		t.Fatalf("expected gcp-project, got %q", got)
	}
	t.Setenv("GOOGLE_CLOUD_PROJECT", "changed")
	if got := resolveProjectID(); got != "gcp-project" {
		t.Fatalf("expected cached value, got %q", got)
	}
}
