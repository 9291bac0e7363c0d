package logging

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"sync"

	"go.uber.org/zap"
)

const traceparentHeader = "traceparent"

// W3C Trace Context: {version}-{trace-id}-{parent-id}-{trace-flags}
var traceparentRe = regexp.MustCompile(`^([0-9a-fA-F]{2})-([0-9a-fA-F]{32})-([0-9a-fA-F]{16})-([0-9a-fA-F]{2})$`)

var (
	projectIDOnce   sync.Once
	cachedProjectID string
)

type traceContext struct {
	traceID string
	spanID  string
	sampled bool
}

func parseTraceparent(header string) (traceContext, bool) {
	m := traceparentRe.FindStringSubmatch(header)
	if m == nil {
		return traceContext{}, false
	}
	return traceContext{traceID: m[2], spanID: m[3], sampled: m[4] == "01"}, true
}

// requestFields are attached to every entry of a request: Cloud Trace
// correlation when the project is known, and the request id.
func requestFields(header, projectID, requestID string) []zap.Field {
	var fields []zap.Field
	if tc, ok := parseTraceparent(header); ok && projectID != "" {
		fields = append(fields,
			zap.String("logging.googleapis.com/trace", fmt.Sprintf("projects/%s/traces/%s", projectID, tc.traceID)),
			zap.String("logging.googleapis.com/spanId", tc.spanID),
			zap.Bool("logging.googleapis.com/trace_sampled", tc.sampled),
		)
	}
	if requestID != "" {
		fields = append(fields, zap.String("requestId", requestID))
	}
	return fields
}

func resolveProjectID() string {
	projectIDOnce.Do(func() {
		candidates := []string{
			os.Getenv("FIREBASE_PROJECT_ID"),
			os.Getenv("GOOGLE_CLOUD_PROJECT"),
			os.Getenv("GCP_PROJECT"),
		}
		if i := slices.IndexFunc(candidates, func(s string) bool { return s != "" }); i >= 0 {
			cachedProjectID = candidates[i]
		}
	})
	return cachedProjectID
}
