// Package testutil gates integration tests on local backends: the Firebase
// emulators, Redis and MinIO from the docker compose stack. Tests skip when
// a backend is not listening.
package testutil

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"testing"
	"time"
)

const (
	AuthEmulatorHost      = "127.0.0.1:7110"
	FirestoreEmulatorHost = "127.0.0.1:7130"
	ProjectID             = "demo-portfolio-builder"
	fakeAPIKey            = "fake-api-key" //nolint:gosec // emulator only

	MinIOAccessKey = "minioadmin"
	MinIOSecretKey = "minioadmin" //nolint:gosec // local compose defaults
)

func RedisAddr() string     { return cmp.Or(os.Getenv("REDIS_ADDR"), "127.0.0.1:6379") }
func MinIOEndpoint() string { return cmp.Or(os.Getenv("MINIO_ENDPOINT"), "127.0.0.1:9000") }

func reachable(host string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func skipUnless(t *testing.T, name, host string) {
	t.Helper()
	if !reachable(host) {
		t.Skipf("%s not available at %s", name, host)
	}
}

func SkipIfFirestoreUnavailable(t *testing.T) {
	t.Helper()
	skipUnless(t, "Firestore emulator", FirestoreEmulatorHost)
}

func SkipIfAuthUnavailable(t *testing.T) {
	t.Helper()
	skipUnless(t, "Auth emulator", AuthEmulatorHost)
}

func SkipIfRedisUnavailable(t *testing.T) {
	t.Helper()
	skipUnless(t, "Redis", RedisAddr())
}

func SkipIfMinIOUnavailable(t *testing.T) {
	t.Helper()
	skipUnless(t, "MinIO", MinIOEndpoint())
}

// SetupEmulator points the Firebase SDKs at the local emulators.
func SetupEmulator(t *testing.T) {
	t.Helper()
	t.Setenv("FIREBASE_AUTH_EMULATOR_HOST", AuthEmulatorHost)
	t.Setenv("FIRESTORE_EMULATOR_HOST", FirestoreEmulatorHost)
}

func emulatorRequest(t *testing.T, method, url string, body any, out any) {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, &payload)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		t.Fatalf("%s %s: status %d", method, url, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

// ClearFirestore deletes every document, portfolios and sessions alike.
func ClearFirestore(t *testing.T) {
	t.Helper()
	emulatorRequest(t, http.MethodDelete, fmt.Sprintf(
		"http://%s/emulator/v1/projects/%s/databases/(default)/documents", FirestoreEmulatorHost, ProjectID), nil, nil)
}

// ClearAccounts deletes every Auth emulator user.
func ClearAccounts(t *testing.T) {
	t.Helper()
	emulatorRequest(t, http.MethodDelete, fmt.Sprintf(
		"http://%s/emulator/v1/projects/%s/accounts", AuthEmulatorHost, ProjectID), nil, nil)
}

// SignUp is the Auth emulator's answer to accounts:signUp.
type SignUp struct {
	IDToken string `json:"idToken"`
	LocalID string `json:"localId"`
	Email   string `json:"email"`
}

// CreateOwner registers a portfolio owner and returns an ID token for it.
func CreateOwner(t *testing.T, email, password string) SignUp {
	t.Helper()
	var out SignUp
	emulatorRequest(t, http.MethodPost, fmt.Sprintf(
		"http://%s/identitytoolkit.googleapis.com/v1/accounts:signUp?key=%s", AuthEmulatorHost, fakeAPIKey),
		map[string]any{"email": email, "password": password, "returnSecureToken": true}, &out)
	return out
}
