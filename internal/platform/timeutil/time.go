// Package timeutil fixes how API timestamps are written: UTC with
// millisecond precision in JSON, RFC 3339 tagged strings in CBOR.
package timeutil

import (
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
)

const (
	// RFC3339Millis is the API timestamp layout.
	RFC3339Millis = "2006-01-02T15:04:05.000Z"
	// RFC3339Micros is the log timestamp layout.
	RFC3339Micros = "2006-01-02T15:04:05.000000Z"
)

// cborDateTime is the CBOR tag for RFC 3339 date/time strings.
const cborDateTime = 0

// Time serializes as "2024-01-15T10:30:00.000Z" whatever its zone and
// precision. JSON null leaves the value untouched, as time.Time does.
type Time struct {
	time.Time
}

func (t Time) String() string { return t.UTC().Format(RFC3339Millis) }

func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, strings.Trim(s, `"`))
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalCBOR writes a tag 0 string rather than time.Time's binary form.
func (t Time) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{Number: cborDateTime, Content: t.String()})
}

func (t *Time) UnmarshalCBOR(data []byte) error {
	var parsed time.Time
	if err := cbor.Unmarshal(data, &parsed); err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func NewTime(t time.Time) Time { return Time{Time: t} }

// Optional returns nil for the zero time, for fields such as lastViewed.
func Optional(t time.Time) *Time {
	if t.IsZero() {
		return nil
	}
	return &Time{Time: t}
}

func Now() Time { return Time{Time: time.Now()} }
