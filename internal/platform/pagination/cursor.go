// Package pagination implements opaque cursors and RFC 8288 Link headers for
// listings that are served newest first.
package pagination

import (
	"encoding/base64"
	"errors"
	"strings"
)

// Cursor errors
var (
	ErrInvalidCursor  = errors.New("invalid cursor format")
	ErrCursorMismatch = errors.New("cursor type mismatch")
	ErrStaleCursor    = errors.New("cursor references an unknown item")
)

// Cursor is a position in a listing: the kind of resource listed and the id
// of the item the page starts after. An empty After is the first page.
type Cursor struct {
	Kind  string
	After string
}

// Encode returns a URL-safe opaque Base64 representation.
func (c Cursor) Encode() string {
	return base64.RawURLEncoding.EncodeToString([]byte(c.Kind + ":" + c.After))
}

// Decode parses s and checks that it was issued for kind. An empty s decodes
// to the first page.
func Decode(s, kind string) (Cursor, error) {
	if s == "" {
		return Cursor{Kind: kind}, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	k, after, ok := strings.Cut(string(b), ":")
	if !ok {
		return Cursor{}, ErrInvalidCursor
	}
	if k != kind {
		return Cursor{}, ErrCursorMismatch
	}
	return Cursor{Kind: k, After: after}, nil
}
