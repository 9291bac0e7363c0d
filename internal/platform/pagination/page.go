package pagination

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Page is one window of a listing with the cursors around it.
type Page[T any] struct {
	Items []T
	Total int
	Next  string
	Prev  string
	limit int
}

// Window returns the page of at most limit items that follows c. items must
// already be in listing order; id identifies an item for cursors. A cursor
// naming an item that is no longer listed yields ErrStaleCursor.
func Window[T any](items []T, c Cursor, limit int, id func(T) string) (Page[T], error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	start := 0
	if c.After != "" {
		i := slices.IndexFunc(items, func(item T) bool { return id(item) == c.After })
		if i < 0 {
			return Page[T]{}, ErrStaleCursor
		}
		start = i + 1
	}
	end := min(start+limit, len(items))

	page := Page[T]{Items: items[start:end], Total: len(items), limit: limit}
	if end < len(items) {
		page.Next = Cursor{Kind: c.Kind, After: id(items[end-1])}.Encode()
	}
	switch {
	case start == 0:
	case start <= limit:
		page.Prev = Cursor{Kind: c.Kind}.Encode()
	default:
		page.Prev = Cursor{Kind: c.Kind, After: id(items[start-limit-1])}.Encode()
	}
	return page, nil
}

// Link renders the Link header for the page. Query parameters other than
// cursor and limit are carried over unchanged.
func (p Page[T]) Link(path string, query url.Values) string {
	var links []string
	for _, l := range []struct{ rel, cursor string }{{"next", p.Next}, {"prev", p.Prev}} {
		if l.cursor == "" {
			continue
		}
		q := url.Values{}
		for k, v := range query {
			q[k] = slices.Clone(v)
		}
		q.Set("cursor", l.cursor)
		q.Set("limit", strconv.Itoa(p.limit))
		links = append(links, fmt.Sprintf("<%s?%s>; rel=%q", path, q.Encode(), l.rel))
	}
	return strings.Join(links, ", ")
}
