// Package publish uploads rendered portfolio sites to object storage.
package publish

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ErrPublishFailed wraps storage failures during Publish.
var ErrPublishFailed = errors.New("publish failed")

// Publisher stores a site under slug and returns its public URL. Unpublish
// removes the site; removing a missing site succeeds.
type Publisher interface {
	Publish(ctx context.Context, slug, html string) (string, error)
	Unpublish(ctx context.Context, slug string) error
}

const maxSlugLength = 63

var slugRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)

// ValidSlug reports whether s can be used as a site path segment.
func ValidSlug(s string) bool {
	return slugRe.MatchString(s)
}

// Slugify derives a lowercase, hyphen separated slug from s. Accents are
// folded to their base letters and other characters are dropped. The result
// may be empty.
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range norm.NFKD.String(s) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingHyphen = true
		}
		if b.Len() >= maxSlugLength {
			break
		}
	}
	out := b.String()
	if len(out) > maxSlugLength {
		out = out[:maxSlugLength]
	}
	return strings.Trim(out, "-")
}

// ObjectKey returns the storage key of a site's index page.
func ObjectKey(slug string) string {
	return "sites/" + slug + "/index.html"
}

// PublicURL joins the public base URL and slug.
func PublicURL(baseURL, slug string) string {
	return strings.TrimRight(baseURL, "/") + "/" + slug + "/"
}
