package news

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kennygrant/sanitize"
)

var reNonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe identifier from a display name: accents folded,
// lowercased, with runs of anything else collapsed to single dashes.
func Slugify(name string) string {
	s := sanitize.Accents(name)
	s = strings.ToLower(s)
	s = reNonSlug.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "n-a"
	}
	return s
}

// ResolveSlugCollision returns base if it is free, otherwise the first
// base-N (N = 1, 2, ...) that taken reports as free. The taken probe runs
// inside the caller's transaction so concurrent creators settle on the
// unique constraint, not here.
func ResolveSlugCollision(base string, taken func(slug string) (bool, error)) (string, error) {
	slug := base
	for n := 1; ; n++ {
		inUse, err := taken(slug)
		if err != nil {
			return "", err
		}
		if !inUse {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}
