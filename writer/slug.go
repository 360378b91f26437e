package writer

import (
	"regexp"
	"strconv"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// ToSlug lowercases name, replaces runs of non-alphanumerics with a
// single hyphen, strips leading/trailing hyphens, and truncates to 50
// chars, defaulting to "event" if the result is empty (§4.5 slug law).
func ToSlug(name string) string {
	s := nonAlnum.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = strings.TrimRight(s[:50], "-")
	}
	if s == "" {
		s = "event"
	}
	return s
}

// ResolveSlugCollision returns the first of baseSlug, baseSlug-2, ...,
// baseSlug-100 that is not present in taken; if all 100 collide, it
// falls back to baseSlug-<nowMs> (§4.5).
func ResolveSlugCollision(baseSlug string, taken map[string]bool, nowMs int64) string {
	if !taken[baseSlug] {
		return baseSlug
	}
	for i := 2; i <= 100; i++ {
		candidate := baseSlug + "-" + strconv.Itoa(i)
		if !taken[candidate] {
			return candidate
		}
	}
	return baseSlug + "-" + strconv.FormatInt(nowMs, 10)
}
