package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	slugInvalid    = regexp.MustCompile(`[^a-z0-9-]+`)
	slugHyphens    = regexp.MustCompile(`-+`)
	dirTokenUnsafe = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// GenerateSlug derives a URL-safe slug from a manga title.
// "One Piece!" -> "one-piece"
func GenerateSlug(input string) string {
	lower := strings.ToLower(input)

	hyphenated := strings.ReplaceAll(lower, " ", "-")

	cleaned := slugInvalid.ReplaceAllString(hyphenated, "")

	// Collapse runs of hyphens left behind by removed characters.
	normalized := slugHyphens.ReplaceAllString(cleaned, "-")

	return strings.Trim(normalized, "-")
}

// SafeDirToken resolves the filesystem directory token for a manga:
// the slug with every character outside [A-Za-z0-9_-] replaced by "_",
// or a generated "manga_<id>" token when the manga has no slug.
// Deterministic and pure; the same manga always maps to the same token.
func SafeDirToken(slug string, id int64) string {
	if slug == "" {
		return fmt.Sprintf("manga_%d", id)
	}
	return dirTokenUnsafe.ReplaceAllString(slug, "_")
}
