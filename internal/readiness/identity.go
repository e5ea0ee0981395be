package readiness

import (
	"fmt"
	"strings"
)

// StableDocID prefers the content hash and falls back to path, size and
// modification time.
func StableDocID(sha256Hex, relPath string, size int64, modTime string) string {
	if s := strings.TrimSpace(sha256Hex); s != "" {
		return s
	}
	return fmt.Sprintf("%s|%d|%s", relPath, size, modTime)
}

// NormalizeRelPath canonicalizes a relative path: forward slashes, no
// leading "./" or "/", no empty or "." segments. Archive members keep the
// "archive::member" form with both halves normalized.
func NormalizeRelPath(path string) string {
	value := strings.TrimSpace(path)
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "\\", "/")
	if prefix, suffix, ok := strings.Cut(value, "::"); ok {
		return normalizeSegment(prefix) + "::" + normalizeSegment(suffix)
	}
	return normalizeSegment(value)
}

func normalizeSegment(value string) string {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), "\\", "/")
	for strings.HasPrefix(cleaned, "./") {
		cleaned = cleaned[2:]
	}
	cleaned = strings.TrimLeft(cleaned, "/")
	parts := strings.Split(cleaned, "/")
	kept := parts[:0]
	for _, p := range parts {
		if p == "" || p == "." {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, "/")
}

// TopLevelFolder returns the first directory of a normalized relative path,
// or "" for a file at the root.
func TopLevelFolder(relPath string) string {
	p := NormalizeRelPath(relPath)
	if archive, _, ok := strings.Cut(p, "::"); ok {
		p = archive
	}
	first, _, ok := strings.Cut(p, "/")
	if !ok {
		return ""
	}
	return first
}
