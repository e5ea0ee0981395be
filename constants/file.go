package constants

import "strings"

// AllowedExtensions holds the file extensions picked up when probing a directory.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsPDFExt reports whether ext names a PDF.
func IsPDFExt(ext string) bool {
	return NormalizeExt(ext) == "pdf"
}
