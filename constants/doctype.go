package constants

import "strings"

// DocType is the document type label predicted by the page-feature classifier.
type DocType string

const (
	TextPDF        DocType = "TEXT_PDF"
	ImageOfTextPDF DocType = "IMAGE_OF_TEXT_PDF"
	ImagePDF       DocType = "IMAGE_PDF"
	MixedPDF       DocType = "MIXED_PDF"
)

var allDocTypes = []DocType{TextPDF, ImageOfTextPDF, ImagePDF, MixedPDF}

// DocTypeLabels returns the fixed label set in reporting order.
func DocTypeLabels() []string {
	out := make([]string, len(allDocTypes))
	for i, l := range allDocTypes {
		out[i] = string(l)
	}
	return out
}

// NormalizeLabel maps a human-entered truth label onto the label set.
// Legacy TEXT_PDF truth labels were assigned to scanned-text documents and
// are migrated to IMAGE_OF_TEXT_PDF.
func NormalizeLabel(raw string) (DocType, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(ImagePDF):
		return ImagePDF, true
	case string(TextPDF), string(ImageOfTextPDF):
		return ImageOfTextPDF, true
	case string(MixedPDF):
		return MixedPDF, true
	}
	return "", false
}

// HeuristicLabel maps a text-readiness classification to a doc type label.
// Unknown has no basis and yields the empty label.
func HeuristicLabel(c Classification) DocType {
	switch c {
	case ClassTextBased:
		return TextPDF
	case ClassScanned:
		return ImagePDF
	case ClassMixed:
		return MixedPDF
	}
	return ""
}
