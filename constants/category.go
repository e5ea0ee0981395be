package constants

import (
	"strings"
)

// ContentCategory is the rule-based content type of a document's text.
type ContentCategory string

const (
	EmailThread     ContentCategory = "EMAIL_THREAD"
	LegalProceeding ContentCategory = "LEGAL_PROCEEDING"
	LetterMemo      ContentCategory = "LETTER_MEMO"
	Financial       ContentCategory = "FINANCIAL"
	ContactList     ContentCategory = "CONTACT_LIST"
	FormTemplate    ContentCategory = "FORM_TEMPLATE"
	OtherText       ContentCategory = "OTHER_TEXT"
)

// allCategories is ordered; ties in scoring resolve to the earlier entry.
var allCategories = []ContentCategory{
	EmailThread,
	LegalProceeding,
	LetterMemo,
	Financial,
	ContactList,
	FormTemplate,
}

// ScoredCategories returns the categories that carry rule tables (OTHER_TEXT excluded).
func ScoredCategories() []ContentCategory {
	out := make([]ContentCategory, len(allCategories))
	copy(out, allCategories)
	return out
}

func AsStringSlice() []string {
	result := make([]string, 0, len(allCategories)+1)
	for _, cat := range allCategories {
		result = append(result, string(cat))
	}
	return append(result, string(OtherText))
}

// Canonicalize maps a free-form category name onto the enumerated set.
func Canonicalize(input string) (ContentCategory, bool) {
	if input == "" {
		return OtherText, false
	}

	normalized := strings.ToUpper(strings.TrimSpace(input))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)

	synonyms := map[string]ContentCategory{
		"EMAIL":    EmailThread,
		"EMAILS":   EmailThread,
		"LEGAL":    LegalProceeding,
		"COURT":    LegalProceeding,
		"LETTER":   LetterMemo,
		"MEMO":     LetterMemo,
		"INVOICE":  Financial,
		"CONTACTS": ContactList,
		"FORM":     FormTemplate,
		"OTHER":    OtherText,
	}
	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}
	if normalized == string(OtherText) {
		return OtherText, true
	}
	return OtherText, false
}
