package categorize

import (
	"regexp"

	"github.com/joseph-ayodele/doc-readiness/constants"
)

// Rule is a named pattern whose every match adds Weight to its category.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Weight  float64
}

// CategoryRules pairs a category with its rules.
type CategoryRules struct {
	Category constants.ContentCategory
	Rules    []Rule
}

var (
	reEmail = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`)
	rePhone = regexp.MustCompile(`\b\(?\d{3}\)?[-.\s]\d{3}[-.\s]\d{4}\b`)
	reBlank = regexp.MustCompile(`_{3,}`)
)

func rule(name, pattern string) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(pattern), Weight: 1}
}

// DefaultRules is ordered; equal scores resolve to the earlier category.
var DefaultRules = []CategoryRules{
	{constants.EmailThread, []Rule{
		rule("email_headers", `(?im)^(from|to|sent|subject|cc|bcc):`),
		rule("original_message", `(?i)-{2,}\s*original message\s*-{2,}`),
		{Name: "email_address", Pattern: reEmail, Weight: 1},
		rule("timestamp", `(?i)\b\d{1,2}/\d{1,2}/\d{2,4}\b|\b\d{1,2}:\d{2}\s?(am|pm)?`),
	}},
	{constants.LegalProceeding, []Rule{
		rule("case_no", `(?i)\bcase\s+no\.?`),
		rule("docket", `(?i)\bdocket\b`),
		rule("party_roles", `(?i)\bplaintiff\b|\bdefendant\b`),
		rule("court_terms", `(?i)\bcourt\b|\bhon\.`),
		rule("motions", `(?i)\bmotion\b|\baffidavit\b|\bdeposition\b`),
		rule("caption", `(?i)\bin the .* court\b`),
		rule("versus", `\b v\. \b`),
	}},
	{constants.LetterMemo, []Rule{
		rule("salutation", `(?im)^dear\s`),
		rule("signoff", `(?im)^(sincerely|respectfully)\b`),
		rule("memo_header", `(?im)^(to|from|date|subject|re):`),
	}},
	{constants.Financial, []Rule{
		rule("invoice", `(?i)\binvoice\b`),
		rule("payment", `(?i)\bpayment\b|\bamount due\b`),
		rule("account", `(?i)\baccount\b|\bwire\b`),
		rule("currency", `\$\s?\d|\bUSD\b|\bEUR\b`),
	}},
	{constants.ContactList, []Rule{
		{Name: "email_address", Pattern: reEmail, Weight: 1},
		{Name: "phone_number", Pattern: rePhone, Weight: 1},
	}},
	{constants.FormTemplate, []Rule{
		{Name: "underscore_blank", Pattern: reBlank, Weight: 1},
		rule("checkbox", `\[\s*\]|\x{2610}|\x{2611}`),
		rule("field_blank", `(?i)(name|date|signature|address|phone|email):\s*_{2,}`),
	}},
}

// Boost adds Score to Category when Applies holds for the document totals.
type Boost struct {
	Name     string
	Category constants.ContentCategory
	Score    float64
	Applies  func(t Totals) bool
}

// DefaultBoosts are evaluated in order; within a Group only the first
// applying boost counts.
var DefaultBoosts = []struct {
	Group  string
	Boosts []Boost
}{
	{"contact_density", []Boost{
		{"contact_density_high", constants.ContactList, 3.0, func(t Totals) bool { return t.maxContactDensity() > 0.3 }},
		{"contact_density_low", constants.ContactList, 1.5, func(t Totals) bool { return t.maxContactDensity() > 0.15 }},
	}},
	{"blank_fields", []Boost{
		{"blank_fields_many", constants.FormTemplate, 2.0, func(t Totals) bool { return t.UnderscoreRuns >= 5 }},
		{"blank_fields_some", constants.FormTemplate, 0.5, func(t Totals) bool { return t.UnderscoreRuns > 0 }},
	}},
}
