package categorize

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/doc-readiness/constants"
)

func TestEmailThread(t *testing.T) {
	text := strings.Join([]string{
		"From: Jane Roe <jane.roe@example.com>",
		"Sent: 3/14/2019 9:02 AM",
		"To: John Doe <jdoe@example.org>",
		"Subject: Re: schedule",
		"",
		"John, see below. Let me know what works.",
		"",
		"-----Original Message-----",
		"From: John Doe",
		"Subject: schedule",
		"Can we meet next week to go over the draft?",
	}, "\n")
	p := Categorize([]string{text})
	if p.Category != constants.EmailThread {
		t.Fatalf("category = %s, signals = %s", p.Category, p.Signals)
	}
	if p.Confidence <= 0 || p.Confidence > 1 {
		t.Errorf("confidence = %v", p.Confidence)
	}
}

func TestMinimalEmailHeaders(t *testing.T) {
	p := Categorize([]string{"From: a@example.com\nTo: b@example.com\nSubject: hello\n\nbody text"})
	if p.Category != constants.EmailThread {
		t.Fatalf("category = %s, signals = %s", p.Category, p.Signals)
	}
}

func TestLegalProceeding(t *testing.T) {
	text := "UNITED STATES DISTRICT COURT\nCase No. 1:19-cv-00123\n" +
		"JANE ROE, Plaintiff v. ACME CORP., Defendant.\n"
	p := Categorize([]string{text})
	if p.Category != constants.LegalProceeding {
		t.Fatalf("category = %s, signals = %s", p.Category, p.Signals)
	}
}

func TestOtherTextWhenNothingMatches(t *testing.T) {
	p := Categorize([]string{"plain words with no structure at all"})
	if p.Category != constants.OtherText || p.Confidence != 0 {
		t.Errorf("got %+v", p)
	}
	p = Categorize(nil)
	if p.Category != constants.OtherText || p.Confidence != 0 {
		t.Errorf("empty: got %+v", p)
	}
}

func TestContactListDensityBoost(t *testing.T) {
	lines := []string{
		"Alice Smith 555-123-4567",
		"Bob Jones 555-234-5678",
		"Carol White 555-345-6789",
	}
	acc := NewAccumulator()
	acc.Add(strings.Join(lines, "\n"))
	scores := acc.Scores()
	// three phone hits plus the high density boost
	if got := scores[constants.ContactList]; got != 6 {
		t.Errorf("contact score = %v, want 6", got)
	}
	if p := acc.Finalize(); p.Category != constants.ContactList || p.Confidence != 1 {
		t.Errorf("got %+v", p)
	}
}

func TestFormTemplateBoost(t *testing.T) {
	text := "Name: ______\nDate: ______\nSignature: ______\nAddress: ______\nPhone: ______\n[ ] Yes [ ] No"
	acc := NewAccumulator()
	acc.Add(text)
	scores := acc.Scores()
	// 5 blanks + 2 checkboxes + 5 field blanks + 2.0 boost
	if got := scores[constants.FormTemplate]; got != 14 {
		t.Errorf("form score = %v, want 14", got)
	}
	if p := acc.Finalize(); p.Category != constants.FormTemplate {
		t.Errorf("category = %s", p.Category)
	}
}

func TestTiesKeepEarlierCategory(t *testing.T) {
	rules := []CategoryRules{
		{constants.LetterMemo, []Rule{rule("x", `x`)}},
		{constants.Financial, []Rule{rule("y", `y`)}},
	}
	acc := NewAccumulatorWithRules(rules)
	acc.Add("x y")
	p := acc.Finalize()
	if p.Category != constants.LetterMemo || p.Confidence != 0.5 {
		t.Errorf("got %+v", p)
	}
}

func TestSignalsPayload(t *testing.T) {
	acc := NewAccumulator()
	acc.Add("Invoice total $ 100\nPayment due")
	acc.Add("call 555-123-4567")
	p := acc.Finalize()

	var payload struct {
		RuleHits map[string]map[string]int `json:"rule_hits"`
		Stats    map[string]int            `json:"stats"`
	}
	if err := json.Unmarshal([]byte(p.Signals), &payload); err != nil {
		t.Fatalf("signals not JSON: %v", err)
	}
	if len(payload.RuleHits) != len(DefaultRules) {
		t.Errorf("rule_hits has %d categories", len(payload.RuleHits))
	}
	wantFin := map[string]int{"invoice": 1, "payment": 1, "currency": 1}
	if diff := cmp.Diff(wantFin, payload.RuleHits["FINANCIAL"]); diff != "" {
		t.Errorf("financial hits (-want +got):\n%s", diff)
	}
	wantStats := map[string]int{"line_count": 3, "email_address_count": 0, "phone_number_count": 1, "underscore_runs": 0}
	if diff := cmp.Diff(wantStats, payload.Stats); diff != "" {
		t.Errorf("stats (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(p.Signals, `{"rule_hits":{"CONTACT_LIST":`) {
		t.Errorf("keys not sorted: %s", p.Signals)
	}
}

func TestPageOrderDoesNotMatter(t *testing.T) {
	pages := []string{"Dear Sir,\nplease find the invoice", "Sincerely,\nJ.", "Case No. 4"}
	a, b := NewAccumulator(), NewAccumulator()
	for _, p := range pages {
		a.Add(p)
	}
	for i := len(pages) - 1; i >= 0; i-- {
		b.Add(pages[i])
	}
	if diff := cmp.Diff(a.Finalize(), b.Finalize()); diff != "" {
		t.Errorf("(-a +b):\n%s", diff)
	}
}
