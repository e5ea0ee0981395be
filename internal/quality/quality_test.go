package quality

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/doc-readiness/constants"
	"github.com/joseph-ayodele/doc-readiness/internal/common"
)

const prose = "The quick brown fox jumps over the lazy dog. " +
	"Pack my box with five dozen liquor jugs. " +
	"How vexingly quick daft zebras jump. "

func newScorer(t *testing.T, cfg Config, d LanguageDetector) *Scorer {
	t.Helper()
	s, err := NewScorer(cfg, d, nil)
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	return s
}

func TestAccumulationIsOrderIndependent(t *testing.T) {
	pages := []string{
		strings.Repeat(prose, 3),
		"#### ---- ____ ....\n\tfoo",
		"Invoice 12345\r\nTotal: $1,200.00\n\n",
		"\x01\x02 broken � text",
		"",
		"ünïcödé — ½ ²",
	}
	cfg := DefaultConfig()
	base := NewAccumulator(cfg.RepeatedRunMin)
	for _, p := range pages {
		base.Add(p)
	}
	want := base.Finalize(cfg, 0)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]string(nil), pages...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		acc := NewAccumulator(cfg.RepeatedRunMin)
		for _, p := range shuffled {
			acc.Add(p)
		}
		if diff := cmp.Diff(want, acc.Finalize(cfg, 0)); diff != "" {
			t.Fatalf("order %d changed stats (-want +got):\n%s", i, diff)
		}
	}

	// merging partial accumulators matches sequential accumulation
	left, right := NewAccumulator(cfg.RepeatedRunMin), NewAccumulator(cfg.RepeatedRunMin)
	for i, p := range pages {
		if i%2 == 0 {
			left.Add(p)
		} else {
			right.Add(p)
		}
	}
	right.Merge(left)
	if diff := cmp.Diff(want, right.Finalize(cfg, 0)); diff != "" {
		t.Fatalf("merge changed stats (-want +got):\n%s", diff)
	}
}

func TestShortTextIsAlwaysEmpty(t *testing.T) {
	cfg := DefaultConfig()
	s := newScorer(t, cfg, nil)
	inputs := []string{
		"",
		"a b c d e f g h i j k l",
		strings.Repeat("#", 49),
		"\x00\x01\x02�",
	}
	for _, in := range inputs {
		if utf8.RuneCountInString(in) >= cfg.EmptyMinChars {
			t.Fatalf("test input too long: %q", in)
		}
		if got := s.Score([]string{in}, 1).Label; got != constants.QualityEmpty {
			t.Errorf("%q labeled %s, want EMPTY", in, got)
		}
	}
}

func TestEmptyTextScoresZero(t *testing.T) {
	st := newScorer(t, DefaultConfig(), nil).Score(nil, 0)
	if st.GibberishScore != 0 || st.Score != 0 || st.TotalChars != 0 {
		t.Errorf("got %+v", st)
	}
}

func TestGoodProse(t *testing.T) {
	st := newScorer(t, DefaultConfig(), nil).Score([]string{strings.Repeat(prose, 5)}, 1)
	if st.Label != constants.QualityGood {
		t.Fatalf("label = %s, flags = %v", st.Label, st.GibberishFlags)
	}
	if st.GibberishScore != 0 {
		t.Errorf("gibberish = %v", st.GibberishScore)
	}
	if st.Score <= 0.5 || st.Score > 1 {
		t.Errorf("score = %v", st.Score)
	}
}

func TestGibberishPenalties(t *testing.T) {
	text := strings.Repeat("%%%%&&&&####@@@@ ", 10) + strings.Repeat("\x07", 10) + "�"
	st := newScorer(t, DefaultConfig(), nil).Score([]string{text}, 1)
	wantFlags := []string{"low_alpha", "low_printable", "few_words", "symbol_heavy", "replacement_chars", "control_chars", "repeated_runs"}
	if diff := cmp.Diff(wantFlags, st.GibberishFlags); diff != "" {
		t.Errorf("flags (-want +got):\n%s", diff)
	}
	if st.GibberishScore != 1 {
		t.Errorf("gibberish = %v, want capped at 1", st.GibberishScore)
	}
	if st.Label != constants.QualityLow {
		t.Errorf("label = %s", st.Label)
	}
	if st.Score != 0 {
		t.Errorf("score = %v", st.Score)
	}
}

func TestRepeatedRuns(t *testing.T) {
	acc := NewAccumulator(4)
	acc.Add("a____b...c####")
	acc.Add("aaaa 1111    ")
	if acc.repeatedRunChars != 8 {
		t.Errorf("repeated run chars = %d, want 8", acc.repeatedRunChars)
	}
}

func TestLineStats(t *testing.T) {
	acc := NewAccumulator(4)
	acc.Add("  ab  \r\nabcd\n")
	st := acc.Finalize(DefaultConfig(), 1)
	if st.AvgLineLen != 3 || st.StdLineLen != 1 {
		t.Errorf("line stats = %v / %v", st.AvgLineLen, st.StdLineLen)
	}
}

func TestSanitizeSnippet(t *testing.T) {
	in := "Contact  john.doe@example.com\nacct 1234567 or 1234 ok"
	want := "Contact [email] acct [number] or 1234 ok"
	if got := SanitizeSnippet(in, 200); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	got := SanitizeSnippet(strings.Repeat("word ", 100), 12)
	if got != "word word wo…" {
		t.Errorf("truncated = %q", got)
	}
}

type fixedDetector struct{ code string }

func (f fixedDetector) Detect(string) (string, float64) { return f.code, 0.9 }

func TestScorerOptionalOutputs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StoreSnippet = true
	cfg.DetectLanguage = true
	cfg.SnippetMaxChars = 20
	st := newScorer(t, cfg, fixedDetector{"en"}).Score([]string{strings.Repeat(prose, 2)}, 1)
	if st.Language != "en" {
		t.Errorf("language = %q", st.Language)
	}
	if utf8.RuneCountInString(st.Snippet) > 21 {
		t.Errorf("snippet too long: %q", st.Snippet)
	}

	st = newScorer(t, cfg, fixedDetector{"en"}).Score([]string{"tiny"}, 1)
	if st.Language != "" {
		t.Errorf("empty text should not be language tagged, got %q", st.Language)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinAlphaRatio = 2
	if _, err := NewScorer(cfg, nil, nil); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
	cfg = DefaultConfig()
	cfg.DetectLanguage = true
	cfg.Languages = []string{"en"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("single language should be rejected")
	}
}
