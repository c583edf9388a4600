package resolve

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"kiosk/internal/knowledge"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBase() *knowledge.Base {
	return &knowledge.Base{
		FAQ: map[string]string{
			"godziny_otwarcia": "Czynne codziennie 8:00-22:00.",
			"adres":            "ul. Kolejowa 41, Ostrów Wielkopolski.",
		},
		Dishes: []knowledge.Dish{
			{Name: "Karkandak z grzybami", Description: "Pieczarki, najbardziej pikantne.", Price: "8 zł", Category: "słone", Spiciness: 5},
			{Name: "Karkandak kaukaski", Description: "Soczewica, najłagodniejsza.", Price: "8 zł", Category: "słone", Spiciness: 1},
			{Name: "Karkandak z nutellą", Description: "Najbardziej kaloryczne.", Price: "8 zł", Category: "słodkie", Spiciness: 0},
		},
		Intents: []knowledge.Intent{
			{Name: "greeting", Keywords: []string{"cześć", "dzień dobry"}, Response: "Dzień dobry! Miło Cię widzieć."},
		},
		Rules: knowledge.Rules{
			SavoryKeywords:    []string{"słonego", "wytrawne"},
			SavoryResponse:    "Powiedz tylko, czy lubisz ostre?",
			KidsKeywords:      []string{"dziecko", "dzieci", "dziecka"},
			KidsCategory:      "słone",
			RecommendKeywords: []string{"polecacie"},
			ExcludedDish:      "Karkandak z nutellą",
			ExclusionReason:   "Nutelli nie polecam.",
		},
	}
}

// instrument wraps every matcher so tests can observe invocations.
func instrument(e *Engine) *int {
	calls := new(int)
	for i := range e.pre {
		fn := e.pre[i].fn
		e.pre[i].fn = func(q Query) (string, bool) {
			*calls++
			return fn(q)
		}
	}
	for i := range e.lookup {
		fn := e.lookup[i].fn
		e.lookup[i].fn = func(q Query) (string, bool) {
			*calls++
			return fn(q)
		}
	}
	return calls
}

func TestResolveGreeting(t *testing.T) {
	e := NewEngine(testBase(), testLogger())

	m := e.Resolve("Cześć!")
	if m.Unknown() {
		t.Fatal("expected greeting match, got unknown")
	}
	if m.Matcher != "intent" {
		t.Errorf("expected intent matcher, got %q", m.Matcher)
	}
	if !strings.Contains(m.Response, "Dzień dobry") {
		t.Errorf("unexpected response %q", m.Response)
	}
}

func TestResolveEmptyNoMatcherInvoked(t *testing.T) {
	e := NewEngine(testBase(), testLogger())
	calls := instrument(e)

	m := e.Resolve("")
	if !m.Unknown() {
		t.Errorf("expected unknown sentinel, got %+v", m)
	}
	if *calls != 0 {
		t.Errorf("expected 0 matcher invocations, got %d", *calls)
	}
}

func TestResolveOverlongNoMatcherInvoked(t *testing.T) {
	e := NewEngine(testBase(), testLogger())
	calls := instrument(e)

	m := e.Resolve(strings.Repeat("a", 600))
	if !m.Unknown() {
		t.Errorf("expected unknown sentinel, got %+v", m)
	}
	if *calls != 0 {
		t.Errorf("expected 0 matcher invocations, got %d", *calls)
	}
}

func TestFAQBeatsFuzzy(t *testing.T) {
	e := NewEngine(testBase(), testLogger())

	// matches both the FAQ key part "godziny" and the dish names
	m := e.Resolve("godziny otwarcia karkandak")
	if m.Matcher != "faq" {
		t.Errorf("expected faq matcher to win, got %q", m.Matcher)
	}
	if !strings.Contains(m.Response, "8:00-22:00") {
		t.Errorf("unexpected response %q", m.Response)
	}
}

func TestResolveDishPriceQuestion(t *testing.T) {
	e := NewEngine(testBase(), testLogger())

	m := e.Resolve("ile kosztuje karkandak z grzybami")
	if m.Unknown() {
		t.Fatal("expected dish match, got unknown")
	}
	if !strings.Contains(m.Response, "Karkandak z grzybami") {
		t.Errorf("response does not reference the dish: %q", m.Response)
	}
	if !strings.Contains(m.Response, "8 zł") {
		t.Errorf("response does not carry the price: %q", m.Response)
	}
}

func TestResolveMisspelledDishFuzzy(t *testing.T) {
	e := NewEngine(testBase(), testLogger())

	m := e.Resolve("karkandak z gżybami")
	if m.Unknown() {
		t.Fatal("expected fuzzy match, got unknown")
	}
	if m.Matcher != "fuzzy" {
		t.Errorf("expected fuzzy matcher, got %q", m.Matcher)
	}
	if !strings.Contains(m.Response, "Karkandak z grzybami") {
		t.Errorf("unexpected response %q", m.Response)
	}
}

func TestKidsRuleOverridesLookup(t *testing.T) {
	e := NewEngine(testBase(), testLogger())

	// mentions a dish, but the kids rule must win with the mildest one
	m := e.Resolve("karkandak z grzybami dla dziecka")
	if m.Matcher != "rule:kids" {
		t.Errorf("expected kids rule, got %q", m.Matcher)
	}
	if !strings.Contains(m.Response, "Karkandak kaukaski") {
		t.Errorf("expected mildest savory dish, got %q", m.Response)
	}
}

func TestSavoryRuleAsksAboutSpice(t *testing.T) {
	e := NewEngine(testBase(), testLogger())

	m := e.Resolve("chcę coś słonego")
	if m.Matcher != "rule:savory" {
		t.Errorf("expected savory rule, got %q", m.Matcher)
	}
	if !strings.Contains(m.Response, "ostre") {
		t.Errorf("expected a spice question, got %q", m.Response)
	}
}

func TestRecommendRuleExcludesConfiguredDish(t *testing.T) {
	e := NewEngine(testBase(), testLogger())

	m := e.Resolve("co polecacie?")
	if m.Matcher != "rule:recommend" {
		t.Errorf("expected recommend rule, got %q", m.Matcher)
	}
	if strings.Contains(m.Response, "nutellą") {
		t.Errorf("excluded dish leaked into recommendation: %q", m.Response)
	}
	if !strings.Contains(m.Response, "Karkandak kaukaski") {
		t.Errorf("expected remaining dishes listed, got %q", m.Response)
	}
	if !strings.Contains(m.Response, "Nutelli nie polecam.") {
		t.Errorf("expected exclusion reasoning, got %q", m.Response)
	}
}

func TestResolveUnknown(t *testing.T) {
	e := NewEngine(testBase(), testLogger())

	m := e.Resolve("jaka jest pogoda w Warszawie")
	if !m.Unknown() {
		t.Errorf("expected unknown sentinel, got %+v", m)
	}
}

func TestResolveEmptyKnowledge(t *testing.T) {
	e := NewEngine(knowledge.Empty(), testLogger())

	if m := e.Resolve("cześć"); !m.Unknown() {
		t.Errorf("empty knowledge must resolve to unknown, got %+v", m)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Cześć!", "cześć"},
		{"  Ile   KOSZTUJE?  ", "ile kosztuje"},
		{"...", ""},
		{"dzień-dobry", "dzieńdobry"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
