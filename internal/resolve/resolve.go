package resolve

import (
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"kiosk/internal/knowledge"
)

const (
	// DefaultMaxQueryLen bounds the accepted query length in runes.
	// Anything longer is rejected before any matcher runs.
	DefaultMaxQueryLen = 500

	// fuzzyThreshold is the acceptance floor for the scored matcher.
	fuzzyThreshold = 0.3

	// keywordWeight discounts the keyword-overlap score against the
	// raw string-similarity ratio.
	keywordWeight = 0.8
)

// Match carries a response and the identity of the matcher that
// produced it. The zero value is the unknown sentinel.
type Match struct {
	Response string
	Matcher  string
}

// Unknown reports whether m is the unknown sentinel.
func (m Match) Unknown() bool { return m.Matcher == "" }

// Query is a pre-processed utterance handed to matchers and rules.
type Query struct {
	Raw        string
	Normalized string
	Words      []string // content words: stop-words removed, length > 2
}

// Contains reports whether any of the given keywords occurs in the
// normalized query text.
func (q Query) Contains(keywords []string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(q.Normalized, Normalize(kw)) {
			return true
		}
	}
	return false
}

// Rule is a business-rule callback layered after the lookup matchers.
// prev is the dish/fuzzy candidate (possibly the unknown sentinel); a
// rule that fires overrides it.
type Rule func(q Query, prev Match) (Match, bool)

type matcher struct {
	name string
	fn   func(Query) (string, bool)
}

// Engine resolves utterances against the knowledge base through an
// ordered matcher chain: smalltalk intents, FAQ keys, exact dish-name
// containment, fuzzy scoring, then registered business rules.
type Engine struct {
	kb      *knowledge.Base
	log     *slog.Logger
	maxLen  int
	faqKeys []string // sorted for deterministic iteration

	pre    []matcher // returned immediately on match
	lookup []matcher // candidates subject to rule override
	rules  []Rule
}

func NewEngine(kb *knowledge.Base, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		kb:     kb,
		log:    logger,
		maxLen: DefaultMaxQueryLen,
	}
	for k := range kb.FAQ {
		e.faqKeys = append(e.faqKeys, k)
	}
	sort.Strings(e.faqKeys)

	e.pre = []matcher{
		{"intent", e.matchIntent},
		{"faq", e.matchFAQ},
	}
	e.lookup = []matcher{
		{"dish", e.matchDish},
		{"fuzzy", e.matchFuzzy},
	}
	e.rules = defaultRules(kb)

	return e
}

// RegisterRule appends a business rule; rules run in registration order
// and the first one that fires wins.
func (e *Engine) RegisterRule(r Rule) {
	e.rules = append(e.rules, r)
}

// Resolve normalizes text and walks the matcher chain in priority
// order. Empty or over-length input short-circuits to the unknown
// sentinel without invoking any matcher.
func (e *Engine) Resolve(text string) Match {
	if n := len([]rune(text)); n > e.maxLen {
		e.log.Warn("query rejected, invalid length", "len", n, "max", e.maxLen)
		return Match{}
	}

	norm := Normalize(text)
	if norm == "" {
		e.log.Warn("query rejected, empty after normalization")
		return Match{}
	}

	q := Query{Raw: text, Normalized: norm, Words: contentWords(norm)}

	for _, m := range e.pre {
		if resp, ok := m.fn(q); ok {
			e.log.Info("query resolved", "query", norm, "matcher", m.name)
			return Match{Response: resp, Matcher: m.name}
		}
	}

	var cand Match
	for _, m := range e.lookup {
		if resp, ok := m.fn(q); ok {
			cand = Match{Response: resp, Matcher: m.name}
			break
		}
	}

	for _, r := range e.rules {
		if m, ok := r(q, cand); ok {
			cand = m
			break
		}
	}

	if cand.Unknown() {
		e.log.Info("query unresolved", "query", norm, "matcher", "none")
	} else {
		e.log.Info("query resolved", "query", norm, "matcher", cand.Matcher)
	}
	return cand
}

func (e *Engine) matchIntent(q Query) (string, bool) {
	for _, it := range e.kb.Intents {
		if q.Contains(it.Keywords) {
			return it.Response, true
		}
	}
	return "", false
}

// An FAQ key matches when the key itself or any of its
// underscore-delimited parts occurs in the query.
func (e *Engine) matchFAQ(q Query) (string, bool) {
	for _, key := range e.faqKeys {
		normKey := Normalize(strings.ReplaceAll(key, "_", " "))
		if normKey != "" && strings.Contains(q.Normalized, normKey) {
			return e.kb.FAQ[key], true
		}
		for _, part := range strings.Split(key, "_") {
			p := Normalize(part)
			if p != "" && strings.Contains(q.Normalized, p) {
				return e.kb.FAQ[key], true
			}
		}
	}
	return "", false
}

func (e *Engine) matchDish(q Query) (string, bool) {
	for i := range e.kb.Dishes {
		d := &e.kb.Dishes[i]
		name := Normalize(d.Name)
		if name == "" {
			continue
		}
		if strings.Contains(q.Normalized, name) || strings.Contains(name, q.Normalized) {
			return dishResponse(d), true
		}
	}
	return "", false
}

// matchFuzzy scores every dish with max(similarity, keywordScore*0.8)
// and accepts the best one above the threshold. Ties keep the first
// dish in knowledge-base order.
func (e *Engine) matchFuzzy(q Query) (string, bool) {
	var (
		best      *knowledge.Dish
		bestScore float64
	)
	for i := range e.kb.Dishes {
		d := &e.kb.Dishes[i]
		name := Normalize(d.Name)

		score := Ratio(q.Normalized, name)
		if kw := keywordScore(q.Words, name+" "+Normalize(d.Description)); kw*keywordWeight > score {
			score = kw * keywordWeight
		}
		if score > bestScore {
			best, bestScore = d, score
		}
	}
	if best == nil || bestScore < fuzzyThreshold {
		return "", false
	}
	return dishResponse(best), true
}

func dishResponse(d *knowledge.Dish) string {
	return d.Name + " – " + d.Description + " Cena: " + d.Price + "."
}

// keywordScore is the fraction of the query's content words present in
// the candidate text.
func keywordScore(words []string, text string) float64 {
	if len(words) == 0 {
		return 0
	}
	hits := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			hits++
		}
	}
	return float64(hits) / float64(len(words))
}

// Normalize lower-cases, strips punctuation and squeezes whitespace.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	space := true
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
			space = false
		case unicode.IsSpace(r):
			if !space {
				b.WriteRune(' ')
				space = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

var stopWords = map[string]struct{}{
	"czy": {}, "jak": {}, "ile": {}, "gdzie": {}, "kiedy": {},
	"dla": {}, "jest": {}, "macie": {}, "mam": {}, "może": {},
	"albo": {}, "oraz": {}, "was": {}, "wam": {}, "coś": {},
	"the": {}, "and": {}, "for": {},
}

func contentWords(norm string) []string {
	var out []string
	for _, w := range strings.Fields(norm) {
		if len([]rune(w)) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}
