package resolve

import (
	"strings"

	"kiosk/internal/knowledge"
)

// defaultRules builds the restaurant recommendation rules from the
// knowledge base's rules section. They are deterministic business
// rules, not string lookups: each may override whatever the dish and
// fuzzy matchers produced.
func defaultRules(kb *knowledge.Base) []Rule {
	return []Rule{
		kidsRule(kb),
		savoryRule(kb),
		recommendRule(kb),
	}
}

// kidsRule: a query mentioning children always gets the mildest dish,
// regardless of what the lookup matchers found.
func kidsRule(kb *knowledge.Base) Rule {
	return func(q Query, _ Match) (Match, bool) {
		if !q.Contains(kb.Rules.KidsKeywords) {
			return Match{}, false
		}
		d := kb.Mildest(kb.Rules.KidsCategory)
		if d == nil {
			return Match{}, false
		}
		return Match{
			Response: "Dla dzieci najlepszy będzie " + d.Name + ". " + d.Description,
			Matcher:  "rule:kids",
		}, true
	}
}

// savoryRule: asking for something savory triggers a clarifying
// question about spice tolerance before any recommendation.
func savoryRule(kb *knowledge.Base) Rule {
	return func(q Query, _ Match) (Match, bool) {
		if !q.Contains(kb.Rules.SavoryKeywords) {
			return Match{}, false
		}
		return Match{Response: kb.Rules.SavoryResponse, Matcher: "rule:savory"}, true
	}
}

// recommendRule: general recommendation queries list every dish except
// the configured excluded one and explain the exclusion.
func recommendRule(kb *knowledge.Base) Rule {
	return func(q Query, _ Match) (Match, bool) {
		if !q.Contains(kb.Rules.RecommendKeywords) {
			return Match{}, false
		}

		var names []string
		for _, d := range kb.Dishes {
			if d.Name == kb.Rules.ExcludedDish {
				continue
			}
			names = append(names, d.Name)
		}
		if len(names) == 0 {
			return Match{}, false
		}

		resp := "Polecam: " + strings.Join(names, ", ") + "."
		if kb.Rules.ExclusionReason != "" {
			resp += " " + kb.Rules.ExclusionReason
		}
		return Match{Response: resp, Matcher: "rule:recommend"}, true
	}
}
