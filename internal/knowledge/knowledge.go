package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
)

// Dish is one menu position. Spiciness runs 0 (sweet) to 5 (hottest).
type Dish struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	Spiciness   int    `json:"spiciness"`
}

type Facility struct {
	Address      string `json:"address"`
	Hours        string `json:"hours"`
	DeliveryCost string `json:"delivery_cost"`
	Phone        string `json:"phone"`
}

// Intent is a curated smalltalk keyword set with a canned reply.
type Intent struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	Response string   `json:"response"`
}

// Rules holds the trigger keyword sets and dish names for the
// recommendation business rules. Content, not algorithm: editing this
// section changes behaviour without touching code.
type Rules struct {
	SavoryKeywords    []string `json:"savory_keywords"`
	SavoryResponse    string   `json:"savory_response"`
	KidsKeywords      []string `json:"kids_keywords"`
	KidsCategory      string   `json:"kids_category"`
	RecommendKeywords []string `json:"recommend_keywords"`
	ExcludedDish      string   `json:"excluded_dish"`
	ExclusionReason   string   `json:"exclusion_reason"`
}

// Base is loaded once at startup and never mutated afterwards, so the
// matchers read it without locking.
type Base struct {
	FAQ      map[string]string `json:"faq"`
	Dishes   []Dish            `json:"dishes"`
	Facility Facility          `json:"facility"`
	Intents  []Intent          `json:"intents"`
	Rules    Rules             `json:"rules"`
	Promo    []string          `json:"promo"`
}

func Load(path string) (*Base, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}

	var b Base
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}
	if b.FAQ == nil {
		b.FAQ = map[string]string{}
	}

	seen := make(map[string]struct{}, len(b.Dishes))
	for _, d := range b.Dishes {
		if d.Name == "" {
			return nil, fmt.Errorf("dish with empty name in %s", path)
		}
		if _, dup := seen[d.Name]; dup {
			return nil, fmt.Errorf("duplicate dish name %q in %s", d.Name, path)
		}
		seen[d.Name] = struct{}{}
	}

	return &b, nil
}

// Empty returns a base with no entries. Every query resolved against it
// yields the unknown sentinel; used as the documented fallback when the
// operator runs without a knowledge file.
func Empty() *Base {
	return &Base{FAQ: map[string]string{}}
}

// Mildest returns the least spicy dish within category, or within the
// whole menu when category is empty. Nil when nothing matches.
func (b *Base) Mildest(category string) *Dish {
	var best *Dish
	for i := range b.Dishes {
		d := &b.Dishes[i]
		if category != "" && d.Category != category {
			continue
		}
		if best == nil || d.Spiciness < best.Spiciness {
			best = d
		}
	}
	return best
}
