package knowledge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeBase(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "knowledge.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeBase(t, `{
		"faq": {"godziny_otwarcia": "Otwarte od 10 do 22."},
		"dishes": [
			{"name": "Karkandak z grzybami", "description": "Z pieczarkami.", "price": "8 zł", "category": "wytrawne", "spiciness": 2},
			{"name": "Karkandak z nutellą", "description": "Na słodko.", "price": "7 zł", "category": "słodkie", "spiciness": 0}
		],
		"facility": {"address": "ul. Prosta 1", "hours": "10-22", "delivery_cost": "10 zł", "phone": "123 456 789"},
		"promo": ["Zapraszamy!"]
	}`)

	b, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(b.Dishes) != 2 {
		t.Errorf("loaded %d dishes, want 2", len(b.Dishes))
	}
	if b.FAQ["godziny_otwarcia"] == "" {
		t.Error("FAQ entry missing after load")
	}
	if b.Facility.Phone != "123 456 789" {
		t.Errorf("facility phone = %q", b.Facility.Phone)
	}
}

func TestLoadRejectsDuplicateDishes(t *testing.T) {
	path := writeBase(t, `{"dishes": [
		{"name": "Karkandak", "price": "8 zł"},
		{"name": "Karkandak", "price": "9 zł"}
	]}`)

	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "duplicate dish") {
		t.Errorf("expected a duplicate dish error, got %v", err)
	}
}

func TestLoadRejectsEmptyDishName(t *testing.T) {
	path := writeBase(t, `{"dishes": [{"name": "", "price": "8 zł"}]}`)

	if _, err := Load(path); err == nil {
		t.Error("expected an error for an unnamed dish")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	path := writeBase(t, `{"dishes": [`)
	if _, err := Load(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestMildest(t *testing.T) {
	b := &Base{Dishes: []Dish{
		{Name: "Ostry", Category: "wytrawne", Spiciness: 5},
		{Name: "Łagodny", Category: "wytrawne", Spiciness: 1},
		{Name: "Słodki", Category: "słodkie", Spiciness: 0},
	}}

	if d := b.Mildest("wytrawne"); d == nil || d.Name != "Łagodny" {
		t.Errorf("Mildest(wytrawne) = %v, want Łagodny", d)
	}
	if d := b.Mildest(""); d == nil || d.Name != "Słodki" {
		t.Errorf("Mildest() = %v, want Słodki", d)
	}
	if d := b.Mildest("zupy"); d != nil {
		t.Errorf("Mildest(zupy) = %v, want nil", d)
	}
}

func TestEmpty(t *testing.T) {
	b := Empty()
	if b.FAQ == nil {
		t.Error("Empty base must have a non-nil FAQ map")
	}
	if len(b.Dishes) != 0 {
		t.Error("Empty base must have no dishes")
	}
}
