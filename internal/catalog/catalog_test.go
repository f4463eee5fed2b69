package catalog

import (
	"testing"

	"bauwatch/internal/model"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Suco de Lemon", "sucodelemon"},
		{"  suco  ", "suco"},
		{"SUCO", "suco"},
		{"Ammo Rifle Normal", "ammoriflenormal"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Slugify(tt.raw); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}

	// Idempotence: slugifying a slug changes nothing.
	for _, tt := range tests {
		once := Slugify(tt.raw)
		if twice := Slugify(once); twice != once {
			t.Errorf("Slugify not idempotent for %q: %q then %q", tt.raw, once, twice)
		}
	}
}

func TestResolve(t *testing.T) {
	c := Default()

	policy, ok := c.Resolve("Suco de Lemon")
	if !ok {
		t.Fatal("expected alias to resolve")
	}
	if policy.Slug != "suco" || policy.DailyLimit == nil || *policy.DailyLimit != 5 {
		t.Errorf("unexpected policy: %+v", policy)
	}

	// Direct slug, any casing.
	policy, ok = c.Resolve("TORTA")
	if !ok || policy.Slug != "torta" {
		t.Errorf("expected torta policy, got %+v ok=%v", policy, ok)
	}

	// Weapons have no limit but carry the weapon category.
	policy, ok = c.Resolve("Weapon Revolver")
	if !ok || policy.Category != model.CategoryWeapon || policy.DailyLimit != nil {
		t.Errorf("unexpected weapon policy: %+v", policy)
	}

	// Blocked item.
	policy, ok = c.Resolve("dinamite")
	if !ok || !policy.Blocked {
		t.Errorf("expected blocked policy, got %+v", policy)
	}

	// Untracked items are not errors.
	if _, ok := c.Resolve("pocketwatch"); ok {
		t.Error("expected untracked item to not resolve")
	}

	// Alias pointing at an untracked slug behaves as untracked.
	if _, ok := c.Resolve("Salada de Fruta"); ok {
		t.Error("expected alias to untracked slug to not resolve")
	}
}

func TestCanonicalSlug(t *testing.T) {
	c := Default()

	if got := c.CanonicalSlug("Suco de Uva"); got != "suco" {
		t.Errorf("expected alias target, got %q", got)
	}
	if got := c.CanonicalSlug("Pocket Watch"); got != "pocketwatch" {
		t.Errorf("untracked items keep their normalized label, got %q", got)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New([]ItemSpec{{Slug: ""}}, nil); err == nil {
		t.Error("expected error for empty slug")
	}
	if _, err := New([]ItemSpec{{Slug: "suco"}, {Slug: "Suco"}}, nil); err == nil {
		t.Error("expected error for duplicate slug")
	}
	if _, err := New([]ItemSpec{{Slug: "suco", Category: "potion"}}, nil); err == nil {
		t.Error("expected error for unknown category")
	}
	if _, err := New(nil, []AliasSpec{{Detected: "", Slug: "suco"}}); err == nil {
		t.Error("expected error for empty alias")
	}
}
