package catalog

import (
	"fmt"
	"strings"

	"bauwatch/internal/model"
)

// ItemSpec is the YAML shape of one tracked item.
type ItemSpec struct {
	Slug       string `yaml:"slug"`
	DailyLimit *int   `yaml:"daily_limit,omitempty"`
	Blocked    bool   `yaml:"blocked,omitempty"`
	Category   string `yaml:"category,omitempty"`
}

// AliasSpec maps a detected item name to a canonical slug.
type AliasSpec struct {
	Detected string `yaml:"detected"`
	Slug     string `yaml:"slug"`
}

// Catalog resolves raw item labels to withdrawal policies. Immutable after
// construction.
type Catalog struct {
	policies map[string]model.ItemPolicy
	aliases  map[string]string
}

// New builds a catalog from item and alias specs. An alias may point at an
// untracked slug; resolving it then behaves as not found.
func New(items []ItemSpec, aliases []AliasSpec) (*Catalog, error) {
	c := &Catalog{
		policies: make(map[string]model.ItemPolicy, len(items)),
		aliases:  make(map[string]string, len(aliases)),
	}

	for _, it := range items {
		slug := Slugify(it.Slug)
		if slug == "" {
			return nil, fmt.Errorf("item with empty slug")
		}
		if _, dup := c.policies[slug]; dup {
			return nil, fmt.Errorf("duplicate item slug %q", slug)
		}

		category := it.Category
		switch category {
		case "":
			category = model.CategoryNormal
		case model.CategoryNormal, model.CategoryWeapon:
		default:
			return nil, fmt.Errorf("item %q: unknown category %q", slug, it.Category)
		}

		c.policies[slug] = model.ItemPolicy{
			Slug:       slug,
			DailyLimit: it.DailyLimit,
			Blocked:    it.Blocked,
			Category:   category,
		}
	}

	for _, a := range aliases {
		detected := Slugify(a.Detected)
		if detected == "" {
			return nil, fmt.Errorf("alias with empty detected name")
		}
		c.aliases[detected] = Slugify(a.Slug)
	}

	return c, nil
}

// Slugify normalizes a raw item label into a catalog lookup key: the
// case-folded label with whitespace removed. The same label always yields
// the same slug.
func Slugify(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		if r == ' ' || r == '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Resolve maps a raw item label to its canonical policy. The second return
// is false for untracked items; that is not an error, it means no limit or
// ban semantics apply.
func (c *Catalog) Resolve(rawLabel string) (model.ItemPolicy, bool) {
	slug := Slugify(rawLabel)
	if target, ok := c.aliases[slug]; ok {
		slug = target
	}
	policy, ok := c.policies[slug]
	return policy, ok
}

// CanonicalSlug returns the slug Resolve would file a label under,
// regardless of whether the item is tracked. Untracked items keep their
// normalized label so movements still aggregate consistently.
func (c *Catalog) CanonicalSlug(rawLabel string) string {
	slug := Slugify(rawLabel)
	if target, ok := c.aliases[slug]; ok {
		return target
	}
	return slug
}

// Size returns the number of tracked items.
func (c *Catalog) Size() int {
	return len(c.policies)
}
