package catalog

// Default reference data: the server's per-item daily limits, blanket-banned
// items, weapon policies and detected-name aliases. A YAML catalog file
// overrides this entirely.

func limit(n int) *int { return &n }

// DefaultItems is the built-in item policy set.
var DefaultItems = []ItemSpec{
	{Slug: "suco", DailyLimit: limit(5)},
	{Slug: "torta", DailyLimit: limit(5)},
	{Slug: "revivecavalo", DailyLimit: limit(2)},
	{Slug: "superboost", DailyLimit: limit(12)},
	{Slug: "seringamedica", DailyLimit: limit(2)},
	{Slug: "racoequina", DailyLimit: limit(3)},
	{Slug: "cafe", DailyLimit: limit(3)},
	{Slug: "bandagem", DailyLimit: limit(3)},
	{Slug: "gomatabaco", DailyLimit: limit(5)},
	{Slug: "cigarros", DailyLimit: limit(4)},
	{Slug: "gomas", DailyLimit: limit(6)},
	{Slug: "ammoshotgunnormal", DailyLimit: limit(4)},
	{Slug: "ammorepeaternormal", DailyLimit: limit(5)},
	{Slug: "ammoriflenormal", DailyLimit: limit(5)},
	{Slug: "ammorevolvernormal", DailyLimit: limit(6)},
	{Slug: "ammopistolnormal", DailyLimit: limit(6)},

	// Weapons: no daily limit, withdrawal gated on rank instead.
	{Slug: "weaponrevolver", Category: "weapon"},
	{Slug: "weaponpistol", Category: "weapon"},
	{Slug: "weaponrepeater", Category: "weapon"},
	{Slug: "weaponrifle", Category: "weapon"},
	{Slug: "weaponshotgun", Category: "weapon"},

	// Blanket-banned items: any withdrawal opens a BLOCKED record.
	{Slug: "dinamite", Blocked: true},
	{Slug: "lockpick", Blocked: true},
}

// DefaultAliases maps detected chest-log names to canonical slugs.
var DefaultAliases = []AliasSpec{
	{Detected: "sucodelemon", Slug: "suco"},
	{Detected: "sucodeuva", Slug: "suco"},
	{Detected: "saladadefruta", Slug: "comida"},
	{Detected: "tortademaca", Slug: "comida"},
	{Detected: "podecafe", Slug: "cafe"},
	{Detected: "ammorepeaternormal", Slug: "ammorepeaternormal"},
	{Detected: "ammorevolvernormal", Slug: "ammorevolvernormal"},
	{Detected: "ammoriflenormal", Slug: "ammoriflenormal"},
	{Detected: "ammopistolanormal", Slug: "ammopistolnormal"},
	{Detected: "ammoespingardanormal", Slug: "ammoshotgunnormal"},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(DefaultItems, DefaultAliases)
	if err != nil {
		// The built-in data is static; a failure here is a programming error.
		panic(err)
	}
	return c
}
