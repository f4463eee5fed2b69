package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"bauwatch/internal/catalog"
)

// Env holds process-level configuration from environment variables.
type Env struct {
	Token        string        `env:"BAUWATCH_TOKEN"`
	GuildID      string        `env:"BAUWATCH_GUILD_ID"`
	DBPath       string        `env:"BAUWATCH_DB" envDefault:"bauwatch.sqlite3"`
	APIAddr      string        `env:"BAUWATCH_API_ADDR" envDefault:":8080"`
	ConfigPath   string        `env:"BAUWATCH_CONFIG" envDefault:""`
	Timezone     string        `env:"BAUWATCH_TZ" envDefault:"America/Sao_Paulo"`
	ReadyTimeout time.Duration `env:"BAUWATCH_READY_TIMEOUT" envDefault:"30s"`
}

// ParseEnv loads environment configuration.
func ParseEnv() (*Env, error) {
	cfg := &Env{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// ChannelSpec is one monitored chest-log channel.
type ChannelSpec struct {
	ID   string `yaml:"id"`
	City string `yaml:"city"`
}

// File is the YAML reference-data file: monitored channels, the alert
// channel, the on-duty history channel, the item catalog and the
// weapon-authorized rank set. Everything here is immutable once loaded and
// injected at construction; nothing is hardcoded in control flow.
type File struct {
	AlertChannelID  string              `yaml:"alert_channel"`
	OnDutyChannelID string              `yaml:"onduty_channel"`
	Channels        []ChannelSpec       `yaml:"channels"`
	Items           []catalog.ItemSpec  `yaml:"items"`
	Aliases         []catalog.AliasSpec `yaml:"aliases"`
	AuthorizedRanks []string            `yaml:"authorized_ranks,omitempty"`
}

// LoadFile reads the YAML reference file. An empty path yields an empty
// File; callers fall back to built-in defaults per section.
func LoadFile(path string) (*File, error) {
	f := &File{}
	if path == "" {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return f, nil
}

// Catalog builds the item catalog from the file, or the built-in default
// when the file has no items section.
func (f *File) Catalog() (*catalog.Catalog, error) {
	if len(f.Items) == 0 {
		return catalog.Default(), nil
	}
	return catalog.New(f.Items, f.Aliases)
}

// CityFor returns the city label for a monitored channel, or false if the
// channel is not monitored.
func (f *File) CityFor(channelID string) (string, bool) {
	for _, ch := range f.Channels {
		if ch.ID == channelID {
			return ch.City, true
		}
	}
	return "", false
}
