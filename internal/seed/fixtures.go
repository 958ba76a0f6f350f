package seed

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yml
var fixturesYAML []byte

// CommunityFixture describes a community created by the seeder.
type CommunityFixture struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Interests   []string `yaml:"interests"`
}

// Fixtures is the static data set shipped with the seeder.
type Fixtures struct {
	Categories  []string           `yaml:"categories"`
	Communities []CommunityFixture `yaml:"communities"`
	Presets     map[string]Options `yaml:"presets"`
}

// LoadFixtures parses the embedded fixture file.
func LoadFixtures() (*Fixtures, error) {
	return ParseFixtures(fixturesYAML)
}

// ParseFixtures parses fixture YAML and validates presets.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("fixtures define no categories")
	}
	for name, p := range f.Presets {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("preset %s: %w", name, err)
		}
	}
	return &f, nil
}

// PresetNames lists the available presets in a stable order.
func (f *Fixtures) PresetNames() []string {
	names := make([]string, 0, len(f.Presets))
	for name := range f.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
