package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AliasSeed is one operator-curated spelling correction.
type AliasSeed struct {
	Source    string  `yaml:"source"`
	Kind      string  `yaml:"kind"`
	Raw       string  `yaml:"raw"`
	Canonical string  `yaml:"canonical"`
	Weight    float64 `yaml:"confidence"`
}

type aliasSeedFile struct {
	Leagues map[string]string `yaml:"leagues"`
	Teams   map[string]string `yaml:"teams"`
	Entries []AliasSeed       `yaml:"entries"`
}

// LoadAliasSeed reads a YAML alias file. The short forms `leagues:` and
// `teams:` map raw to canonical for the "manual" source; `entries:` carries
// full records.
func LoadAliasSeed(path string) ([]AliasSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias seed: %w", err)
	}

	var f aliasSeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse alias seed: %w", err)
	}

	out := make([]AliasSeed, 0, len(f.Leagues)+len(f.Teams)+len(f.Entries))
	for raw, canon := range f.Leagues {
		out = append(out, AliasSeed{Source: "manual", Kind: "league", Raw: raw, Canonical: canon, Weight: 1})
	}
	for raw, canon := range f.Teams {
		out = append(out, AliasSeed{Source: "manual", Kind: "team", Raw: raw, Canonical: canon, Weight: 1})
	}
	for _, e := range f.Entries {
		if e.Raw == "" || e.Canonical == "" {
			return nil, fmt.Errorf("alias seed: entry missing raw or canonical: %+v", e)
		}
		if e.Kind != "team" && e.Kind != "league" {
			return nil, fmt.Errorf("alias seed: bad kind %q for %q", e.Kind, e.Raw)
		}
		if e.Source == "" {
			e.Source = "manual"
		}
		if e.Weight == 0 {
			e.Weight = 1
		}
		out = append(out, e)
	}
	return out, nil
}
