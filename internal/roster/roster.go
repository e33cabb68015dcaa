package roster

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"rosterbot/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed default_roster.yaml
var defaultRosterYAML []byte

// Dataset is the static roster plus the name-correction table. It is
// loaded once at startup and treated as read-only afterwards.
type Dataset struct {
	Organizations []domain.Organization `yaml:"organizations"`
	Aliases       map[string]string     `yaml:"aliases"`
}

// Default returns the built-in roster.
func Default() (Dataset, error) {
	return parse(defaultRosterYAML, "default roster")
}

func Load(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("read roster: %w", err)
	}
	return parse(data, path)
}

// LoadOrDefault reads path when set, falling back to the built-in roster.
func LoadOrDefault(path string) (Dataset, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	return Load(path)
}

func parse(data []byte, source string) (Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return Dataset{}, fmt.Errorf("parse roster yaml %s: %w", source, err)
	}
	for i := range ds.Organizations {
		org := &ds.Organizations[i]
		org.Region = strings.TrimSpace(org.Region)
		org.Code = strings.TrimSpace(org.Code)
		org.Name = strings.TrimSpace(org.Name)
		org.Phone = strings.TrimSpace(org.Phone)
	}
	if err := ds.Validate(); err != nil {
		return Dataset{}, fmt.Errorf("invalid roster %s: %w", source, err)
	}
	if ds.Aliases == nil {
		ds.Aliases = map[string]string{}
	}
	return ds, nil
}

func (d Dataset) Validate() error {
	names := make(map[string]bool, len(d.Organizations))
	codes := make(map[string]bool, len(d.Organizations))
	for i, org := range d.Organizations {
		if org.Name == "" {
			return fmt.Errorf("organization #%d has no name", i+1)
		}
		if org.Region == "" {
			return fmt.Errorf("organization %q has no region", org.Name)
		}
		if names[org.Name] {
			return fmt.Errorf("duplicate organization name %q", org.Name)
		}
		names[org.Name] = true
		if org.Code != "" {
			if codes[org.Code] {
				return fmt.Errorf("duplicate organization code %q", org.Code)
			}
			codes[org.Code] = true
		}
	}
	for from, to := range d.Aliases {
		if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
			return fmt.Errorf("alias %q -> %q must not be blank", from, to)
		}
	}
	return nil
}

// WithAliases returns a copy whose alias table is extended by extra.
// Entries in extra win over the roster file.
func (d Dataset) WithAliases(extra map[string]string) Dataset {
	merged := make(map[string]string, len(d.Aliases)+len(extra))
	for k, v := range d.Aliases {
		merged[k] = v
	}
	for k, v := range extra {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		merged[k] = v
	}
	d.Aliases = merged
	return d
}

// Regions returns the distinct roster regions in Korean collation order.
func (d Dataset) Regions() []string {
	seen := make(map[string]bool)
	var out []string
	for _, org := range d.Organizations {
		if !seen[org.Region] {
			seen[org.Region] = true
			out = append(out, org.Region)
		}
	}
	domain.SortRegionNames(out)
	return out
}

func (d Dataset) HasName(name string) bool {
	for _, org := range d.Organizations {
		if org.Name == name {
			return true
		}
	}
	return false
}
