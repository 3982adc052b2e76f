package leads

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadPreset reads a saved filter selection from a YAML file:
//
//	industries: [tattoo, barber]
//	country: US
//	city: Austin
//	has_email: true
func LoadPreset(path string) (FilterSelection, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return FilterSelection{}, fmt.Errorf("reading preset: %w", err)
	}
	var ff FilterFields
	if err := yaml.Unmarshal(b, &ff); err != nil {
		return FilterSelection{}, fmt.Errorf("parsing preset %s: %w", filepath.Base(path), err)
	}
	return ff.Selection(), nil
}

// SavePreset writes the selection to path in the format LoadPreset reads.
func SavePreset(path string, f FilterSelection) error {
	b, err := yaml.Marshal(f.Fields())
	if err != nil {
		return fmt.Errorf("marshaling preset: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating preset directory: %w", err)
	}
	return os.WriteFile(path, b, 0644)
}
