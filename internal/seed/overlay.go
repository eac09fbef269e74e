package seed

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ahoi-energy/devicemodelsim/internal/devicemodel"
)

// OverlayEntry is one declarative ConfigurationKey override in a
// registry-overlay seed file.
type OverlayEntry struct {
	Variable string `yaml:"variable"`
	Instance string `yaml:"instance,omitempty"`
	Value    string `yaml:"value"`
	ReadOnly bool   `yaml:"readonly,omitempty"`
}

// Overlay is a YAML-declared set of ConfigurationKey overrides applied
// ahead of the Variable Manager's startup self-check (§4.5.3), the
// same role the teacher's ad hoc SetIfNotExistsTX defaults play at boot
// but expressed declaratively instead of as Go call sites, the shape
// `ruslan-hut-evsys` and `DerAndereAndi-mash` use yaml.v3 for.
type Overlay struct {
	Configuration []OverlayEntry `yaml:"configuration"`
}

// LoadOverlay reads and parses a registry-overlay seed file.
func LoadOverlay(path string) (Overlay, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Overlay{}, err
	}
	var o Overlay
	if err := yaml.Unmarshal(b, &o); err != nil {
		return Overlay{}, err
	}
	return o, nil
}

// Apply writes every overlay entry into the station's ConfigurationKey
// Store, overwriting any existing value, ahead of the self-check so the
// materialized values win over registry defaults.
func (o Overlay) Apply(station devicemodel.StationContext) error {
	store := station.Store()
	for _, entry := range o.Configuration {
		keyName := entry.Variable
		if entry.Instance != "" {
			keyName = entry.Variable + "." + entry.Instance
		}
		if err := store.Add(station, keyName, entry.Value, devicemodel.ConfigurationKeyEntry{
			Key:      keyName,
			Value:    entry.Value,
			ReadOnly: entry.ReadOnly,
			Visible:  true,
		}, true); err != nil {
			return err
		}
	}
	return nil
}
