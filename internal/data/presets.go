package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mjgo/server/internal/game"
)

// presetFile is the on-disk shape of data/yaml/rule_presets.yaml. Entries
// stay raw nodes so each can be decoded over a defaulted Settings.
type presetFile struct {
	Presets []yaml.Node `yaml:"presets"`
}

// LoadRulePresets loads the named rule presets from YAML. Fields a preset
// omits fall back to the standard ruleset, so a preset only states what it
// changes.
func LoadRulePresets(path string) (map[string]game.Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule presets: %w", err)
	}

	var f presetFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse rule presets: %w", err)
	}

	out := make(map[string]game.Settings, len(f.Presets))
	for i := range f.Presets {
		p := game.DefaultSettings()
		if err := f.Presets[i].Decode(&p); err != nil {
			return nil, fmt.Errorf("rule preset %d: %w", i, err)
		}
		if p.Preset == "" {
			return nil, fmt.Errorf("rule preset %d missing name", i)
		}
		if _, ok := out[p.Preset]; ok {
			return nil, fmt.Errorf("duplicate rule preset %q", p.Preset)
		}
		if p.StartingPoints <= 0 {
			return nil, fmt.Errorf("rule preset %q: starting_points must be positive", p.Preset)
		}
		if p.EndWinds < 1 || p.EndWinds > 4 {
			return nil, fmt.Errorf("rule preset %q: end_winds out of range", p.Preset)
		}
		out[p.Preset] = p
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("rule presets file %s defines no presets", path)
	}
	return out, nil
}
