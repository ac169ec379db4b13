package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePresets(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rule_presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadRulePresets(t *testing.T) {
	path := writePresets(t, `
presets:
  - preset: hanchan
    end_winds: 2
  - preset: tonpuu
    end_winds: 1
    starting_points: 30000
    round:
      kyuushu_enabled: false
`)

	presets, err := LoadRulePresets(path)
	require.NoError(t, err)
	require.Len(t, presets, 2)

	han, ok := presets["hanchan"]
	require.True(t, ok)
	assert.Equal(t, 2, han.EndWinds)
	assert.Equal(t, 25000, han.StartingPoints, "omitted fields fall back to the standard rules")
	assert.True(t, han.Round.KyuushuEnabled)

	ton := presets["tonpuu"]
	assert.Equal(t, 1, ton.EndWinds)
	assert.Equal(t, 30000, ton.StartingPoints)
	assert.False(t, ton.Round.KyuushuEnabled)
	assert.True(t, ton.Round.NagashiMangan, "untouched round switches keep defaults")
}

func TestLoadRulePresetsErrors(t *testing.T) {
	_, err := LoadRulePresets(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadRulePresets(writePresets(t, `presets: [`))
	assert.Error(t, err)

	_, err = LoadRulePresets(writePresets(t, `presets: []`))
	assert.Error(t, err, "an empty preset list is a broken deployment")

	_, err = LoadRulePresets(writePresets(t, `
presets:
  - end_winds: 2
`))
	assert.ErrorContains(t, err, "missing name")

	_, err = LoadRulePresets(writePresets(t, `
presets:
  - preset: a
  - preset: a
`))
	assert.ErrorContains(t, err, "duplicate")

	_, err = LoadRulePresets(writePresets(t, `
presets:
  - preset: bad
    end_winds: 5
`))
	assert.ErrorContains(t, err, "end_winds")

	_, err = LoadRulePresets(writePresets(t, `
presets:
  - preset: broke
    starting_points: 0
`))
	assert.ErrorContains(t, err, "starting_points")
}
