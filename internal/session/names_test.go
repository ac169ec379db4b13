package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	got, err := NormalizeName("Tanaka")
	require.NoError(t, err)
	assert.Equal(t, "Tanaka", got)

	// Full-width latin folds to half-width so lookalikes collide.
	got, err = NormalizeName("Ｔａｎａｋａ")
	require.NoError(t, err)
	assert.Equal(t, "Tanaka", got)

	got, err = NormalizeName("  雀士  ")
	require.NoError(t, err)
	assert.Equal(t, "雀士", got)
}

func TestNormalizeNameRejects(t *testing.T) {
	_, err := NormalizeName("")
	assert.Error(t, err)

	_, err = NormalizeName("   ")
	assert.Error(t, err, "whitespace-only trims to empty")

	_, err = NormalizeName(strings.Repeat("a", 25))
	assert.Error(t, err)

	_, err = NormalizeName("bad\x00name")
	assert.Error(t, err)
}

func TestNormalizeNameLengthAfterFolding(t *testing.T) {
	// 24 runes exactly is allowed.
	got, err := NormalizeName(strings.Repeat("あ", 24))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("あ", 24), got)
}
