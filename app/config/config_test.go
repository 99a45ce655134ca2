package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/address-parser/postal-service/postal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadExpandFlags(t *testing.T) {
	saved := C
	t.Cleanup(func() { C = saved })

	path := filepath.Join(t.TempDir(), "postal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
expand:
  languages: ["en"]
  address_components: "street|house_number"
  lowercase: false
  delete_final_periods: true
  drop_english_possessives: true
  split_alpha_from_numeric: true
`), 0o644))
	require.NoError(t, Load(path))

	base := postal.NormalizeOptions{Lowercase: true, LatinASCII: true}
	got, err := C.ExpandOptions(base)
	require.NoError(t, err)

	assert.Equal(t, []string{"en"}, got.Languages)
	assert.True(t, got.AddressComponents.Has(postal.ComponentStreet))
	assert.False(t, got.Lowercase)
	assert.True(t, got.LatinASCII, "unset flag keeps the libpostal default")
	assert.True(t, got.DeleteFinalPeriods)
	assert.True(t, got.DropEnglishPossessives)
	assert.True(t, got.SplitAlphaFromNumeric)
	assert.False(t, got.ReplaceWordHyphens)
}

func TestExpandOptionsInvalidComponents(t *testing.T) {
	cfg := Default()
	cfg.Expand.AddressComponents = "street|moon"
	_, err := cfg.ExpandOptions(postal.NormalizeOptions{})
	assert.ErrorIs(t, err, postal.ErrUnknownComponent)
}

func TestLoadEnvOverrides(t *testing.T) {
	saved := C
	t.Cleanup(func() { C = saved })
	t.Setenv("POSTAL_DATA_DIR", "/srv/libpostal")
	t.Setenv("POSTAL_ENABLE_PARSER", "false")

	path := filepath.Join(t.TempDir(), "postal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enable_parser: true\n"), 0o644))
	require.NoError(t, Load(path))

	assert.Equal(t, "/srv/libpostal", C.DataDir)
	assert.False(t, C.EnableParser)
	assert.True(t, C.EnableClassifier)
}
