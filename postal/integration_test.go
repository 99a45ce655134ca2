//go:build cgo && !postal_stub

package postal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupOrSkip needs libpostal and its data files on the host.
func setupOrSkip(t *testing.T) *Core {
	t.Helper()
	core, err := Setup()
	if err != nil {
		t.Skipf("libpostal not usable: %v", err)
	}
	t.Cleanup(func() { core.Close() })
	return core
}

func TestLibpostalExpand(t *testing.T) {
	core := setupOrSkip(t)

	expansions, err := core.ExpandAddress("123 Main St", core.DefaultNormalizeOptions())
	require.NoError(t, err)
	assert.NotEmpty(t, expansions)
	assert.Contains(t, expansions, "123 main street")
	for _, e := range expansions {
		assert.NotContains(t, e, "\x00")
	}

	tokens, err := core.Tokenize("123 Main St", false)
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.True(t, tokens[0].Type.IsNumeric())
}

func TestLibpostalParse(t *testing.T) {
	core := setupOrSkip(t)
	parser, err := core.SetupParser()
	if err != nil {
		t.Skipf("libpostal parser not usable: %v", err)
	}
	defer parser.Close()

	components, ok, err := parser.ParseAddress("781 Franklin Ave Crown Heights Brooklyn NY 11216", parser.DefaultOptions())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, components, ParsedComponent{Label: "house_number", Value: "781"})

	_, _, err = parser.ParseAddress("", parser.DefaultOptions())
	require.NoError(t, err)
}

func TestLibpostalDuplicates(t *testing.T) {
	core := setupOrSkip(t)
	lc, err := core.SetupLanguageClassifier()
	if err != nil {
		t.Skipf("libpostal language classifier not usable: %v", err)
	}
	defer lc.Close()

	status, err := lc.IsNameDuplicate("123", "123", lc.DefaultDuplicateOptions())
	require.NoError(t, err)
	assert.True(t, status.AtLeast(ExactDuplicate))

	opts, err := lc.DuplicateOptionsWithLanguages([]string{"en"})
	require.NoError(t, err)
	assert.Equal(t, []string{"en"}, opts.Languages)

	fuzzyOpts, err := lc.DefaultFuzzyDuplicateOptionsWithLanguages([]string{"en"})
	require.NoError(t, err)
	assert.Equal(t, []string{"en"}, fuzzyOpts.Languages)

	hashes, err := lc.NearDupeHashes([]Address{
		{Label: "name", Value: "Whole Foods Market"},
		{Label: "house_number", Value: "95"},
		{Label: "road", Value: "E Houston St"},
		{Label: "city", Value: "New York"},
	}, lc.DefaultNearDupeHashOptions())
	require.NoError(t, err)
	assert.NotEmpty(t, hashes)
}
