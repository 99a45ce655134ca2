//go:build cgo && !postal_stub

package postal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeOptionsLayoutRoundTrip(t *testing.T) {
	opts := NormalizeOptions{
		Languages:             []string{"en", "de", "fr"},
		AddressComponents:     NewAddressComponents(ComponentName, ComponentStreet, ComponentPOBox),
		LatinASCII:            true,
		StripAccents:          true,
		Lowercase:             true,
		DropParentheticals:    true,
		DeleteNumericHyphens:  true,
		SplitAlphaFromNumeric: true,
		DeleteFinalPeriods:    true,
		ExpandNumex:           true,
		RomanNumerals:         true,
	}
	assert.Equal(t, opts, roundTripNormalizeOptions(opts))

	empty := NormalizeOptions{}
	assert.Equal(t, empty, roundTripNormalizeOptions(empty))

	noLanguages := NormalizeOptions{Languages: []string{}}
	assert.Nil(t, roundTripNormalizeOptions(noLanguages).Languages)
	assert.Equal(t, empty, roundTripNormalizeOptions(noLanguages))
}

func TestNearDupeHashOptionsLayoutRoundTrip(t *testing.T) {
	opts := NearDupeHashOptions{
		WithName:             true,
		WithCityOrEquivalent: true,
		WithLatLon:           true,
		Latitude:             40.7128,
		Longitude:            -74.006,
		GeohashPrecision:     6,
		AddressOnlyKeys:      true,
	}
	assert.Equal(t, opts, roundTripNearDupeHashOptions(opts))
}

func TestStringOptionFlagsCoverAllBits(t *testing.T) {
	var all StringOptions
	for _, f := range stringOptionFlags {
		all |= f.opt
	}
	assert.Equal(t, StringReplaceNumex<<1-1, all)
	assert.NotZero(t, cStringOptions(DefaultStringOptions))
	assert.Zero(t, cStringOptions(0))
}
