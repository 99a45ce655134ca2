package postal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressComponentsAddRemove(t *testing.T) {
	s := NewAddressComponents()
	assert.True(t, s.IsEmpty())

	s = s.Add(ComponentName).Add(ComponentStreet)
	assert.True(t, s.Has(ComponentName))
	assert.True(t, s.Has(ComponentStreet))
	assert.False(t, s.Has(ComponentUnit))
	assert.Equal(t, uint16(ComponentName|ComponentStreet), s.Bits())

	assert.Equal(t, s, s.Add(ComponentUnit).Remove(ComponentUnit))
	assert.Equal(t, NewAddressComponents(ComponentStreet), s.Remove(ComponentName))
	assert.False(t, s.Has(ComponentNone))
}

func TestAddressComponentsText(t *testing.T) {
	s := NewAddressComponents(ComponentPostalCode, ComponentName, ComponentHouseNumber)
	assert.Equal(t, "name|house_number|postal_code", s.String())

	parsed, err := ParseAddressComponents("postal_code, name|house_number")
	require.NoError(t, err)
	assert.Equal(t, s, parsed)

	all := NewAddressComponents(ComponentAll)
	assert.Equal(t, "all", all.String())
	assert.True(t, all.Has(ComponentPOBox))

	_, err = ParseAddressComponents("name|bogus")
	assert.ErrorIs(t, err, ErrUnknownComponent)

	b, err := json.Marshal(struct {
		C AddressComponents `json:"c"`
	}{s})
	require.NoError(t, err)
	assert.JSONEq(t, `{"c":"name|house_number|postal_code"}`, string(b))

	var back struct {
		C AddressComponents `json:"c"`
	}
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, s, back.C)
}

func TestAddressComponentsUndefinedBits(t *testing.T) {
	s := NewAddressComponents().Add(AddressComponent(1 << 11))
	assert.True(t, s.IsEmpty())

	s = NewAddressComponents(ComponentStreet).Add(AddressComponent(1<<11 | 1<<12))
	assert.Equal(t, uint16(ComponentStreet), s.Bits())

	text, err := s.MarshalText()
	require.NoError(t, err)
	var back AddressComponents
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, s, back)

	assert.Equal(t, uint16(ComponentName), componentsFromBits(uint16(ComponentName)|1<<10).Bits())
	assert.Equal(t, uint16(ComponentAll), componentsFromBits(0xFFFF).Bits())

	// Removing from "all" leaves only defined components, so the text form
	// round-trips.
	noStreet := NewAddressComponents(ComponentAll).Remove(ComponentStreet)
	assert.Zero(t, noStreet.Bits()&^definedComponentBits)
	assert.False(t, noStreet.Has(ComponentStreet))
	text, err = noStreet.MarshalText()
	require.NoError(t, err)
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, noStreet, back)
}

func TestDuplicateStatusCodes(t *testing.T) {
	assert.Equal(t, -1, int(NullDuplicateStatus))
	assert.Equal(t, 0, int(NonDuplicate))
	assert.Equal(t, 3, int(PossibleDuplicateNeedsReview))
	assert.Equal(t, 6, int(LikelyDuplicate))
	assert.Equal(t, 9, int(ExactDuplicate))

	assert.True(t, ExactDuplicate.AtLeast(LikelyDuplicate))
	assert.True(t, LikelyDuplicate.AtLeast(PossibleDuplicateNeedsReview))
	assert.False(t, NonDuplicate.AtLeast(PossibleDuplicateNeedsReview))
	assert.True(t, NullDuplicateStatus < NonDuplicate)

	assert.Equal(t, LikelyDuplicate, duplicateStatusFromCode(6))
	assert.Equal(t, NullDuplicateStatus, duplicateStatusFromCode(4))

	var s DuplicateStatus
	require.NoError(t, s.UnmarshalText([]byte("needs_review")))
	assert.Equal(t, PossibleDuplicateNeedsReview, s)
	assert.Error(t, s.UnmarshalText([]byte("maybe")))
}

func TestFieldNames(t *testing.T) {
	for _, f := range []Field{FieldName, FieldStreet, FieldHouseNumber, FieldPOBox, FieldUnit, FieldFloor, FieldPostalCode} {
		back, ok := ParseField(f.String())
		require.True(t, ok)
		assert.Equal(t, f, back)
	}
	_, ok := ParseField("city")
	assert.False(t, ok)
	assert.True(t, FieldName.SupportsFuzzy())
	assert.False(t, FieldPostalCode.SupportsFuzzy())
}

func TestTokenTypeClasses(t *testing.T) {
	assert.True(t, TokenAbbreviation.IsWord())
	assert.True(t, TokenOrdinal.IsNumeric())
	assert.True(t, TokenComma.IsPunctuation())
	assert.True(t, TokenNewline.IsSpace())
	assert.False(t, TokenNumeric.IsWord())
}

func TestUniformTokenScores(t *testing.T) {
	assert.Nil(t, UniformTokenScores(nil))
	scores := UniformTokenScores([]string{"a", "b", "c", "d"})
	require.Len(t, scores, 4)
	assert.InDelta(t, 0.25, scores[2].Score, 1e-9)
}
