package postal

import (
	"fmt"
	"sort"
	"strings"
)

// AddressComponent is one libpostal address component flag.
type AddressComponent uint16

const (
	ComponentNone        AddressComponent = 0
	ComponentAny         AddressComponent = 1 << 0
	ComponentName        AddressComponent = 1 << 1
	ComponentHouseNumber AddressComponent = 1 << 2
	ComponentStreet      AddressComponent = 1 << 3
	ComponentUnit        AddressComponent = 1 << 4
	ComponentLevel       AddressComponent = 1 << 5
	ComponentStaircase   AddressComponent = 1 << 6
	ComponentEntrance    AddressComponent = 1 << 7
	ComponentCategory    AddressComponent = 1 << 8
	ComponentNear        AddressComponent = 1 << 9
	ComponentToponym     AddressComponent = 1 << 13
	ComponentPostalCode  AddressComponent = 1 << 14
	ComponentPOBox       AddressComponent = 1 << 15
	ComponentAll         AddressComponent = 0xFFFF
)

// definedComponentBits is the union of the single-bit components. Bits
// 10-12 have no libpostal meaning.
const definedComponentBits = uint16(0x03FF | ComponentToponym | ComponentPostalCode | ComponentPOBox)

var componentNames = map[AddressComponent]string{
	ComponentAny:         "any",
	ComponentName:        "name",
	ComponentHouseNumber: "house_number",
	ComponentStreet:      "street",
	ComponentUnit:        "unit",
	ComponentLevel:       "level",
	ComponentStaircase:   "staircase",
	ComponentEntrance:    "entrance",
	ComponentCategory:    "category",
	ComponentNear:        "near",
	ComponentToponym:     "toponym",
	ComponentPostalCode:  "postal_code",
	ComponentPOBox:       "po_box",
	ComponentAll:         "all",
}

func (c AddressComponent) String() string {
	if name, ok := componentNames[c]; ok {
		return name
	}
	return fmt.Sprintf("AddressComponent(%#04x)", uint16(c))
}

// ParseAddressComponent maps a component name such as "house_number" to
// its flag.
func ParseAddressComponent(name string) (AddressComponent, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range componentNames {
		if n == name {
			return c, nil
		}
	}
	return ComponentNone, fmt.Errorf("%w %q", ErrUnknownComponent, name)
}

// AddressComponents is a set of AddressComponent flags. It is a value
// type: Add and Remove return the modified set.
type AddressComponents struct {
	bits uint16
}

// NewAddressComponents returns the set holding components.
func NewAddressComponents(components ...AddressComponent) AddressComponents {
	var s AddressComponents
	for _, c := range components {
		s = s.Add(c)
	}
	return s
}

func componentsFromBits(bits uint16) AddressComponents {
	return AddressComponents{bits: clampComponentBits(bits)}
}

// clampComponentBits drops undefined bits. The full mask is kept as is
// because it is libpostal's own value for "all".
func clampComponentBits(bits uint16) uint16 {
	if bits == uint16(ComponentAll) {
		return bits
	}
	return bits & definedComponentBits
}

// Add sets c. Bits outside the defined components are ignored.
func (s AddressComponents) Add(c AddressComponent) AddressComponents {
	s.bits = clampComponentBits(s.bits | uint16(c))
	return s
}

func (s AddressComponents) Remove(c AddressComponent) AddressComponents {
	s.bits = clampComponentBits(s.bits &^ uint16(c))
	return s
}

// Has reports whether every bit of c is set.
func (s AddressComponents) Has(c AddressComponent) bool {
	return c != ComponentNone && s.bits&uint16(c) == uint16(c)
}

// Bits returns the native bitmask.
func (s AddressComponents) Bits() uint16 { return s.bits }

func (s AddressComponents) IsEmpty() bool { return s.bits == 0 }

// Components lists the single-bit components present in the set.
func (s AddressComponents) Components() []AddressComponent {
	var out []AddressComponent
	for c := range componentNames {
		if c == ComponentAll || s.bits&uint16(c) == 0 {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s AddressComponents) String() string {
	if s.bits == uint16(ComponentAll) {
		return "all"
	}
	names := make([]string, 0, 4)
	for _, c := range s.Components() {
		names = append(names, c.String())
	}
	return strings.Join(names, "|")
}

// MarshalText encodes the set as a "|" separated list of names.
func (s AddressComponents) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *AddressComponents) UnmarshalText(text []byte) error {
	parsed, err := ParseAddressComponents(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseAddressComponents parses names separated by "|" or ",".
func ParseAddressComponents(text string) (AddressComponents, error) {
	var s AddressComponents
	fields := strings.FieldsFunc(text, func(r rune) bool { return r == '|' || r == ',' })
	for _, f := range fields {
		c, err := ParseAddressComponent(f)
		if err != nil {
			return AddressComponents{}, err
		}
		s = s.Add(c)
	}
	return s, nil
}

// DuplicateStatus is libpostal's duplicate classification. The numeric
// values match the native enum, gaps included, so statuses can be
// ordered and compared with raw codes.
type DuplicateStatus int

const (
	NullDuplicateStatus          DuplicateStatus = -1
	NonDuplicate                 DuplicateStatus = 0
	PossibleDuplicateNeedsReview DuplicateStatus = 3
	LikelyDuplicate              DuplicateStatus = 6
	ExactDuplicate               DuplicateStatus = 9
)

var statusNames = map[DuplicateStatus]string{
	NullDuplicateStatus:          "null",
	NonDuplicate:                 "non_duplicate",
	PossibleDuplicateNeedsReview: "needs_review",
	LikelyDuplicate:              "likely_duplicate",
	ExactDuplicate:               "exact_duplicate",
}

func duplicateStatusFromCode(code int) DuplicateStatus {
	s := DuplicateStatus(code)
	if _, ok := statusNames[s]; ok {
		return s
	}
	return NullDuplicateStatus
}

func (s DuplicateStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("DuplicateStatus(%d)", int(s))
}

// AtLeast reports whether s is as strong a match as other.
func (s DuplicateStatus) AtLeast(other DuplicateStatus) bool { return s >= other }

func (s DuplicateStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *DuplicateStatus) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown duplicate status %q", text)
}

// StringOptions are the libpostal_normalize_string flags.
type StringOptions uint64

const (
	StringLatinASCII StringOptions = 1 << iota
	StringTransliterate
	StringStripAccents
	StringDecompose
	StringLowercase
	StringTrim
	StringReplaceHyphens
	StringCompose
	StringSimpleLatinASCII
	StringReplaceNumex
)

// DefaultStringOptions mirrors LIBPOSTAL_NORMALIZE_DEFAULT_STRING_OPTIONS.
const DefaultStringOptions = StringLatinASCII | StringCompose | StringTrim | StringReplaceHyphens | StringStripAccents | StringLowercase

// TokenOptions are the per-token normalization flags.
type TokenOptions uint64

const (
	TokenReplaceHyphens TokenOptions = 1 << iota
	TokenDeleteHyphens
	TokenDeleteFinalPeriod
	TokenDeleteAcronymPeriods
	TokenDropEnglishPossessives
	TokenDeleteOtherApostrophe
	TokenSplitAlphaFromNumeric
	TokenReplaceDigits
	TokenReplaceNumericTokenLetters
	TokenReplaceNumericHyphens
)

// DefaultTokenOptions mirrors LIBPOSTAL_NORMALIZE_DEFAULT_TOKEN_OPTIONS.
const DefaultTokenOptions = TokenReplaceHyphens | TokenDeleteFinalPeriod | TokenDeleteAcronymPeriods | TokenDropEnglishPossessives | TokenDeleteOtherApostrophe

// TokenType is libpostal's token class.
type TokenType uint16

const (
	TokenWord              TokenType = 1
	TokenAbbreviation      TokenType = 2
	TokenIdeographicChar   TokenType = 3
	TokenHangulSyllable    TokenType = 4
	TokenAcronym           TokenType = 5
	TokenPhrase            TokenType = 10
	TokenEmail             TokenType = 20
	TokenURL               TokenType = 21
	TokenUSPhone           TokenType = 22
	TokenIntlPhone         TokenType = 23
	TokenNumeric           TokenType = 50
	TokenOrdinal           TokenType = 51
	TokenRomanNumeral      TokenType = 52
	TokenIdeographicNumber TokenType = 53
	TokenPeriod            TokenType = 100
	TokenComma             TokenType = 103
	TokenHyphen            TokenType = 113
	TokenOther             TokenType = 200
	TokenWhitespace        TokenType = 300
	TokenNewline           TokenType = 301
	TokenInvalidChar       TokenType = 500
)

// IsWord reports whether t is a word-like token.
func (t TokenType) IsWord() bool {
	return t >= TokenWord && t <= TokenPhrase
}

func (t TokenType) IsNumeric() bool {
	return t >= TokenNumeric && t <= TokenIdeographicNumber
}

// IsPunctuation covers the 100-199 range.
func (t TokenType) IsPunctuation() bool {
	return t >= TokenPeriod && t < TokenOther
}

func (t TokenType) IsSpace() bool {
	return t == TokenWhitespace || t == TokenNewline
}
