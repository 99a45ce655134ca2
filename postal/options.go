package postal

import "fmt"

// Address is a labelled address field, e.g. {"house_number", "42"}.
type Address struct {
	Label string `json:"label" bson:"label"`
	Value string `json:"value" bson:"value"`
}

// ParsedComponent is one labelled span returned by the address parser.
type ParsedComponent struct {
	Label string `json:"label" bson:"label"`
	Value string `json:"value" bson:"value"`
}

// Token is a span of the input as classified by libpostal's tokenizer.
// Offset and Len are byte offsets into the input.
type Token struct {
	Offset int       `json:"offset"`
	Len    int       `json:"len"`
	Type   TokenType `json:"type"`
}

// NormalizedToken is a token together with its normalized text.
type NormalizedToken struct {
	Value string `json:"value"`
	Token Token  `json:"token"`
}

// NormalizeOptions mirrors libpostal_normalize_options_t.
//
// A nil and an empty Languages are the same value to libpostal (num_languages
// 0); options read back from libpostal always carry nil.
type NormalizeOptions struct {
	Languages              []string          `json:"languages,omitempty" yaml:"languages"`
	AddressComponents      AddressComponents `json:"address_components" yaml:"address_components"`
	LatinASCII             bool              `json:"latin_ascii" yaml:"latin_ascii"`
	Transliterate          bool              `json:"transliterate" yaml:"transliterate"`
	StripAccents           bool              `json:"strip_accents" yaml:"strip_accents"`
	Decompose              bool              `json:"decompose" yaml:"decompose"`
	Lowercase              bool              `json:"lowercase" yaml:"lowercase"`
	TrimString             bool              `json:"trim_string" yaml:"trim_string"`
	DropParentheticals     bool              `json:"drop_parentheticals" yaml:"drop_parentheticals"`
	ReplaceNumericHyphens  bool              `json:"replace_numeric_hyphens" yaml:"replace_numeric_hyphens"`
	DeleteNumericHyphens   bool              `json:"delete_numeric_hyphens" yaml:"delete_numeric_hyphens"`
	SplitAlphaFromNumeric  bool              `json:"split_alpha_from_numeric" yaml:"split_alpha_from_numeric"`
	ReplaceWordHyphens     bool              `json:"replace_word_hyphens" yaml:"replace_word_hyphens"`
	DeleteWordHyphens      bool              `json:"delete_word_hyphens" yaml:"delete_word_hyphens"`
	DeleteFinalPeriods     bool              `json:"delete_final_periods" yaml:"delete_final_periods"`
	DeleteAcronymPeriods   bool              `json:"delete_acronym_periods" yaml:"delete_acronym_periods"`
	DropEnglishPossessives bool              `json:"drop_english_possessives" yaml:"drop_english_possessives"`
	DeleteApostrophes      bool              `json:"delete_apostrophes" yaml:"delete_apostrophes"`
	ExpandNumex            bool              `json:"expand_numex" yaml:"expand_numex"`
	RomanNumerals          bool              `json:"roman_numerals" yaml:"roman_numerals"`
}

// AddressParserOptions mirrors libpostal_address_parser_options_t. Empty
// fields are passed to libpostal as NULL.
type AddressParserOptions struct {
	Language string `json:"language,omitempty" yaml:"language"`
	Country  string `json:"country,omitempty" yaml:"country"`
}

// NearDupeHashOptions mirrors libpostal_near_dupe_hash_options_t.
type NearDupeHashOptions struct {
	WithName                      bool    `json:"with_name"`
	WithAddress                   bool    `json:"with_address"`
	WithUnit                      bool    `json:"with_unit"`
	WithCityOrEquivalent          bool    `json:"with_city_or_equivalent"`
	WithSmallContainingBoundaries bool    `json:"with_small_containing_boundaries"`
	WithPostalCode                bool    `json:"with_postal_code"`
	WithLatLon                    bool    `json:"with_latlon"`
	Latitude                      float64 `json:"latitude"`
	Longitude                     float64 `json:"longitude"`
	GeohashPrecision              uint32  `json:"geohash_precision"`
	NameAndAddressKeys            bool    `json:"name_and_address_keys"`
	NameOnlyKeys                  bool    `json:"name_only_keys"`
	AddressOnlyKeys               bool    `json:"address_only_keys"`
}

// DuplicateOptions mirrors libpostal_duplicate_options_t.
type DuplicateOptions struct {
	Languages []string `json:"languages,omitempty"`
}

// FuzzyDuplicateOptions mirrors libpostal_fuzzy_duplicate_options_t.
type FuzzyDuplicateOptions struct {
	Languages            []string `json:"languages,omitempty"`
	NeedsReviewThreshold float64  `json:"needs_review_threshold"`
	LikelyDupeThreshold  float64  `json:"likely_dupe_threshold"`
}

// FuzzyDuplicateStatus is the result of a fuzzy comparison.
type FuzzyDuplicateStatus struct {
	Status     DuplicateStatus `json:"status"`
	Similarity float64         `json:"similarity"`
}

// TokenScore is a token with its weight (e.g. TF-IDF) for fuzzy
// comparisons.
type TokenScore struct {
	Token string  `json:"token"`
	Score float64 `json:"score"`
}

// UniformTokenScores weights every token equally.
func UniformTokenScores(tokens []string) []TokenScore {
	if len(tokens) == 0 {
		return nil
	}
	w := 1 / float64(len(tokens))
	out := make([]TokenScore, len(tokens))
	for i, t := range tokens {
		out[i] = TokenScore{Token: t, Score: w}
	}
	return out
}

// Field selects which duplicate comparison libpostal runs.
type Field int

const (
	FieldName Field = iota
	FieldStreet
	FieldHouseNumber
	FieldPOBox
	FieldUnit
	FieldFloor
	FieldPostalCode
)

var fieldNames = [...]string{"name", "street", "house_number", "po_box", "unit", "floor", "postal_code"}

func (f Field) String() string {
	if f.Valid() {
		return fieldNames[f]
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// Valid reports whether f is one of the defined fields.
func (f Field) Valid() bool { return f >= 0 && int(f) < len(fieldNames) }

// ParseField maps a field name such as "postal_code" to a Field.
func ParseField(name string) (Field, bool) {
	for i, n := range fieldNames {
		if n == name {
			return Field(i), true
		}
	}
	return 0, false
}

// SupportsFuzzy reports whether libpostal has a fuzzy comparison for f.
func (f Field) SupportsFuzzy() bool {
	return f == FieldName || f == FieldStreet
}
