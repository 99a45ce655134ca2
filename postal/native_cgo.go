//go:build cgo && !postal_stub

package postal

/*
#cgo pkg-config: libpostal
#include <stdlib.h>
#include <libpostal/libpostal.h>
*/
import "C"

import (
	"strings"
	"unsafe"
)

// cgoNative calls libpostal through cgo. Struct layouts come from
// libpostal.h, so field order and widths always match the linked library.
type cgoNative struct {
	// Data directory strings handed to the setup calls, kept alive until
	// the matching teardown.
	dirs [3]*C.char
}

func newNative() native { return &cgoNative{} }

func (n *cgoNative) available() bool { return true }

func (n *cgoNative) setup(kind Subsystem, datadir string) bool {
	var dir *C.char
	if datadir != "" {
		dir = C.CString(datadir)
	}

	var ok C.bool
	switch kind {
	case SubsystemCore:
		if dir == nil {
			ok = C.libpostal_setup()
		} else {
			ok = C.libpostal_setup_datadir(dir)
		}
	case SubsystemParser:
		if dir == nil {
			ok = C.libpostal_setup_parser()
		} else {
			ok = C.libpostal_setup_parser_datadir(dir)
		}
	case SubsystemLanguageClassifier:
		if dir == nil {
			ok = C.libpostal_setup_language_classifier()
		} else {
			ok = C.libpostal_setup_language_classifier_datadir(dir)
		}
	}

	if !bool(ok) {
		C.free(unsafe.Pointer(dir))
		return false
	}
	n.dirs[kind] = dir
	return true
}

func (n *cgoNative) teardown(kind Subsystem) {
	switch kind {
	case SubsystemCore:
		C.libpostal_teardown()
	case SubsystemParser:
		C.libpostal_teardown_parser()
	case SubsystemLanguageClassifier:
		C.libpostal_teardown_language_classifier()
	}
	C.free(unsafe.Pointer(n.dirs[kind]))
	n.dirs[kind] = nil
}

// cStrings is a char* array allocated on the C heap by this package.
// Every string and the array itself are released with free(3).
type cStrings struct {
	ptr **C.char
	n   int
}

func newCStrings(values []string) *cStrings {
	cs := &cStrings{n: len(values)}
	if len(values) == 0 {
		return cs
	}
	size := C.size_t(len(values)) * C.size_t(unsafe.Sizeof((*C.char)(nil)))
	cs.ptr = (**C.char)(C.malloc(size))
	items := unsafe.Slice(cs.ptr, len(values))
	for i, v := range values {
		items[i] = C.CString(v)
	}
	return cs
}

func (cs *cStrings) count() C.size_t { return C.size_t(cs.n) }

func (cs *cStrings) free() {
	if cs.ptr == nil {
		return
	}
	for _, p := range unsafe.Slice(cs.ptr, cs.n) {
		C.free(unsafe.Pointer(p))
	}
	C.free(unsafe.Pointer(cs.ptr))
	cs.ptr = nil
	cs.n = 0
}

// nativeStrings is a char* array allocated by libpostal. It must go back
// through libpostal_expansion_array_destroy, never free(3).
type nativeStrings struct {
	ptr **C.char
	n   C.size_t
}

func (ns nativeStrings) strings() []string {
	return copyCStrings(ns.ptr, ns.n)
}

func (ns nativeStrings) destroy() {
	if ns.ptr != nil {
		C.libpostal_expansion_array_destroy(ns.ptr, ns.n)
	}
}

// copyCStrings copies a char* array without taking ownership of it. An empty
// array yields nil.
func copyCStrings(ptr **C.char, n C.size_t) []string {
	if ptr == nil || n == 0 {
		return nil
	}
	items := unsafe.Slice(ptr, int(n))
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = goString(p)
	}
	return out
}

// goString decodes a C string, replacing invalid UTF-8.
func goString(p *C.char) string {
	if p == nil {
		return ""
	}
	return strings.ToValidUTF8(C.GoString(p), "�")
}

// optionalCString maps "" to NULL.
func optionalCString(s string) *C.char {
	if s == "" {
		return nil
	}
	return C.CString(s)
}

func newAddressArrays(addrs []Address) (labels, values *cStrings) {
	l := make([]string, len(addrs))
	v := make([]string, len(addrs))
	for i, a := range addrs {
		l[i] = a.Label
		v[i] = a.Value
	}
	return newCStrings(l), newCStrings(v)
}

var stringOptionFlags = []struct {
	opt StringOptions
	c   C.uint64_t
}{
	{StringLatinASCII, C.LIBPOSTAL_NORMALIZE_STRING_LATIN_ASCII},
	{StringTransliterate, C.LIBPOSTAL_NORMALIZE_STRING_TRANSLITERATE},
	{StringStripAccents, C.LIBPOSTAL_NORMALIZE_STRING_STRIP_ACCENTS},
	{StringDecompose, C.LIBPOSTAL_NORMALIZE_STRING_DECOMPOSE},
	{StringLowercase, C.LIBPOSTAL_NORMALIZE_STRING_LOWERCASE},
	{StringTrim, C.LIBPOSTAL_NORMALIZE_STRING_TRIM},
	{StringReplaceHyphens, C.LIBPOSTAL_NORMALIZE_STRING_REPLACE_HYPHENS},
	{StringCompose, C.LIBPOSTAL_NORMALIZE_STRING_COMPOSE},
	{StringSimpleLatinASCII, C.LIBPOSTAL_NORMALIZE_STRING_SIMPLE_LATIN_ASCII},
	{StringReplaceNumex, C.LIBPOSTAL_NORMALIZE_STRING_REPLACE_NUMEX},
}

var tokenOptionFlags = []struct {
	opt TokenOptions
	c   C.uint64_t
}{
	{TokenReplaceHyphens, C.LIBPOSTAL_NORMALIZE_TOKEN_REPLACE_HYPHENS},
	{TokenDeleteHyphens, C.LIBPOSTAL_NORMALIZE_TOKEN_DELETE_HYPHENS},
	{TokenDeleteFinalPeriod, C.LIBPOSTAL_NORMALIZE_TOKEN_DELETE_FINAL_PERIOD},
	{TokenDeleteAcronymPeriods, C.LIBPOSTAL_NORMALIZE_TOKEN_DELETE_ACRONYM_PERIODS},
	{TokenDropEnglishPossessives, C.LIBPOSTAL_NORMALIZE_TOKEN_DROP_ENGLISH_POSSESSIVES},
	{TokenDeleteOtherApostrophe, C.LIBPOSTAL_NORMALIZE_TOKEN_DELETE_OTHER_APOSTROPHE},
	{TokenSplitAlphaFromNumeric, C.LIBPOSTAL_NORMALIZE_TOKEN_SPLIT_ALPHA_FROM_NUMERIC},
	{TokenReplaceDigits, C.LIBPOSTAL_NORMALIZE_TOKEN_REPLACE_DIGITS},
	{TokenReplaceNumericTokenLetters, C.LIBPOSTAL_NORMALIZE_TOKEN_REPLACE_NUMERIC_TOKEN_LETTERS},
	{TokenReplaceNumericHyphens, C.LIBPOSTAL_NORMALIZE_TOKEN_REPLACE_NUMERIC_HYPHENS},
}

func cStringOptions(opts StringOptions) C.uint64_t {
	var out C.uint64_t
	for _, f := range stringOptionFlags {
		if opts&f.opt != 0 {
			out |= f.c
		}
	}
	return out
}

func cTokenOptions(opts TokenOptions) C.uint64_t {
	var out C.uint64_t
	for _, f := range tokenOptionFlags {
		if opts&f.opt != 0 {
			out |= f.c
		}
	}
	return out
}

// toCNormalizeOptions builds the native struct. The languages array is
// owned by the caller and must be freed after the native call.
func toCNormalizeOptions(o NormalizeOptions) (C.libpostal_normalize_options_t, *cStrings) {
	langs := newCStrings(o.Languages)
	return C.libpostal_normalize_options_t{
		languages:                langs.ptr,
		num_languages:            langs.count(),
		address_components:       C.uint16_t(o.AddressComponents.Bits()),
		latin_ascii:              C.bool(o.LatinASCII),
		transliterate:            C.bool(o.Transliterate),
		strip_accents:            C.bool(o.StripAccents),
		decompose:                C.bool(o.Decompose),
		lowercase:                C.bool(o.Lowercase),
		trim_string:              C.bool(o.TrimString),
		drop_parentheticals:      C.bool(o.DropParentheticals),
		replace_numeric_hyphens:  C.bool(o.ReplaceNumericHyphens),
		delete_numeric_hyphens:   C.bool(o.DeleteNumericHyphens),
		split_alpha_from_numeric: C.bool(o.SplitAlphaFromNumeric),
		replace_word_hyphens:     C.bool(o.ReplaceWordHyphens),
		delete_word_hyphens:      C.bool(o.DeleteWordHyphens),
		delete_final_periods:     C.bool(o.DeleteFinalPeriods),
		delete_acronym_periods:   C.bool(o.DeleteAcronymPeriods),
		drop_english_possessives: C.bool(o.DropEnglishPossessives),
		delete_apostrophes:       C.bool(o.DeleteApostrophes),
		expand_numex:             C.bool(o.ExpandNumex),
		roman_numerals:           C.bool(o.RomanNumerals),
	}, langs
}

// fromCNormalizeOptions copies the native struct; it does not free the
// languages array.
func fromCNormalizeOptions(c C.libpostal_normalize_options_t) NormalizeOptions {
	return NormalizeOptions{
		Languages:              copyCStrings(c.languages, c.num_languages),
		AddressComponents:      componentsFromBits(uint16(c.address_components)),
		LatinASCII:             bool(c.latin_ascii),
		Transliterate:          bool(c.transliterate),
		StripAccents:           bool(c.strip_accents),
		Decompose:              bool(c.decompose),
		Lowercase:              bool(c.lowercase),
		TrimString:             bool(c.trim_string),
		DropParentheticals:     bool(c.drop_parentheticals),
		ReplaceNumericHyphens:  bool(c.replace_numeric_hyphens),
		DeleteNumericHyphens:   bool(c.delete_numeric_hyphens),
		SplitAlphaFromNumeric:  bool(c.split_alpha_from_numeric),
		ReplaceWordHyphens:     bool(c.replace_word_hyphens),
		DeleteWordHyphens:      bool(c.delete_word_hyphens),
		DeleteFinalPeriods:     bool(c.delete_final_periods),
		DeleteAcronymPeriods:   bool(c.delete_acronym_periods),
		DropEnglishPossessives: bool(c.drop_english_possessives),
		DeleteApostrophes:      bool(c.delete_apostrophes),
		ExpandNumex:            bool(c.expand_numex),
		RomanNumerals:          bool(c.roman_numerals),
	}
}

// roundTripNormalizeOptions converts to the native layout and back.
func roundTripNormalizeOptions(o NormalizeOptions) NormalizeOptions {
	c, langs := toCNormalizeOptions(o)
	defer langs.free()
	return fromCNormalizeOptions(c)
}

func (n *cgoNative) defaultNormalizeOptions() NormalizeOptions {
	return fromCNormalizeOptions(C.libpostal_get_default_options())
}

func (n *cgoNative) expandAddress(input string, opts NormalizeOptions, root bool) []string {
	cInput := C.CString(input)
	defer C.free(unsafe.Pointer(cInput))

	cOpts, langs := toCNormalizeOptions(opts)
	defer langs.free()

	var num C.size_t
	var arr **C.char
	if root {
		arr = C.libpostal_expand_address_root(cInput, cOpts, &num)
	} else {
		arr = C.libpostal_expand_address(cInput, cOpts, &num)
	}
	out := nativeStrings{ptr: arr, n: num}
	defer out.destroy()
	return out.strings()
}

func (n *cgoNative) normalizeString(input string, opts StringOptions, languages []string) string {
	cInput := C.CString(input)
	defer C.free(unsafe.Pointer(cInput))

	var res *C.char
	if len(languages) == 0 {
		res = C.libpostal_normalize_string(cInput, cStringOptions(opts))
	} else {
		langs := newCStrings(languages)
		defer langs.free()
		res = C.libpostal_normalize_string_languages(cInput, cStringOptions(opts), langs.count(), langs.ptr)
	}
	if res == nil {
		return ""
	}
	defer C.free(unsafe.Pointer(res))
	return goString(res)
}

func fromCToken(t C.libpostal_token_t) Token {
	return Token{Offset: int(t.offset), Len: int(t.len), Type: TokenType(t._type)}
}

func (n *cgoNative) tokenize(input string, whitespace bool) []Token {
	cInput := C.CString(input)
	defer C.free(unsafe.Pointer(cInput))

	var num C.size_t
	toks := C.libpostal_tokenize(cInput, C.bool(whitespace), &num)
	if toks == nil {
		return nil
	}
	defer C.free(unsafe.Pointer(toks))

	out := make([]Token, 0, int(num))
	for _, t := range unsafe.Slice(toks, int(num)) {
		out = append(out, fromCToken(t))
	}
	return out
}

func (n *cgoNative) normalizedTokens(input string, sopts StringOptions, topts TokenOptions, whitespace bool, languages []string) []NormalizedToken {
	cInput := C.CString(input)
	defer C.free(unsafe.Pointer(cInput))

	var num C.size_t
	var toks *C.libpostal_normalized_token_t
	if len(languages) == 0 {
		toks = C.libpostal_normalized_tokens(cInput, cStringOptions(sopts), cTokenOptions(topts), C.bool(whitespace), &num)
	} else {
		langs := newCStrings(languages)
		defer langs.free()
		toks = C.libpostal_normalized_tokens_languages(cInput, cStringOptions(sopts), cTokenOptions(topts), C.bool(whitespace), langs.count(), langs.ptr, &num)
	}
	if toks == nil {
		return nil
	}
	items := unsafe.Slice(toks, int(num))
	defer func() {
		for _, t := range items {
			C.free(unsafe.Pointer(t.str))
		}
		C.free(unsafe.Pointer(toks))
	}()

	out := make([]NormalizedToken, 0, len(items))
	for _, t := range items {
		out = append(out, NormalizedToken{Value: goString(t.str), Token: fromCToken(t.token)})
	}
	return out
}

func (n *cgoNative) defaultParserOptions() AddressParserOptions {
	c := C.libpostal_get_address_parser_default_options()
	return AddressParserOptions{Language: goString(c.language), Country: goString(c.country)}
}

func (n *cgoNative) parseAddress(input string, opts AddressParserOptions) ([]ParsedComponent, bool) {
	cInput := C.CString(input)
	defer C.free(unsafe.Pointer(cInput))
	language := optionalCString(opts.Language)
	defer C.free(unsafe.Pointer(language))
	country := optionalCString(opts.Country)
	defer C.free(unsafe.Pointer(country))

	resp := C.libpostal_parse_address(cInput, C.libpostal_address_parser_options_t{
		language: language,
		country:  country,
	})
	if resp == nil {
		return nil, false
	}
	defer C.libpostal_address_parser_response_destroy(resp)

	num := int(resp.num_components)
	components := make([]ParsedComponent, 0, num)
	if num == 0 || resp.labels == nil || resp.components == nil {
		return components, true
	}
	labels := unsafe.Slice(resp.labels, num)
	values := unsafe.Slice(resp.components, num)
	for i := 0; i < num; i++ {
		components = append(components, ParsedComponent{Label: goString(labels[i]), Value: goString(values[i])})
	}
	return components, true
}

func (n *cgoNative) parserPrintFeatures(on bool) bool {
	return bool(C.libpostal_parser_print_features(C.bool(on)))
}

func (n *cgoNative) placeLanguages(addrs []Address) []string {
	labels, values := newAddressArrays(addrs)
	defer labels.free()
	defer values.free()

	var num C.size_t
	arr := C.libpostal_place_languages(C.size_t(len(addrs)), labels.ptr, values.ptr, &num)
	out := nativeStrings{ptr: arr, n: num}
	defer out.destroy()
	return out.strings()
}

func toCNearDupeHashOptions(o NearDupeHashOptions) C.libpostal_near_dupe_hash_options_t {
	return C.libpostal_near_dupe_hash_options_t{
		with_name:                        C.bool(o.WithName),
		with_address:                     C.bool(o.WithAddress),
		with_unit:                        C.bool(o.WithUnit),
		with_city_or_equivalent:          C.bool(o.WithCityOrEquivalent),
		with_small_containing_boundaries: C.bool(o.WithSmallContainingBoundaries),
		with_postal_code:                 C.bool(o.WithPostalCode),
		with_latlon:                      C.bool(o.WithLatLon),
		latitude:                         C.double(o.Latitude),
		longitude:                        C.double(o.Longitude),
		geohash_precision:                C.uint32_t(o.GeohashPrecision),
		name_and_address_keys:            C.bool(o.NameAndAddressKeys),
		name_only_keys:                   C.bool(o.NameOnlyKeys),
		address_only_keys:                C.bool(o.AddressOnlyKeys),
	}
}

func fromCNearDupeHashOptions(c C.libpostal_near_dupe_hash_options_t) NearDupeHashOptions {
	return NearDupeHashOptions{
		WithName:                      bool(c.with_name),
		WithAddress:                   bool(c.with_address),
		WithUnit:                      bool(c.with_unit),
		WithCityOrEquivalent:          bool(c.with_city_or_equivalent),
		WithSmallContainingBoundaries: bool(c.with_small_containing_boundaries),
		WithPostalCode:                bool(c.with_postal_code),
		WithLatLon:                    bool(c.with_latlon),
		Latitude:                      float64(c.latitude),
		Longitude:                     float64(c.longitude),
		GeohashPrecision:              uint32(c.geohash_precision),
		NameAndAddressKeys:            bool(c.name_and_address_keys),
		NameOnlyKeys:                  bool(c.name_only_keys),
		AddressOnlyKeys:               bool(c.address_only_keys),
	}
}

func roundTripNearDupeHashOptions(o NearDupeHashOptions) NearDupeHashOptions {
	return fromCNearDupeHashOptions(toCNearDupeHashOptions(o))
}

func (n *cgoNative) defaultNearDupeHashOptions() NearDupeHashOptions {
	return fromCNearDupeHashOptions(C.libpostal_get_near_dupe_hash_default_options())
}

func (n *cgoNative) nearDupeHashes(addrs []Address, opts NearDupeHashOptions, languages []string) []string {
	labels, values := newAddressArrays(addrs)
	defer labels.free()
	defer values.free()

	var num C.size_t
	var arr **C.char
	if languages == nil {
		arr = C.libpostal_near_dupe_hashes(C.size_t(len(addrs)), labels.ptr, values.ptr, toCNearDupeHashOptions(opts), &num)
	} else {
		langs := newCStrings(languages)
		defer langs.free()
		arr = C.libpostal_near_dupe_hashes_languages(C.size_t(len(addrs)), labels.ptr, values.ptr,
			toCNearDupeHashOptions(opts), langs.count(), langs.ptr, &num)
	}
	out := nativeStrings{ptr: arr, n: num}
	defer out.destroy()
	return out.strings()
}

func toCDuplicateOptions(o DuplicateOptions) (C.libpostal_duplicate_options_t, *cStrings) {
	langs := newCStrings(o.Languages)
	return C.libpostal_duplicate_options_t{
		num_languages: langs.count(),
		languages:     langs.ptr,
	}, langs
}

func (n *cgoNative) defaultDuplicateOptions() DuplicateOptions {
	c := C.libpostal_get_default_duplicate_options()
	return DuplicateOptions{Languages: copyCStrings(c.languages, c.num_languages)}
}

// duplicateOptionsWithLanguages: libpostal stores the array it is given in
// the returned struct, so the languages are copied before it is freed.
func (n *cgoNative) duplicateOptionsWithLanguages(languages []string) DuplicateOptions {
	langs := newCStrings(languages)
	defer langs.free()
	c := C.libpostal_get_duplicate_options_with_languages(langs.count(), langs.ptr)
	return DuplicateOptions{Languages: copyCStrings(c.languages, c.num_languages)}
}

func (n *cgoNative) isToponymDuplicate(a, b []Address, opts DuplicateOptions) DuplicateStatus {
	labels1, values1 := newAddressArrays(a)
	defer labels1.free()
	defer values1.free()
	labels2, values2 := newAddressArrays(b)
	defer labels2.free()
	defer values2.free()
	cOpts, langs := toCDuplicateOptions(opts)
	defer langs.free()

	status := C.libpostal_is_toponym_duplicate(
		C.size_t(len(a)), labels1.ptr, values1.ptr,
		C.size_t(len(b)), labels2.ptr, values2.ptr,
		cOpts)
	return duplicateStatusFromCode(int(status))
}

func (n *cgoNative) isDuplicate(field Field, a, b string, opts DuplicateOptions) DuplicateStatus {
	v1 := C.CString(a)
	defer C.free(unsafe.Pointer(v1))
	v2 := C.CString(b)
	defer C.free(unsafe.Pointer(v2))
	cOpts, langs := toCDuplicateOptions(opts)
	defer langs.free()

	var status C.libpostal_duplicate_status_t
	switch field {
	case FieldName:
		status = C.libpostal_is_name_duplicate(v1, v2, cOpts)
	case FieldStreet:
		status = C.libpostal_is_street_duplicate(v1, v2, cOpts)
	case FieldHouseNumber:
		status = C.libpostal_is_house_number_duplicate(v1, v2, cOpts)
	case FieldPOBox:
		status = C.libpostal_is_po_box_duplicate(v1, v2, cOpts)
	case FieldUnit:
		status = C.libpostal_is_unit_duplicate(v1, v2, cOpts)
	case FieldFloor:
		status = C.libpostal_is_floor_duplicate(v1, v2, cOpts)
	case FieldPostalCode:
		status = C.libpostal_is_postal_code_duplicate(v1, v2, cOpts)
	default:
		return NullDuplicateStatus
	}
	return duplicateStatusFromCode(int(status))
}

func toCFuzzyDuplicateOptions(o FuzzyDuplicateOptions) (C.libpostal_fuzzy_duplicate_options_t, *cStrings) {
	langs := newCStrings(o.Languages)
	return C.libpostal_fuzzy_duplicate_options_t{
		num_languages:          langs.count(),
		languages:              langs.ptr,
		needs_review_threshold: C.double(o.NeedsReviewThreshold),
		likely_dupe_threshold:  C.double(o.LikelyDupeThreshold),
	}, langs
}

func fromCFuzzyDuplicateOptions(c C.libpostal_fuzzy_duplicate_options_t) FuzzyDuplicateOptions {
	return FuzzyDuplicateOptions{
		Languages:            copyCStrings(c.languages, c.num_languages),
		NeedsReviewThreshold: float64(c.needs_review_threshold),
		LikelyDupeThreshold:  float64(c.likely_dupe_threshold),
	}
}

func (n *cgoNative) defaultFuzzyDuplicateOptions(languages []string) FuzzyDuplicateOptions {
	if languages == nil {
		return fromCFuzzyDuplicateOptions(C.libpostal_get_default_fuzzy_duplicate_options())
	}
	langs := newCStrings(languages)
	defer langs.free()
	return fromCFuzzyDuplicateOptions(
		C.libpostal_get_default_fuzzy_duplicate_options_with_languages(langs.count(), langs.ptr))
}

func newTokenArrays(tokens []TokenScore) (*cStrings, []C.double) {
	words := make([]string, len(tokens))
	scores := make([]C.double, len(tokens))
	for i, t := range tokens {
		words[i] = t.Token
		scores[i] = C.double(t.Score)
	}
	return newCStrings(words), scores
}

func doublesPtr(s []C.double) *C.double {
	if len(s) == 0 {
		return nil
	}
	return &s[0]
}

func (n *cgoNative) isDuplicateFuzzy(field Field, a, b []TokenScore, opts FuzzyDuplicateOptions) FuzzyDuplicateStatus {
	tokens1, scores1 := newTokenArrays(a)
	defer tokens1.free()
	tokens2, scores2 := newTokenArrays(b)
	defer tokens2.free()
	cOpts, langs := toCFuzzyDuplicateOptions(opts)
	defer langs.free()

	var res C.libpostal_fuzzy_duplicate_status_t
	switch field {
	case FieldName:
		res = C.libpostal_is_name_duplicate_fuzzy(
			tokens1.count(), tokens1.ptr, doublesPtr(scores1),
			tokens2.count(), tokens2.ptr, doublesPtr(scores2),
			cOpts)
	case FieldStreet:
		res = C.libpostal_is_street_duplicate_fuzzy(
			tokens1.count(), tokens1.ptr, doublesPtr(scores1),
			tokens2.count(), tokens2.ptr, doublesPtr(scores2),
			cOpts)
	default:
		return FuzzyDuplicateStatus{Status: NullDuplicateStatus}
	}
	return FuzzyDuplicateStatus{
		Status:     duplicateStatusFromCode(int(res.status)),
		Similarity: float64(res.similarity),
	}
}
