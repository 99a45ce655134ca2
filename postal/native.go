package postal

// native is the set of libpostal entry points the handles call. Inputs
// have already been checked for NUL bytes. The cgo build installs the
// real implementation; the stub build installs one where available()
// is false.
type native interface {
	available() bool

	setup(kind Subsystem, datadir string) bool
	teardown(kind Subsystem)

	defaultNormalizeOptions() NormalizeOptions
	expandAddress(input string, opts NormalizeOptions, root bool) []string
	normalizeString(input string, opts StringOptions, languages []string) string
	tokenize(input string, whitespace bool) []Token
	normalizedTokens(input string, sopts StringOptions, topts TokenOptions, whitespace bool, languages []string) []NormalizedToken

	defaultParserOptions() AddressParserOptions
	parseAddress(input string, opts AddressParserOptions) ([]ParsedComponent, bool)
	parserPrintFeatures(on bool) bool

	placeLanguages(addrs []Address) []string
	defaultNearDupeHashOptions() NearDupeHashOptions
	// languages == nil selects libpostal_near_dupe_hashes, otherwise
	// libpostal_near_dupe_hashes_languages.
	nearDupeHashes(addrs []Address, opts NearDupeHashOptions, languages []string) []string

	defaultDuplicateOptions() DuplicateOptions
	duplicateOptionsWithLanguages(languages []string) DuplicateOptions
	isToponymDuplicate(a, b []Address, opts DuplicateOptions) DuplicateStatus
	isDuplicate(field Field, a, b string, opts DuplicateOptions) DuplicateStatus

	// languages == nil selects the variant without languages.
	defaultFuzzyDuplicateOptions(languages []string) FuzzyDuplicateOptions
	isDuplicateFuzzy(field Field, a, b []TokenScore, opts FuzzyDuplicateOptions) FuzzyDuplicateStatus
}

// lib is replaced in tests.
var lib native = newNative()
