//go:build !cgo || postal_stub

package postal

// stubNative backs builds without libpostal. Every handle constructor
// returns ErrUnavailable, so the other methods are never reached.
type stubNative struct{}

func newNative() native { return stubNative{} }

func (stubNative) available() bool { return false }

func (stubNative) setup(Subsystem, string) bool { return false }

func (stubNative) teardown(Subsystem) {}

func (stubNative) defaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{AddressComponents: NewAddressComponents(ComponentAll)}
}

func (stubNative) expandAddress(string, NormalizeOptions, bool) []string { return nil }

func (stubNative) normalizeString(string, StringOptions, []string) string { return "" }

func (stubNative) tokenize(string, bool) []Token { return nil }

func (stubNative) normalizedTokens(string, StringOptions, TokenOptions, bool, []string) []NormalizedToken {
	return nil
}

func (stubNative) defaultParserOptions() AddressParserOptions { return AddressParserOptions{} }

func (stubNative) parseAddress(string, AddressParserOptions) ([]ParsedComponent, bool) {
	return nil, false
}

func (stubNative) parserPrintFeatures(bool) bool { return false }

func (stubNative) placeLanguages([]Address) []string { return nil }

func (stubNative) defaultNearDupeHashOptions() NearDupeHashOptions { return NearDupeHashOptions{} }

func (stubNative) nearDupeHashes([]Address, NearDupeHashOptions, []string) []string { return nil }

func (stubNative) defaultDuplicateOptions() DuplicateOptions { return DuplicateOptions{} }

func (stubNative) duplicateOptionsWithLanguages(languages []string) DuplicateOptions {
	return DuplicateOptions{Languages: append([]string(nil), languages...)}
}

func (stubNative) isToponymDuplicate([]Address, []Address, DuplicateOptions) DuplicateStatus {
	return NullDuplicateStatus
}

func (stubNative) isDuplicate(Field, string, string, DuplicateOptions) DuplicateStatus {
	return NullDuplicateStatus
}

func (stubNative) defaultFuzzyDuplicateOptions(languages []string) FuzzyDuplicateOptions {
	return FuzzyDuplicateOptions{Languages: append([]string(nil), languages...)}
}

func (stubNative) isDuplicateFuzzy(Field, []TokenScore, []TokenScore, FuzzyDuplicateOptions) FuzzyDuplicateStatus {
	return FuzzyDuplicateStatus{Status: NullDuplicateStatus}
}
