package postal

import (
	"sync"
	"testing"
)

// fakeNative records lifecycle calls and returns canned results.
type fakeNative struct {
	mu sync.Mutex

	unavailable bool
	failSetup   map[Subsystem]bool
	setups      map[Subsystem]int
	teardowns   map[Subsystem]int
	setupDirs   map[Subsystem][]string

	expansions []string
	lastExpand NormalizeOptions
	lastRoot   bool
	// expandHook runs inside expandAddress when set.
	expandHook func()

	parsed    []ParsedComponent
	parseOK   bool
	lastParse AddressParserOptions

	lastLanguages []string
	status        DuplicateStatus
	fuzzy         FuzzyDuplicateStatus
	lastField     Field
}

func newFakeNative() *fakeNative {
	return &fakeNative{
		failSetup: map[Subsystem]bool{},
		setups:    map[Subsystem]int{},
		teardowns: map[Subsystem]int{},
		setupDirs: map[Subsystem][]string{},
		parseOK:   true,
		status:    ExactDuplicate,
	}
}

// useFake installs a fake backend with fresh guards for the test.
func useFake(t *testing.T) *fakeNative {
	t.Helper()
	prev := lib
	f := newFakeNative()
	lib = f
	resetGuards()
	t.Cleanup(func() {
		lib = prev
		resetGuards()
	})
	return f
}

func resetGuards() {
	for _, g := range guards {
		g.mu.Lock()
		g.refs = 0
		g.datadir = ""
		g.mu.Unlock()
	}
}

func (f *fakeNative) setupCount(kind Subsystem) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setups[kind]
}

func (f *fakeNative) teardownCount(kind Subsystem) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.teardowns[kind]
}

func (f *fakeNative) available() bool { return !f.unavailable }

func (f *fakeNative) setup(kind Subsystem, datadir string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSetup[kind] {
		return false
	}
	f.setups[kind]++
	f.setupDirs[kind] = append(f.setupDirs[kind], datadir)
	return true
}

func (f *fakeNative) teardown(kind Subsystem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.teardowns[kind]++
}

func (f *fakeNative) defaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{
		AddressComponents: NewAddressComponents(ComponentName, ComponentStreet),
		LatinASCII:        true,
		Lowercase:         true,
	}
}

func (f *fakeNative) expandAddress(input string, opts NormalizeOptions, root bool) []string {
	if f.expandHook != nil {
		f.expandHook()
	}
	f.lastExpand = opts
	f.lastRoot = root
	return f.expansions
}

func (f *fakeNative) normalizeString(input string, opts StringOptions, languages []string) string {
	f.lastLanguages = languages
	return input
}

func (f *fakeNative) tokenize(input string, whitespace bool) []Token {
	return []Token{{Offset: 0, Len: len(input), Type: TokenWord}}
}

func (f *fakeNative) normalizedTokens(input string, sopts StringOptions, topts TokenOptions, whitespace bool, languages []string) []NormalizedToken {
	return []NormalizedToken{{Value: input, Token: Token{Len: len(input), Type: TokenWord}}}
}

func (f *fakeNative) defaultParserOptions() AddressParserOptions { return AddressParserOptions{} }

func (f *fakeNative) parseAddress(input string, opts AddressParserOptions) ([]ParsedComponent, bool) {
	f.lastParse = opts
	if !f.parseOK {
		return nil, false
	}
	return f.parsed, true
}

func (f *fakeNative) parserPrintFeatures(on bool) bool { return true }

func (f *fakeNative) placeLanguages(addrs []Address) []string { return []string{"en"} }

func (f *fakeNative) defaultNearDupeHashOptions() NearDupeHashOptions {
	return NearDupeHashOptions{WithName: true, WithAddress: true, GeohashPrecision: 6}
}

func (f *fakeNative) nearDupeHashes(addrs []Address, opts NearDupeHashOptions, languages []string) []string {
	f.lastLanguages = languages
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.Label+"|"+a.Value)
	}
	return out
}

func (f *fakeNative) defaultDuplicateOptions() DuplicateOptions { return DuplicateOptions{} }

func (f *fakeNative) duplicateOptionsWithLanguages(languages []string) DuplicateOptions {
	return DuplicateOptions{Languages: append([]string(nil), languages...)}
}

func (f *fakeNative) isToponymDuplicate(a, b []Address, opts DuplicateOptions) DuplicateStatus {
	return f.status
}

func (f *fakeNative) isDuplicate(field Field, a, b string, opts DuplicateOptions) DuplicateStatus {
	f.lastField = field
	return f.status
}

func (f *fakeNative) defaultFuzzyDuplicateOptions(languages []string) FuzzyDuplicateOptions {
	f.lastLanguages = languages
	return FuzzyDuplicateOptions{Languages: languages, NeedsReviewThreshold: 0.7, LikelyDupeThreshold: 0.9}
}

func (f *fakeNative) isDuplicateFuzzy(field Field, a, b []TokenScore, opts FuzzyDuplicateOptions) FuzzyDuplicateStatus {
	f.lastField = field
	return f.fuzzy
}
