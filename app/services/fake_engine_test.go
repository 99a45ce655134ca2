package services

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/address-parser/postal-service/app/config"
	"github.com/address-parser/postal-service/postal"
	"go.uber.org/zap"
)

// fakeEngine Engine trong bộ nhớ cho test service
type fakeEngine struct {
	mu sync.Mutex

	expandCalls atomic.Int64
	parseCalls  atomic.Int64
	delay       time.Duration
	err         error

	lastNormalize postal.NormalizeOptions
	lastParser    postal.AddressParserOptions
	lastDupe      postal.DuplicateOptions
	lastFuzzy     postal.FuzzyDuplicateOptions
	lastHash      postal.NearDupeHashOptions
	lastLanguages []string

	status      postal.DuplicateStatus
	fuzzy       postal.FuzzyDuplicateStatus
	hashes      []string
	languages   []string
	parseAbsent bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		status: postal.ExactDuplicate,
		fuzzy:  postal.FuzzyDuplicateStatus{Status: postal.LikelyDuplicate, Similarity: 0.93},
		hashes: []string{"act|whole foods|95|houston", "act|whole foods|e houston"},
	}
}

func (f *fakeEngine) DefaultNormalizeOptions() postal.NormalizeOptions {
	return postal.NormalizeOptions{
		AddressComponents: postal.NewAddressComponents(postal.ComponentName, postal.ComponentStreet),
		LatinASCII:        true,
		Lowercase:         true,
		TrimString:        true,
	}
}

func (f *fakeEngine) ExpandAddress(input string, opts postal.NormalizeOptions) ([]string, error) {
	return f.expand(input, opts, "")
}

func (f *fakeEngine) ExpandAddressRoot(input string, opts postal.NormalizeOptions) ([]string, error) {
	return f.expand(input, opts, "root:")
}

func (f *fakeEngine) expand(input string, opts postal.NormalizeOptions, prefix string) ([]string, error) {
	f.expandCalls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.lastNormalize = opts
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if strings.Contains(input, "\x00") {
		return nil, &postal.InvalidStringError{Field: "input", Offset: strings.Index(input, "\x00")}
	}
	if input == "???" {
		return []string{}, nil
	}
	s := input
	if opts.Lowercase {
		s = strings.ToLower(s)
	}
	return []string{prefix + s, prefix + strings.ReplaceAll(s, " st", " street")}, nil
}

func (f *fakeEngine) DefaultParserOptions() postal.AddressParserOptions {
	return postal.AddressParserOptions{}
}

func (f *fakeEngine) ParseAddress(input string, opts postal.AddressParserOptions) ([]postal.ParsedComponent, bool, error) {
	f.parseCalls.Add(1)
	f.mu.Lock()
	f.lastParser = opts
	f.mu.Unlock()
	if f.err != nil {
		return nil, false, f.err
	}
	if f.parseAbsent {
		return nil, false, nil
	}
	fields := strings.Fields(strings.ToLower(input))
	if len(fields) == 0 {
		return []postal.ParsedComponent{}, true, nil
	}
	out := []postal.ParsedComponent{{Label: "house_number", Value: fields[0]}}
	if len(fields) > 1 {
		out = append(out, postal.ParsedComponent{Label: "road", Value: strings.Join(fields[1:], " ")})
	}
	return out, true, nil
}

func (f *fakeEngine) PlaceLanguages(addrs []postal.Address) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.languages, nil
}

func (f *fakeEngine) DefaultNearDupeHashOptions() postal.NearDupeHashOptions {
	return postal.NearDupeHashOptions{WithName: true, WithAddress: true, GeohashPrecision: 6}
}

func (f *fakeEngine) NearDupeHashes(addrs []postal.Address, opts postal.NearDupeHashOptions, languages []string) ([]string, error) {
	f.mu.Lock()
	f.lastHash = opts
	f.lastLanguages = languages
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.hashes, nil
}

func (f *fakeEngine) DuplicateOptions(languages []string) (postal.DuplicateOptions, error) {
	return postal.DuplicateOptions{Languages: languages}, nil
}

func (f *fakeEngine) IsDuplicate(field postal.Field, a, b string, opts postal.DuplicateOptions) (postal.DuplicateStatus, error) {
	f.mu.Lock()
	f.lastDupe = opts
	f.mu.Unlock()
	if f.err != nil {
		return postal.NullDuplicateStatus, f.err
	}
	return f.status, nil
}

func (f *fakeEngine) IsToponymDuplicate(a, b []postal.Address, opts postal.DuplicateOptions) (postal.DuplicateStatus, error) {
	f.mu.Lock()
	f.lastDupe = opts
	f.mu.Unlock()
	return f.status, f.err
}

func (f *fakeEngine) FuzzyDuplicateOptions(languages []string) (postal.FuzzyDuplicateOptions, error) {
	return postal.FuzzyDuplicateOptions{Languages: languages, NeedsReviewThreshold: 0.7, LikelyDupeThreshold: 0.9}, nil
}

func (f *fakeEngine) IsDuplicateFuzzy(field postal.Field, a, b []postal.TokenScore, opts postal.FuzzyDuplicateOptions) (postal.FuzzyDuplicateStatus, error) {
	f.mu.Lock()
	f.lastFuzzy = opts
	f.mu.Unlock()
	if !field.SupportsFuzzy() {
		return postal.FuzzyDuplicateStatus{Status: postal.NullDuplicateStatus}, &postal.UnsupportedFieldError{Field: field, Fuzzy: true}
	}
	return f.fuzzy, f.err
}

func (f *fakeEngine) Status() EngineStatus {
	return EngineStatus{Core: true, Parser: true, Classifier: true}
}

func (f *fakeEngine) Close() error { return nil }

// withConfig thay config.C trong một test
func withConfig(t *testing.T, mutate func(*config.PostalCfg)) {
	t.Helper()
	saved := config.C
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	config.C = cfg
	t.Cleanup(func() { config.C = saved })
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
