package config

import (
	"os"
	"strconv"
	"time"

	"github.com/address-parser/postal-service/postal"
	"gopkg.in/yaml.v3"
)

// ExpandCfg tùy chọn expand mặc định
type ExpandCfg struct {
	Languages         []string `yaml:"languages" json:"languages"`
	AddressComponents string   `yaml:"address_components" json:"address_components"` // "name|street|..."
	Root              bool     `yaml:"root" json:"root"`
	NormalizeFlags    `yaml:",inline"`
}

// NormalizeFlags ghi đè các cờ chuẩn hóa của libpostal. Trường nil giữ giá trị gốc.
type NormalizeFlags struct {
	LatinASCII             *bool `yaml:"latin_ascii,omitempty" json:"latin_ascii,omitempty"`
	Transliterate          *bool `yaml:"transliterate,omitempty" json:"transliterate,omitempty"`
	StripAccents           *bool `yaml:"strip_accents,omitempty" json:"strip_accents,omitempty"`
	Decompose              *bool `yaml:"decompose,omitempty" json:"decompose,omitempty"`
	Lowercase              *bool `yaml:"lowercase,omitempty" json:"lowercase,omitempty"`
	TrimString             *bool `yaml:"trim_string,omitempty" json:"trim_string,omitempty"`
	DropParentheticals     *bool `yaml:"drop_parentheticals,omitempty" json:"drop_parentheticals,omitempty"`
	ReplaceNumericHyphens  *bool `yaml:"replace_numeric_hyphens,omitempty" json:"replace_numeric_hyphens,omitempty"`
	DeleteNumericHyphens   *bool `yaml:"delete_numeric_hyphens,omitempty" json:"delete_numeric_hyphens,omitempty"`
	SplitAlphaFromNumeric  *bool `yaml:"split_alpha_from_numeric,omitempty" json:"split_alpha_from_numeric,omitempty"`
	ReplaceWordHyphens     *bool `yaml:"replace_word_hyphens,omitempty" json:"replace_word_hyphens,omitempty"`
	DeleteWordHyphens      *bool `yaml:"delete_word_hyphens,omitempty" json:"delete_word_hyphens,omitempty"`
	DeleteFinalPeriods     *bool `yaml:"delete_final_periods,omitempty" json:"delete_final_periods,omitempty"`
	DeleteAcronymPeriods   *bool `yaml:"delete_acronym_periods,omitempty" json:"delete_acronym_periods,omitempty"`
	DropEnglishPossessives *bool `yaml:"drop_english_possessives,omitempty" json:"drop_english_possessives,omitempty"`
	DeleteApostrophes      *bool `yaml:"delete_apostrophes,omitempty" json:"delete_apostrophes,omitempty"`
	ExpandNumex            *bool `yaml:"expand_numex,omitempty" json:"expand_numex,omitempty"`
	RomanNumerals          *bool `yaml:"roman_numerals,omitempty" json:"roman_numerals,omitempty"`
}

// ApplyTo ghi các cờ khác nil vào opts
func (f NormalizeFlags) ApplyTo(opts *postal.NormalizeOptions) {
	overrides := []struct {
		v   *bool
		dst *bool
	}{
		{f.LatinASCII, &opts.LatinASCII},
		{f.Transliterate, &opts.Transliterate},
		{f.StripAccents, &opts.StripAccents},
		{f.Decompose, &opts.Decompose},
		{f.Lowercase, &opts.Lowercase},
		{f.TrimString, &opts.TrimString},
		{f.DropParentheticals, &opts.DropParentheticals},
		{f.ReplaceNumericHyphens, &opts.ReplaceNumericHyphens},
		{f.DeleteNumericHyphens, &opts.DeleteNumericHyphens},
		{f.SplitAlphaFromNumeric, &opts.SplitAlphaFromNumeric},
		{f.ReplaceWordHyphens, &opts.ReplaceWordHyphens},
		{f.DeleteWordHyphens, &opts.DeleteWordHyphens},
		{f.DeleteFinalPeriods, &opts.DeleteFinalPeriods},
		{f.DeleteAcronymPeriods, &opts.DeleteAcronymPeriods},
		{f.DropEnglishPossessives, &opts.DropEnglishPossessives},
		{f.DeleteApostrophes, &opts.DeleteApostrophes},
		{f.ExpandNumex, &opts.ExpandNumex},
		{f.RomanNumerals, &opts.RomanNumerals},
	}
	for _, ov := range overrides {
		if ov.v != nil {
			*ov.dst = *ov.v
		}
	}
}

// DedupeCfg ngưỡng và ngôn ngữ cho so sánh trùng lặp
type DedupeCfg struct {
	Languages            []string `yaml:"languages" json:"languages"`
	NeedsReviewThreshold float64  `yaml:"needs_review_threshold" json:"needs_review_threshold"`
	LikelyDupeThreshold  float64  `yaml:"likely_dupe_threshold" json:"likely_dupe_threshold"`
	GeohashPrecision     uint32   `yaml:"geohash_precision" json:"geohash_precision"`
	CandidateLimit       int64    `yaml:"candidate_limit" json:"candidate_limit"`
}

// CacheCfg cấu hình cache kết quả
type CacheCfg struct {
	TTLSeconds  int    `yaml:"ttl_seconds" json:"ttl_seconds"`
	L1Size      int    `yaml:"l1_size" json:"l1_size"`
	DataVersion string `yaml:"data_version" json:"data_version"` // đổi khi cập nhật dữ liệu libpostal
}

// BatchCfg cấu hình job batch
type BatchCfg struct {
	MaxItems int `yaml:"max_items" json:"max_items"`
	Workers  int `yaml:"workers" json:"workers"`
}

type PostalCfg struct {
	DataDir           string                      `yaml:"data_dir" json:"data_dir"`
	ParserDataDir     string                      `yaml:"parser_data_dir" json:"parser_data_dir"`
	ClassifierDataDir string                      `yaml:"classifier_data_dir" json:"classifier_data_dir"`
	EnableParser      bool                        `yaml:"enable_parser" json:"enable_parser"`
	EnableClassifier  bool                        `yaml:"enable_classifier" json:"enable_classifier"`
	RequestTimeoutMs  int                         `yaml:"request_timeout_ms" json:"request_timeout_ms"`
	Expand            ExpandCfg                   `yaml:"expand" json:"expand"`
	Parser            postal.AddressParserOptions `yaml:"parser" json:"parser"`
	Dedupe            DedupeCfg                   `yaml:"dedupe" json:"dedupe"`
	Cache             CacheCfg                    `yaml:"cache" json:"cache"`
	Batch             BatchCfg                    `yaml:"batch" json:"batch"`
}

var C = Default()

// Default cấu hình mặc định khi không có file
func Default() PostalCfg {
	return PostalCfg{
		EnableParser:     true,
		EnableClassifier: true,
		RequestTimeoutMs: 1500,
		Dedupe: DedupeCfg{
			NeedsReviewThreshold: 0.7,
			LikelyDupeThreshold:  0.9,
			GeohashPrecision:     6,
			CandidateLimit:       20,
		},
		Cache: CacheCfg{
			TTLSeconds:  24 * 3600,
			L1Size:      10000,
			DataVersion: "v1",
		},
		Batch: BatchCfg{
			MaxItems: 20000,
			Workers:  4,
		},
	}
}

func Load(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return err
	}
	C = cfg
	applyEnv(&C)
	return nil
}

// ENV overrides
func applyEnv(cfg *PostalCfg) {
	if dir := os.Getenv("POSTAL_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
	if v, ok := envBool("POSTAL_ENABLE_PARSER"); ok {
		cfg.EnableParser = v
	}
	if v, ok := envBool("POSTAL_ENABLE_CLASSIFIER"); ok {
		cfg.EnableClassifier = v
	}
}

func envBool(key string) (bool, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

func RequestTimeout() time.Duration {
	if C.RequestTimeoutMs <= 0 {
		return 1500 * time.Millisecond
	}
	return time.Duration(C.RequestTimeoutMs) * time.Millisecond
}

func CacheTTL() time.Duration { return time.Duration(C.Cache.TTLSeconds) * time.Second }

// ExpandOptions áp dụng cấu hình expand lên options mặc định của libpostal
func (c PostalCfg) ExpandOptions(base postal.NormalizeOptions) (postal.NormalizeOptions, error) {
	if len(c.Expand.Languages) > 0 {
		base.Languages = append([]string(nil), c.Expand.Languages...)
	}
	if c.Expand.AddressComponents != "" {
		components, err := postal.ParseAddressComponents(c.Expand.AddressComponents)
		if err != nil {
			return base, err
		}
		base.AddressComponents = components
	}
	c.Expand.NormalizeFlags.ApplyTo(&base)
	return base, nil
}
