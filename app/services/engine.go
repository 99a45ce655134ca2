package services

import (
	"errors"
	"fmt"

	"github.com/address-parser/postal-service/app/config"
	"github.com/address-parser/postal-service/postal"
	"go.uber.org/zap"
)

var (
	// ErrParserDisabled parser không được bật trong cấu hình
	ErrParserDisabled = errors.New("address parser chưa được bật")
	// ErrClassifierDisabled language classifier không được bật trong cấu hình
	ErrClassifierDisabled = errors.New("language classifier chưa được bật")
)

// EngineStatus trạng thái các subsystem libpostal
type EngineStatus struct {
	Core       bool   `json:"core"`
	Parser     bool   `json:"parser"`
	Classifier bool   `json:"classifier"`
	DataDir    string `json:"data_dir,omitempty"`
}

// Engine các thao tác libpostal mà service dùng
type Engine interface {
	DefaultNormalizeOptions() postal.NormalizeOptions
	ExpandAddress(input string, opts postal.NormalizeOptions) ([]string, error)
	ExpandAddressRoot(input string, opts postal.NormalizeOptions) ([]string, error)
	DefaultParserOptions() postal.AddressParserOptions
	ParseAddress(input string, opts postal.AddressParserOptions) ([]postal.ParsedComponent, bool, error)

	PlaceLanguages(addrs []postal.Address) ([]string, error)
	DefaultNearDupeHashOptions() postal.NearDupeHashOptions
	NearDupeHashes(addrs []postal.Address, opts postal.NearDupeHashOptions, languages []string) ([]string, error)
	DuplicateOptions(languages []string) (postal.DuplicateOptions, error)
	IsDuplicate(field postal.Field, a, b string, opts postal.DuplicateOptions) (postal.DuplicateStatus, error)
	IsToponymDuplicate(a, b []postal.Address, opts postal.DuplicateOptions) (postal.DuplicateStatus, error)
	FuzzyDuplicateOptions(languages []string) (postal.FuzzyDuplicateOptions, error)
	IsDuplicateFuzzy(field postal.Field, a, b []postal.TokenScore, opts postal.FuzzyDuplicateOptions) (postal.FuzzyDuplicateStatus, error)

	Status() EngineStatus
	Close() error
}

// PostalEngine Engine dùng libpostal thật qua package postal
type PostalEngine struct {
	core       *postal.Core
	parser     *postal.Parser
	classifier *postal.LanguageClassifier
	logger     *zap.Logger
}

// NewPostalEngine khởi tạo core và các subsystem được bật
func NewPostalEngine(cfg config.PostalCfg, logger *zap.Logger) (*PostalEngine, error) {
	postal.SetLogger(logger.Named("postal"))

	core, err := postal.SetupDataDir(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("lỗi khởi tạo libpostal: %w", err)
	}
	e := &PostalEngine{core: core, logger: logger}

	if cfg.EnableParser {
		e.parser, err = core.SetupParserDataDir(orDefault(cfg.ParserDataDir, cfg.DataDir))
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("lỗi khởi tạo address parser: %w", err)
		}
	}
	if cfg.EnableClassifier {
		e.classifier, err = core.SetupLanguageClassifierDataDir(orDefault(cfg.ClassifierDataDir, cfg.DataDir))
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("lỗi khởi tạo language classifier: %w", err)
		}
	}

	logger.Info("Đã khởi tạo libpostal",
		zap.String("data_dir", core.DataDir()),
		zap.Bool("parser", e.parser != nil),
		zap.Bool("classifier", e.classifier != nil))
	return e, nil
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func (e *PostalEngine) DefaultNormalizeOptions() postal.NormalizeOptions {
	return e.core.DefaultNormalizeOptions()
}

func (e *PostalEngine) ExpandAddress(input string, opts postal.NormalizeOptions) ([]string, error) {
	return e.core.ExpandAddress(input, opts)
}

func (e *PostalEngine) ExpandAddressRoot(input string, opts postal.NormalizeOptions) ([]string, error) {
	return e.core.ExpandAddressRoot(input, opts)
}

func (e *PostalEngine) DefaultParserOptions() postal.AddressParserOptions {
	if e.parser == nil {
		return postal.AddressParserOptions{}
	}
	return e.parser.DefaultOptions()
}

func (e *PostalEngine) ParseAddress(input string, opts postal.AddressParserOptions) ([]postal.ParsedComponent, bool, error) {
	if e.parser == nil {
		return nil, false, ErrParserDisabled
	}
	return e.parser.ParseAddress(input, opts)
}

func (e *PostalEngine) PlaceLanguages(addrs []postal.Address) ([]string, error) {
	if e.classifier == nil {
		return nil, ErrClassifierDisabled
	}
	return e.classifier.PlaceLanguages(addrs)
}

func (e *PostalEngine) DefaultNearDupeHashOptions() postal.NearDupeHashOptions {
	if e.classifier == nil {
		return postal.NearDupeHashOptions{}
	}
	return e.classifier.DefaultNearDupeHashOptions()
}

func (e *PostalEngine) NearDupeHashes(addrs []postal.Address, opts postal.NearDupeHashOptions, languages []string) ([]string, error) {
	if e.classifier == nil {
		return nil, ErrClassifierDisabled
	}
	if len(languages) == 0 {
		return e.classifier.NearDupeHashes(addrs, opts)
	}
	return e.classifier.NearDupeHashesLanguages(addrs, opts, languages)
}

func (e *PostalEngine) DuplicateOptions(languages []string) (postal.DuplicateOptions, error) {
	if e.classifier == nil {
		return postal.DuplicateOptions{}, ErrClassifierDisabled
	}
	if len(languages) == 0 {
		return e.classifier.DefaultDuplicateOptions(), nil
	}
	return e.classifier.DuplicateOptionsWithLanguages(languages)
}

func (e *PostalEngine) IsDuplicate(field postal.Field, a, b string, opts postal.DuplicateOptions) (postal.DuplicateStatus, error) {
	if e.classifier == nil {
		return postal.NullDuplicateStatus, ErrClassifierDisabled
	}
	return e.classifier.IsDuplicate(field, a, b, opts)
}

func (e *PostalEngine) IsToponymDuplicate(a, b []postal.Address, opts postal.DuplicateOptions) (postal.DuplicateStatus, error) {
	if e.classifier == nil {
		return postal.NullDuplicateStatus, ErrClassifierDisabled
	}
	return e.classifier.IsToponymDuplicate(a, b, opts)
}

func (e *PostalEngine) FuzzyDuplicateOptions(languages []string) (postal.FuzzyDuplicateOptions, error) {
	if e.classifier == nil {
		return postal.FuzzyDuplicateOptions{}, ErrClassifierDisabled
	}
	if len(languages) == 0 {
		return e.classifier.DefaultFuzzyDuplicateOptions(), nil
	}
	return e.classifier.DefaultFuzzyDuplicateOptionsWithLanguages(languages)
}

func (e *PostalEngine) IsDuplicateFuzzy(field postal.Field, a, b []postal.TokenScore, opts postal.FuzzyDuplicateOptions) (postal.FuzzyDuplicateStatus, error) {
	if e.classifier == nil {
		return postal.FuzzyDuplicateStatus{Status: postal.NullDuplicateStatus}, ErrClassifierDisabled
	}
	return e.classifier.IsDuplicateFuzzy(field, a, b, opts)
}

// Status trạng thái hiện tại, dựa trên refcount của từng subsystem
func (e *PostalEngine) Status() EngineStatus {
	return EngineStatus{
		Core:       postal.RefCount(postal.SubsystemCore) > 0,
		Parser:     e.parser != nil && postal.RefCount(postal.SubsystemParser) > 0,
		Classifier: e.classifier != nil && postal.RefCount(postal.SubsystemLanguageClassifier) > 0,
		DataDir:    e.core.DataDir(),
	}
}

// Close giải phóng các handle theo thứ tự ngược với lúc mở. Mỗi handle chờ
// các lời gọi libpostal đang chạy (kể cả lời gọi bị callNative bỏ do hết
// giờ) kết thúc trước khi teardown.
func (e *PostalEngine) Close() error {
	if e.classifier != nil {
		e.classifier.Close()
	}
	if e.parser != nil {
		e.parser.Close()
	}
	e.logger.Info("Đã đóng libpostal engine")
	return e.core.Close()
}
