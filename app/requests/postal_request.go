package requests

import (
	"github.com/address-parser/postal-service/app/config"
	"github.com/address-parser/postal-service/postal"
)

// ExpandRequest request expand một địa chỉ
type ExpandRequest struct {
	Address string        `json:"address" binding:"required"` // Địa chỉ cần expand
	Options ExpandOptions `json:"options,omitempty"`
}

// ExpandOptions ghi đè tùy chọn expand mặc định. Trường nil giữ giá trị mặc định.
type ExpandOptions struct {
	Languages         []string `json:"languages,omitempty"`          // Gợi ý ngôn ngữ, vd ["en","vi"]
	AddressComponents string   `json:"address_components,omitempty"` // "name|street|house_number"
	Root              bool     `json:"root,omitempty"`               // Dùng expand_address_root
	config.NormalizeFlags
}

// Apply áp dụng các ghi đè lên base
func (o ExpandOptions) Apply(base postal.NormalizeOptions) (postal.NormalizeOptions, error) {
	if len(o.Languages) > 0 {
		base.Languages = append([]string(nil), o.Languages...)
	}
	if o.AddressComponents != "" {
		components, err := postal.ParseAddressComponents(o.AddressComponents)
		if err != nil {
			return base, err
		}
		base.AddressComponents = components
	}
	o.NormalizeFlags.ApplyTo(&base)
	return base, nil
}

// ParseRequest request parse một địa chỉ
type ParseRequest struct {
	Address string       `json:"address" binding:"required"` // Địa chỉ cần parse
	Options ParseOptions `json:"options,omitempty"`
}

// ParseOptions gợi ý ngôn ngữ/quốc gia cho parser
type ParseOptions struct {
	Language string `json:"language,omitempty"`
	Country  string `json:"country,omitempty"`
}

// BatchRequest request xử lý hàng loạt địa chỉ
type BatchRequest struct {
	Operation string        `json:"operation" binding:"required,oneof=expand expand_root parse"`
	Addresses []string      `json:"addresses" binding:"required,min=1"` // Danh sách địa chỉ
	Expand    ExpandOptions `json:"expand_options,omitempty"`
	Parse     ParseOptions  `json:"parse_options,omitempty"`
}

// CompareRequest so sánh hai giá trị của một trường
type CompareRequest struct {
	Field     string   `json:"field" binding:"required"` // name | street | house_number | po_box | unit | floor | postal_code
	Value1    string   `json:"value1"`
	Value2    string   `json:"value2"`
	Languages []string `json:"languages,omitempty"`
	Explain   bool     `json:"explain,omitempty"` // Luôn trả về số liệu tương đồng
}

// ToponymRequest so sánh hai tập toponym
type ToponymRequest struct {
	Addresses1 []postal.Address `json:"addresses1" binding:"required,min=1"`
	Addresses2 []postal.Address `json:"addresses2" binding:"required,min=1"`
	Languages  []string         `json:"languages,omitempty"`
}

// FuzzyCompareRequest so sánh fuzzy hai danh sách token. Nếu Tokens rỗng thì
// dùng Words với trọng số đều nhau.
type FuzzyCompareRequest struct {
	Field                string              `json:"field" binding:"required,oneof=name street"`
	Tokens1              []postal.TokenScore `json:"tokens1,omitempty"`
	Tokens2              []postal.TokenScore `json:"tokens2,omitempty"`
	Words1               []string            `json:"words1,omitempty"`
	Words2               []string            `json:"words2,omitempty"`
	Languages            []string            `json:"languages,omitempty"`
	NeedsReviewThreshold *float64            `json:"needs_review_threshold,omitempty"`
	LikelyDupeThreshold  *float64            `json:"likely_dupe_threshold,omitempty"`
}

// Scores trả về hai danh sách token có trọng số
func (r FuzzyCompareRequest) Scores() ([]postal.TokenScore, []postal.TokenScore) {
	t1, t2 := r.Tokens1, r.Tokens2
	if len(t1) == 0 {
		t1 = postal.UniformTokenScores(r.Words1)
	}
	if len(t2) == 0 {
		t2 = postal.UniformTokenScores(r.Words2)
	}
	return t1, t2
}

// NearDupeHashesRequest request sinh near-dupe hash
type NearDupeHashesRequest struct {
	Addresses []postal.Address            `json:"addresses" binding:"required,min=1"`
	Languages []string                    `json:"languages,omitempty"`
	Options   *postal.NearDupeHashOptions `json:"options,omitempty"` // nil: mặc định của libpostal
}

// PlaceLanguagesRequest request đoán ngôn ngữ của địa chỉ
type PlaceLanguagesRequest struct {
	Addresses []postal.Address `json:"addresses" binding:"required,min=1"`
}

// BlockingRecordRequest lưu hash của một bản ghi vào blocking index
type BlockingRecordRequest struct {
	ID        string                      `json:"id" binding:"required"`
	Addresses []postal.Address            `json:"addresses" binding:"required,min=1"`
	Languages []string                    `json:"languages,omitempty"`
	Options   *postal.NearDupeHashOptions `json:"options,omitempty"`
}

// CandidatesRequest tìm bản ghi có chung hash
type CandidatesRequest struct {
	Addresses []postal.Address            `json:"addresses" binding:"required,min=1"`
	Languages []string                    `json:"languages,omitempty"`
	Options   *postal.NearDupeHashOptions `json:"options,omitempty"`
	ExcludeID string                      `json:"exclude_id,omitempty"`
	Limit     int64                       `json:"limit,omitempty"`
}
