package models

import "github.com/address-parser/postal-service/postal"

// SimilarityReport số liệu so sánh chuỗi đi kèm kết quả needs_review
type SimilarityReport struct {
	NormalizedA string  `json:"normalized_a"`
	NormalizedB string  `json:"normalized_b"`
	Levenshtein int     `json:"levenshtein"`
	JaroWinkler float64 `json:"jaro_winkler"`
}

// DuplicateResult kết quả so sánh một trường
type DuplicateResult struct {
	Field      string                 `json:"field"`
	Status     postal.DuplicateStatus `json:"status"`
	Similarity *SimilarityReport      `json:"similarity,omitempty"`
}

// FuzzyDuplicateResult kết quả so sánh fuzzy theo token
type FuzzyDuplicateResult struct {
	Field      string                 `json:"field"`
	Status     postal.DuplicateStatus `json:"status"`
	Similarity float64                `json:"similarity"`
}

// Candidate bản ghi có chung ít nhất một near-dupe hash
type Candidate struct {
	ID           string   `json:"id"`
	Labels       []string `json:"labels,omitempty"`
	ASCIIText    string   `json:"ascii_text,omitempty"`
	SharedHashes int      `json:"shared_hashes"`
}
