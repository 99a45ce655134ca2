package normalizer

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics loại bỏ dấu một cách an toàn
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	out, _, _ := transform.String(t, s)
	return out
}

// isMn kiểm tra xem rune có phải là diacritic mark không
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// RemoveAccentsAndLowercase loại bỏ dấu và chuyển về lowercase
func RemoveAccentsAndLowercase(s string) string {
	return strings.ToLower(StripDiacritics(s))
}

// FoldKey chuẩn hóa input làm khóa cache: NFC, gộp khoảng trắng, và case
// folding khi caseless. Không bỏ dấu vì kết quả libpostal phụ thuộc dấu
// khi strip_accents tắt.
func FoldKey(s string, caseless bool) string {
	s = norm.NFC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	if caseless {
		s = cases.Fold().String(s)
	}
	return s
}

// ASCIIText chuyển văn bản sang ASCII thường cho tài liệu tìm kiếm
func ASCIIText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(unidecode.Unidecode(s))), " ")
}

// CompareForm dạng chuỗi dùng để tính độ tương đồng: không dấu, lowercase,
// gộp khoảng trắng
func CompareForm(s string) string {
	return strings.Join(strings.Fields(RemoveAccentsAndLowercase(s)), " ")
}
