package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripDiacritics(t *testing.T) {
	assert.Equal(t, "Ha Noi", StripDiacritics("Hà Nội"))
	assert.Equal(t, "Sao Paulo", StripDiacritics("São Paulo"))
	assert.Equal(t, "cafe", RemoveAccentsAndLowercase("Café"))
}

func TestFoldKey(t *testing.T) {
	// NFD và NFC cho cùng một khóa
	assert.Equal(t, FoldKey("Caf\u00e9", false), FoldKey("Cafe\u0301", false))
	assert.Equal(t, "123 Main St", FoldKey("  123   Main\tSt ", false))
	assert.Equal(t, "123 main st", FoldKey("123 MAIN St", true))
	assert.NotEqual(t, FoldKey("Café", true), FoldKey("Cafe", true))
}

func TestASCIIText(t *testing.T) {
	assert.Equal(t, "hauptstrasse 5", ASCIIText("Hauptstraße  5"))
	assert.Equal(t, "ha noi", ASCIIText("Hà Nội"))
	assert.Equal(t, "", ASCIIText("   "))
}

func TestCompareForm(t *testing.T) {
	assert.Equal(t, "rue de l'eglise", CompareForm("Rue  de l'Église"))
}
