package pipeline

import (
	"testing"

	"gotest.tools/assert"
)

func TestNormalizeURL(t *testing.T) {
	for raw, want := range map[string]string{
		"https://hradcany.cz":               "https://hradcany.cz",
		" http://Vlasta.CZ/Menu ":           "http://vlasta.cz/Menu",
		"HTTPS://ujezdu.cz/denni#dnes":      "https://ujezdu.cz/denni",
		"https://ujezdu.cz/menu?den=streda": "https://ujezdu.cz/menu?den=streda",
	} {
		got, err := NormalizeURL(raw)
		assert.NilError(t, err, raw)
		assert.Equal(t, want, got)
	}

	for _, raw := range []string{"", "hradcany.cz", "mailto:info@hradcany.cz", "https://", "http://[::1"} {
		_, err := NormalizeURL(raw)
		assert.Assert(t, err != nil, raw)
	}
}
