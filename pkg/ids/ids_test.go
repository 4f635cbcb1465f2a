package ids

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var idPattern = regexp.MustCompile(`^[A-Z]{3}:[0-9a-f]{16}$`)

func TestMake_Deterministic(t *testing.T) {
	payload := map[string]any{"name": "invoice.pdf", "size": 1024}

	a := Make(KindDocument, payload)
	b := Make(KindDocument, map[string]any{"size": 1024, "name": "invoice.pdf"})

	assert.Equal(t, a, b)
	assert.Regexp(t, idPattern, a)
	assert.True(t, strings.HasPrefix(a, "DOC:"))
}

func TestMake_DistinctPayloads(t *testing.T) {
	tests := []struct {
		name string
		a, b any
	}{
		{name: "different strings", a: "alpha", b: "beta"},
		{name: "different values", a: map[string]any{"i": 0}, b: map[string]any{"i": 1}},
		{name: "different keys", a: map[string]any{"a": 1}, b: map[string]any{"b": 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotEqual(t, Make(KindParagraph, tc.a), Make(KindParagraph, tc.b))
		})
	}
}

func TestMake_KindIsPartOfID(t *testing.T) {
	a := Make(KindParagraph, "same")
	b := Make(KindTableRow, "same")

	assert.NotEqual(t, a, b)
	assert.Equal(t, a[4:], b[4:])
}

func TestCanonical(t *testing.T) {
	got := Canonical(map[string]any{"t": "<b>&</b>", "doc": "DOC:1", "i": 2})
	assert.Equal(t, `{"doc":"DOC:1","i":2,"t":"<b>&</b>"}`, got)
}

func TestCanonical_Truncates(t *testing.T) {
	long := strings.Repeat("ä", 3*MaxPayloadLength)
	got := Canonical(map[string]any{"t": long})

	require.Len(t, []rune(got), MaxPayloadLength)

	// Payloads that only differ past the cap share an ID.
	a := Make(KindParagraph, map[string]any{"t": long + "x"})
	b := Make(KindParagraph, map[string]any{"t": long + "y"})
	assert.Equal(t, a, b)
}

func TestCanonical_Unencodable(t *testing.T) {
	got := Canonical(map[string]any{"ch": make(chan int)})
	assert.NotEmpty(t, got)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindEntity, KindOf("ENT:0123456789abcdef"))
	assert.Equal(t, Kind(""), KindOf("no-kind"))
}
