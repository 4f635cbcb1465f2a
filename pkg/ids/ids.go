// Package ids derives content-addressed identifiers for graph nodes and
// index keys.
//
// An ID has the form "<KIND>:<digest>" where digest is the hex encoded
// 64-bit xxHash of a canonical payload. Byte-identical payloads always map
// to byte-identical IDs, so re-running extraction over the same input never
// creates duplicate nodes.
package ids

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Kind is the prefix of an ID and names the type of thing it identifies.
type Kind string

const (
	KindDocument  Kind = "DOC"
	KindEntity    Kind = "ENT"
	KindParagraph Kind = "PCH"
	KindTableRow  Kind = "TBL"
	KindLineItem  Kind = "LIT"
)

// MaxPayloadLength caps the canonical form of a mapping payload in runes.
const MaxPayloadLength = 2048

// Make returns the ID for payload. Strings are hashed as-is; every other
// value is canonicalized with Canonical first.
func Make(kind Kind, payload any) string {
	var s string
	switch p := payload.(type) {
	case string:
		s = p
	default:
		s = Canonical(p)
	}
	return fmt.Sprintf("%s:%016x", kind, xxhash.Sum64String(s))
}

// Canonical serializes v as JSON with sorted map keys and HTML escaping
// disabled, truncated to MaxPayloadLength runes. Values that cannot be
// encoded fall back to their %v rendering.
func Canonical(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	s := ""
	if err := enc.Encode(v); err != nil {
		s = fmt.Sprintf("%v", v)
	} else {
		s = strings.TrimSuffix(buf.String(), "\n")
	}

	runes := []rune(s)
	if len(runes) > MaxPayloadLength {
		s = string(runes[:MaxPayloadLength])
	}
	return s
}

// KindOf returns the kind prefix of id, or "" if id has none.
func KindOf(id string) Kind {
	kind, _, ok := strings.Cut(id, ":")
	if !ok {
		return ""
	}
	return Kind(kind)
}
