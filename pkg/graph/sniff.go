package graph

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Metadata is what a Sniffer extracts from a document's text. Absent
// values are nil.
type Metadata struct {
	Entity *string
	Total  *float64
}

// Sniffer extracts a primary entity name and an aggregate total from the
// concatenated paragraph text of one document.
type Sniffer interface {
	Sniff(text string) Metadata
}

var moneyPattern = regexp.MustCompile(`\$?\s*((?:[0-9]{1,3}(?:[, ][0-9]{3})+|[0-9]+)(?:\.[0-9]{2})?)\b`)

// ParseMoney parses the first currency-like amount in s: an optional "$",
// digit groups separated by commas or spaces, and an optional two-digit
// fraction.
func ParseMoney(s string) (float64, bool) {
	m := moneyPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	return parseAmount(m[1])
}

func parseAmount(s string) (float64, bool) {
	s = strings.NewReplacer(",", "", " ", "").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

const (
	defaultTotalWindow     = 40
	defaultMaxEntityLength = 120
)

// PatternSniffer is the default regex based Sniffer. Patterns are tried in
// order and the first usable match wins. Zero TotalWindow and
// MaxEntityLength select the defaults.
type PatternSniffer struct {
	// EntityPatterns must capture the entity name in group 1.
	EntityPatterns []*regexp.Regexp
	// TotalPatterns match the label that precedes an aggregate amount.
	TotalPatterns []*regexp.Regexp
	// TotalWindow is how many characters after a label may precede the amount.
	TotalWindow     int
	MaxEntityLength int
}

// NewPatternSniffer returns a sniffer recognising "Vendor:" and "Client:"
// lines and amounts labelled "grand total", "contract total" or "total",
// case-insensitively.
func NewPatternSniffer() *PatternSniffer {
	return &PatternSniffer{
		EntityPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Vendor\s*[:\-]\s*(.+)`),
			regexp.MustCompile(`(?i)Client\s*[:\-]\s*(.+)`),
		},
		TotalPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)grand total`),
			regexp.MustCompile(`(?i)contract total`),
			regexp.MustCompile(`(?i)total`),
		},
		TotalWindow:     defaultTotalWindow,
		MaxEntityLength: defaultMaxEntityLength,
	}
}

// Sniff implements Sniffer.
func (s *PatternSniffer) Sniff(text string) Metadata {
	return Metadata{
		Entity: s.sniffEntity(text),
		Total:  s.sniffTotal(text),
	}
}

func (s *PatternSniffer) sniffEntity(text string) *string {
	for _, re := range s.EntityPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		if limit := orDefault(s.MaxEntityLength, defaultMaxEntityLength); utf8.RuneCountInString(name) > limit {
			name = strings.TrimSpace(string([]rune(name)[:limit]))
		}
		return &name
	}
	return nil
}

// sniffTotal looks for an amount starting within TotalWindow characters
// after a label, on the label's own line. Every occurrence of a label is
// tried before falling through to the next label.
func (s *PatternSniffer) sniffTotal(text string) *float64 {
	window := orDefault(s.TotalWindow, defaultTotalWindow)
	for _, re := range s.TotalPatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			rest := text[loc[1]:]
			if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
				rest = rest[:nl]
			}
			m := moneyPattern.FindStringSubmatchIndex(rest)
			if m == nil || utf8.RuneCountInString(rest[:m[0]]) > window {
				continue
			}
			if v, ok := parseAmount(rest[m[2]:m[3]]); ok {
				return &v
			}
		}
	}
	return nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
