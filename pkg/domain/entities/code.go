package entities

import (
	"strings"
	"unicode/utf8"
)

// CodeWidth is the fixed width of every raw material and finished good code.
const CodeWidth = 8

// Code identifies a raw material (RM) or finished good (FG).
// Codes are compared only after normalization.
type Code string

// NormalizeCode maps a raw cell value to its canonical 8-character form.
//
// Purely numeric input is left-padded with zeros ("7" -> "00000007") and is
// never truncated, so numeric codes longer than eight digits pass through.
// Anything else is right-padded with zeros ("AB1" -> "AB100000") or cut to
// its first eight characters. Empty input, whitespace-only input and the
// literal "nan" in any case normalize to the empty code.
func NormalizeCode(raw string) Code {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") {
		return ""
	}

	n := utf8.RuneCountInString(s)
	if isDigits(s) {
		if n >= CodeWidth {
			return Code(s)
		}
		return Code(strings.Repeat("0", CodeWidth-n) + s)
	}

	switch {
	case n > CodeWidth:
		// Normalize the cut again: it may end in whitespace.
		return NormalizeCode(string([]rune(s)[:CodeWidth]))
	case n < CodeWidth:
		return Code(s + strings.Repeat("0", CodeWidth-n))
	}
	return Code(s)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// String returns the code as a plain string
func (c Code) String() string {
	return string(c)
}

// IsEmpty reports whether the code carries no identifier
func (c Code) IsEmpty() bool {
	return c == ""
}

// NormalizeCodes normalizes every value and drops empty results, keeping order.
func NormalizeCodes(raw []string) []Code {
	codes := make([]Code, 0, len(raw))
	for _, r := range raw {
		if c := NormalizeCode(r); !c.IsEmpty() {
			codes = append(codes, c)
		}
	}
	return codes
}
