package atcmd

import (
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

// DefaultCutset is the set of characters removed by Trim, TrimLeft and TrimRight.
const DefaultCutset = " \t\n\r\""

// ToInt parses the first integer found in s.
//
// Parsing starts at the first digit (or at a sign immediately followed by a digit) and stops at
// the first byte that is not a digit, so a decimal point ends the number. A fragment without
// digits yields 0.
func ToInt[T constraints.Integer](s string) T {
	span := numberSpan(s, false)
	if span == "" {
		return 0
	}

	v, err := strconv.ParseInt(span, 10, 64)
	if err != nil {
		u, uerr := strconv.ParseUint(strings.TrimPrefix(span, "+"), 10, 64)
		if uerr != nil {
			return 0
		}
		return T(u)
	}
	return T(v)
}

// ToFloat parses the first decimal number found in s. At most one decimal point is accepted.
// A fragment without digits yields 0.
func ToFloat[T constraints.Float](s string) T {
	span := numberSpan(s, true)
	if span == "" {
		return 0
	}

	v, err := strconv.ParseFloat(span, 64)
	if err != nil {
		return 0
	}
	return T(v)
}

// numberSpan returns the numeric portion of s following the locale-free grammar used by the modem:
// [sign] digits [ "." digits ].
func numberSpan(s string, fraction bool) string {
	start := -1
	for i := 0; i < len(s); i++ {
		if isDigit(s[i]) {
			start = i
			break
		}
		if (s[i] == '-' || s[i] == '+') && i+1 < len(s) && isDigit(s[i+1]) {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}

	end := start
	if s[end] == '-' || s[end] == '+' {
		end++
	}
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if fraction && end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && isDigit(s[end]) {
			end++
		}
		if s[end-1] == '.' {
			end--
		}
	}
	return s[start:end]
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Tokens splits s on any of the bytes in delims. Empty tokens are kept only when keepEmpty is set.
func Tokens(s, delims string, keepEmpty bool) []string {
	var tokens []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) && strings.IndexByte(delims, s[i]) < 0 {
			continue
		}
		token := s[start:i]
		if token != "" || keepEmpty {
			tokens = append(tokens, token)
		}
		start = i + 1
	}
	return tokens
}

// ExtractToken returns the token at index after splitting s with Tokens.
func ExtractToken(s string, index int, delims string, keepEmpty bool) (string, bool) {
	tokens := Tokens(s, delims, keepEmpty)
	if index < 0 || index >= len(tokens) {
		return "", false
	}
	return tokens[index], true
}

// SplitQuoted splits a comma separated parameter list, ignoring commas inside double quotes.
// Surrounding quotes are removed from each field.
func SplitQuoted(s string) []string {
	var (
		fields  []string
		quoted  bool
		current strings.Builder
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			quoted = !quoted
		case c == ',' && !quoted:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	return append(fields, current.String())
}

func TrimLeft(s string) string {
	return strings.TrimLeft(s, DefaultCutset)
}

func TrimRight(s string) string {
	return strings.TrimRight(s, DefaultCutset)
}

func Trim(s string) string {
	return strings.Trim(s, DefaultCutset)
}

// RemoveBefore drops everything before the first occurrence of seq. When inclusive is set
// seq itself is dropped too. s is returned unchanged if seq is not present.
func RemoveBefore(s, seq string, inclusive bool) string {
	idx := strings.Index(s, seq)
	if idx < 0 {
		return s
	}
	if inclusive {
		return s[idx+len(seq):]
	}
	return s[idx:]
}

// RemoveAfter drops everything after the first occurrence of seq. When inclusive is set
// seq itself is dropped too. s is returned unchanged if seq is not present.
func RemoveAfter(s, seq string, inclusive bool) string {
	idx := strings.Index(s, seq)
	if idx < 0 {
		return s
	}
	if inclusive {
		return s[:idx]
	}
	return s[:idx+len(seq)]
}

// ExtractContent returns the text enclosed by the first open sequence and the next close sequence.
func ExtractContent(s, open, close string) (string, bool) {
	_, rest, found := strings.Cut(s, open)
	if !found {
		return "", false
	}
	content, _, found := strings.Cut(rest, close)
	if !found {
		return "", false
	}
	return content, true
}

// AfterColon returns the parameter part of an information line ("+CSQ: 20,0" -> "20,0").
// Lines without ": " are returned unchanged.
func AfterColon(line string) string {
	_, params, found := strings.Cut(line, ": ")
	if !found {
		return line
	}
	return params
}
