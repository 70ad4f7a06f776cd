package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

var romanNumerals = map[string]string{
	"i":    "1",
	"ii":   "2",
	"iii":  "3",
	"iv":   "4",
	"v":    "5",
	"vi":   "6",
	"vii":  "7",
	"viii": "8",
	"ix":   "9",
	"x":    "10",
}

var yearHintRE = regexp.MustCompile(`(?:^|[\s(])(19\d{2}|20\d{2})(?:$|[\s)])`)

// Normalize canonicalizes a title for comparison: lowercase, trademark and
// punctuation stripped, separators collapsed to single spaces, and roman
// numeral tokens I-X converted to digits. Idempotent.
func Normalize(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		switch {
		case r == '™' || r == '®' || r == '©':
			// ™ ® © vanish without leaving a gap.
		case r == '\'' || r == '’' || r == '`':
			// Apostrophes join their neighbors: "assassin's" -> "assassins".
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevSpace = false
		default:
			// Brackets, colons, dashes, slashes, and remaining punctuation
			// all separate tokens.
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		}
	}

	tokens := strings.Fields(b.String())
	for i, tok := range tokens {
		if digit, ok := romanNumerals[tok]; ok {
			tokens[i] = digit
		}
	}
	return strings.Join(tokens, " ")
}

// Tokens returns the normalized title split into tokens.
func Tokens(title string) []string {
	n := Normalize(title)
	if n == "" {
		return nil
	}
	return strings.Split(n, " ")
}

// TokenSet returns the set of normalized tokens in title.
func TokenSet(title string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range Tokens(title) {
		out[tok] = struct{}{}
	}
	return out
}

// IsYearToken reports whether tok is a plausible release year (1900-2100).
func IsYearToken(tok string) bool {
	if len(tok) != 4 {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	year := int(tok[0]-'0')*1000 + int(tok[1]-'0')*100 + int(tok[2]-'0')*10 + int(tok[3]-'0')
	return year >= 1900 && year <= 2100
}

// ExtractYearHint pulls a 4-digit year (1900-2100) out of free text, if one
// is present at a word boundary. Intended for disambiguating search results,
// not for strict validation.
func ExtractYearHint(text string) int {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0
	}
	m := yearHintRE.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	year := 0
	for _, r := range m[1] {
		year = year*10 + int(r-'0')
	}
	if year < 1900 || year > 2100 {
		return 0
	}
	return year
}

// SeriesNumbers extracts sequel numbers (1-50) from the normalized tokens of
// title, excluding years, zero, and leading-zero brand tokens like "007".
// Roman numerals are already digits after Normalize.
func SeriesNumbers(title string) map[int]struct{} {
	tokens := Tokens(title)
	out := make(map[int]struct{})
	for i, tok := range tokens {
		if !allDigits(tok) {
			continue
		}
		if len(tok) > 1 && tok[0] == '0' {
			continue
		}
		// Thousands groups like "40,000" normalize to "40 000"; skip the
		// leading group so "Warhammer 40,000" contributes no series number.
		if i+1 < len(tokens) && tokens[i+1] == "000" {
			continue
		}
		if IsYearToken(tok) {
			continue
		}
		n := 0
		for _, r := range tok {
			n = n*10 + int(r-'0')
			if n > 50 {
				break
			}
		}
		if n >= 1 && n <= 50 {
			out[n] = struct{}{}
		}
	}
	return out
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
