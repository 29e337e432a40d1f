package catalog

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// Code markers like "COD (12345)", "SKU: 123", "PLU 9999".
	codeTokenPattern = regexp.MustCompile(`(?i)\b(?:COD|SKU|PLU|INT)\b\S*`)
	// Parenthesized numeric groups, e.g. "(12345)".
	parenCodePattern = regexp.MustCompile(`\(\s*\d+[\s\d]*\)`)
	// Isolated numbers of 4+ digits are store-internal codes:
	// "Arroz 1kg" is a name, "Arroz 12345" is a code.
	isolatedCodePattern = regexp.MustCompile(`\b\d{4,}\b`)
	// Whitelist of letters (incl. accented Spanish), digits, space,
	// %, ., -. Everything else is stripped.
	disallowedCharPattern = regexp.MustCompile(`[^A-Za-z0-9\sáéíóúÁÉÍÓÚñÑ%.\-]`)
)

// NormalizeName reduces a raw receipt name to its deduplication key.
// Normalization is idempotent; it can return "" for pure-code names,
// and callers must not create products for an empty key.
func NormalizeName(name string) string {
	name = codeTokenPattern.ReplaceAllString(name, "")
	name = parenCodePattern.ReplaceAllString(name, "")
	name = isolatedCodePattern.ReplaceAllString(name, "")
	// Strip before casing: a symbol between letters must not leave an
	// uppercase letter mid-word once it is removed.
	name = disallowedCharPattern.ReplaceAllString(name, "")
	name = strings.Join(strings.Fields(name), " ")
	return titleCase(name)
}

// NamePrefix is the lowercase 3-character bucket key for the fuzzy
// match index.
func NamePrefix(nameNorm string) string {
	runes := []rune(strings.ToLower(nameNorm))
	if len(runes) > 3 {
		runes = runes[:3]
	}
	return string(runes)
}

// titleCase uppercases every letter that follows a non-letter and
// lowercases the rest, so "LECHE ENTERA 1L" becomes "Leche Entera 1L".
func titleCase(s string) string {
	runes := []rune(s)
	prevLetter := false
	for i, r := range runes {
		if unicode.IsLetter(r) {
			if prevLetter {
				runes[i] = unicode.ToLower(r)
			} else {
				runes[i] = unicode.ToUpper(r)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
	}
	return string(runes)
}
