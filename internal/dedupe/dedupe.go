package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// boilerplateSuffixes are single trailing words stripped from titles before
// comparison, so "Story Title | Opinion" and "Story Title" collide.
var boilerplateSuffixes = map[string]struct{}{
	"opinion":   {},
	"analysis":  {},
	"sponsored": {},
}

// HashID derives the content-addressed identity of an item from its title
// and canonical URL: the first 16 hex characters of a SHA-256 digest.
func HashID(title, canonicalURL string) string {
	h := sha256.New()
	h.Write([]byte(title))
	h.Write([]byte(canonicalURL))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// NormalizeTitle maps a title to its dedup form: lower-cased, punctuation
// replaced by spaces, whitespace collapsed, one trailing boilerplate word
// stripped.
func NormalizeTitle(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, s)

	fields := strings.Fields(s)
	if n := len(fields); n > 0 {
		if _, ok := boilerplateSuffixes[fields[n-1]]; ok {
			fields = fields[:n-1]
		}
	}
	return strings.Join(fields, " ")
}

// Ratio computes Ratcliff/Obershelp string similarity in [0, 1]: twice the
// number of matching characters over the total length of both strings. It
// matches difflib's SequenceMatcher ratio without the junk heuristic.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingChars(ra, rb)) / float64(total)
}

// matchingChars counts characters in common: the longest common substring,
// then recursively the pieces to its left and right.
func matchingChars(a, b []rune) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	n := size
	n += matchingChars(a[:ai], b[:bi])
	n += matchingChars(a[ai+size:], b[bi+size:])
	return n
}

func longestCommonSubstring(a, b []rune) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	// lengths[j] holds the match length ending at a[i-1], b[j-1].
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			cur := lengths[j]
			if a[i-1] == b[j-1] {
				lengths[j] = prev + 1
				if lengths[j] > size {
					size = lengths[j]
					ai = i - size
					bi = j - size
				}
			} else {
				lengths[j] = 0
			}
			prev = cur
		}
	}
	return ai, bi, size
}
