package attributes

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxKeySuffix bounds the collision search in NextFreeKey.
const MaxKeySuffix = 10000

const fallbackKey = "attribute"

// NormalizeKey folds a free-form hint into a storage key: accents stripped,
// lower-cased, runs of anything other than [a-z0-9] collapsed to one "_",
// leading and trailing "_" removed.
func NormalizeKey(hint string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, hint)
	if err != nil {
		folded = hint
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return fallbackKey
	}
	return b.String()
}

// NextFreeKey returns base when free, otherwise the first base_N (N from 1)
// not present in taken. It gives up with ErrKeyExhaustion after limit probes.
func NextFreeKey(base string, taken []string, limit int) (string, error) {
	if limit <= 0 {
		limit = MaxKeySuffix
	}
	used := make(map[string]struct{}, len(taken))
	for _, k := range taken {
		used[k] = struct{}{}
	}
	if _, ok := used[base]; !ok {
		return base, nil
	}
	for i := 1; i <= limit; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if _, ok := used[candidate]; !ok {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrKeyExhaustion, base)
}

// LikePrefixPattern builds a LIKE pattern (escape char '\') matching base_*.
func LikePrefixPattern(base string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(base) + `\_%`
}
