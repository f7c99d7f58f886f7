package enrich

import "strings"

// DiceSimilarity computes the Sørensen-Dice coefficient over character
// bigrams of the lowercased inputs. 1.0 is identical, 0.0 shares nothing.
func DiceSimilarity(a, b string) float64 {
	ba := bigrams(a)
	bb := bigrams(b)
	if len(ba) == 0 || len(bb) == 0 {
		if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) && strings.TrimSpace(a) != "" {
			return 1
		}
		return 0
	}

	var shared int
	for g, n := range ba {
		if m, ok := bb[g]; ok {
			if m < n {
				shared += m
			} else {
				shared += n
			}
		}
	}

	var totalA, totalB int
	for _, n := range ba {
		totalA += n
	}
	for _, n := range bb {
		totalB += n
	}
	return 2 * float64(shared) / float64(totalA+totalB)
}

// bigrams counts character pairs within words; spaces do not form pairs so
// word order matters less than shared word content.
func bigrams(s string) map[string]int {
	out := map[string]int{}
	for _, word := range strings.Fields(strings.ToLower(s)) {
		runes := []rune(word)
		for i := 0; i+1 < len(runes); i++ {
			out[string(runes[i:i+2])]++
		}
	}
	return out
}
