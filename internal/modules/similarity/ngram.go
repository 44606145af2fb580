package similarity

import (
	"math"
	"strings"
)

const maxNGram = 3

var ngramWeights = map[int]float64{1: 0.3, 2: 0.3, 3: 0.4}

// NGramSimilarity compares two texts by their shared word 1..3-grams. Every shared
// n-gram contributes min(count)/max(count) weighted by its size; n-grams present in
// only one text are ignored. The result is in [0, 1], and 0 when nothing is shared.
func NGramSimilarity(a, b string) float64 {
	ca := ngramCounts(a)
	cb := ngramCounts(b)

	var score, weight float64
	for gram, na := range ca {
		nb, ok := cb[gram]
		if !ok {
			continue
		}
		w := ngramWeights[strings.Count(gram, " ")+1]
		score += float64(min(na, nb)) / float64(max(na, nb)) * w
		weight += w
	}
	if weight == 0 {
		return 0
	}
	return math.Min(1, score/weight)
}

func ngramCounts(text string) map[string]int {
	words := strings.Fields(strings.ToLower(text))
	out := map[string]int{}
	for n := 1; n <= maxNGram && n <= len(words); n++ {
		for i := 0; i+n <= len(words); i++ {
			out[strings.Join(words[i:i+n], " ")]++
		}
	}
	return out
}
