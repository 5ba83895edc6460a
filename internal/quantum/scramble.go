package quantum

import (
	"math/rand"
	"strings"
)

// Scramble renders text as it appears while its guardian object sits
// in a non-key state: each line keeps its words but loses their order.
// The shuffle is a pure function of the state index, so looking again
// without the state changing shows the same garble. Lines with at
// least two distinct words are guaranteed to differ from the original.
func Scramble(text string, stateIndex int) string {
	rng := rand.New(rand.NewSource(int64(stateIndex) + 1))
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		words := strings.Fields(line)
		if len(words) < 2 {
			continue
		}
		orig := strings.Join(words, " ")
		rng.Shuffle(len(words), func(a, b int) {
			words[a], words[b] = words[b], words[a]
		})
		// A shuffle can land on the identity; rotate so the garble is
		// always visibly garbled.
		if strings.Join(words, " ") == orig {
			first := words[0]
			copy(words, words[1:])
			words[len(words)-1] = first
		}
		lines[i] = strings.Join(words, " ")
	}
	return strings.Join(lines, "\n")
}
