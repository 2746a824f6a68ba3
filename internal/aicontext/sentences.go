package aicontext

import (
	"regexp"
	"sort"
	"strings"
)

var sentenceSplit = regexp.MustCompile(`(?:[.!?])\s+`)

func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	raw := sentenceSplit.Split(text, -1)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstSentences(text string, n int) []string {
	sentences := splitSentences(text)
	if len(sentences) > n {
		sentences = sentences[:n]
	}
	return sentences
}

type scoredSentence struct {
	text  string
	index int
	score int
}

// highlightSentences picks up to n sentences from text scored by how many
// configured keywords they contain, breaking ties by original order, and
// excluding the sentences firstSentences(text, 3) already used as the lead.
func highlightSentences(text string, keywords []string, n int) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	lead := 3
	if lead > len(sentences) {
		lead = len(sentences)
	}

	scored := make([]scoredSentence, 0, len(sentences)-lead)
	for i := lead; i < len(sentences); i++ {
		score := keywordScore(sentences[i], keywords)
		if score > 0 {
			scored = append(scored, scoredSentence{text: sentences[i], index: i, score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].index < scored[j].index
	})

	if len(scored) > n {
		scored = scored[:n]
	}
	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.text
	}
	return out
}

func keywordScore(sentence string, keywords []string) int {
	lower := strings.ToLower(sentence)
	score := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			score++
		}
	}
	return score
}
