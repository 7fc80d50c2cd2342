package eval

import (
	"regexp"
	"strings"
)

var (
	allCapsWord   = regexp.MustCompile(`\b[A-Z]{3,}\b`)
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
)

var informalWords = []string{"gonna", "wanna", "lol", "btw", "asap!!", "hey!!"}

// heuristicScore grades a criterion without an LLM. Unknown criteria get a
// neutral score so rule sets with custom criteria degrade gracefully.
func heuristicScore(content, criterion string) float64 {
	switch strings.ToLower(criterion) {
	case "professional":
		return scoreProfessional(content)
	case "concise":
		return scoreConcise(content)
	case "clear":
		return scoreClear(content)
	default:
		return 0.7
	}
}

func scoreProfessional(content string) float64 {
	score := 1.0
	lowered := strings.ToLower(content)

	for _, word := range informalWords {
		if strings.Contains(lowered, word) {
			score -= 0.2
		}
	}

	if exclamations := strings.Count(content, "!"); exclamations > 1 {
		score -= 0.1 * float64(exclamations-1)
	}

	if shouting := len(allCapsWord.FindAllString(content, -1)); shouting > 0 {
		score -= 0.1 * float64(shouting)
	}

	return clamp01(score)
}

// scoreConcise degrades linearly from 1.0 at 120 words to 0.0 at 600.
func scoreConcise(content string) float64 {
	words := len(strings.Fields(content))
	if words <= 120 {
		return 1.0
	}

	return clamp01(1.0 - float64(words-120)/480.0)
}

// scoreClear penalizes long average sentence length.
func scoreClear(content string) float64 {
	sentences := sentenceSplit.Split(content, -1)

	total, count := 0, 0

	for _, sentence := range sentences {
		words := len(strings.Fields(sentence))
		if words == 0 {
			continue
		}

		total += words
		count++
	}

	if count == 0 {
		return 0.0
	}

	average := float64(total) / float64(count)
	if average <= 20 {
		return 1.0
	}

	// 20 words per sentence reads fine; 50 does not.
	return clamp01(1.0 - (average-20)/30.0)
}
