package eval

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aurelia-hq/strand/pkg/models"
)

// assertionFunc runs one deterministic check against content. The returned
// message is only meaningful when passed is false.
type assertionFunc func(content string, params map[string]any) (passed bool, message string)

var placeholderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\{\{[^}]*\}\}`),
	regexp.MustCompile(`\[(?i:name|recipient|company|date|insert[^\]]*)\]`),
	regexp.MustCompile(`(?i)\blorem ipsum\b`),
	regexp.MustCompile(`(?i)\bTBD\b`),
	regexp.MustCompile(`\bXXX+\b`),
}

var statisticPattern = regexp.MustCompile(`\d+(?:\.\d+)?\s*(?:%|percent)|\d+(?:\.\d+)?x\b`)

var profanityWords = []string{
	"damn", "hell no", "shit", "fuck", "bastard", "asshole",
}

var callToActionMarkers = []string{
	"let me know", "please", "schedule", "reply", "click", "book",
	"confirm", "sign up", "get in touch", "?",
}

var priorExchangeMarkers = []string{
	"as you mentioned", "as discussed", "following up", "per our",
	"thanks for your", "thank you for your", "in your last", "you asked",
}

// stopwords used by the language_match heuristic. Coverage is intentionally
// small; the assertion is a sanity gate, not a language detector.
var languageStopwords = map[string][]string{
	"en": {" the ", " and ", " is ", " to ", " you "},
	"es": {" el ", " la ", " de ", " que ", " usted "},
	"fr": {" le ", " la ", " est ", " vous ", " et "},
	"de": {" der ", " die ", " und ", " ist ", " sie "},
	"pt": {" o ", " a ", " de ", " que ", " você "},
}

// assertionCatalog maps assertion ids to their checks. Ids are stable: they
// appear in stored rule sets.
var assertionCatalog = map[string]assertionFunc{
	"contains_recipient_name":    checkContainsRecipientName,
	"no_placeholder_tokens":      checkNoPlaceholderTokens,
	"no_hallucinated_statistics": checkNoHallucinatedStatistics,
	"language_match":             checkLanguageMatch,
	"min_length":                 checkMinLength,
	"max_length":                 checkMaxLength,
	"no_profanity":               checkNoProfanity,
	"contains_call_to_action":    checkContainsCallToAction,
	"no_competitor_mention":      checkNoCompetitorMention,
	"references_prior_exchange":  checkReferencesPriorExchange,
}

func checkContainsRecipientName(content string, params map[string]any) (bool, string) {
	name := stringParam(params, "name")
	if name == "" {
		return false, "assertion requires a 'name' parameter"
	}

	if !strings.Contains(strings.ToLower(content), strings.ToLower(name)) {
		return false, fmt.Sprintf("content does not mention recipient %q", name)
	}

	return true, ""
}

func checkNoPlaceholderTokens(content string, _ map[string]any) (bool, string) {
	for _, pattern := range placeholderPatterns {
		if match := pattern.FindString(content); match != "" {
			return false, fmt.Sprintf("content contains placeholder token %q", match)
		}
	}

	return true, ""
}

// checkNoHallucinatedStatistics flags numeric claims (percentages,
// multipliers) that do not appear in the caller-supplied source facts.
func checkNoHallucinatedStatistics(content string, params map[string]any) (bool, string) {
	facts := stringsParam(params, "facts")

	for _, claim := range statisticPattern.FindAllString(content, -1) {
		grounded := false

		for _, fact := range facts {
			if strings.Contains(fact, strings.TrimSpace(claim)) {
				grounded = true

				break
			}
		}

		if !grounded {
			return false, fmt.Sprintf("statistic %q is not backed by any source fact", claim)
		}
	}

	return true, ""
}

func checkLanguageMatch(content string, params map[string]any) (bool, string) {
	lang := stringParam(params, "language")

	stopwords, ok := languageStopwords[strings.ToLower(lang)]
	if !ok {
		return false, fmt.Sprintf("unsupported language %q", lang)
	}

	// Short content has too little signal to judge.
	if len(content) < 40 {
		return true, ""
	}

	padded := " " + strings.ToLower(content) + " "
	for _, word := range stopwords {
		if strings.Contains(padded, word) {
			return true, ""
		}
	}

	return false, fmt.Sprintf("content does not appear to be written in %q", lang)
}

func checkMinLength(content string, params map[string]any) (bool, string) {
	minChars := intParam(params, "chars")
	if len(content) < minChars {
		return false, fmt.Sprintf("content is %d chars, below minimum %d", len(content), minChars)
	}

	return true, ""
}

func checkMaxLength(content string, params map[string]any) (bool, string) {
	maxChars := intParam(params, "chars")
	if maxChars > 0 && len(content) > maxChars {
		return false, fmt.Sprintf("content is %d chars, above maximum %d", len(content), maxChars)
	}

	return true, ""
}

func checkNoProfanity(content string, _ map[string]any) (bool, string) {
	lowered := strings.ToLower(content)

	for _, word := range profanityWords {
		if strings.Contains(lowered, word) {
			return false, fmt.Sprintf("content contains profanity %q", word)
		}
	}

	return true, ""
}

func checkContainsCallToAction(content string, _ map[string]any) (bool, string) {
	lowered := strings.ToLower(content)

	for _, marker := range callToActionMarkers {
		if strings.Contains(lowered, marker) {
			return true, ""
		}
	}

	return false, "content has no call to action"
}

func checkNoCompetitorMention(content string, params map[string]any) (bool, string) {
	lowered := strings.ToLower(content)

	for _, competitor := range stringsParam(params, "competitors") {
		if competitor == "" {
			continue
		}

		if strings.Contains(lowered, strings.ToLower(competitor)) {
			return false, fmt.Sprintf("content mentions competitor %q", competitor)
		}
	}

	return true, ""
}

func checkReferencesPriorExchange(content string, params map[string]any) (bool, string) {
	lowered := strings.ToLower(content)

	markers := stringsParam(params, "markers")
	if len(markers) == 0 {
		markers = priorExchangeMarkers
	}

	for _, marker := range markers {
		if strings.Contains(lowered, strings.ToLower(marker)) {
			return true, ""
		}
	}

	return false, "content does not reference the prior exchange"
}

// RunL1 executes the deterministic assertion layer. The result passes iff
// every block-severity assertion passed; warn-severity failures are recorded
// but do not gate.
func RunL1(content string, assertions []models.Assertion) *models.L1Result {
	result := &models.L1Result{
		Passed:     true,
		Assertions: make([]models.AssertionResult, 0, len(assertions)),
	}

	for _, assertion := range assertions {
		entry := models.AssertionResult{ID: assertion.ID, Severity: assertion.Severity}

		check, ok := assertionCatalog[assertion.ID]
		if !ok {
			entry.Passed = false
			entry.Message = fmt.Sprintf("unknown assertion %q", assertion.ID)
		} else {
			entry.Passed, entry.Message = check(content, assertion.Params)
		}

		if !entry.Passed && assertion.Severity == models.AssertionSeverityBlock {
			result.Passed = false
		}

		result.Assertions = append(result.Assertions, entry)
	}

	return result
}

func stringParam(params map[string]any, key string) string {
	if params == nil {
		return ""
	}

	value, _ := params[key].(string)

	return value
}

func intParam(params map[string]any, key string) int {
	if params == nil {
		return 0
	}

	switch v := params[key].(type) {
	case int:
		return v
	case float64: // JSON numbers decode to float64
		return int(v)
	default:
		return 0
	}
}

func stringsParam(params map[string]any, key string) []string {
	if params == nil {
		return nil
	}

	switch v := params[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))

		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}
