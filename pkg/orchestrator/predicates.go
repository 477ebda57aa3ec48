package orchestrator

import (
	"regexp"
	"strings"
)

// Intent detection is deliberately explicit: each predicate is a named,
// unit-testable function over the query text. Routing and coverage
// decisions call these, never inline string checks.

var (
	reEnumeration = regexp.MustCompile(`(?i)\b(list all|all (?:of the )?documents|every|each document|each file|enumerate|exhaustive|complete list)\b`)
	reComparison  = regexp.MustCompile(`(?i)\b(compare|versus|\bvs\.?\b|more than|fewer than|difference between|which .* (?:more|less|most|least|fewer))\b`)
	reFactual     = regexp.MustCompile(`(?i)^(what is|what was|what's|who is|who was|when is|when was|when did|where is|where was|how much|how many)\b`)
	reThematic    = regexp.MustCompile(`(?i)\b(summar(?:y|ize|ise)|overview|overall|main themes?|key topics?|across (?:all|the) documents|in general|big picture|high.?level)\b`)
	reComprehend  = regexp.MustCompile(`(?i)\b(comprehensive|exhaustive|complete|in detail|thorough|all details)\b`)

	// Capitalized word runs, excluding sentence starts handled separately.
	reProperNoun = regexp.MustCompile(`\b[A-Z][a-zA-Z0-9&.'-]*(?:\s+[A-Z][a-zA-Z0-9&.'-]*)*\b`)
)

// interrogatives and other capitalized sentence openers that never name
// an entity.
var properNounStopwords = map[string]bool{
	"what": true, "which": true, "who": true, "whom": true, "whose": true,
	"when": true, "where": true, "why": true, "how": true, "is": true,
	"are": true, "was": true, "were": true, "does": true, "did": true,
	"do": true, "list": true, "compare": true, "summarize": true,
	"describe": true, "explain": true, "the": true, "a": true, "an": true,
	"in": true, "on": true, "of": true, "for": true, "and": true,
	"i": true, "please": true, "tell": true, "give": true, "show": true,
}

// HasEnumerationIntent reports whether the query asks for an exhaustive
// enumeration over the corpus ("list all", "every", "each document").
// Such queries get coverage completion.
func HasEnumerationIntent(text string) bool {
	return reEnumeration.MatchString(text)
}

// HasComparisonIntent reports whether the query compares entities or
// documents against each other.
func HasComparisonIntent(text string) bool {
	return reComparison.MatchString(text)
}

// HasComprehensiveIntent reports whether the query demands exhaustive
// depth, which raises the per-document coverage minimum.
func HasComprehensiveIntent(text string) bool {
	return reComprehend.MatchString(text)
}

// LooksFactual reports whether the query has simple single-fact phrasing
// ("what is ...", "how much ...") suitable for the fast lookup route.
func LooksFactual(text string) bool {
	return reFactual.MatchString(strings.TrimSpace(text))
}

// IsThematic reports whether the query asks for themes or summaries
// across the corpus rather than specific facts.
func IsThematic(text string) bool {
	return reThematic.MatchString(text)
}

// MentionsProperNoun reports whether the query names at least one
// candidate entity.
func MentionsProperNoun(text string) bool {
	return len(ProperNounPhrases(text)) > 0
}

// ProperNounPhrases extracts candidate entity names from a text fragment:
// runs of capitalized words, minus interrogatives and other capitalized
// sentence openers. Seed discovery for sub-questions is restricted to
// these fragments; text without any proper noun yields no seeds.
func ProperNounPhrases(text string) []string {
	matches := reProperNoun.FindAllString(text, -1)

	var phrases []string
	seen := make(map[string]bool)
	for _, m := range matches {
		words := strings.Fields(m)
		// drop leading stopwords so sentence capitalization does not
		// fabricate entities
		for len(words) > 0 && properNounStopwords[strings.ToLower(words[0])] {
			words = words[1:]
		}
		if len(words) == 0 {
			continue
		}
		phrase := strings.Join(words, " ")
		if len(phrase) < 2 {
			continue
		}
		key := strings.ToLower(phrase)
		if seen[key] {
			continue
		}
		seen[key] = true
		phrases = append(phrases, phrase)
	}
	return phrases
}
