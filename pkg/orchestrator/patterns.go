package orchestrator

import "regexp"

// valueExtractor is one deterministic fast-lookup pattern: ask matches
// the question shape, value pulls the answer out of a text unit. The
// pattern tier makes zero model calls and is fully reproducible.
type valueExtractor struct {
	name  string
	ask   *regexp.Regexp
	value *regexp.Regexp
}

var valueExtractors = []valueExtractor{
	{
		name:  "currency",
		ask:   regexp.MustCompile(`(?i)\b(total|amount|price|cost|sum|balance|fee|invoice|paid|owed|charge)\b`),
		value: regexp.MustCompile(`(?:USD|EUR|GBP|\$|€|£)\s?\d{1,3}(?:[,.]\d{3})*(?:\.\d{2})?|\b\d{1,3}(?:[,.]\d{3})*(?:\.\d{2})?\s?(?:USD|EUR|GBP|dollars|euros|pounds)\b`),
	},
	{
		name:  "date",
		ask:   regexp.MustCompile(`(?i)\b(date|when|deadline|due|signed|executed|effective|expires?)\b`),
		value: regexp.MustCompile(`\b(?:\d{1,2}[./-]\d{1,2}[./-]\d{2,4}|\d{4}-\d{2}-\d{2}|(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4})\b`),
	},
	{
		name:  "identifier",
		ask:   regexp.MustCompile(`(?i)\b(number|no\.?|id|identifier|reference|case|docket|account|policy|contract)\b`),
		value: regexp.MustCompile(`\b(?:[A-Z]{1,4}[-/])?\d{2,}[-/]?\d*(?:[-/][A-Z0-9]{1,6})?\b`),
	},
	{
		name:  "percentage",
		ask:   regexp.MustCompile(`(?i)\b(percent|percentage|rate|share|interest)\b`),
		value: regexp.MustCompile(`\b\d{1,3}(?:\.\d+)?\s?%`),
	},
	{
		name:  "named_role",
		ask:   regexp.MustCompile(`(?i)\b(who is|who was|who signed|who acts? as)\b.*\b(president|director|ceo|cfo|chairman|manager|attorney|judge|witness|signator\w*|representative)\b`),
		value: regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z]\.)?(?:\s+[A-Z][a-z]+)+\b`),
	},
}

// matchValue runs the pattern tier for one query against one text: the
// first extractor whose ask-pattern matches the query and whose
// value-pattern matches the text wins.
func matchValue(query, text string) (string, bool) {
	for _, ex := range valueExtractors {
		if !ex.ask.MatchString(query) {
			continue
		}
		if v := ex.value.FindString(text); v != "" {
			return v, true
		}
	}
	return "", false
}
