package orchestrator

import (
	"regexp"
	"strings"

	"github.com/seekwell/atlas/internal/util"
	"github.com/seekwell/atlas/pkg/evidence"
)

var (
	reCitationMarker = regexp.MustCompile(`[\t ]*\[\[([^][]+)\]\]`)
	reDoubleSpace    = regexp.MustCompile(`[\t ]{2,}`)
)

// extractCitations resolves the [[id]] markers of a synthesized answer
// against the evidence set. It returns the answer with markers stripped,
// the resolved citations in first-appearance order with duplicates
// removed, and the ids that did not resolve to any evidence unit. An
// unresolved id is a grounding violation the caller must handle.
func extractCitations(answer string, ev *evidence.Set) (string, []evidence.Citation, []string) {
	answer = util.NormalizeCitations(answer)

	var citations []evidence.Citation
	var unresolved []string
	seen := make(map[string]bool)

	for _, m := range reCitationMarker.FindAllStringSubmatch(answer, -1) {
		id := strings.TrimSpace(m[1])
		if seen[id] {
			continue
		}
		seen[id] = true

		u, ok := ev.UnitByID(id)
		if !ok {
			unresolved = append(unresolved, id)
			continue
		}
		citations = append(citations, evidence.Citation{
			Document: u.DocumentName,
			Section:  u.Section,
			Page:     u.Page,
		})
	}

	clean := reCitationMarker.ReplaceAllString(answer, "")
	clean = reDoubleSpace.ReplaceAllString(clean, " ")
	clean = strings.TrimSpace(clean)

	return clean, dedupeCitations(citations), unresolved
}

// dedupeCitations collapses citations pointing at the same document,
// section, and page. Different units of one location cite it once.
func dedupeCitations(citations []evidence.Citation) []evidence.Citation {
	seen := make(map[evidence.Citation]bool, len(citations))
	out := citations[:0]
	for _, c := range citations {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
