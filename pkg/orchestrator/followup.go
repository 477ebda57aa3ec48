package orchestrator

import (
	"context"
	"strings"

	"github.com/seekwell/atlas/pkg/ai"
	"github.com/seekwell/atlas/pkg/logger"
)

// CondenseFollowUp rewrites a follow-up question into a standalone one
// using the conversation so far, so retrieval never has to resolve
// pronouns against history it cannot see. With no history the text
// passes through untouched. A model failure falls back to the raw text
// rather than failing the query.
func (o *Orchestrator) CondenseFollowUp(ctx context.Context, history []ai.ChatMessage, text string) string {
	if len(history) == 0 {
		return text
	}

	messages := make([]ai.ChatMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, ai.ChatMessage{Role: "user", Message: text})

	rewritten, err := o.ai.GenerateChat(ctx, messages,
		ai.WithSystemPrompts(ai.CondensePrompt),
		ai.WithTemperature(0))
	if err != nil || strings.TrimSpace(rewritten) == "" {
		logger.Warn("follow-up condensation failed, using the raw question", "err", err)
		return text
	}
	return strings.TrimSpace(rewritten)
}
