package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
)

// contextualizeSystem instructs the model to rewrite, never answer.
const contextualizeSystem = `Given a conversation history and the latest user question, rewrite the question as a standalone question that can be understood without the history.
Do NOT answer the question.
Do NOT add information that is not implied by the conversation.
If the question is already standalone, return it unchanged.
Return ONLY the rewritten question.`

// Contextualize rewrites input into a standalone question using the
// conversation history. With no history the input is returned unchanged
// and no model call is made.
func (a *Answerer) Contextualize(ctx context.Context, history []*ai.Message, input string) (string, error) {
	if len(history) == 0 {
		return input, nil
	}

	opts := []ai.GenerateOption{
		ai.WithSystem(contextualizeSystem),
		ai.WithMessages(history...),
		ai.WithPrompt("%s", input),
	}
	opts = a.withModel(opts)

	resp, err := a.generateWithRetry(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("rewriting question: %w", err)
	}

	standalone := strings.TrimSpace(resp.Text())
	if standalone == "" {
		// A useless rewrite should not break retrieval.
		return input, nil
	}

	a.logger.Debug("contextualized question",
		"original_length", len(input),
		"standalone_length", len(standalone))
	return standalone, nil
}
