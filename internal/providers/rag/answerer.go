package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/mcbarin/personal-ai-assistant/internal/core"
	"github.com/mcbarin/personal-ai-assistant/pkg/log"
)

const qaSystemPrompt = `You are a concise personal assistant.
Use the provided context only as factual background.
Always answer the user's question directly and do not ask follow-up questions about their goals or intentions unless absolutely necessary.`

// Retriever is the similarity-search half of the store.
type Retriever interface {
	Retrieve(ctx context.Context, query string, limit int) ([]Retrieved, error)
}

var _ core.Answerer = (*Answerer)(nil)

// Answerer grounds free-form questions in the note store: top-K retrieval,
// a token-capped context block, one chat completion.
type Answerer struct {
	ai            core.AIProvider
	retriever     Retriever
	topK          int
	contextTokens int
}

func NewAnswerer(ai core.AIProvider, retriever Retriever, topK, contextTokens int) *Answerer {
	return &Answerer{
		ai:            ai,
		retriever:     retriever,
		topK:          topK,
		contextTokens: contextTokens,
	}
}

func (a *Answerer) Answer(ctx context.Context, question string) (string, []string, error) {
	hits, err := a.retriever.Retrieve(ctx, question, a.topK)
	if err != nil {
		return "", nil, fmt.Errorf("retrieve context: %w", err)
	}

	contextBlock, docIDs := a.buildContext(hits)

	log.FromCtx(ctx).Debug().
		Int("hits", len(hits)).
		Strs("doc_ids", docIDs).
		Msg("answering with retrieved context")

	reply, err := a.ai.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: qaSystemPrompt},
		{Role: core.RoleUser, Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextBlock, question)},
	})
	if err != nil {
		return "", nil, fmt.Errorf("chat: %w", err)
	}

	return reply, docIDs, nil
}

// buildContext joins hit texts up to the token cap and collects their
// document ids, deduplicated in retrieval order.
func (a *Answerer) buildContext(hits []Retrieved) (string, []string) {
	var sb strings.Builder
	var docIDs []string
	seen := make(map[string]bool)
	tokens := 0

	for _, h := range hits {
		hitTokens := countTokens(h.Text)
		if tokens+hitTokens > a.contextTokens && sb.Len() > 0 {
			break
		}

		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(h.Text)
		tokens += hitTokens

		if h.DocID != "" && !seen[h.DocID] {
			seen[h.DocID] = true
			docIDs = append(docIDs, h.DocID)
		}
	}

	return sb.String(), docIDs
}
