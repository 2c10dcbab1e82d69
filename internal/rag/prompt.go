package rag

import (
	"fmt"
	"strings"

	"docchat/internal/llm"
)

const (
	contextStart = "--- Context ---"
	contextEnd   = "--- End context ---"
)

const systemPrompt = "You are a helpful assistant that answers questions about the user's documents. " +
	"Use the context passages and the conversation so far to answer. " +
	"If the context does not contain the answer, say that you don't know instead of making one up."

const noContextPrompt = "You are a helpful assistant. No document passages matched this question, " +
	"so answer only from the conversation so far. If it does not contain the answer, say that you don't know."

const condensePrompt = "Given the conversation so far and a follow-up question, rephrase the follow-up " +
	"into a standalone question that can be understood without the conversation. " +
	"Reply with the standalone question only."

// BuildMessages composes the generation request: a system message, the history
// as alternating user/assistant messages, then the question with the retrieved
// passages in the order given (most similar first).
func BuildMessages(history []Turn, sources []ScoredChunk, question string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)

	if len(sources) == 0 {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: noContextPrompt})
	} else {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	}
	messages = append(messages, historyMessages(history)...)

	if len(sources) == 0 {
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})
		return messages
	}

	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: question + "\n\n" + formatContext(sources),
	})
	return messages
}

// BuildCondenseMessages asks the generator to turn a follow-up into a standalone question.
func BuildCondenseMessages(history []Turn, question string) []llm.Message {
	var b strings.Builder
	b.WriteString("Conversation:\n")
	for _, t := range history {
		speaker := "User"
		if t.Role == RoleAnswer {
			speaker = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, t.Text)
	}
	fmt.Fprintf(&b, "\nFollow-up question: %s", question)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: condensePrompt},
		{Role: llm.RoleUser, Content: b.String()},
	}
}

func historyMessages(history []Turn) []llm.Message {
	out := make([]llm.Message, 0, len(history))
	for _, t := range history {
		role := llm.RoleUser
		if t.Role == RoleAnswer {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: t.Text})
	}
	return out
}

func formatContext(sources []ScoredChunk) string {
	var b strings.Builder
	b.WriteString(contextStart)
	b.WriteString("\n\n")
	for _, s := range sources {
		fmt.Fprintf(&b, "[%d] Source: %s (chunk %d)\n%s\n\n", s.Rank, s.Source, s.Index, s.Text)
	}
	b.WriteString(contextEnd)
	return b.String()
}
