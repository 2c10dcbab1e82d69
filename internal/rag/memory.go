package rag

import (
	"errors"
	"fmt"
	"sync"
)

// ErrTurnOrder is returned when an appended turn does not have a larger seq than the last one.
var ErrTurnOrder = errors.New("turn sequence must strictly increase")

// ConversationMemory is an append-only log of question and answer turns.
type ConversationMemory struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewConversationMemory creates an empty log.
func NewConversationMemory() *ConversationMemory {
	return &ConversationMemory{}
}

// Append adds turns in order. A turn with Seq 0 gets the next number.
// Either all turns are appended or none.
func (m *ConversationMemory) Append(turns ...Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	last := m.lastSeq()
	staged := make([]Turn, len(turns))
	for i, t := range turns {
		if t.Seq == 0 {
			t.Seq = last + 1
		}
		if t.Seq <= last {
			return fmt.Errorf("%w: got %d after %d", ErrTurnOrder, t.Seq, last)
		}
		last = t.Seq
		staged[i] = t
	}

	m.turns = append(m.turns, staged...)
	return nil
}

// AppendExchange records a question followed by its answer.
func (m *ConversationMemory) AppendExchange(question, answer string) error {
	return m.Append(
		Turn{Role: RoleQuestion, Text: question},
		Turn{Role: RoleAnswer, Text: answer},
	)
}

// History returns a copy of all turns in append order.
func (m *ConversationMemory) History() []Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Recent returns at most n of the latest turns. n <= 0 returns none.
// The window never starts with an answer whose question was cut off.
func (m *ConversationMemory) Recent(n int) []Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if n <= 0 {
		return []Turn{}
	}
	start := len(m.turns) - n
	if start < 0 {
		start = 0
	}
	if start < len(m.turns) && m.turns[start].Role == RoleAnswer {
		start++
	}

	out := make([]Turn, len(m.turns)-start)
	copy(out, m.turns[start:])
	return out
}

// Len returns the number of turns.
func (m *ConversationMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns)
}

// Clear discards all turns. Numbering restarts at 1.
func (m *ConversationMemory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
}

func (m *ConversationMemory) lastSeq() int {
	if len(m.turns) == 0 {
		return 0
	}
	return m.turns[len(m.turns)-1].Seq
}
