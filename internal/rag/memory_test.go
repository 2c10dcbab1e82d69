package rag

import (
	"errors"
	"testing"
)

func TestConversationMemoryAppendAssignsSeq(t *testing.T) {
	m := NewConversationMemory()
	if err := m.AppendExchange("q1", "a1"); err != nil {
		t.Fatalf("AppendExchange: %v", err)
	}
	if err := m.AppendExchange("q2", "a2"); err != nil {
		t.Fatalf("AppendExchange: %v", err)
	}

	history := m.History()
	if len(history) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(history))
	}
	wantRoles := []Role{RoleQuestion, RoleAnswer, RoleQuestion, RoleAnswer}
	for i, turn := range history {
		if turn.Seq != i+1 {
			t.Errorf("turn %d: expected seq %d, got %d", i, i+1, turn.Seq)
		}
		if turn.Role != wantRoles[i] {
			t.Errorf("turn %d: expected role %s, got %s", i, wantRoles[i], turn.Role)
		}
	}
}

func TestConversationMemoryAppendRejectsOutOfOrder(t *testing.T) {
	m := NewConversationMemory()
	if err := m.Append(Turn{Role: RoleQuestion, Text: "q", Seq: 5}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	err := m.Append(
		Turn{Role: RoleAnswer, Text: "a", Seq: 6},
		Turn{Role: RoleQuestion, Text: "stale", Seq: 3},
	)
	if !errors.Is(err, ErrTurnOrder) {
		t.Fatalf("expected ErrTurnOrder, got %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("rejected batch must not be partially appended, got %d turns", m.Len())
	}
}

func TestConversationMemoryHistoryIsCopy(t *testing.T) {
	m := NewConversationMemory()
	_ = m.AppendExchange("q", "a")

	history := m.History()
	history[0].Text = "changed"

	if got := m.History()[0].Text; got != "q" {
		t.Fatalf("History must return a copy, stored text became %q", got)
	}
}

func TestConversationMemoryRecent(t *testing.T) {
	m := NewConversationMemory()
	_ = m.AppendExchange("q1", "a1")
	_ = m.AppendExchange("q2", "a2")
	_ = m.AppendExchange("q3", "a3")

	tests := []struct {
		name      string
		n         int
		wantTexts []string
	}{
		{name: "zero", n: 0, wantTexts: nil},
		{name: "negative", n: -1, wantTexts: nil},
		{name: "last exchange", n: 2, wantTexts: []string{"q3", "a3"}},
		{name: "drops orphan answer", n: 3, wantTexts: []string{"q3", "a3"}},
		{name: "two exchanges", n: 4, wantTexts: []string{"q2", "a2", "q3", "a3"}},
		{name: "more than stored", n: 100, wantTexts: []string{"q1", "a1", "q2", "a2", "q3", "a3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Recent(tt.n)
			if len(got) != len(tt.wantTexts) {
				t.Fatalf("expected %d turns, got %d", len(tt.wantTexts), len(got))
			}
			for i, turn := range got {
				if turn.Text != tt.wantTexts[i] {
					t.Errorf("turn %d: expected %q, got %q", i, tt.wantTexts[i], turn.Text)
				}
			}
		})
	}
}

func TestConversationMemoryClearRestartsNumbering(t *testing.T) {
	m := NewConversationMemory()
	_ = m.AppendExchange("q1", "a1")
	m.Clear()

	if m.Len() != 0 {
		t.Fatalf("expected empty memory after Clear, got %d turns", m.Len())
	}
	_ = m.AppendExchange("q2", "a2")
	if got := m.History()[0].Seq; got != 1 {
		t.Fatalf("expected seq 1 after Clear, got %d", got)
	}
}
