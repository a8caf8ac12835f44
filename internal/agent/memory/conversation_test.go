package memory

import (
	"testing"
)

func TestConversation_AddTurn_AllTurns(t *testing.T) {
	c := NewConversation(0)
	c.AddTurn(RoleUser, "hello", nil)
	c.AddTurn(RoleAssistant, "hi", map[string]any{"k": "v"})
	turns := c.AllTurns()
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != RoleUser || turns[0].Content != "hello" {
		t.Errorf("first turn: %+v", turns[0])
	}
	if turns[1].Metadata["k"] != "v" {
		t.Errorf("metadata: %+v", turns[1].Metadata)
	}
	if turns[0].Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
}

func TestConversation_RecentTurns_Window(t *testing.T) {
	c := NewConversation(3)
	for i := 0; i < 5; i++ {
		c.AddTurn(RoleUser, "m", nil)
	}
	if got := len(c.RecentTurns(0)); got != 3 {
		t.Errorf("default window: expected 3, got %d", got)
	}
	if got := len(c.RecentTurns(2)); got != 2 {
		t.Errorf("explicit n: expected 2, got %d", got)
	}
	// 窗口只影响视图，完整历史不丢弃
	if got := len(c.AllTurns()); got != 5 {
		t.Errorf("full history: expected 5, got %d", got)
	}
}

func TestConversation_RecentTurns_FewerThanWindow(t *testing.T) {
	c := NewConversation(10)
	c.AddTurn(RoleUser, "only", nil)
	if got := len(c.RecentTurns(0)); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
}

func TestConversation_PromptMessages(t *testing.T) {
	c := NewConversation(2)
	c.AddTurn(RoleUser, "a", nil)
	c.AddTurn(RoleAssistant, "b", nil)
	c.AddTurn(RoleUser, "c", nil)
	msgs := c.PromptMessages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "b" || msgs[1].Content != "c" {
		t.Errorf("messages: %+v", msgs)
	}
}

func TestConversation_Restore(t *testing.T) {
	c := NewConversation(0)
	c.AddTurn(RoleUser, "old", nil)
	c.Restore([]Turn{{Role: RoleSystem, Content: "restored"}})
	turns := c.AllTurns()
	if len(turns) != 1 || turns[0].Content != "restored" {
		t.Errorf("restore: %+v", turns)
	}
}
