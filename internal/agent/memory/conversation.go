package memory

import (
	"sync"
	"time"

	"resume-platform/internal/model/llm"
)

const defaultMaxRecentTurns = 10

// 对话角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Turn 单轮对话记录，追加后不可变
type Turn struct {
	Role      string         `json:"role"` // user | assistant | system
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Conversation 对话历史：完整保留所有 Turn，近期窗口仅用于 prompt 构建
type Conversation struct {
	mu        sync.RWMutex
	turns     []Turn
	maxRecent int
}

// NewConversation 创建对话历史，maxRecentTurns 为 prompt 窗口大小，<=0 使用默认 10
func NewConversation(maxRecentTurns int) *Conversation {
	if maxRecentTurns <= 0 {
		maxRecentTurns = defaultMaxRecentTurns
	}
	return &Conversation{maxRecent: maxRecentTurns}
}

// AddTurn 追加一条对话记录
func (c *Conversation) AddTurn(role, content string, metadata map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Metadata:  metadata,
	})
}

// RecentTurns 返回最近 n 条记录的副本，n<=0 时使用配置的窗口大小
func (c *Conversation) RecentTurns(n int) []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n <= 0 {
		n = c.maxRecent
	}
	start := len(c.turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(c.turns)-start)
	copy(out, c.turns[start:])
	return out
}

// AllTurns 返回完整历史的副本（不丢弃任何 Turn）
func (c *Conversation) AllTurns() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len 返回历史长度
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// PromptMessages 将近期窗口转为 LLM 消息，供 prompt 构建
func (c *Conversation) PromptMessages() []llm.Message {
	recent := c.RecentTurns(0)
	if len(recent) == 0 {
		return nil
	}
	out := make([]llm.Message, len(recent))
	for i, t := range recent {
		out[i] = llm.Message{Role: t.Role, Content: t.Content}
	}
	return out
}

// Restore 以持久化记录重建历史（供 Store.Load 使用）
func (c *Conversation) Restore(turns []Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = make([]Turn, len(turns))
	copy(c.turns, turns)
}
