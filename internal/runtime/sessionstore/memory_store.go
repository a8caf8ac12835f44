package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"resume-platform/internal/runtime/session"
)

// MemoryStore 内存会话存储，供测试与一次性 CLI 运行使用。
// 内部保存序列化字节，读写双方不共享可变结构。
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Save 实现 Store.Save
func (s *MemoryStore) Save(ctx context.Context, record *session.Record) error {
	if record == nil || record.SessionID == "" {
		return fmt.Errorf("record must have a session id")
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", record.SessionID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[record.SessionID] = raw
	return nil
}

// Load 实现 Store.Load，不存在返回 (nil, nil)
func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*session.Record, error) {
	s.mu.RLock()
	raw, ok := s.data[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var record session.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &record, nil
}

// List 实现 Store.List
func (s *MemoryStore) List(ctx context.Context) ([]session.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]session.Summary, 0, len(s.data))
	for _, raw := range s.data {
		var record session.Record
		if err := json.Unmarshal(raw, &record); err != nil {
			continue
		}
		out = append(out, session.Summarize(&record))
	}
	return out, nil
}

// Delete 实现 Store.Delete
func (s *MemoryStore) Delete(ctx context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[sessionID]; !ok {
		return false, nil
	}
	delete(s.data, sessionID)
	return true, nil
}
