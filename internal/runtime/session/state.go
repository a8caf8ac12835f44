package session

import (
	"encoding/json"
	"sync"
	"time"
)

// 结构化状态的固定桶
var stateBuckets = []string{
	"candidate",
	"job",
	"extracted_entities",
	"expansions",
	"distillations",
	"drafts",
	"searches",
}

// State 简历会话的结构化状态：抽取的实体、分析结果与在制内容。
// 七个固定桶在创建时初始化为空 map，Worker 通过 Update 写入。
type State struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewState 创建带固定桶的空状态
func NewState() *State {
	data := make(map[string]any, len(stateBuckets))
	for _, b := range stateBuckets {
		data[b] = map[string]any{}
	}
	return &State{data: data}
}

// Get 读取键值，缺失时返回 nil
func (s *State) Get(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[key]
}

// GetOr 读取键值，缺失时返回 def
func (s *State) GetOr(key string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.data[key]; ok {
		return v
	}
	return def
}

// Set 整体替换键值
func (s *State) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Bucket 返回键对应的 map 桶；不存在或非 map 时返回 nil
func (s *State) Bucket(key string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.data[key].(map[string]any); ok {
		return m
	}
	return nil
}

// SetIn 向 map 桶写入单项；桶不存在或已被替换为非 map 时重建为 map
func (s *State) SetIn(bucket, key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.data[bucket].(map[string]any)
	if !ok {
		m = map[string]any{}
		s.data[bucket] = m
	}
	m[key] = value
}

// Update 批量更新：目标键已是 map 且新值也是 map 时做浅合并，否则整体替换
func (s *State) Update(updates map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range updates {
		existing, ok := s.data[key].(map[string]any)
		incoming, isMap := value.(map[string]any)
		if ok && isMap {
			for k, v := range incoming {
				existing[k] = v
			}
		} else {
			s.data[key] = value
		}
	}
}

// Snapshot 返回当前状态的完全独立深拷贝（JSON 往返），
// 后续状态变更不影响已有快照。
func (s *State) Snapshot() map[string]any {
	s.mu.RLock()
	raw, err := json.Marshal(s.data)
	s.mu.RUnlock()
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}

// Restore 以持久化快照重建状态，缺失的固定桶补齐为空 map
func (s *State) Restore(data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]any, len(stateBuckets))
	for k, v := range data {
		s.data[k] = v
	}
	for _, b := range stateBuckets {
		if _, ok := s.data[b]; !ok {
			s.data[b] = map[string]any{}
		}
	}
}

// Snapshot 会话快照：某轮对话前的状态、模式与历史长度
type Snapshot struct {
	Timestamp time.Time      `json:"timestamp"`
	State     map[string]any `json:"state"`
	Mode      string         `json:"mode"`
	TurnCount int            `json:"turn_count"`
}
