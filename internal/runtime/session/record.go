package session

import (
	"time"

	"resume-platform/internal/agent/memory"
	"resume-platform/internal/model/llm"
)

// Record 会话的可持久化形态：Store 读写的唯一载体。
// 字段与 JSON 镜像一一对应，便于外部工具检查。
type Record struct {
	SessionID     string         `json:"session_id"`
	Name          string         `json:"name,omitempty"`
	JobInfo       string         `json:"job_info"`
	CandidateInfo string         `json:"candidate_info"`
	Mode          string         `json:"mode"`
	History       []memory.Turn  `json:"history"`
	State         map[string]any `json:"state"`
	Snapshots     []Snapshot     `json:"snapshots"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	ModelConfig   llm.Config     `json:"llm_config"`
}

// Summary 会话列表项：无需反序列化完整 Record 即可展示
type Summary struct {
	SessionID string    `json:"session_id"`
	Name      string    `json:"name,omitempty"`
	Mode      string    `json:"mode"`
	TurnCount int       `json:"turn_count"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summarize 由 Record 生成列表项
func Summarize(r *Record) Summary {
	return Summary{
		SessionID: r.SessionID,
		Name:      r.Name,
		Mode:      r.Mode,
		TurnCount: len(r.History),
		Model:     r.ModelConfig.Model,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
