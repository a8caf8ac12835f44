package session

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"resume-platform/internal/agent/memory"
	"resume-platform/internal/model/llm"
	"resume-platform/pkg/log"
	"resume-platform/pkg/metrics"
)

// 运行模式
const (
	ModeManual = "manual" // 逐条指令对话
	ModeAuto   = "auto"   // 计划驱动的自动执行
)

// DefaultSystemPrompt 简历专家的默认系统提示词
const DefaultSystemPrompt = `You are an expert resume consultant and career advisor.

Your role is to help candidates create compelling, tailored resumes by:
- Analyzing job descriptions to extract key requirements
- Expanding brief bullets into detailed achievement descriptions
- Distilling verbose text into concise, impactful statements
- Matching candidate experience to job requirements
- Researching companies and providing relevant context
- Generating well-structured, ATS-friendly resume content

You have access to specialized tools for expansion, distillation,
semantic matching, and web search. Use these tools strategically to
produce high-quality results.`

// Processor 处理单轮用户指令（由 supervisor 实现）。
// 返回错误表示处理路径不可用，Session 会降级为直连 LLM。
type Processor interface {
	Process(ctx context.Context, sess *Session, instruction string) (string, error)
}

// Persister 会话持久化的最小接口（由 sessionstore.Store 满足）
type Persister interface {
	Save(ctx context.Context, record *Record) error
}

// Options 会话构造参数
type Options struct {
	Name           string
	ModelConfig    llm.Config
	SystemPrompt   string
	Processor      Processor
	Fallback       llm.Client // 降级直连客户端，可为 nil
	Store          Persister  // 可为 nil（仅内存会话）
	AutoPersist    bool
	MaxRecentTurns int
	Logger         *log.Logger
}

// Session 简历创建的有状态会话：对话历史 + 结构化状态 + 快照。
// Chat 是手动模式的主入口；自动模式由执行器驱动。
type Session struct {
	ID            string
	Name          string
	JobInfo       string
	CandidateInfo string
	CreatedAt     time.Time

	ModelConfig  llm.Config
	SystemPrompt string

	Memory *memory.Conversation
	State  *State

	mu        sync.Mutex
	mode      string
	snapshots []Snapshot

	processor   Processor
	fallback    llm.Client
	store       Persister
	autoPersist bool
	logger      *log.Logger
}

// New 创建新会话。ID 由岗位、候选人与创建时间哈希生成。
func New(jobInfo, candidateInfo string, opts Options) *Session {
	created := time.Now()
	prompt := opts.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Session{
		ID:            generateID(jobInfo, candidateInfo, created),
		Name:          opts.Name,
		JobInfo:       jobInfo,
		CandidateInfo: candidateInfo,
		CreatedAt:     created,
		ModelConfig:   opts.ModelConfig,
		SystemPrompt:  prompt,
		Memory:        memory.NewConversation(opts.MaxRecentTurns),
		State:         NewState(),
		mode:          ModeManual,
		processor:     opts.Processor,
		fallback:      opts.Fallback,
		store:         opts.Store,
		autoPersist:   opts.AutoPersist,
		logger:        logger,
	}
	return s
}

func generateID(jobInfo, candidateInfo string, created time.Time) string {
	content := fmt.Sprintf("%s::%s::%s", jobInfo, candidateInfo, created.Format(time.RFC3339Nano))
	sum := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", sum)[:16]
}

// Mode 返回当前运行模式
func (s *Session) Mode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode 直接设置模式，不记录历史（执行器内部切换用）
func (s *Session) SetMode(mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

// SwitchMode 切换模式并记录一条 system Turn；开启自动持久化时落盘
func (s *Session) SwitchMode(ctx context.Context, mode string) error {
	s.SetMode(mode)
	s.Memory.AddTurn(memory.RoleSystem, fmt.Sprintf("Mode switched to %s", mode), map[string]any{"mode_change": true})
	if s.autoPersist && s.store != nil {
		return s.persist(ctx)
	}
	return nil
}

// Chat 处理一条用户指令并返回助手回复。
// 返回文本始终非空（失败时为可见的错误说明）；error 仅表示持久化失败，
// 此时文本仍有效，调用方自行决定是否提示用户。
func (s *Session) Chat(ctx context.Context, userMessage string) (string, error) {
	start := time.Now()
	mode := s.Mode()
	defer func() {
		metrics.ChatDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	}()

	s.Memory.AddTurn(memory.RoleUser, userMessage, nil)

	// 处理前记录快照，供回溯检查
	s.CreateSnapshot()

	response, status := s.process(ctx, userMessage)
	if response == "" {
		status = "error"
		response = "No response generated"
	}

	s.Memory.AddTurn(memory.RoleAssistant, response, nil)

	var persistErr error
	if s.autoPersist && s.store != nil {
		if persistErr = s.persist(ctx); persistErr != nil {
			status = "error"
			s.logger.Error("session auto-persist failed", "session_id", s.ID, "error", persistErr)
		}
	}
	metrics.ChatTotal.WithLabelValues(status).Inc()
	return response, persistErr
}

// process 路由指令：优先走 supervisor，失败时降级为直连 LLM 单次调用。
// 第二个返回值是监控状态（ok | degraded）。
func (s *Session) process(ctx context.Context, instruction string) (string, string) {
	if s.processor != nil {
		response, err := s.processor.Process(ctx, s, instruction)
		if err == nil {
			return response, "ok"
		}
		s.logger.Warn("supervisor processing failed, falling back to direct LLM",
			"session_id", s.ID, "error", err)
	}
	return s.fallbackProcess(ctx, instruction)
}

// fallbackProcess 无 agent 框架的降级处理：系统提示 + 上下文 + 近期历史直接发给 LLM
func (s *Session) fallbackProcess(ctx context.Context, instruction string) (string, string) {
	if s.fallback == nil {
		return fmt.Sprintf("Error: no language model available to process %q. Configure a model provider and retry.", instruction), "degraded"
	}

	msgs := []llm.Message{
		{Role: memory.RoleSystem, Content: s.SystemPrompt},
		{Role: memory.RoleSystem, Content: fmt.Sprintf("Job Info:\n%s", s.JobInfo)},
		{Role: memory.RoleSystem, Content: fmt.Sprintf("Candidate Info:\n%s", s.CandidateInfo)},
	}
	msgs = append(msgs, s.Memory.PromptMessages()...)

	response, err := s.fallback.ChatWithContext(ctx, msgs, s.ModelConfig.Options())
	if err != nil {
		return fmt.Sprintf("Error: %v\n\nCheck the model provider configuration and API key, then retry.", err), "degraded"
	}
	return response, "degraded"
}

// CreateSnapshot 记录当前状态与历史长度的快照
func (s *Session) CreateSnapshot() {
	snap := Snapshot{
		Timestamp: time.Now(),
		State:     s.State.Snapshot(),
		Mode:      s.Mode(),
		TurnCount: s.Memory.Len(),
	}
	s.mu.Lock()
	s.snapshots = append(s.snapshots, snap)
	s.mu.Unlock()
}

// Snapshots 返回全部快照的副本
func (s *Session) Snapshots() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Snapshot, len(s.snapshots))
	copy(out, s.snapshots)
	return out
}

// Metadata 返回用于快速检视的元信息
func (s *Session) Metadata() map[string]any {
	return map[string]any{
		"session_id": s.ID,
		"name":       s.Name,
		"created_at": s.CreatedAt.Format(time.RFC3339),
		"n_turns":    s.Memory.Len(),
		"mode":       s.Mode(),
		"model":      s.ModelConfig.Model,
	}
}

// Save 手动持久化会话
func (s *Session) Save(ctx context.Context) error {
	if s.store == nil {
		return fmt.Errorf("session %s has no store configured", s.ID)
	}
	return s.persist(ctx)
}

func (s *Session) persist(ctx context.Context) error {
	err := s.store.Save(ctx, s.ToRecord())
	if err != nil {
		metrics.SessionSaveTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.SessionSaveTotal.WithLabelValues("ok").Inc()
	return nil
}

// ToRecord 转为可持久化的 Record
func (s *Session) ToRecord() *Record {
	return &Record{
		SessionID:     s.ID,
		Name:          s.Name,
		JobInfo:       s.JobInfo,
		CandidateInfo: s.CandidateInfo,
		Mode:          s.Mode(),
		History:       s.Memory.AllTurns(),
		State:         s.State.Snapshot(),
		Snapshots:     s.Snapshots(),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     time.Now(),
		ModelConfig:   s.ModelConfig,
	}
}

// FromRecord 由持久化记录重建会话。opts.ModelConfig 为零值时沿用记录中的配置。
func FromRecord(rec *Record, opts Options) *Session {
	if opts.ModelConfig.Model == "" {
		opts.ModelConfig = rec.ModelConfig
	}
	s := New(rec.JobInfo, rec.CandidateInfo, opts)
	s.ID = rec.SessionID
	s.Name = rec.Name
	s.CreatedAt = rec.CreatedAt
	if rec.Mode != "" {
		s.mode = rec.Mode
	}
	s.Memory.Restore(rec.History)
	s.State.Restore(rec.State)
	s.snapshots = make([]Snapshot, len(rec.Snapshots))
	copy(s.snapshots, rec.Snapshots)
	return s
}
