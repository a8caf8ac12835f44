// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package agent 简历专家的编排层：Supervisor 负责单轮指令的
// 工具路由，ResumeExpertAgent 负责计划的提出、修订与执行。
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"resume-platform/internal/agent/memory"
	"resume-platform/internal/agent/workers"
	"resume-platform/internal/model/llm"
	"resume-platform/internal/runtime/session"
	"resume-platform/pkg/log"
)

// toolCall supervisor LLM 的单步决策
type toolCall struct {
	Tool     string         `json:"tool"`
	Args     map[string]any `json:"args,omitempty"`
	Response string         `json:"response,omitempty"`
}

// toolHandler 执行单个工具并把结果写入会话状态
type toolHandler func(ctx context.Context, sess *session.Session, args map[string]any) (string, error)

// Supervisor 逐轮决策的监督者：让 LLM 在工具集中选择一个动作，
// 执行后把观察结果与决策合成回复。实现 session.Processor。
type Supervisor struct {
	client   llm.Client
	options  llm.GenerateOptions
	handlers map[string]toolHandler
	logger   *log.Logger
}

// Workers Supervisor 可调度的 worker 集合，任一项可为 nil（对应工具降级）
type Workers struct {
	Expansion    *workers.Expansion
	Distillation *workers.Distillation
	Matching     *workers.Matching
	Search       *workers.Search
	Section      *workers.Section
}

// NewSupervisor 创建监督者。client 是 supervisor 角色的模型。
func NewSupervisor(client llm.Client, options llm.GenerateOptions, w Workers, logger *log.Logger) *Supervisor {
	if logger == nil {
		logger = log.Default()
	}
	s := &Supervisor{client: client, options: options, logger: logger}
	s.handlers = map[string]toolHandler{
		"expand_bullet_point":     s.expandTool(w.Expansion),
		"distill_text":            s.distillTool(w.Distillation),
		"search_company_info":     s.searchTool(w.Search),
		"find_skill_matches":      s.matchTool(w.Matching),
		"generate_resume_section": s.sectionTool(w.Section),
	}
	return s
}

const supervisorToolPrompt = `Decide the single best next action for the user's instruction.

Available tools:
- expand_bullet_point(brief_text, context): expand a brief bullet into a detailed achievement
- distill_text(verbose_text, max_words): make verbose text concise
- search_company_info(company_name): research a company
- find_skill_matches(candidate_section, job_requirements): match candidate experience to requirements
- generate_resume_section(section_name, content_guidance): produce a resume section in markdown

Reply with a single JSON object, nothing else:
{"tool": "<tool name>", "args": {...}}
or, when no tool fits and you should answer directly:
{"tool": "respond", "response": "<your answer>"}`

// Process 实现 session.Processor。返回 error 时会话降级为直连 LLM。
func (s *Supervisor) Process(ctx context.Context, sess *session.Session, instruction string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("supervisor has no model configured")
	}

	msgs := []llm.Message{
		{Role: memory.RoleSystem, Content: sess.SystemPrompt},
		{Role: memory.RoleSystem, Content: fmt.Sprintf("Job Description:\n%s", sess.JobInfo)},
		{Role: memory.RoleSystem, Content: fmt.Sprintf("Candidate Information:\n%s", sess.CandidateInfo)},
		{Role: memory.RoleSystem, Content: fmt.Sprintf("Conversation History:\n%s", formatHistory(sess))},
		{Role: memory.RoleSystem, Content: fmt.Sprintf("Current State:\n%s", FormatState(sess))},
		{Role: memory.RoleSystem, Content: supervisorToolPrompt},
		{Role: memory.RoleUser, Content: instruction},
	}

	response, err := s.client.ChatWithContext(ctx, msgs, s.options)
	if err != nil {
		return "", fmt.Errorf("supervisor decision: %w", err)
	}

	var call toolCall
	if err := json.Unmarshal([]byte(extractJSONObject(response)), &call); err != nil || call.Tool == "" {
		// 决策不是 JSON：按直接回答处理
		return strings.TrimSpace(response), nil
	}

	if call.Tool == "respond" {
		if call.Response != "" {
			return call.Response, nil
		}
		return strings.TrimSpace(response), nil
	}

	handler, ok := s.handlers[call.Tool]
	if !ok {
		s.logger.Warn("supervisor chose unknown tool", "tool", call.Tool)
		return strings.TrimSpace(response), nil
	}

	observation, err := handler(ctx, sess, call.Args)
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", call.Tool, err)
	}
	s.logger.Info("supervisor dispatched tool", "session_id", sess.ID, "tool", call.Tool)
	return observation, nil
}

func (s *Supervisor) expandTool(w *workers.Expansion) toolHandler {
	return func(ctx context.Context, sess *session.Session, args map[string]any) (string, error) {
		if w == nil {
			return "", fmt.Errorf("expansion worker not configured")
		}
		brief := stringArg(args, "brief_text")
		if brief == "" {
			return "", fmt.Errorf("brief_text required")
		}
		result := w.Expand(ctx, brief, stringArg(args, "context"))
		sess.State.SetIn("expansions", brief, result)
		return result, nil
	}
}

func (s *Supervisor) distillTool(w *workers.Distillation) toolHandler {
	return func(ctx context.Context, sess *session.Session, args map[string]any) (string, error) {
		if w == nil {
			return "", fmt.Errorf("distillation worker not configured")
		}
		verbose := stringArg(args, "verbose_text")
		if verbose == "" {
			return "", fmt.Errorf("verbose_text required")
		}
		maxWords := intArg(args, "max_words", 50)
		result := w.Distill(ctx, verbose, maxWords, true)
		sess.State.SetIn("distillations", keyPrefix(verbose, 50), result)
		return result, nil
	}
}

func (s *Supervisor) searchTool(w *workers.Search) toolHandler {
	return func(ctx context.Context, sess *session.Session, args map[string]any) (string, error) {
		if w == nil {
			return "", fmt.Errorf("search worker not configured")
		}
		company := stringArg(args, "company_name")
		if company == "" {
			return "", fmt.Errorf("company_name required")
		}
		summary := workers.FormatResults(w.Run(ctx, company, 5))
		sess.State.SetIn("searches", company, summary)
		return summary, nil
	}
}

func (s *Supervisor) matchTool(w *workers.Matching) toolHandler {
	return func(ctx context.Context, sess *session.Session, args map[string]any) (string, error) {
		if w == nil {
			return "", fmt.Errorf("matching worker not configured")
		}
		candidateSection := stringArg(args, "candidate_section")
		if candidateSection == "" {
			candidateSection = sess.CandidateInfo
		}
		jobRequirements := stringArg(args, "job_requirements")
		if jobRequirements == "" {
			jobRequirements = sess.JobInfo
		}
		matches := w.FindMatches(ctx, candidateSection, jobRequirements)
		sess.State.SetIn("extracted_entities", "matches", matches)
		return workers.FormatMatches(matches), nil
	}
}

func (s *Supervisor) sectionTool(w *workers.Section) toolHandler {
	return func(ctx context.Context, sess *session.Session, args map[string]any) (string, error) {
		if w == nil {
			return "", fmt.Errorf("section worker not configured")
		}
		name := stringArg(args, "section_name")
		if name == "" {
			return "", fmt.Errorf("section_name required")
		}
		result := w.Generate(ctx, workers.SectionInput{
			SectionName:   name,
			Guidance:      stringArg(args, "content_guidance"),
			JobInfo:       sess.JobInfo,
			CandidateInfo: sess.CandidateInfo,
			StateSummary:  FormatState(sess),
		})
		sess.State.SetIn("drafts", name, result)
		return result, nil
	}
}

// formatHistory 最近 5 轮对话，每条截断到 200 字符
func formatHistory(sess *session.Session) string {
	turns := sess.Memory.RecentTurns(5)
	if len(turns) == 0 {
		return "No previous conversation."
	}
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		role := "Assistant"
		if turn.Role == memory.RoleUser {
			role = "User"
		}
		lines = append(lines, fmt.Sprintf("%s: %s...", role, keyPrefix(turn.Content, 200)))
	}
	return strings.Join(lines, "\n")
}

// FormatState 已积累工作的摘要，供 prompt 与章节生成使用
func FormatState(sess *session.Session) string {
	var summary []string

	if n := len(sess.State.Bucket("expansions")); n > 0 {
		summary = append(summary, fmt.Sprintf("Expansions created: %d", n))
	}
	if n := len(sess.State.Bucket("distillations")); n > 0 {
		summary = append(summary, fmt.Sprintf("Distillations created: %d", n))
	}
	if searches := sess.State.Bucket("searches"); len(searches) > 0 {
		summary = append(summary, fmt.Sprintf("Searches performed: %v", mapKeys(searches)))
	}
	if drafts := sess.State.Bucket("drafts"); len(drafts) > 0 {
		summary = append(summary, fmt.Sprintf("Draft sections: %v", mapKeys(drafts)))
	}

	if len(summary) == 0 {
		return "No accumulated work yet."
	}
	return strings.Join(summary, "\n")
}

func mapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

func keyPrefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// extractJSONObject 从 LLM 输出中提取首个 JSON 对象
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}
