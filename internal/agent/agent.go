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

package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"resume-platform/internal/agent/executor"
	"resume-platform/internal/agent/planner"
	"resume-platform/internal/model/llm"
	"resume-platform/internal/runtime/session"
	"resume-platform/pkg/log"
)

// ExecutionEntry 计划执行历史的一条记录
type ExecutionEntry struct {
	StepID    string         `json:"step_id"`
	Action    string         `json:"action"`
	Params    map[string]any `json:"params,omitempty"`
	Response  string         `json:"response"`
	Timestamp time.Time      `json:"timestamp"`
}

// ResumeExpertAgent 以会话为工具的自治编排器：提出计划、按指令修订、
// 执行并从会话状态提取最终简历。
type ResumeExpertAgent struct {
	reviser  *planner.Reviser
	executor *executor.Executor
	logger   *log.Logger

	mu      sync.Mutex
	history []ExecutionEntry
}

// NewResumeExpertAgent 创建编排器。plannerClient 用于计划修订，可为 nil。
func NewResumeExpertAgent(plannerClient llm.Client, plannerOptions llm.GenerateOptions, logger *log.Logger) *ResumeExpertAgent {
	if logger == nil {
		logger = log.Default()
	}
	return &ResumeExpertAgent{
		reviser:  planner.NewReviser(plannerClient, plannerOptions),
		executor: executor.New(logger),
		logger:   logger,
	}
}

// ProposePlan 按模式生成默认计划，执行前可编辑
func (a *ResumeExpertAgent) ProposePlan(mode string) *planner.Plan {
	return planner.Propose(mode)
}

// RevisePlan 按自然语言指令修订计划，返回新计划
func (a *ResumeExpertAgent) RevisePlan(ctx context.Context, plan *planner.Plan, instruction string) *planner.Plan {
	return a.reviser.Revise(ctx, plan, instruction)
}

// ExecutePlan 执行计划并记录执行历史
func (a *ResumeExpertAgent) ExecutePlan(ctx context.Context, sess *session.Session, plan *planner.Plan, opts executor.Options) *executor.Result {
	result := a.executor.ExecutePlan(ctx, sess, plan, opts)

	a.mu.Lock()
	for _, stepID := range result.CompletedSteps {
		stepResult, ok := result.Results[stepID]
		if !ok {
			continue // 跳过的步骤没有执行记录
		}
		a.history = append(a.history, ExecutionEntry{
			StepID:    stepID,
			Action:    stepResult.Action,
			Response:  stepResult.Response,
			Timestamp: stepResult.Timestamp,
		})
	}
	a.mu.Unlock()
	return result
}

// ExecutionHistory 返回执行历史的副本
func (a *ResumeExpertAgent) ExecutionHistory() []ExecutionEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ExecutionEntry, len(a.history))
	copy(out, a.history)
	return out
}

// CreateResume 自治生成简历：提出计划、执行、从会话状态提取结果。
// 执行失败时返回可见的错误文本（不抛错，与对话语义一致）。
func (a *ResumeExpertAgent) CreateResume(ctx context.Context, sess *session.Session, mode string) string {
	plan := a.ProposePlan(mode)
	result := a.ExecutePlan(ctx, sess, plan, executor.Options{})

	if !result.Success {
		if len(result.ValidationErrors) > 0 {
			return fmt.Sprintf("Error executing plan: %s", strings.Join(result.ValidationErrors, "; "))
		}
		if result.Deadlock {
			return "Error executing plan: plan deadlock, no executable steps remaining"
		}
		if result.SaveError != "" {
			return fmt.Sprintf("Error executing plan: session persistence failed: %s", result.SaveError)
		}
		return "Error executing plan: unknown error"
	}

	// 优先取状态中的完整草稿
	if drafts := sess.State.Bucket("drafts"); drafts != nil {
		if resume, ok := drafts["resume"].(string); ok && resume != "" {
			return resume
		}
	}

	// 退而取最后一个生成类步骤的回复
	for i := len(result.CompletedSteps) - 1; i >= 0; i-- {
		stepResult, ok := result.Results[result.CompletedSteps[i]]
		if !ok {
			continue
		}
		if stepResult.Action == "generate_draft" || stepResult.Action == "refine" {
			return stepResult.Response
		}
	}

	return "Resume generation completed but no resume found in results."
}

// CritiqueAndRefine 迭代评审并改进简历，最多 maxIterations 轮，
// 评审给出 "no improvements needed" 时提前停止。
func (a *ResumeExpertAgent) CritiqueAndRefine(ctx context.Context, sess *session.Session, resume string, maxIterations int) string {
	if maxIterations <= 0 {
		maxIterations = 3
	}
	current := resume

	for i := 0; i < maxIterations; i++ {
		critique, err := sess.Chat(ctx, fmt.Sprintf("Critique this resume and identify specific improvements:\n\n%s", current))
		if err != nil {
			a.logger.Warn("critique turn persisted with error", "session_id", sess.ID, "error", err)
		}
		if strings.Contains(strings.ToLower(critique), "no improvements needed") {
			break
		}
		current, err = sess.Chat(ctx, fmt.Sprintf("Refine the resume based on this critique:\n\n%s", critique))
		if err != nil {
			a.logger.Warn("refine turn persisted with error", "session_id", sess.ID, "error", err)
		}
	}
	return current
}
