package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"resume-platform/internal/model/llm"
)

// Reviser 按自然语言指令修订计划。持有可选的 planner LLM；
// 未配置时仅把指令附注到 Rationale，交由用户手工编辑。
type Reviser struct {
	client  llm.Client
	options llm.GenerateOptions
}

// NewReviser 创建计划修订器，client 可为 nil
func NewReviser(client llm.Client, options llm.GenerateOptions) *Reviser {
	return &Reviser{client: client, options: options}
}

type planJSON struct {
	Rationale string `json:"rationale"`
	Steps     []struct {
		ID           string         `json:"id"`
		Action       string         `json:"action"`
		Description  string         `json:"description"`
		Params       map[string]any `json:"params"`
		Dependencies []string       `json:"dependencies"`
	} `json:"steps"`
}

// Revise 返回修订后的新计划，原计划不被修改。
// LLM 返回非 JSON 或调用失败时降级：指令追加到 Rationale，步骤原样保留。
func (r *Reviser) Revise(ctx context.Context, plan *Plan, instruction string) *Plan {
	revised := plan.Clone()

	if r.client == nil {
		revised.Rationale += fmt.Sprintf("\n\nUser requested: %s", instruction)
		return revised
	}

	planData, err := json.Marshal(map[string]any{
		"rationale": revised.Rationale,
		"steps":     revised.Steps,
	})
	if err != nil {
		revised.Rationale += fmt.Sprintf("\n\nUser requested: %s", instruction)
		return revised
	}

	prompt := "You are a planner. Given the following plan (JSON) and a user instruction," +
		" produce a revised plan as JSON with fields: steps (array of {id, action, description, params, dependencies})"

	response, err := r.client.ChatWithContext(ctx, []llm.Message{
		{Role: "system", Content: prompt},
		{Role: "system", Content: string(planData)},
		{Role: "user", Content: instruction},
	}, r.options)
	if err != nil {
		revised.Rationale += fmt.Sprintf("\n\nPlan revision attempted but planner LLM error: %v", err)
		return revised
	}

	var parsed planJSON
	if err := json.Unmarshal([]byte(extractJSON(response)), &parsed); err != nil {
		revised.Rationale += fmt.Sprintf("\n\nUser requested: %s (planner LLM returned non-JSON)", instruction)
		return revised
	}

	steps := make([]PlanStep, 0, len(parsed.Steps))
	for _, s := range parsed.Steps {
		params := s.Params
		if params == nil {
			params = map[string]any{}
		}
		steps = append(steps, PlanStep{
			ID:           s.ID,
			Action:       s.Action,
			Description:  s.Description,
			Params:       params,
			Dependencies: s.Dependencies,
		})
	}
	revised.Steps = steps
	if parsed.Rationale != "" {
		revised.Rationale = parsed.Rationale
	}
	return revised
}

// extractJSON 从 LLM 输出中提取首个 JSON 对象（容忍代码块与前后解释文字）
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}
