package planner

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PlanStep 计划中的单步：符号化的动作及其前置依赖
type PlanStep struct {
	ID           string         `json:"id"`
	Action       string         `json:"action"` // 如 "analyze_job"、"expand_achievements"
	Description  string         `json:"description"`
	Params       map[string]any `json:"params,omitempty"`
	Dependencies []string       `json:"dependencies,omitempty"` // 前置步骤 ID
}

// CanExecute 判断所有依赖是否已完成
func (s PlanStep) CanExecute(completed map[string]bool) bool {
	for _, dep := range s.Dependencies {
		if !completed[dep] {
			return false
		}
	}
	return true
}

// Plan 简历生成的执行计划：步骤构成依赖 DAG，可序列化供持久化与外部编辑
type Plan struct {
	Steps     []PlanStep `json:"steps"`
	Rationale string     `json:"rationale"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewPlan 创建计划
func NewPlan(steps []PlanStep, rationale string) *Plan {
	return &Plan{Steps: steps, Rationale: rationale, CreatedAt: time.Now()}
}

// Validate 校验计划结构与依赖，返回错误描述列表（空列表表示合法）。
// 无副作用，外部编辑 Steps 后可反复调用。检测三类问题：
// 悬空依赖、自依赖、依赖环（三色 DFS，报告首个环后停止）。
func (p *Plan) Validate() []string {
	var errs []string

	stepIDs := make(map[string]bool, len(p.Steps))
	for _, step := range p.Steps {
		stepIDs[step.ID] = true
	}

	for _, step := range p.Steps {
		for _, dep := range step.Dependencies {
			if !stepIDs[dep] {
				errs = append(errs, fmt.Sprintf("step '%s' depends on non-existent step '%s'", step.ID, dep))
			}
			if dep == step.ID {
				errs = append(errs, fmt.Sprintf("step '%s' depends on itself", step.ID))
			}
		}
	}

	graph := make(map[string][]string, len(p.Steps))
	for _, step := range p.Steps {
		graph[step.ID] = step.Dependencies
	}

	visiting := make(map[string]bool)
	visited := make(map[string]bool)

	var dfs func(node string) bool
	dfs = func(node string) bool {
		if visited[node] {
			return false
		}
		if visiting[node] {
			return true // 发现环
		}
		visiting[node] = true
		for _, nbr := range graph[node] {
			if dfs(nbr) {
				return true
			}
		}
		delete(visiting, node)
		visited[node] = true
		return false
	}

	for _, step := range p.Steps {
		if dfs(step.ID) {
			errs = append(errs, fmt.Sprintf("dependency cycle detected involving step '%s'", step.ID))
			break
		}
	}

	return errs
}

// ExecutableSteps 返回当前可执行的步骤：未完成且依赖全部满足，保持声明顺序。
// 这是执行器唯一的调度原语，无优先级与并发权重。
func (p *Plan) ExecutableSteps(completed map[string]bool) []PlanStep {
	var out []PlanStep
	for _, step := range p.Steps {
		if !completed[step.ID] && step.CanExecute(completed) {
			out = append(out, step)
		}
	}
	return out
}

// Markdown 渲染为人类可读的 markdown（供交互审阅）
func (p *Plan) Markdown() string {
	lines := []string{"# Resume Creation Plan\n", fmt.Sprintf("**Rationale:** %s\n", p.Rationale)}
	for i, step := range p.Steps {
		deps := ""
		if len(step.Dependencies) > 0 {
			deps = fmt.Sprintf(" (depends on: %s)", strings.Join(step.Dependencies, ", "))
		}
		lines = append(lines, fmt.Sprintf("%d. **[%s]** %s%s", i+1, step.Action, step.Description, deps))
		if len(step.Params) > 0 {
			lines = append(lines, fmt.Sprintf("   - Params: %v", step.Params))
		}
	}
	return strings.Join(lines, "\n")
}

// Marshal 序列化为字节（供持久化保存）
func (p *Plan) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// Unmarshal 从字节反序列化
func (p *Plan) Unmarshal(data []byte) error {
	return json.Unmarshal(data, p)
}

// Clone 返回完全独立的深拷贝（JSON 往返），供修订与再标识使用
func (p *Plan) Clone() *Plan {
	data, err := json.Marshal(p)
	if err != nil {
		return &Plan{Rationale: p.Rationale, CreatedAt: p.CreatedAt}
	}
	var out Plan
	if err := json.Unmarshal(data, &out); err != nil {
		return &Plan{Rationale: p.Rationale, CreatedAt: p.CreatedAt}
	}
	return &out
}
