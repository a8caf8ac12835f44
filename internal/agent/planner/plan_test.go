package planner

import (
	"context"
	"strings"
	"testing"

	"resume-platform/internal/model/llm"
)

func TestValidate_ValidPlan(t *testing.T) {
	plan := Propose(ModeStandard)
	if errs := plan.Validate(); len(errs) != 0 {
		t.Errorf("standard plan should validate cleanly, got %v", errs)
	}
	plan = Propose(ModeComprehensive)
	if errs := plan.Validate(); len(errs) != 0 {
		t.Errorf("comprehensive plan should validate cleanly, got %v", errs)
	}
}

func TestValidate_DanglingDependency(t *testing.T) {
	plan := NewPlan([]PlanStep{
		{ID: "a", Action: "analyze_job"},
		{ID: "b", Action: "generate_draft", Dependencies: []string{"missing"}},
	}, "test")
	errs := plan.Validate()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	if !strings.Contains(errs[0], "non-existent") || !strings.Contains(errs[0], "missing") {
		t.Errorf("error should name the dangling dependency: %s", errs[0])
	}
}

func TestValidate_SelfDependency(t *testing.T) {
	plan := NewPlan([]PlanStep{
		{ID: "a", Action: "analyze_job", Dependencies: []string{"a"}},
	}, "test")
	errs := plan.Validate()
	found := false
	for _, e := range errs {
		if strings.Contains(e, "depends on itself") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected self-dependency error, got %v", errs)
	}
}

func TestValidate_Cycle(t *testing.T) {
	plan := NewPlan([]PlanStep{
		{ID: "a", Action: "analyze_job", Dependencies: []string{"c"}},
		{ID: "b", Action: "match_skills", Dependencies: []string{"a"}},
		{ID: "c", Action: "generate_draft", Dependencies: []string{"b"}},
	}, "test")
	errs := plan.Validate()
	cycles := 0
	for _, e := range errs {
		if strings.Contains(e, "cycle") {
			cycles++
		}
	}
	// 只报告首个环，不枚举所有环
	if cycles != 1 {
		t.Errorf("expected exactly one cycle error, got %v", errs)
	}
}

func TestValidate_Idempotent(t *testing.T) {
	plan := NewPlan([]PlanStep{
		{ID: "a", Action: "x", Dependencies: []string{"b"}},
		{ID: "b", Action: "y", Dependencies: []string{"a"}},
	}, "test")
	first := plan.Validate()
	second := plan.Validate()
	if len(first) != len(second) {
		t.Errorf("validation should be side-effect free: %v vs %v", first, second)
	}
}

func TestExecutableSteps_Order(t *testing.T) {
	plan := NewPlan([]PlanStep{
		{ID: "a", Action: "analyze_job"},
		{ID: "b", Action: "search_company"},
		{ID: "c", Action: "generate_draft", Dependencies: []string{"a", "b"}},
	}, "test")

	frontier := plan.ExecutableSteps(map[string]bool{})
	if len(frontier) != 2 || frontier[0].ID != "a" || frontier[1].ID != "b" {
		t.Fatalf("frontier should be [a b] in declared order, got %+v", frontier)
	}

	frontier = plan.ExecutableSteps(map[string]bool{"a": true})
	if len(frontier) != 1 || frontier[0].ID != "b" {
		t.Fatalf("c still blocked on b, got %+v", frontier)
	}

	frontier = plan.ExecutableSteps(map[string]bool{"a": true, "b": true})
	if len(frontier) != 1 || frontier[0].ID != "c" {
		t.Fatalf("c should unblock, got %+v", frontier)
	}

	frontier = plan.ExecutableSteps(map[string]bool{"a": true, "b": true, "c": true})
	if len(frontier) != 0 {
		t.Fatalf("all completed, got %+v", frontier)
	}
}

func TestClone_Independent(t *testing.T) {
	plan := Propose(ModeStandard)
	clone := plan.Clone()
	clone.Steps[0].Description = "changed"
	clone.Steps[0].Params["count"] = 99
	if plan.Steps[0].Description == "changed" {
		t.Error("clone should not share step slice")
	}
	if plan.Steps[0].Params["count"] == 99 {
		t.Error("clone should not share params map")
	}
}

func TestMarkdown_ContainsStepsAndDeps(t *testing.T) {
	plan := Propose(ModeComprehensive)
	md := plan.Markdown()
	if !strings.Contains(md, "Resume Creation Plan") {
		t.Error("missing title")
	}
	if !strings.Contains(md, "search_company") || !strings.Contains(md, "depends on: step_6") {
		t.Errorf("missing step/dependency rendering:\n%s", md)
	}
}

// stubClient 返回固定响应的 LLM 客户端
type stubClient struct {
	response string
	err      error
}

func (s *stubClient) Generate(prompt string, options llm.GenerateOptions) (string, error) {
	return s.response, s.err
}

func (s *stubClient) GenerateWithContext(ctx context.Context, prompt string, options llm.GenerateOptions) (string, error) {
	return s.response, s.err
}

func (s *stubClient) Chat(messages []llm.Message, options llm.GenerateOptions) (string, error) {
	return s.response, s.err
}

func (s *stubClient) ChatWithContext(ctx context.Context, messages []llm.Message, options llm.GenerateOptions) (string, error) {
	return s.response, s.err
}

func (s *stubClient) Model() string    { return "stub" }
func (s *stubClient) Provider() string { return "stub" }

func defaultOptions() llm.GenerateOptions {
	return llm.GenerateOptions{Temperature: 0.3, MaxTokens: 2048}
}

func TestRevise_NoClient(t *testing.T) {
	plan := Propose(ModeStandard)
	r := NewReviser(nil, defaultOptions())
	revised := r.Revise(context.Background(), plan, "add a critique step")
	if !strings.Contains(revised.Rationale, "User requested: add a critique step") {
		t.Errorf("rationale should carry the instruction: %s", revised.Rationale)
	}
	if len(revised.Steps) != len(plan.Steps) {
		t.Error("steps should be preserved")
	}
	// 原计划不被修改
	if strings.Contains(plan.Rationale, "User requested") {
		t.Error("original plan must stay untouched")
	}
}

func TestRevise_ParsesLLMJSON(t *testing.T) {
	response := `Here is the revised plan:
{"rationale": "revised", "steps": [
  {"id": "step_1", "action": "analyze_job", "description": "analyze", "params": {}, "dependencies": []},
  {"id": "step_2", "action": "critique", "description": "critique", "params": {}, "dependencies": ["step_1"]}
]}`
	r := NewReviser(&stubClient{response: response}, defaultOptions())
	revised := r.Revise(context.Background(), Propose(ModeStandard), "replace steps")
	if len(revised.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %+v", revised.Steps)
	}
	if revised.Steps[1].Action != "critique" || revised.Rationale != "revised" {
		t.Errorf("revised plan: %+v", revised)
	}
	if errs := revised.Validate(); len(errs) != 0 {
		t.Errorf("revised plan should validate: %v", errs)
	}
}

func TestRevise_NonJSONFallback(t *testing.T) {
	r := NewReviser(&stubClient{response: "I cannot do that"}, defaultOptions())
	plan := Propose(ModeStandard)
	revised := r.Revise(context.Background(), plan, "do something")
	if !strings.Contains(revised.Rationale, "non-JSON") {
		t.Errorf("rationale should note the fallback: %s", revised.Rationale)
	}
	if len(revised.Steps) != len(plan.Steps) {
		t.Error("steps should survive a failed revision")
	}
}
