package executor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"resume-platform/internal/agent/planner"
	"resume-platform/internal/runtime/session"
)

// scriptedProcessor 记录收到的指令并返回固定回复
type scriptedProcessor struct {
	instructions []string
	err          error
}

func (p *scriptedProcessor) Process(ctx context.Context, sess *session.Session, instruction string) (string, error) {
	p.instructions = append(p.instructions, instruction)
	if p.err != nil {
		return "", p.err
	}
	return "done: " + instruction, nil
}

func newExecSession(proc session.Processor) *session.Session {
	return session.New("Senior ML Engineer at TechCo", "5 years Python, ML experience",
		session.Options{Processor: proc})
}

func linearPlan() *planner.Plan {
	return planner.NewPlan([]planner.PlanStep{
		{ID: "a", Action: "analyze_job", Description: "analyze"},
		{ID: "b", Action: "match_skills", Description: "match", Dependencies: []string{"a"}},
		{ID: "c", Action: "generate_draft", Description: "draft", Params: map[string]any{"format": "markdown"}, Dependencies: []string{"a", "b"}},
	}, "test")
}

func TestExecutePlan_AllSteps(t *testing.T) {
	proc := &scriptedProcessor{}
	sess := newExecSession(proc)
	result := New(nil).ExecutePlan(context.Background(), sess, linearPlan(), Options{})

	if !result.Success || result.Deadlock || len(result.ValidationErrors) != 0 {
		t.Fatalf("result: %+v", result)
	}
	if len(result.CompletedSteps) != 3 {
		t.Fatalf("completed: %v", result.CompletedSteps)
	}
	// 依赖序：a 先于 b 先于 c
	order := strings.Join(result.CompletedSteps, ",")
	if order != "a,b,c" {
		t.Errorf("execution order: %s", order)
	}
	if r := result.Results["c"]; r.Action != "generate_draft" || !strings.Contains(r.Response, "markdown") {
		t.Errorf("step result: %+v", r)
	}
	if r := result.Results["a"]; r.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
	if len(proc.instructions) != 3 {
		t.Errorf("instructions: %v", proc.instructions)
	}
}

func TestExecutePlan_InvalidPlanRefused(t *testing.T) {
	proc := &scriptedProcessor{}
	sess := newExecSession(proc)
	plan := planner.NewPlan([]planner.PlanStep{
		{ID: "a", Action: "x", Dependencies: []string{"b"}},
		{ID: "b", Action: "y", Dependencies: []string{"a"}},
	}, "cyclic")

	result := New(nil).ExecutePlan(context.Background(), sess, plan, Options{})
	if result.Success {
		t.Fatal("cyclic plan must be refused")
	}
	if len(result.ValidationErrors) == 0 {
		t.Fatal("validation errors expected")
	}
	if len(result.CompletedSteps) != 0 || len(proc.instructions) != 0 {
		t.Errorf("nothing should execute: %+v", result)
	}
	// 拒绝发生在模式切换之前
	if sess.Memory.Len() != 0 {
		t.Errorf("no turns expected, got %d", sess.Memory.Len())
	}
}

func TestExecutePlan_ModeRestored(t *testing.T) {
	sess := newExecSession(&scriptedProcessor{})
	New(nil).ExecutePlan(context.Background(), sess, linearPlan(), Options{})

	if sess.Mode() != session.ModeManual {
		t.Errorf("mode should be restored, got %s", sess.Mode())
	}
	var modeTurns []string
	for _, turn := range sess.Memory.AllTurns() {
		if turn.Metadata["mode_change"] == true {
			modeTurns = append(modeTurns, turn.Content)
		}
	}
	if len(modeTurns) != 2 {
		t.Fatalf("expected switch to auto and back, got %v", modeTurns)
	}
	if !strings.Contains(modeTurns[0], "auto") || !strings.Contains(modeTurns[1], "manual") {
		t.Errorf("mode turns: %v", modeTurns)
	}
}

func TestExecutePlan_InteractiveDeclineKeepsPartialResults(t *testing.T) {
	sess := newExecSession(&scriptedProcessor{})
	calls := 0
	approve := func(step planner.PlanStep) Decision {
		calls++
		if step.ID == "b" {
			return Decline
		}
		return Approve
	}

	result := New(nil).ExecutePlan(context.Background(), sess, linearPlan(),
		Options{Interactive: true, Approve: approve})

	// 用户中止不是失败：保留已完成的部分
	if !result.Success {
		t.Fatalf("decline should not be a failure: %+v", result)
	}
	if len(result.CompletedSteps) != 1 || result.CompletedSteps[0] != "a" {
		t.Errorf("completed: %v", result.CompletedSteps)
	}
	if _, ok := result.Results["b"]; ok {
		t.Error("declined step must not have a result")
	}
	if calls != 2 {
		t.Errorf("approval calls: %d", calls)
	}
	if sess.Mode() != session.ModeManual {
		t.Error("mode should be restored after decline")
	}
}

func TestExecutePlan_InteractiveSkip(t *testing.T) {
	proc := &scriptedProcessor{}
	sess := newExecSession(proc)
	approve := func(step planner.PlanStep) Decision {
		if step.ID == "b" {
			return Skip
		}
		return Approve
	}

	result := New(nil).ExecutePlan(context.Background(), sess, linearPlan(),
		Options{Interactive: true, Approve: approve})

	if !result.Success || len(result.CompletedSteps) != 3 {
		t.Fatalf("result: %+v", result)
	}
	// 跳过的步骤算完成（解锁后继）但没有执行结果
	if _, ok := result.Results["b"]; ok {
		t.Error("skipped step must not have a result")
	}
	if len(proc.instructions) != 2 {
		t.Errorf("skipped step must not reach the session: %v", proc.instructions)
	}
}

func TestExecutePlan_ErrorResponseStillCompletesStep(t *testing.T) {
	// supervisor 和降级路径都不可用：回复是可见的错误文本，步骤照常推进
	sess := newExecSession(&scriptedProcessor{err: errors.New("model down")})
	result := New(nil).ExecutePlan(context.Background(), sess, linearPlan(), Options{})

	if !result.Success || len(result.CompletedSteps) != 3 {
		t.Fatalf("result: %+v", result)
	}
	if !strings.Contains(result.Results["a"].Response, "Error:") {
		t.Errorf("visible error text expected: %+v", result.Results["a"])
	}
}

// flakyStore 从第 failFrom 次 Save 起返回错误（1 起计）
type flakyStore struct {
	saves    int
	failFrom int
}

func (s *flakyStore) Save(ctx context.Context, rec *session.Record) error {
	s.saves++
	if s.saves >= s.failFrom {
		return errors.New("disk full")
	}
	return nil
}

func TestExecutePlan_PersistFailureAbortsRun(t *testing.T) {
	// 进入 auto 的落盘成功，第一步之后开始失败
	proc := &scriptedProcessor{}
	store := &flakyStore{failFrom: 2}
	sess := session.New("job", "candidate",
		session.Options{Processor: proc, Store: store, AutoPersist: true})

	result := New(nil).ExecutePlan(context.Background(), sess, linearPlan(), Options{})

	if result.Success {
		t.Fatalf("persist failure must not report success: %+v", result)
	}
	if result.SaveError == "" || !strings.Contains(result.SaveError, "disk full") {
		t.Errorf("save error expected, got %q", result.SaveError)
	}
	// 失败步骤的回复不丢弃，但后续步骤不再执行
	if len(result.CompletedSteps) != 1 || result.CompletedSteps[0] != "a" {
		t.Errorf("completed: %v", result.CompletedSteps)
	}
	if !strings.Contains(result.Results["a"].Response, "done:") {
		t.Errorf("step response should survive persist failure: %+v", result.Results["a"])
	}
	if len(proc.instructions) != 1 {
		t.Errorf("remaining steps must not run: %v", proc.instructions)
	}
	if sess.Mode() != session.ModeManual {
		t.Errorf("mode should be restored, got %s", sess.Mode())
	}
}

func TestExecutePlan_ModeSwitchPersistFailureRefusesRun(t *testing.T) {
	proc := &scriptedProcessor{}
	store := &flakyStore{failFrom: 1}
	sess := session.New("job", "candidate",
		session.Options{Processor: proc, Store: store, AutoPersist: true})

	result := New(nil).ExecutePlan(context.Background(), sess, linearPlan(), Options{})

	if result.Success || result.SaveError == "" {
		t.Fatalf("result: %+v", result)
	}
	if len(result.CompletedSteps) != 0 || len(proc.instructions) != 0 {
		t.Errorf("nothing should execute when the switch cannot persist: %+v", result)
	}
	if sess.Mode() != session.ModeManual {
		t.Errorf("mode should be restored, got %s", sess.Mode())
	}
}

func TestExecutePlan_InteractiveRequiresApproval(t *testing.T) {
	proc := &scriptedProcessor{}
	sess := newExecSession(proc)

	result := New(nil).ExecutePlan(context.Background(), sess, linearPlan(), Options{Interactive: true})

	if result.Success {
		t.Fatal("interactive without callback must be refused")
	}
	found := false
	for _, e := range result.ValidationErrors {
		if strings.Contains(e, "approval callback") {
			found = true
		}
	}
	if !found {
		t.Errorf("validation errors: %v", result.ValidationErrors)
	}
	if len(proc.instructions) != 0 || sess.Memory.Len() != 0 {
		t.Errorf("nothing should execute: %+v", result)
	}
}

func TestExecutePlan_ValidPlanNeverDeadlocks(t *testing.T) {
	sess := newExecSession(&scriptedProcessor{})
	plan := planner.Propose(planner.ModeComprehensive)
	result := New(nil).ExecutePlan(context.Background(), sess, plan, Options{})

	if result.Deadlock {
		t.Fatal("valid plan must not deadlock")
	}
	if len(result.CompletedSteps) != len(plan.Steps) {
		t.Errorf("all steps should complete: %v", result.CompletedSteps)
	}
}

func TestStepInstruction_Templates(t *testing.T) {
	cases := []struct {
		step planner.PlanStep
		want string
	}{
		{planner.PlanStep{Action: "search_company", Params: map[string]any{"company_name": "TechCo"}}, "TechCo"},
		{planner.PlanStep{Action: "expand_achievements", Params: map[string]any{"count": 5}}, "top 5"},
		{planner.PlanStep{Action: "expand_achievements"}, "top 3"},
		{planner.PlanStep{Action: "generate_draft"}, "markdown"},
		{planner.PlanStep{Action: "unknown_action", Description: "do the thing"}, "Perform action: do the thing"},
	}
	for _, c := range cases {
		got := StepInstruction(c.step)
		if !strings.Contains(got, c.want) {
			t.Errorf("instruction for %s: %q should contain %q", c.step.Action, got, c.want)
		}
	}
}
