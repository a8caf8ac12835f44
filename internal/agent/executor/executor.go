package executor

import (
	"context"
	"time"

	"resume-platform/internal/agent/planner"
	"resume-platform/internal/runtime/session"
	"resume-platform/pkg/log"
	"resume-platform/pkg/metrics"
)

// Decision 交互模式下用户对单步的裁决
type Decision string

const (
	Approve Decision = "approve"
	Decline Decision = "decline"
	Skip    Decision = "skip"
)

// ApprovalFunc 交互模式下逐步征询的回调
type ApprovalFunc func(step planner.PlanStep) Decision

// StepResult 单步执行结果
type StepResult struct {
	Action      string    `json:"action"`
	Description string    `json:"description"`
	Response    string    `json:"response"`
	Timestamp   time.Time `json:"timestamp"`
}

// Result 计划执行结果。失败形态彼此可区分：
// 校验失败（ValidationErrors 非空）、死锁（Deadlock 为 true）、
// 持久化失败（SaveError 非空，执行中止）、
// 用户中止（Success 为 true 但步骤不全）。
type Result struct {
	Success          bool                  `json:"success"`
	ValidationErrors []string              `json:"validation_errors,omitempty"`
	Deadlock         bool                  `json:"deadlock,omitempty"`
	SaveError        string                `json:"save_error,omitempty"`
	CompletedSteps   []string              `json:"completed_steps"`
	Results          map[string]StepResult `json:"results"`
}

// Options 执行选项。Interactive 为 true 时必须提供 Approve 回调
type Options struct {
	Interactive bool
	Approve     ApprovalFunc
}

// Executor 逐步执行计划：每轮取可执行前沿的第一个步骤，
// 翻译为指令交给会话处理。执行期间会话切到 auto 模式，结束后恢复。
type Executor struct {
	logger *log.Logger
}

// New 创建执行器
func New(logger *log.Logger) *Executor {
	if logger == nil {
		logger = log.Default()
	}
	return &Executor{logger: logger}
}

// ExecutePlan 执行计划并返回结果。
// 非法计划直接拒绝，零步骤已执行；死锁返回已有的部分结果；
// 持久化失败中止执行（已有回复不丢弃，SaveError 记录原因）；
// 交互模式下 Decline 停止执行但保留部分结果（Success 为 true）。
func (e *Executor) ExecutePlan(ctx context.Context, sess *session.Session, plan *planner.Plan, opts Options) *Result {
	errs := plan.Validate()
	if opts.Interactive && opts.Approve == nil {
		errs = append(errs, "interactive execution requires an approval callback")
	}
	if len(errs) > 0 {
		metrics.PlanExecuteTotal.WithLabelValues("invalid").Inc()
		return &Result{
			Success:          false,
			ValidationErrors: errs,
			CompletedSteps:   []string{},
			Results:          map[string]StepResult{},
		}
	}

	completed := make(map[string]bool, len(plan.Steps))
	result := &Result{
		CompletedSteps: []string{},
		Results:        map[string]StepResult{},
	}

	// 执行期间切到 auto，结束后恢复原模式（含失败路径）。
	// 恢复侧的持久化失败同样写入 SaveError，不静默丢弃。
	originalMode := sess.Mode()
	defer func() {
		if err := sess.SwitchMode(ctx, originalMode); err != nil {
			e.logger.Error("mode restore persist failed", "session_id", sess.ID, "error", err)
			if result.SaveError == "" {
				metrics.PlanExecuteTotal.WithLabelValues("persist_error").Inc()
				result.SaveError = err.Error()
				result.Success = false
			}
		}
	}()
	if err := sess.SwitchMode(ctx, session.ModeAuto); err != nil {
		e.logger.Error("mode switch persist failed", "session_id", sess.ID, "error", err)
		metrics.PlanExecuteTotal.WithLabelValues("persist_error").Inc()
		result.SaveError = err.Error()
		return result
	}

	for len(completed) < len(plan.Steps) {
		executable := plan.ExecutableSteps(completed)
		if len(executable) == 0 {
			metrics.PlanExecuteTotal.WithLabelValues("deadlock").Inc()
			result.Deadlock = true
			return result
		}

		step := executable[0]

		if opts.Interactive && opts.Approve != nil {
			switch opts.Approve(step) {
			case Decline:
				metrics.PlanStepTotal.WithLabelValues("declined").Inc()
				result.Success = true
				return result
			case Skip:
				metrics.PlanStepTotal.WithLabelValues("skipped").Inc()
				completed[step.ID] = true
				result.CompletedSteps = append(result.CompletedSteps, step.ID)
				continue
			}
		}

		instruction := StepInstruction(step)
		e.logger.Info("executing plan step", "session_id", sess.ID, "step_id", step.ID, "action", step.Action)

		response, err := sess.Chat(ctx, instruction)

		// Chat 的 error 只表示持久化失败，回复文本仍然有效：
		// 记录本步结果后中止执行，避免后续步骤静默丢失工作
		result.Results[step.ID] = StepResult{
			Action:      step.Action,
			Description: step.Description,
			Response:    response,
			Timestamp:   time.Now(),
		}
		completed[step.ID] = true
		result.CompletedSteps = append(result.CompletedSteps, step.ID)
		metrics.PlanStepTotal.WithLabelValues("executed").Inc()

		if err != nil {
			e.logger.Error("step persist failed, aborting plan", "session_id", sess.ID, "step_id", step.ID, "error", err)
			metrics.PlanExecuteTotal.WithLabelValues("persist_error").Inc()
			result.SaveError = err.Error()
			return result
		}
	}

	metrics.PlanExecuteTotal.WithLabelValues("success").Inc()
	result.Success = true
	return result
}
