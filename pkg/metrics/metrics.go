package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供 API/CLI 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		ChatDuration, ChatTotal,
		PlanStepTotal, PlanExecuteTotal,
		WorkerDuration, LLMTokensTotal,
		RateLimitWaitSeconds, SessionSaveTotal,
	)
}

// ChatDuration 单轮对话处理耗时（秒）
var ChatDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "resume_chat_duration_seconds",
		Help:    "单轮对话处理耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"mode"},
)

// ChatTotal 对话轮次总数（按结果）
var ChatTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "resume_chat_total",
		Help: "对话轮次总数（按结果）",
	},
	[]string{"status"}, // ok | degraded | error
)

// PlanStepTotal 计划步骤总数（按终态）
var PlanStepTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "resume_plan_step_total",
		Help: "计划步骤总数（按终态）",
	},
	[]string{"status"}, // executed | skipped | declined
)

// PlanExecuteTotal 计划执行总数（按终态）
var PlanExecuteTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "resume_plan_execute_total",
		Help: "计划执行总数（按终态）",
	},
	[]string{"status"}, // success | invalid | deadlock
)

// WorkerDuration Worker 调用耗时（秒）
var WorkerDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "resume_worker_duration_seconds",
		Help:    "Worker 调用耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"worker"},
)

// LLMTokensTotal LLM 调用 token 数
var LLMTokensTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "resume_llm_tokens_total",
		Help: "LLM 调用 token 总数",
	},
	[]string{"direction"}, // input | output
)

// RateLimitWaitSeconds 限流等待耗时（秒）
var RateLimitWaitSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "resume_rate_limit_wait_seconds",
		Help:    "限流等待耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"kind", "target"},
)

// SessionSaveTotal Session 持久化总数（按结果）
var SessionSaveTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "resume_session_save_total",
		Help: "Session 持久化总数（按结果）",
	},
	[]string{"status"}, // ok | error
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 等复用）
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
