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

// Package workers 简历领域的专职 worker：扩写、精炼、匹配、搜索、
// 章节生成与 PDF 渲染。所有 worker 对 LLM 故障降级为可见的占位文本，
// 不向上抛错，保证对话流程不中断。
package workers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resume-platform/internal/model/llm"
	"resume-platform/pkg/metrics"
)

// Expansion 把简短要点扩写为有数据支撑的成就描述
type Expansion struct {
	client  llm.Client
	options llm.GenerateOptions
}

// NewExpansion 创建扩写 worker，client 可为 nil（降级输出占位文本）
func NewExpansion(client llm.Client, options llm.GenerateOptions) *Expansion {
	if options.MaxTokens <= 0 {
		options.MaxTokens = 200
	}
	return &Expansion{client: client, options: options}
}

// Expand 扩写单条要点。additionalContext 可为空。
func (w *Expansion) Expand(ctx context.Context, briefText, additionalContext string) string {
	if w.client == nil {
		return fmt.Sprintf("[EXPANDED - No LLM] %s", briefText)
	}
	defer observeWorker("expansion")()

	if additionalContext == "" {
		additionalContext = "N/A"
	}
	prompt := fmt.Sprintf(`Expand this brief bullet point into a detailed achievement description.

Brief text: %s

Context: %s

Guidelines:
- Start with a strong action verb
- Include specific metrics and quantifiable results where possible
- Highlight the impact and outcome
- Keep it concise but detailed (2-3 sentences max)
- Use professional tone suitable for a resume

Expanded description:`, briefText, additionalContext)

	response, err := w.client.GenerateWithContext(ctx, prompt, w.options)
	if err != nil {
		return fmt.Sprintf("[EXPANSION ERROR: %v] %s", err, briefText)
	}
	return strings.TrimSpace(response)
}

func observeWorker(name string) func() {
	start := time.Now()
	return func() {
		metrics.WorkerDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}
