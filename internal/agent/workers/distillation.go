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

package workers

import (
	"context"
	"fmt"
	"strings"

	"resume-platform/internal/model/llm"
)

// Distillation 把冗长文本提炼为简洁有力的表述
type Distillation struct {
	client  llm.Client
	options llm.GenerateOptions
}

// NewDistillation 创建精炼 worker，client 可为 nil
func NewDistillation(client llm.Client, options llm.GenerateOptions) *Distillation {
	if options.MaxTokens <= 0 {
		options.MaxTokens = 150
	}
	return &Distillation{client: client, options: options}
}

// Distill 精炼文本。maxWords <= 0 表示不限字数，preserveMetrics 保留数字指标。
func (w *Distillation) Distill(ctx context.Context, verboseText string, maxWords int, preserveMetrics bool) string {
	if w.client == nil {
		return fmt.Sprintf("[DISTILLED - No LLM] %s...", truncate(verboseText, 50))
	}
	defer observeWorker("distillation")()

	wordConstraint := ""
	if maxWords > 0 {
		wordConstraint = fmt.Sprintf("Maximum %d words. ", maxWords)
	}
	metricsInstruction := ""
	if preserveMetrics {
		metricsInstruction = "Preserve all numbers, metrics, and quantifiable results. "
	}

	prompt := fmt.Sprintf(`Distill this verbose text into a concise, impactful statement.

Verbose text: %s

Guidelines:
%s%s- Use strong action verbs
- Remove unnecessary words and filler
- Maintain professional tone
- Keep the core message and impact

Distilled version:`, verboseText, wordConstraint, metricsInstruction)

	response, err := w.client.GenerateWithContext(ctx, prompt, w.options)
	if err != nil {
		return fmt.Sprintf("[DISTILLATION ERROR: %v] %s...", err, truncate(verboseText, 50))
	}
	return strings.TrimSpace(response)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
