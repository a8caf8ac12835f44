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
	"encoding/json"
	"fmt"
	"strings"

	"resume-platform/internal/model/llm"
)

// Match 候选人经历与岗位要求的一条匹配
type Match struct {
	CandidateSnippet string  `json:"candidate_snippet"`
	JobRequirement   string  `json:"job_requirement"`
	Score            float64 `json:"score"`
	Model            string  `json:"model,omitempty"`
}

// Matching 候选人经历与岗位要求的语义匹配
type Matching struct {
	client  llm.Client
	options llm.GenerateOptions
}

// NewMatching 创建匹配 worker，client 可为 nil
func NewMatching(client llm.Client, options llm.GenerateOptions) *Matching {
	if options.MaxTokens <= 0 {
		options.MaxTokens = 500
	}
	// 匹配打分需要稳定输出
	options.Temperature = 0.3
	return &Matching{client: client, options: options}
}

// FindMatches 返回匹配列表。LLM 不可用或输出不可解析时返回单条占位匹配。
func (w *Matching) FindMatches(ctx context.Context, candidateText, jobRequirements string) []Match {
	if w.client == nil {
		return []Match{{CandidateSnippet: "N/A", JobRequirement: "N/A", Score: 0.0, Model: "none"}}
	}
	defer observeWorker("matching")()

	prompt := fmt.Sprintf(`Analyze the candidate's experience and identify how it matches the job requirements.

Job Requirements:
%s

Candidate Experience:
%s

For each relevant match, provide:
1. A specific snippet from the candidate's experience
2. The job requirement it addresses
3. How strong the match is (0.0 to 1.0)

Format as JSON array:
[{"candidate_snippet": "...", "job_requirement": "...", "score": 0.9}]`, jobRequirements, candidateText)

	response, err := w.client.GenerateWithContext(ctx, prompt, w.options)
	if err != nil {
		return []Match{{CandidateSnippet: fmt.Sprintf("[MATCHING ERROR: %v]", err), JobRequirement: "N/A", Score: 0.0, Model: w.client.Model()}}
	}

	var matches []Match
	if err := json.Unmarshal([]byte(extractJSONArray(response)), &matches); err != nil || len(matches) == 0 {
		return []Match{{CandidateSnippet: "N/A", JobRequirement: "N/A", Score: 0.0, Model: w.client.Model()}}
	}
	for i := range matches {
		matches[i].Model = w.client.Model()
	}
	return matches
}

// FormatMatches 渲染匹配列表为对话可读文本
func FormatMatches(matches []Match) string {
	lines := make([]string, 0, len(matches))
	for _, m := range matches {
		lines = append(lines, fmt.Sprintf("- Match (score %.2f): '%s' aligns with '%s'",
			m.Score, m.CandidateSnippet, m.JobRequirement))
	}
	return strings.Join(lines, "\n")
}

// extractJSONArray 从 LLM 输出中提取首个 JSON 数组
func extractJSONArray(text string) string {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}
