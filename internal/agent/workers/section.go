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

// Section 生成单个简历章节（experience、skills、summary 等）
type Section struct {
	client  llm.Client
	options llm.GenerateOptions
}

// NewSection 创建章节生成 worker，client 可为 nil
func NewSection(client llm.Client, options llm.GenerateOptions) *Section {
	if options.MaxTokens <= 0 {
		options.MaxTokens = 2000
	}
	return &Section{client: client, options: options}
}

// SectionInput 章节生成的上下文
type SectionInput struct {
	SectionName   string
	Guidance      string // 可为空
	JobInfo       string
	CandidateInfo string
	StateSummary  string // 已积累工作的摘要，可为空
}

// Generate 生成 markdown 格式的章节内容
func (w *Section) Generate(ctx context.Context, in SectionInput) string {
	if w.client == nil {
		return fmt.Sprintf("[SECTION - No LLM] %s", in.SectionName)
	}
	defer observeWorker("section")()

	guidance := ""
	if in.Guidance != "" {
		guidance = fmt.Sprintf("Additional Guidance: %s", in.Guidance)
	}
	stateSummary := in.StateSummary
	if stateSummary == "" {
		stateSummary = "No accumulated work yet."
	}

	prompt := fmt.Sprintf(`Generate a %s section for a resume.

Job Description:
%s

Candidate Information:
%s

%s

Accumulated Context:
%s

Generate a professional, ATS-friendly %s section in markdown format.`,
		in.SectionName, in.JobInfo, in.CandidateInfo, guidance, stateSummary, in.SectionName)

	response, err := w.client.GenerateWithContext(ctx, prompt, w.options)
	if err != nil {
		return fmt.Sprintf("Error generating content: %v", err)
	}
	return strings.TrimSpace(response)
}
