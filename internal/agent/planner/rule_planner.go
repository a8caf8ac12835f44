package planner

// 计划模式
const (
	ModeStandard      = "standard"
	ModeComprehensive = "comprehensive"
)

// Propose 按模式生成默认计划。计划是结构化对象，执行前可由用户编辑。
func Propose(mode string) *Plan {
	if mode == ModeComprehensive {
		steps := []PlanStep{
			{
				ID:          "step_1",
				Action:      "analyze_job",
				Description: "Analyze job description to extract key requirements and priorities",
				Params:      map[string]any{},
			},
			{
				ID:           "step_2",
				Action:       "search_company",
				Description:  "Research the company to understand culture and values",
				Params:       map[string]any{"company_name": "extracted_from_job_info"},
				Dependencies: []string{"step_1"},
			},
			{
				ID:           "step_3",
				Action:       "match_skills",
				Description:  "Identify strongest matches between candidate experience and job requirements",
				Params:       map[string]any{},
				Dependencies: []string{"step_1"},
			},
			{
				ID:           "step_4",
				Action:       "expand_achievements",
				Description:  "Expand top 3-5 achievements with metrics and impact",
				Params:       map[string]any{"count": 5},
				Dependencies: []string{"step_3"},
			},
			{
				ID:           "step_5",
				Action:       "generate_draft",
				Description:  "Generate complete resume draft in markdown",
				Params:       map[string]any{"format": "markdown", "length": "1-page"},
				Dependencies: []string{"step_4"},
			},
			{
				ID:           "step_6",
				Action:       "critique",
				Description:  "Review and critique the draft for improvements",
				Params:       map[string]any{},
				Dependencies: []string{"step_5"},
			},
			{
				ID:           "step_7",
				Action:       "refine",
				Description:  "Apply improvements from critique",
				Params:       map[string]any{},
				Dependencies: []string{"step_6"},
			},
		}
		return NewPlan(steps, "Comprehensive approach: research company, match skills carefully, expand key achievements, then generate and refine.")
	}

	steps := []PlanStep{
		{
			ID:          "step_1",
			Action:      "analyze_job",
			Description: "Extract key requirements from job description",
			Params:      map[string]any{},
		},
		{
			ID:           "step_2",
			Action:       "expand_achievements",
			Description:  "Expand candidate's top 3 achievements",
			Params:       map[string]any{"count": 3},
			Dependencies: []string{"step_1"},
		},
		{
			ID:           "step_3",
			Action:       "generate_draft",
			Description:  "Generate resume draft",
			Params:       map[string]any{"format": "markdown"},
			Dependencies: []string{"step_2"},
		},
	}
	return NewPlan(steps, "Standard approach: analyze requirements, expand key achievements, generate resume.")
}
