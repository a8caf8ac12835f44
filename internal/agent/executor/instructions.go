package executor

import (
	"fmt"

	"resume-platform/internal/agent/planner"
)

// StepInstruction 把计划步骤翻译为自然语言指令。
// 未知 action 退化为按描述执行。
func StepInstruction(step planner.PlanStep) string {
	switch step.Action {
	case "analyze_job":
		return "Analyze the job description and extract key requirements, focusing on technical skills and experience needed."
	case "search_company":
		return fmt.Sprintf("Search for information about %v and provide relevant context for a job candidate.",
			paramOr(step, "company_name", "the company"))
	case "match_skills":
		return "Identify and list the strongest matches between the candidate's experience and the job requirements."
	case "expand_achievements":
		return fmt.Sprintf("Expand the candidate's top %v achievements into detailed bullet points with metrics and impact.",
			paramOr(step, "count", 3))
	case "generate_draft":
		return fmt.Sprintf("Generate a complete %v resume in %v format.",
			paramOr(step, "length", ""), paramOr(step, "format", "markdown"))
	case "critique":
		return "Critique the current resume draft and identify specific areas for improvement."
	case "refine":
		return "Refine the resume based on the previous critique, implementing the suggested improvements."
	default:
		return fmt.Sprintf("Perform action: %s", step.Description)
	}
}

func paramOr(step planner.PlanStep, key string, fallback any) any {
	if v, ok := step.Params[key]; ok && v != nil && v != "" {
		return v
	}
	return fallback
}
