package genai

import (
	"fmt"

	"github.com/interview-iq/backend/internal/storage/models"
)

// Fallback artifacts keep the pipeline moving when a model response
// cannot be parsed or fails shape validation. Each one contains every
// required schema key, echoes whatever upstream data is available, and
// carries an explicit low-confidence marker.

func fallbackProfile(companyName string, scraped *models.ScrapeSummary) map[string]any {
	name := companyName
	description := ""
	if scraped != nil {
		if scraped.Name != "" {
			name = scraped.Name
		}
		description = scraped.Description
	}
	if description == "" {
		description = fmt.Sprintf("No verified description available for %s.", name)
	}

	return map[string]any{
		"name":     name,
		"industry": "unknown",
		"region":   "unknown",
		"stage":    "growth",
		"description": description,
		"business_model": map[string]any{
			"type":            "unknown",
			"revenue_streams": []any{},
		},
		"key_people":      []any{},
		"competitors":     []any{},
		"key_initiatives": []any{},
		"risks":           []any{},
		"hypotheses": []any{
			"Profile generation degraded; treat all fields as unverified.",
		},
		"confidence_level": "low",
	}
}

func fallbackQuestions(companyName string) []models.Question {
	if companyName == "" {
		companyName = "the company"
	}
	q := func(id, text, category, depth, rationale string) models.Question {
		return models.Question{
			ID:        id,
			Question:  text,
			Category:  category,
			Depth:     depth,
			Rationale: rationale,
			FollowUps: []string{},
		}
	}

	rationale := "Fallback question; generation degraded so nothing company-specific could be referenced."
	return []models.Question{
		q("q1", fmt.Sprintf("How did you come to work at %s?", companyName), models.CategoryRapport, models.DepthSurface, rationale),
		q("q2", "What does a typical week look like in your role?", models.CategoryRapport, models.DepthSurface, rationale),
		q("q3", "What first attracted you to this industry?", models.CategoryRapport, models.DepthSurface, rationale),
		q("q4", fmt.Sprintf("How does %s make money today, and how has that changed?", companyName), models.CategoryBusinessModel, models.DepthDeep, rationale),
		q("q5", "Who do you see as your most serious competitor, and why?", models.CategoryMarket, models.DepthDeep, rationale),
		q("q6", "Which customer segment is growing fastest for you right now?", models.CategoryMarket, models.DepthDeep, rationale),
		q("q7", "What is the hardest operational problem the team is working through?", models.CategoryChallenges, models.DepthDeep, rationale),
		q("q8", "How would you describe the culture to someone joining next month?", models.CategoryCulture, models.DepthSurface, rationale),
		q("q9", "What is something outsiders consistently get wrong about the business?", models.CategoryCorrections, models.DepthDeep, rationale),
		q("q10", "Is there anything in how I framed these questions that misses the mark?", models.CategoryCorrections, models.DepthSurface, rationale),
	}
}

func fallbackBrief(profile map[string]any, questions []models.Question) map[string]any {
	description, _ := profile["description"].(string)
	if description == "" {
		description = "Company overview unavailable; brief generation degraded."
	}

	refs := make([]any, 0, len(questions))
	core := make([]any, 0, len(questions))
	for _, question := range questions {
		refs = append(refs, question.Ref())
		core = append(core, question.Question)
	}

	return map[string]any{
		"executive_summary":   "Brief generation degraded; contents assembled from upstream data with low confidence.",
		"company_overview":    description,
		"industry_context":    "Industry context unavailable.",
		"pre_call_hypotheses": []any{},
		"questions":           refs,
		"conversation_flow": map[string]any{
			"opening": "Open with introductions and the purpose of the conversation.",
			"core":    core,
			"closing": "Thank the interviewee and confirm next steps.",
		},
		"key_facts": []any{},
	}
}

func fallbackPacket(profile map[string]any, refs []models.QuestionRef) map[string]any {
	summary, _ := profile["description"].(string)
	if summary == "" {
		summary = "Company summary unavailable; packet generation degraded."
	}

	menu := make([]any, 0, len(refs))
	for _, ref := range refs {
		menu = append(menu, ref)
	}

	return map[string]any{
		"ai_findings": map[string]any{
			"company_summary":   summary,
			"key_facts":         []any{},
			"topics_identified": []any{},
		},
		"questions_menu":  menu,
		"invitation_text": "We would value your perspective in an upcoming conversation. A menu of topics is attached; please flag anything you would like to correct or expand on.",
	}
}
