package coach

import (
	"fmt"
	"strings"

	"github.com/cubicleally/ai-gateway/internal/models"
)

// Prompt templates. The wording is product copy; the engineering contract is
// only that candidate lists quote exact catalog codes and that responses
// follow the JSON shapes the extractor expects.

const interpretSystem = `You are helping match a user's job title to standardized occupations from the O*NET database.

Your goal is to understand what the user actually does and match them to the most appropriate standardized occupation(s).

Be conversational and helpful. If the title is unclear, ask clarifying questions about their day-to-day work.`

const enhanceSystem = `You are a career coach helping someone document their work accomplishments for a promotion case.

Strengthen their statements with strong action verbs, quantifiable results where possible, and the format Action + Scope + Result. Keep it to 1-2 sentences. If specific numbers aren't provided, add bracketed placeholders like [X%] that the user should fill in.

Do NOT invent fake numbers or accomplishments. Only strengthen what they've provided.`

const coachingSystem = `You are a practical career development coach. You give specific, actionable advice - not generic platitudes. Your advice should be specific to the user's current and target roles, actionable within their current job, realistic, and encouraging but honest.`

const documentSystem = `You are a professional career coach helping someone write a compelling promotion case document.

Use their actual evidence - never invent accomplishments. Include specific numbers they provided and add [bracketed placeholders] for anything they should fill in. Match the requested tone. Keep total length to 500-800 words. Write from the employee's perspective (first person).`

const pathsSystem = `You are a career counselor helping someone explore realistic next steps in their career.

Your suggestions should be realistic and achievable, based on skill transferability, and varied - include both upward moves AND lateral moves that build new skills.`

func interpretPrompt(title, description string, candidates []models.Occupation) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "The user entered %q as their job title.\n\n", title)
	if description != "" {
		fmt.Fprintf(&sb, "Additional context from user: %s\n\n", description)
	}

	sb.WriteString("Here are potential matching occupations from our database:\n")
	for _, occ := range candidates {
		desc := occ.Description
		if len(desc) > 200 {
			desc = desc[:200]
		}
		fmt.Fprintf(&sb, "- %s: %s - %s\n", occ.Code, occ.Title, desc)
	}

	sb.WriteString(`
Based on the information provided, rank the top 3 most likely matches.

Format your response as JSON:
{
  "needs_clarification": false,
  "clarifying_question": null,
  "matches": [
    {"code": "...", "title": "...", "confidence": 85, "explanation": "..."}
  ]
}

If you need more information to make a good match, set needs_clarification to true and provide a friendly clarifying_question.`)

	return sb.String()
}

func enhancePrompt(text, skillName string) string {
	return fmt.Sprintf(`Original accomplishment:
%q

Related skill: %s

Provide an enhanced version, a list of any placeholders you added, and one optional tip.

Format as JSON:
{
  "enhanced": "...",
  "placeholders": ["budget amount", "percentage improvement"],
  "tip": "..."
}`, text, skillName)
}

func coachingPrompt(req CoachingRequest) string {
	return fmt.Sprintf(`The user is trying to advance from %s to %s.

They have a gap in the skill: %q
Skill description: %s
Their industry: %s

Provide coaching in this exact JSON format:
{
  "why_it_matters": "2-3 sentences on why this skill matters for the target role",
  "develop_at_work": ["specific action", "another action"],
  "develop_independently": ["course or resource", "practice exercise"],
  "how_to_demonstrate": ["what to document", "metrics to highlight"]
}

Be specific.`, orDefault(req.CurrentRole, "their current role"),
		orDefault(req.TargetRole, "their target role"),
		req.SkillName, req.SkillDescription, orDefault(req.Industry, "general"))
}

func documentPrompt(req DocumentRequest) string {
	return fmt.Sprintf(`Generate a promotion case document with this context:

Current role: %s
Target role: %s
Industry: %s
Audience: %s
Tone: %s

STRENGTHS:
%s

EVIDENCE:
%s

GAPS:
%s

Generate sections: EXECUTIVE SUMMARY, MY QUALIFICATIONS, GROWTH AREAS & MY PLAN, WHY NOW, NEXT STEPS.

Output in Markdown format with no preamble.`,
		orDefault(req.CurrentRole, "Current Role"),
		orDefault(req.TargetRole, "Target Role"),
		orDefault(req.Industry, "General"),
		orDefault(req.Audience, "manager"),
		orDefault(req.Tone, "conversational"),
		strings.Join(req.Strengths, "\n"),
		strings.Join(req.Evidence, "\n"),
		strings.Join(req.Gaps, "\n"))
}

func pathsPrompt(current models.Occupation, industry string, candidates []models.Occupation) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "The user currently works as: %s\n", current.Title)
	fmt.Fprintf(&sb, "Industry/context: %s\n\n", orDefault(industry, "general"))

	sb.WriteString("Here are occupations in our database they could potentially move to:\n")
	for _, occ := range candidates {
		fmt.Fprintf(&sb, "- %s: %s (Job Zone %d)\n", occ.Code, occ.Title, occ.JobZone)
	}

	sb.WriteString(`
Suggest 4-6 realistic career paths, picked from the candidate list using exact codes.

Format as JSON:
{
  "paths": [
    {
      "occupation_code": "...",
      "occupation_title": "...",
      "path_type": "promotion|lateral|adjacent|stepping_stone",
      "why_good_fit": "2-3 sentences on skill transferability",
      "difficulty": "easy|moderate|stretch",
      "skills_to_develop": ["skill1", "skill2"]
    }
  ],
  "encouragement": "A personalized encouraging message"
}`)

	return sb.String()
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
