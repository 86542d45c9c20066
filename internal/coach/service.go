// Package coach is the business layer over the AI gateway: it assembles
// prompts from catalog data, picks the call category, and applies the
// guardrail to what comes back.
package coach

import (
	"context"
	"errors"
	"fmt"

	"github.com/cubicleally/ai-gateway/internal/extract"
	"github.com/cubicleally/ai-gateway/internal/gateway"
	"github.com/cubicleally/ai-gateway/internal/guardrail"
	"github.com/cubicleally/ai-gateway/internal/identity"
	"github.com/cubicleally/ai-gateway/internal/models"
	"github.com/cubicleally/ai-gateway/internal/ratelimit"
)

var ErrUnknownOccupation = errors.New("coach: occupation code not in catalog")

// AIGateway is the slice of the gateway the coach needs.
type AIGateway interface {
	Text(ctx context.Context, call gateway.Call) (*gateway.Result, error)
	JSON(ctx context.Context, call gateway.Call) (*gateway.JSONResult, error)
}

// Catalog supplies the occupation reference data, fresh per call.
type Catalog interface {
	List(ctx context.Context) ([]models.Occupation, error)
	FindByCode(ctx context.Context, code string) (*models.Occupation, error)
}

type Service struct {
	gateway AIGateway
	catalog Catalog
}

func NewService(gw AIGateway, catalog Catalog) *Service {
	return &Service{gateway: gw, catalog: catalog}
}

// InterpretResult is a title interpretation answer. Matches only ever
// reference occupations present in the catalog at call time.
type InterpretResult struct {
	Decision           ratelimit.Decision `json:"rate_limit"`
	NeedsClarification bool               `json:"needs_clarification"`
	ClarifyingQuestion string             `json:"clarifying_question,omitempty"`
	Matches            []map[string]any   `json:"matches"`
}

// InterpretTitle matches a free-form job title against the occupation
// catalog. The whole catalog is sent as candidates and doubles as the
// guardrail whitelist, so the model cannot introduce occupations we don't
// hold.
func (s *Service) InterpretTitle(ctx context.Context, id identity.Identity, title, description string) (*InterpretResult, error) {
	occupations, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("coach: loading occupation catalog: %w", err)
	}

	whitelist := make(guardrail.Whitelist, len(occupations))
	for _, occ := range occupations {
		whitelist[occ.Code] = occ
	}

	result, err := s.gateway.JSON(ctx, gateway.Call{
		Identity:    id,
		Category:    "ai_interpret",
		System:      interpretSystem,
		User:        interpretPrompt(title, description, occupations),
		MaxTokens:   1000,
		Temperature: 0.5,
	})
	if err != nil {
		return nil, err
	}
	if result.Denied() {
		return &InterpretResult{Decision: result.Decision}, nil
	}

	list := extract.Candidates(result.Document, "matches", "code")
	kept := guardrail.FilterList(list.Entries, whitelist)

	out := &InterpretResult{
		Decision: result.Decision,
		Matches:  make([]map[string]any, 0, len(kept)),
	}
	for _, entry := range kept {
		out.Matches = append(out.Matches, entry.Fields)
	}

	out.NeedsClarification, _ = list.Extra["needs_clarification"].(bool)
	out.ClarifyingQuestion, _ = list.Extra["clarifying_question"].(string)

	return out, nil
}

type EnhanceResult struct {
	Decision ratelimit.Decision `json:"rate_limit"`
	Content  map[string]any     `json:"content,omitempty"`
}

// EnhanceEvidence strengthens one accomplishment statement. The response is
// a single object with no reference identifiers, so no guardrail filtering
// applies.
func (s *Service) EnhanceEvidence(ctx context.Context, id identity.Identity, text, skillName string) (*EnhanceResult, error) {
	result, err := s.gateway.JSON(ctx, gateway.Call{
		Identity:    id,
		Category:    "ai_enhance",
		System:      enhanceSystem,
		User:        enhancePrompt(text, orDefault(skillName, "General")),
		MaxTokens:   500,
		Temperature: 0.5,
	})
	if err != nil {
		return nil, err
	}
	if result.Denied() {
		return &EnhanceResult{Decision: result.Decision}, nil
	}

	return &EnhanceResult{Decision: result.Decision, Content: result.Document}, nil
}

type CoachingRequest struct {
	SkillName        string `json:"skill_name" binding:"required"`
	SkillDescription string `json:"skill_description"`
	CurrentRole      string `json:"current_role"`
	TargetRole       string `json:"target_role"`
	Industry         string `json:"industry"`
}

type CoachingResult struct {
	Decision ratelimit.Decision `json:"rate_limit"`
	Content  map[string]any     `json:"content,omitempty"`
}

// GapCoaching produces development advice for one gap skill.
func (s *Service) GapCoaching(ctx context.Context, id identity.Identity, req CoachingRequest) (*CoachingResult, error) {
	result, err := s.gateway.JSON(ctx, gateway.Call{
		Identity:    id,
		Category:    "ai_coaching",
		System:      coachingSystem,
		User:        coachingPrompt(req),
		MaxTokens:   1000,
		Temperature: 0.5,
	})
	if err != nil {
		return nil, err
	}
	if result.Denied() {
		return &CoachingResult{Decision: result.Decision}, nil
	}

	return &CoachingResult{Decision: result.Decision, Content: result.Document}, nil
}

type DocumentRequest struct {
	CurrentRole string   `json:"current_role"`
	TargetRole  string   `json:"target_role"`
	Industry    string   `json:"industry"`
	Audience    string   `json:"audience"`
	Tone        string   `json:"tone"`
	Strengths   []string `json:"strengths"`
	Evidence    []string `json:"evidence"`
	Gaps        []string `json:"gaps"`
}

type DocumentResult struct {
	Decision ratelimit.Decision `json:"rate_limit"`
	Markdown string             `json:"markdown,omitempty"`
}

// GenerateDocument writes a promotion case document. Plain markdown out,
// no JSON extraction.
func (s *Service) GenerateDocument(ctx context.Context, id identity.Identity, req DocumentRequest) (*DocumentResult, error) {
	result, err := s.gateway.Text(ctx, gateway.Call{
		Identity:    id,
		Category:    "ai_document",
		System:      documentSystem,
		User:        documentPrompt(req),
		MaxTokens:   2000,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}
	if result.Denied() {
		return &DocumentResult{Decision: result.Decision}, nil
	}

	return &DocumentResult{Decision: result.Decision, Markdown: result.Text}, nil
}

type PathsResult struct {
	Decision      ratelimit.Decision `json:"rate_limit"`
	Paths         []map[string]any   `json:"paths"`
	Encouragement string             `json:"encouragement,omitempty"`
}

// CareerPaths suggests moves from the caller's current occupation. Suggested
// paths are filtered against the catalog and enriched with our own record
// for each surviving occupation, so descriptive fields never come from the
// model alone.
func (s *Service) CareerPaths(ctx context.Context, id identity.Identity, currentCode, industry string) (*PathsResult, error) {
	current, err := s.catalog.FindByCode(ctx, currentCode)
	if err != nil {
		return nil, fmt.Errorf("coach: looking up occupation %q: %w", currentCode, err)
	}
	if current == nil {
		return nil, ErrUnknownOccupation
	}

	occupations, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("coach: loading occupation catalog: %w", err)
	}

	candidates := make([]models.Occupation, 0, len(occupations))
	whitelist := make(guardrail.Whitelist, len(occupations))
	for _, occ := range occupations {
		if occ.Code == current.Code {
			continue
		}
		candidates = append(candidates, occ)
		whitelist[occ.Code] = occ
	}

	result, err := s.gateway.JSON(ctx, gateway.Call{
		Identity:    id,
		Category:    "ai_paths",
		System:      pathsSystem,
		User:        pathsPrompt(*current, industry, candidates),
		MaxTokens:   1500,
		Temperature: 0.5,
	})
	if err != nil {
		return nil, err
	}
	if result.Denied() {
		return &PathsResult{Decision: result.Decision}, nil
	}

	list := extract.Candidates(result.Document, "paths", "occupation_code")
	kept := guardrail.FilterAndEnrich(list.Entries, whitelist, "occupation")

	out := &PathsResult{
		Decision: result.Decision,
		Paths:    make([]map[string]any, 0, len(kept)),
	}
	for _, entry := range kept {
		out.Paths = append(out.Paths, entry.Fields)
	}
	out.Encouragement, _ = list.Extra["encouragement"].(string)

	return out, nil
}
