package coach

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubicleally/ai-gateway/internal/extract"
	"github.com/cubicleally/ai-gateway/internal/gateway"
	"github.com/cubicleally/ai-gateway/internal/identity"
	"github.com/cubicleally/ai-gateway/internal/models"
	"github.com/cubicleally/ai-gateway/internal/ratelimit"
)

type fakeGateway struct {
	text     string
	denied   bool
	lastCall gateway.Call
}

func (f *fakeGateway) result() gateway.Result {
	decision := ratelimit.Decision{Allowed: !f.denied, Limit: 10, Remaining: 9}
	return gateway.Result{Decision: decision, Text: f.text}
}

func (f *fakeGateway) Text(ctx context.Context, call gateway.Call) (*gateway.Result, error) {
	f.lastCall = call
	r := f.result()
	return &r, nil
}

func (f *fakeGateway) JSON(ctx context.Context, call gateway.Call) (*gateway.JSONResult, error) {
	f.lastCall = call
	r := f.result()
	if f.denied {
		return &gateway.JSONResult{Result: r}, nil
	}
	doc, err := extract.Document(f.text)
	if err != nil {
		return &gateway.JSONResult{Result: r}, err
	}
	return &gateway.JSONResult{Result: r, Document: doc}, nil
}

type fakeCatalog struct {
	occupations []models.Occupation
}

func (f *fakeCatalog) List(ctx context.Context) ([]models.Occupation, error) {
	return f.occupations, nil
}

func (f *fakeCatalog) FindByCode(ctx context.Context, code string) (*models.Occupation, error) {
	for _, occ := range f.occupations {
		if occ.Code == code {
			return &occ, nil
		}
	}
	return nil, nil
}

func testCatalog() *fakeCatalog {
	return &fakeCatalog{occupations: []models.Occupation{
		{Code: "43-6011.00", Title: "Executive Secretaries", JobZone: 3},
		{Code: "23-2011.00", Title: "Paralegals", JobZone: 3},
		{Code: "11-3012.00", Title: "Administrative Services Managers", JobZone: 4},
	}}
}

func TestInterpretTitle_FiltersHallucinatedCodes(t *testing.T) {
	gw := &fakeGateway{text: `{
		"needs_clarification": false,
		"matches": [
			{"code": "43-6011.00", "title": "Executive Secretaries", "confidence": 90},
			{"code": "99-9999.99", "title": "Imaginary Job", "confidence": 85},
			{"code": "23-2011.00", "title": "Paralegals", "confidence": 60}
		]
	}`}
	svc := NewService(gw, testCatalog())

	result, err := svc.InterpretTitle(context.Background(), identity.Anonymous("1.2.3.4"), "legal secretary", "")
	require.NoError(t, err)

	require.Len(t, result.Matches, 2)
	assert.Equal(t, "43-6011.00", result.Matches[0]["code"])
	assert.Equal(t, "23-2011.00", result.Matches[1]["code"])
	assert.False(t, result.NeedsClarification)

	assert.Equal(t, "ai_interpret", gw.lastCall.Category)
	assert.Contains(t, gw.lastCall.User, "43-6011.00", "catalog candidates must be in the prompt")
}

func TestInterpretTitle_ClarificationPassesThrough(t *testing.T) {
	gw := &fakeGateway{text: `{
		"needs_clarification": true,
		"clarifying_question": "What does your day-to-day look like?",
		"matches": []
	}`}
	svc := NewService(gw, testCatalog())

	result, err := svc.InterpretTitle(context.Background(), identity.Anonymous("1.2.3.4"), "ninja", "")
	require.NoError(t, err)

	assert.True(t, result.NeedsClarification)
	assert.Equal(t, "What does your day-to-day look like?", result.ClarifyingQuestion)
	assert.Empty(t, result.Matches)
}

func TestInterpretTitle_DeniedReturnsDecisionOnly(t *testing.T) {
	gw := &fakeGateway{denied: true}
	svc := NewService(gw, testCatalog())

	result, err := svc.InterpretTitle(context.Background(), identity.Anonymous("1.2.3.4"), "anything", "")
	require.NoError(t, err)

	assert.False(t, result.Decision.Allowed)
	assert.Empty(t, result.Matches)
}

func TestCareerPaths_EnrichesFromCatalogAndExcludesCurrent(t *testing.T) {
	gw := &fakeGateway{text: `{
		"paths": [
			{"occupation_code": "23-2011.00", "occupation_title": "Wrong Title From Model", "difficulty": "moderate"},
			{"occupation_code": "00-0000.00", "occupation_title": "Hallucinated", "difficulty": "easy"}
		],
		"encouragement": "You have real options!"
	}`}
	svc := NewService(gw, testCatalog())

	result, err := svc.CareerPaths(context.Background(), identity.Anonymous("1.2.3.4"), "43-6011.00", "legal")
	require.NoError(t, err)

	require.Len(t, result.Paths, 1)
	occupation, ok := result.Paths[0]["occupation"].(models.Occupation)
	require.True(t, ok, "surviving path must carry the catalog record")
	assert.Equal(t, "Paralegals", occupation.Title)
	assert.Equal(t, "You have real options!", result.Encouragement)

	// The caller's current occupation is not offered as a candidate.
	assert.NotContains(t, gw.lastCall.User, "Executive Secretaries (Job Zone")
}

func TestCareerPaths_UnknownCurrentOccupation(t *testing.T) {
	svc := NewService(&fakeGateway{}, testCatalog())

	_, err := svc.CareerPaths(context.Background(), identity.Anonymous("1.2.3.4"), "nope", "")
	assert.ErrorIs(t, err, ErrUnknownOccupation)
}

func TestEnhanceEvidence_PassesObjectThrough(t *testing.T) {
	gw := &fakeGateway{text: `{"enhanced": "Led X to Y", "placeholders": ["X%"], "tip": "add numbers"}`}
	svc := NewService(gw, testCatalog())

	result, err := svc.EnhanceEvidence(context.Background(), identity.Anonymous("1.2.3.4"), "did stuff", "Leadership")
	require.NoError(t, err)

	assert.Equal(t, "Led X to Y", result.Content["enhanced"])
	assert.Equal(t, "ai_enhance", gw.lastCall.Category)
}

func TestGenerateDocument_PlainMarkdown(t *testing.T) {
	gw := &fakeGateway{text: "# My Promotion Case\n\nExecutive summary..."}
	svc := NewService(gw, testCatalog())

	result, err := svc.GenerateDocument(context.Background(), identity.Anonymous("1.2.3.4"), DocumentRequest{
		CurrentRole: "Analyst",
		TargetRole:  "Senior Analyst",
	})
	require.NoError(t, err)

	assert.Contains(t, result.Markdown, "# My Promotion Case")
	assert.Equal(t, "ai_document", gw.lastCall.Category)
	assert.Equal(t, 2000, gw.lastCall.MaxTokens)
}
