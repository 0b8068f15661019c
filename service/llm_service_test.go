package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Khalid-Galal/bidops-ai/types"
)

// newRouterFixture wires an LLMService whose generation calls are recorded
// per tier instead of reaching Gemini.
func newRouterFixture(results map[ModelTier]error) (*LLMService, *[]ModelTier) {
	s := &LLMService{
		flash: &genai.GenerativeModel{},
		pro:   &genai.GenerativeModel{},
	}
	var called []ModelTier
	s.generate = func(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
		tier := TierFlash
		if model == s.pro {
			tier = TierPro
		}
		called = append(called, tier)
		if err := results[tier]; err != nil {
			return "", err
		}
		return fmt.Sprintf("answer from %s", tier), nil
	}
	return s, &called
}

func TestTierForTask(t *testing.T) {
	tests := []struct {
		task string
		want ModelTier
	}{
		{"classification", TierFlash},
		{"keyword_extraction", TierFlash},
		{"language_detection", TierFlash},
		{"simple_qa", TierFlash},
		{"categorization", TierFlash},
		{"entity_extraction", TierFlash},
		{"template_filling", TierFlash},
		{"summary_extraction", TierPro},
		{"checklist_generation", TierPro},
		{"offer_analysis", TierPro},
		{"compliance_check", TierPro},
		{"clarification_drafting", TierPro},
		{"document_understanding", TierPro},
		{"something_unknown", TierPro},
		{"", TierPro},
	}
	for _, tt := range tests {
		t.Run(tt.task, func(t *testing.T) {
			assert.Equal(t, tt.want, TierForTask(tt.task))
		})
	}
}

func TestGenerateWithTierForcesChosenModel(t *testing.T) {
	s, called := newRouterFixture(nil)

	text, err := s.GenerateWithTier(context.Background(), "extract the bid bond value", TierPro)
	require.NoError(t, err)
	assert.Equal(t, "answer from pro", text)
	assert.Equal(t, []ModelTier{TierPro}, *called, "a forced tier goes straight to that model")
}

func TestGenerateWithTierFallsBackOnce(t *testing.T) {
	s, called := newRouterFixture(map[ModelTier]error{
		TierFlash: errors.New("rate limited"),
	})

	text, err := s.GenerateWithTier(context.Background(), "classify this document", TierFlash)
	require.NoError(t, err)
	assert.Equal(t, "answer from pro", text)
	assert.Equal(t, []ModelTier{TierFlash, TierPro}, *called)
}

func TestGenerateWithTierBothTiersFail(t *testing.T) {
	s, called := newRouterFixture(map[ModelTier]error{
		TierFlash: errors.New("rate limited"),
		TierPro:   errors.New("overloaded"),
	})

	_, err := s.GenerateWithTier(context.Background(), "summarize", TierPro)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrGenerationFailed)
	assert.Len(t, *called, 2, "exactly one cross-tier retry, no loop")
}

func TestGenerateRoutesByTask(t *testing.T) {
	s, called := newRouterFixture(nil)

	_, err := s.Generate(context.Background(), "which category is this", "classification")
	require.NoError(t, err)
	assert.Equal(t, []ModelTier{TierFlash}, *called)

	_, err = s.Generate(context.Background(), "build the checklist", "checklist_generation")
	require.NoError(t, err)
	assert.Equal(t, []ModelTier{TierFlash, TierPro}, *called)
}

func TestStripJSONFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"json tag", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"whitespace", "  \n```json\n{\"a\": 1}\n```\n  ", `{"a": 1}`},
		{"no closing fence", "```json\n{\"a\": 1}", `{"a": 1}`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripJSONFence(tt.in))
		})
	}
}
