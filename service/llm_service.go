package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/Khalid-Galal/bidops-ai/config"
	"github.com/Khalid-Galal/bidops-ai/types"
)

// ModelTier picks which Gemini model serves a request.
type ModelTier string

const (
	TierFlash ModelTier = "flash"
	TierPro   ModelTier = "pro"
)

// taskComplexity routes known task names to a tier. Unknown tasks are
// treated as complex so they land on the stronger model.
var taskComplexity = map[string]ModelTier{
	"classification":         TierFlash,
	"keyword_extraction":     TierFlash,
	"language_detection":     TierFlash,
	"simple_qa":              TierFlash,
	"categorization":         TierFlash,
	"entity_extraction":      TierFlash,
	"template_filling":       TierFlash,
	"summary_extraction":     TierPro,
	"checklist_generation":   TierPro,
	"offer_analysis":         TierPro,
	"compliance_check":       TierPro,
	"clarification_drafting": TierPro,
	"document_understanding": TierPro,
}

// TierForTask returns the model tier a task routes to.
func TierForTask(task string) ModelTier {
	if tier, ok := taskComplexity[task]; ok {
		return tier
	}
	return TierPro
}

// Generator is the text-generation surface ExtractionService depends on.
type Generator interface {
	Generate(ctx context.Context, prompt string, task string) (string, error)
	GenerateStructured(ctx context.Context, prompt string, task string, out any) error
}

// LLMService routes generation requests between a fast and a strong Gemini
// model based on task complexity, with one cross-tier retry when the
// primary model fails. Callers can bypass the routing and force a tier
// through GenerateWithTier.
type LLMService struct {
	client *genai.Client
	flash  *genai.GenerativeModel
	pro    *genai.GenerativeModel

	// generate runs one prompt against one model, replaceable in tests
	generate func(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error)
}

func NewLLMService(cfg config.LLMConfig) (*LLMService, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GoogleAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	s := &LLMService{client: client}
	s.flash = s.newModel(client, cfg.FlashModel)
	s.pro = s.newModel(client, cfg.ProModel)
	s.generate = s.generateWith
	return s, nil
}

func (s *LLMService) newModel(client *genai.Client, name string) *genai.GenerativeModel {
	model := client.GenerativeModel(name)
	temp := float32(0.1)
	maxTokens := int32(8192)
	model.Temperature = &temp
	model.MaxOutputTokens = &maxTokens
	return model
}

func (s *LLMService) Close() error {
	return s.client.Close()
}

func (s *LLMService) modelFor(tier ModelTier) *genai.GenerativeModel {
	if tier == TierPro {
		return s.pro
	}
	return s.flash
}

func (s *LLMService) fallbackFor(tier ModelTier) (*genai.GenerativeModel, ModelTier) {
	if tier == TierPro {
		return s.flash, TierFlash
	}
	return s.pro, TierPro
}

// Generate runs the prompt on the tier the task routes to.
func (s *LLMService) Generate(ctx context.Context, prompt string, task string) (string, error) {
	return s.GenerateWithTier(ctx, prompt, TierForTask(task))
}

// GenerateWithTier runs the prompt on a caller-chosen tier. On failure it
// retries once on the other tier before giving up.
func (s *LLMService) GenerateWithTier(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := s.generate(ctx, s.modelFor(tier), prompt)
	if err == nil {
		return text, nil
	}
	log.Printf("Generation on %s failed, retrying on fallback: %v", tier, err)

	fallback, fallbackTier := s.fallbackFor(tier)
	text, err2 := s.generate(ctx, fallback, prompt)
	if err2 == nil {
		return text, nil
	}
	return "", fmt.Errorf("%w: %s failed (%v), %s failed (%v)", types.ErrGenerationFailed, tier, err, fallbackTier, err2)
}

// GenerateStructured asks for JSON output and unmarshals it into out. The
// model response is stripped of markdown fences before decoding.
func (s *LLMService) GenerateStructured(ctx context.Context, prompt string, task string, out any) error {
	text, err := s.Generate(ctx, prompt+"\n\nRespond with valid JSON only.", task)
	if err != nil {
		return err
	}
	cleaned := StripJSONFence(text)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("%w: %v", types.ErrSchemaViolation, err)
	}
	return nil
}

func (s *LLMService) generateWith(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no response generated")
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response")
	}
	return sb.String(), nil
}

// StripJSONFence removes a surrounding markdown code fence from a model
// response, tolerating a ```json language tag.
func StripJSONFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
