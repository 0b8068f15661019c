package service

import (
	"strings"

	"github.com/Khalid-Galal/bidops-ai/types"
	"github.com/Khalid-Galal/bidops-ai/utils"
)

// categoryKeywords in priority order: the first category with a keyword hit
// wins, so the distinctive tender categories are checked before the broad
// ones.
var categoryKeywords = []struct {
	category types.DocumentCategory
	keywords []string
}{
	{types.CategoryITT, []string{"invitation to tender", "itt", "request for proposal", "rfp"}},
	{types.CategorySpecs, []string{"specification", "technical requirement", "spec"}},
	{types.CategoryBOQ, []string{"bill of quantities", "boq", "schedule of rates"}},
	{types.CategoryDrawings, []string{"drawing", "dwg", "elevation", "section", "plan"}},
	{types.CategoryContract, []string{"contract", "agreement", "terms and conditions"}},
	{types.CategoryAddendum, []string{"addendum", "amendment", "revision"}},
	{types.CategoryHSE, []string{"health", "safety", "environment", "hse"}},
	{types.CategorySchedule, []string{"schedule", "programme", "milestone", "gantt"}},
}

// Classifier assigns a document category and language from the extracted
// text alone, no LLM involved. The LLM-backed path lives in
// ExtractionService.ClassifyDocument.
type Classifier struct{}

func NewClassifier() *Classifier { return &Classifier{} }

// Classify scans the first 5000 characters for category keywords and
// returns the first category that matches, or general.
func (c *Classifier) Classify(text string) types.DocumentCategory {
	lower := utils.TruncateBytes(strings.ToLower(text), 5000)
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.category
			}
		}
	}
	return types.CategoryGeneral
}

// Language detects Arabic versus Latin text by counting characters in each
// script. Mixed documents resolve to whichever script dominates.
func (c *Classifier) Language(text string) string {
	var arabic, latin int
	for _, r := range text {
		switch {
		case r >= 0x0600 && r <= 0x06FF:
			arabic++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			latin++
		}
	}
	if arabic > latin {
		return "ar"
	}
	return "en"
}
