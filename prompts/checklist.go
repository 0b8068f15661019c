package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Khalid-Galal/bidops-ai/utils"
)

// ChecklistCategories are the valid requirement categories. Items with any
// other category are coerced to GENERAL during validation.
var ChecklistCategories = []string{
	"SUBMISSION",
	"QUALIFICATION",
	"TECHNICAL",
	"COMMERCIAL",
	"LEGAL",
	"HSE",
	"QUALITY",
	"SCHEDULE",
	"BONDS",
	"DOCUMENTATION",
}

// checklistPriorityKeywords orders documents so instructions and conditions
// come before drawings and general material in the context window.
var checklistPriorityKeywords = []string{"itt", "instruction", "condition", "requirement", "qualification"}

const checklistDocLimit = 10000

const checklistTemplate = `You are an expert tender compliance analyst. Your task is to extract all requirements from tender documents that a contractor must comply with.

## Instructions

1. Analyze the provided tender documents carefully
2. Identify ALL requirements, obligations, and conditions
3. Categorize each requirement appropriately
4. Mark mandatory requirements (using words like "shall", "must", "required")
5. Include document references for traceability

## Categories to Use

- **SUBMISSION**: Document submission requirements
- **QUALIFICATION**: Pre-qualification and eligibility requirements
- **TECHNICAL**: Technical specifications and standards
- **COMMERCIAL**: Pricing, payment, and financial requirements
- **LEGAL**: Legal, insurance, and contractual requirements
- **HSE**: Health, Safety, and Environment requirements
- **QUALITY**: Quality assurance and control requirements
- **SCHEDULE**: Timeline and milestone requirements
- **BONDS**: Bond and guarantee requirements
- **DOCUMENTATION**: Required documents and certifications

## Document Context

{context}

## Response Format

Respond with a JSON object containing a "requirements" array:

` + "```json" + `
{
  "requirements": [
    {
      "id": 1,
      "category": "SUBMISSION",
      "requirement": "Submit tender in sealed envelope",
      "description": "Tender must be submitted in a sealed envelope marked with project name and tender reference",
      "mandatory": true,
      "source_document": "ITT_Document.pdf",
      "source_reference": "Section 3.1, Page 5",
      "responsible_party": "Tenderer",
      "deadline": "2024-03-15 14:00",
      "deliverable": "Sealed tender envelope"
    },
    {
      "id": 2,
      "category": "QUALIFICATION",
      "requirement": "Minimum 5 years experience",
      "description": "Contractor must demonstrate minimum 5 years experience in similar projects",
      "mandatory": true,
      "source_document": "Pre-Qualification.pdf",
      "source_reference": "Section 2.1",
      "responsible_party": "Tenderer",
      "deadline": null,
      "deliverable": "Experience certificates"
    }
  ]
}
` + "```" + `

## Important Notes

- Extract EVERY requirement, even if seemingly minor
- "Shall", "must", "required" indicate mandatory requirements
- "Should", "may", "recommended" indicate non-mandatory items
- Include specific quantities, percentages, and deadlines where mentioned
- Look for requirements in:
  - Instructions to Tenderers (ITT)
  - Conditions of Contract
  - Technical Specifications
  - Particular Conditions
  - Appendices and Schedules

Be thorough. Missing a requirement could lead to disqualification.`

// BuildChecklistPrompt renders the checklist prompt. Documents are sorted
// so instruction-bearing material leads the context.
func BuildChecklistPrompt(docs []DocContext) string {
	sorted := make([]DocContext, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return checklistPriority(sorted[i]) < checklistPriority(sorted[j])
	})

	parts := make([]string, 0, len(sorted))
	for _, doc := range sorted {
		content := doc.Content
		if len(content) > checklistDocLimit {
			content = utils.TruncateBytes(content, checklistDocLimit) + "\n\n[... content truncated ...]"
		}
		parts = append(parts, fmt.Sprintf("\n### Document: %s\nCategory: %s\n\n%s\n", doc.Filename, doc.Category, content))
	}
	context := strings.Join(parts, "\n---\n")
	return strings.ReplaceAll(checklistTemplate, "{context}", context)
}

func checklistPriority(doc DocContext) int {
	filename := strings.ToLower(doc.Filename)
	category := strings.ToLower(doc.Category)
	for i, kw := range checklistPriorityKeywords {
		if strings.Contains(filename, kw) || strings.Contains(category, kw) {
			return i
		}
	}
	return len(checklistPriorityKeywords)
}
