// Package prompts holds the LLM prompt templates and their context
// builders. Templates use {placeholder} markers expanded with
// strings.ReplaceAll, the JSON examples inside them make printf-style
// formatting impractical.
package prompts

import (
	"fmt"
	"strings"

	"github.com/Khalid-Galal/bidops-ai/utils"
)

// SummaryFields lists every field the summary extraction asks for, in
// prompt order. Validation uses it to guarantee a complete summary map.
var SummaryFields = []string{
	"project_name",
	"project_owner",
	"main_contractor",
	"location",
	"submission_deadline",
	"site_visit_date",
	"clarification_deadline",
	"scope_of_work",
	"tender_bond",
	"contract_type",
	"contract_form",
	"contract_duration",
	"liquidated_damages",
	"advance_payment",
	"retention",
	"performance_bond",
	"warranty_period",
	"payment_terms",
	"sustainability",
	"consultants",
}

// DocContext is one document excerpt fed into a prompt.
type DocContext struct {
	Filename string
	Category string
	Content  string
	Pages    []int
}

const summaryDocLimit = 15000

const summaryTemplate = `You are an expert construction tender analyst. Your task is to extract key project information from tender documents.

## Instructions

1. Carefully analyze the provided document excerpts
2. Extract each requested field with its exact value as found in the documents
3. Provide a confidence score (0.0 to 1.0) for each extraction
4. Include evidence citations showing where you found each piece of information
5. If information is not found, set value to null and confidence to 0

## Fields to Extract

### Project Identification
- **project_name**: Official project name/title
- **project_owner**: The entity issuing the tender (client/employer)
- **main_contractor**: If specified, the contractor bidding
- **location**: Project location/site address

### Key Dates
- **submission_deadline**: Tender submission deadline (date and time)
- **site_visit_date**: Mandatory or optional site visit date
- **clarification_deadline**: Last date for clarification queries

### Scope
- **scope_of_work**: Brief description of works included

### Commercial Terms
- **tender_bond**: Required tender bond amount and form
- **contract_type**: Lump Sum, Remeasured, or Hybrid
- **contract_form**: Form of contract (FIDIC, NEC, JCT, etc.)
- **contract_duration**: Expected project duration
- **liquidated_damages**: LD amount per day/week
- **advance_payment**: Advance payment percentage
- **retention**: Retention percentage
- **performance_bond**: Performance bond percentage
- **warranty_period**: Defects liability/warranty period
- **payment_terms**: Payment cycle and terms

### Other
- **sustainability**: LEED/sustainability/green building requirements
- **consultants**: List of consultants, PMC, designers

## Document Context

{context}

## Response Format

Respond with a JSON object. For each field, provide:
- "value": The extracted value (string, number, or null if not found)
- "confidence": Confidence score from 0.0 to 1.0
- "evidence": Array of citations with document, page, and relevant snippet

Example:
` + "```json" + `
{
  "project_name": {
    "value": "Marina Tower Development Phase 2",
    "confidence": 0.95,
    "evidence": [
      {
        "document": "ITT_Document.pdf",
        "page": "1",
        "snippet": "Invitation to Tender for Marina Tower Development Phase 2"
      }
    ]
  }
}
` + "```" + `

Be precise. Never fabricate information. Lower confidence for ambiguous findings.`

// BuildSummaryPrompt renders the summary extraction prompt with the given
// document excerpts. Oversized excerpts are truncated per document.
func BuildSummaryPrompt(docs []DocContext) string {
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		content := doc.Content
		if len(content) > summaryDocLimit {
			content = utils.TruncateBytes(content, summaryDocLimit) + "\n\n[... content truncated ...]"
		}
		parts = append(parts, fmt.Sprintf("\n### Document: %s\n\n%s\n", doc.Filename, content))
	}
	context := strings.Join(parts, "\n---\n")
	return strings.ReplaceAll(summaryTemplate, "{context}", context)
}
