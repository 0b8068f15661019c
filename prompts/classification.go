package prompts

import (
	"strings"

	"github.com/Khalid-Galal/bidops-ai/utils"
)

const classificationContentLimit = 2000

const classificationTemplate = `Classify the following document into one of these categories based on its content:

Categories:
- ITT: Invitation to Tender, Instructions to Bidders, RFP
- SPECS: Technical Specifications, Requirements
- BOQ: Bill of Quantities, Schedule of Rates, Pricing Schedules
- DRAWINGS: Architectural/Engineering Drawings, Plans
- CONTRACT: Contract Documents, Agreements, Terms
- ADDENDUM: Addenda, Amendments, Revisions
- CORRESPONDENCE: Letters, Emails, Communications
- SCHEDULE: Project Schedule, Programme, Timeline
- HSE: Health, Safety, Environment documents
- GENERAL: Other documents

Document filename: {filename}

Document content (first 2000 characters):
{content}

Respond with JSON:
{
  "category": "CATEGORY_NAME",
  "confidence": 0.0-1.0,
  "reasoning": "Brief explanation"
}`

// BuildClassificationPrompt renders the document classification prompt.
func BuildClassificationPrompt(filename, content string) string {
	content = utils.TruncateBytes(content, classificationContentLimit)
	out := strings.ReplaceAll(classificationTemplate, "{filename}", filename)
	return strings.ReplaceAll(out, "{content}", content)
}
