package prompts

import (
	"fmt"
	"strings"
)

// DateQueries are the retrieval queries used when sweeping a project for key
// dates.
var DateQueries = []string{
	"submission deadline tender due date",
	"site visit inspection date",
	"clarification deadline queries",
	"award date contract signing",
	"commencement start date",
	"completion end date",
	"milestones schedule",
}

const answerTemplate = `Based on the following document excerpts, answer the question.
If the answer cannot be found in the excerpts, say so clearly.
Always cite which document contains the information.

## Question:
{question}

## Document Excerpts:
{context}

## Instructions:
1. Answer the question based only on the provided excerpts
2. Cite the source document for each piece of information
3. If information is unclear or conflicting, note the ambiguity
4. Be concise but complete

Answer:`

// ExcerptContext is one retrieved chunk rendered into an answer prompt.
type ExcerptContext struct {
	Filename string
	Page     int
	Text     string
}

// BuildAnswerPrompt renders the grounded question-answering prompt.
func BuildAnswerPrompt(question string, excerpts []ExcerptContext) string {
	parts := make([]string, 0, len(excerpts))
	for _, ex := range excerpts {
		page := "N/A"
		if ex.Page > 0 {
			page = fmt.Sprintf("%d", ex.Page)
		}
		parts = append(parts, fmt.Sprintf("\nDocument: %s\nPage: %s\n\n%s\n", ex.Filename, page, ex.Text))
	}
	context := strings.Join(parts, "\n---\n")
	out := strings.ReplaceAll(answerTemplate, "{question}", question)
	return strings.ReplaceAll(out, "{context}", context)
}

const datesTemplate = `Extract any dates mentioned in this text.
For each date found, provide:
- The date (in YYYY-MM-DD format if possible)
- What the date represents (deadline, milestone, etc.)
- The exact text where it was found

Text:
{text}

Respond with JSON:
{"dates": [{"date": "YYYY-MM-DD or original text", "type": "what it represents", "context": "surrounding text"}]}`

// BuildDatesPrompt renders the per-chunk date extraction prompt.
func BuildDatesPrompt(text string) string {
	return strings.ReplaceAll(datesTemplate, "{text}", text)
}
