package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/Khalid-Galal/bidops-ai/config"
	"github.com/Khalid-Galal/bidops-ai/database"
	"github.com/Khalid-Galal/bidops-ai/prompts"
	"github.com/Khalid-Galal/bidops-ai/repository"
	"github.com/Khalid-Galal/bidops-ai/types"
	"github.com/Khalid-Galal/bidops-ai/utils"
)

// dateLayouts are tried in order when normalizing extracted date strings.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2 January 2006",
	"January 2, 2006",
	"02/01/2006 15:04",
	"2006-01-02T15:04:05",
}

const noAnswerText = "I couldn't find relevant information in the project documents."

// ExtractionService runs the LLM-backed extraction flows: project summary,
// requirements checklist, document classification, grounded QA and key-date
// sweeps.
type ExtractionService struct {
	llm             Generator
	store           database.VectorStore
	docRepo         repository.DocumentRepo
	projectRepo     repository.ProjectRepo
	reviewThreshold float64
	summaryDocs     int
	summaryChars    int
	checklistDocs   int
	checklistChars  int
}

func NewExtractionService(
	llm Generator,
	store database.VectorStore,
	docRepo repository.DocumentRepo,
	projectRepo repository.ProjectRepo,
	llmCfg config.LLMConfig,
	procCfg config.ProcessingConfig,
) *ExtractionService {
	s := &ExtractionService{
		llm:             llm,
		store:           store,
		docRepo:         docRepo,
		projectRepo:     projectRepo,
		reviewThreshold: llmCfg.ReviewThreshold,
		summaryDocs:     procCfg.SummaryDocLimit,
		summaryChars:    procCfg.SummaryCharBudget,
		checklistDocs:   procCfg.ChecklistDocLimit,
		checklistChars:  procCfg.ChecklistCharBudget,
	}
	if s.reviewThreshold <= 0 {
		s.reviewThreshold = 0.5
	}
	if s.summaryDocs <= 0 {
		s.summaryDocs = 10
	}
	if s.summaryChars <= 0 {
		s.summaryChars = 8000
	}
	if s.checklistDocs <= 0 {
		s.checklistDocs = 8
	}
	if s.checklistChars <= 0 {
		s.checklistChars = 6000
	}
	return s
}

// ExtractProjectSummary pulls the structured summary fields out of the
// highest-priority project documents. A cached summary is returned unless
// forceRefresh is set.
func (s *ExtractionService) ExtractProjectSummary(ctx context.Context, projectID string, forceRefresh bool) (map[string]types.ExtractionField, error) {
	project, err := s.projectRepo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(project.Summary) > 0 && !forceRefresh {
		return project.Summary, nil
	}

	docs, err := s.documentsByPriority(ctx, projectID, []types.DocumentCategory{
		types.CategoryITT,
		types.CategoryContract,
		types.CategorySpecs,
		types.CategoryAddendum,
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no indexed documents found for project %s", projectID)
	}

	contexts := s.buildContexts(docs, s.summaryDocs, s.summaryChars)
	prompt := prompts.BuildSummaryPrompt(contexts)

	var raw map[string]json.RawMessage
	if err := s.llm.GenerateStructured(ctx, prompt, "summary_extraction", &raw); err != nil {
		return nil, err
	}

	summary := s.validateSummary(raw)
	if err := s.projectRepo.SaveSummary(ctx, projectID, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// GenerateChecklist extracts the compliance requirements from the project
// documents. A cached checklist is returned unless forceRefresh is set.
func (s *ExtractionService) GenerateChecklist(ctx context.Context, projectID string, forceRefresh bool) ([]types.ChecklistItem, error) {
	project, err := s.projectRepo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(project.Checklist) > 0 && !forceRefresh {
		return project.Checklist, nil
	}

	docs, err := s.documentsByPriority(ctx, projectID, []types.DocumentCategory{
		types.CategoryITT,
		types.CategoryContract,
		types.CategorySpecs,
		types.CategoryHSE,
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no indexed documents found for project %s", projectID)
	}

	contexts := s.buildContexts(docs, s.checklistDocs, s.checklistChars)
	prompt := prompts.BuildChecklistPrompt(contexts)

	var raw struct {
		Requirements []json.RawMessage `json:"requirements"`
	}
	if err := s.llm.GenerateStructured(ctx, prompt, "checklist_generation", &raw); err != nil {
		return nil, err
	}

	checklist := s.validateChecklist(raw.Requirements)
	if err := s.projectRepo.SaveChecklist(ctx, projectID, checklist); err != nil {
		return nil, err
	}
	return checklist, nil
}

// ClassifyDocument asks the LLM to categorize a stored document. A response
// that fails JSON validation degrades to a general classification instead of
// an error; generation failures propagate.
func (s *ExtractionService) ClassifyDocument(ctx context.Context, documentID string) (*types.Classification, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	prompt := prompts.BuildClassificationPrompt(doc.Filename, doc.ExtractedText)

	var raw struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}
	if err := s.llm.GenerateStructured(ctx, prompt, "classification", &raw); err != nil {
		if errors.Is(err, types.ErrSchemaViolation) {
			return &types.Classification{
				DocumentID: documentID,
				Category:   string(types.CategoryGeneral),
				Confidence: 0.0,
				Reasoning:  "Classification failed",
			}, nil
		}
		return nil, err
	}

	category := normalizeCategory(raw.Category)
	doc.Category = category
	doc.CategoryConfidence = raw.Confidence
	doc.UpdatedAt = time.Now().Unix()
	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, err
	}

	return &types.Classification{
		DocumentID: documentID,
		Category:   string(category),
		Confidence: raw.Confidence,
		Reasoning:  raw.Reasoning,
	}, nil
}

// SearchWithContext answers a question grounded in retrieved chunks. With
// no hits above the score floor it returns a fixed no-answer response
// without calling the LLM at all.
func (s *ExtractionService) SearchWithContext(ctx context.Context, query, projectID string, topK int) (*types.Answer, error) {
	if topK <= 0 {
		topK = 5
	}
	hits, err := s.store.Search(ctx, query, topK, map[string]any{"project_id": projectID}, 0.5)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return &types.Answer{
			Answer:     noAnswerText,
			Sources:    []types.AnswerSource{},
			Confidence: 0.0,
		}, nil
	}

	excerpts := make([]prompts.ExcerptContext, 0, len(hits))
	sources := make([]types.AnswerSource, 0, len(hits))
	var scoreSum float64
	for _, hit := range hits {
		filename, _ := hit.Metadata["filename"].(string)
		page, _ := hit.Metadata["page_number"].(int)
		excerpts = append(excerpts, prompts.ExcerptContext{
			Filename: filename,
			Page:     page,
			Text:     hit.Text,
		})
		sources = append(sources, types.AnswerSource{
			Document: filename,
			Page:     page,
			Score:    hit.Score,
		})
		scoreSum += hit.Score
	}

	prompt := prompts.BuildAnswerPrompt(query, excerpts)
	answer, err := s.llm.Generate(ctx, prompt, "document_understanding")
	if err != nil {
		return &types.Answer{
			Answer:     fmt.Sprintf("Error generating answer: %v", err),
			Sources:    sources,
			Confidence: 0.0,
		}, nil
	}

	return &types.Answer{
		Answer:     strings.TrimSpace(answer),
		Sources:    sources,
		Confidence: scoreSum / float64(len(sources)),
	}, nil
}

// ExtractKeyDates sweeps the project with date-oriented queries and pulls
// structured dates out of the matching chunks. Per-chunk extraction
// failures are skipped, the sweep always returns what it found.
func (s *ExtractionService) ExtractKeyDates(ctx context.Context, projectID string) ([]types.KeyDate, error) {
	seen := make(map[string]bool)
	var dates []types.KeyDate

	for _, query := range prompts.DateQueries {
		hits, err := s.store.Search(ctx, query, 3, map[string]any{"project_id": projectID}, 0.6)
		if err != nil {
			return nil, err
		}

		for _, hit := range hits {
			var raw struct {
				Dates []types.KeyDate `json:"dates"`
			}
			prompt := prompts.BuildDatesPrompt(hit.Text)
			if err := s.llm.GenerateStructured(ctx, prompt, "entity_extraction", &raw); err != nil {
				log.Printf("Date extraction failed for query %q: %v", query, err)
				continue
			}

			filename, _ := hit.Metadata["filename"].(string)
			page, _ := hit.Metadata["page_number"].(int)
			for _, d := range raw.Dates {
				key := d.Date + "|" + d.Type
				if seen[key] {
					continue
				}
				seen[key] = true
				d.SourceDocument = filename
				d.SourcePage = page
				dates = append(dates, d)
			}
		}
	}
	return dates, nil
}

// documentsByPriority returns the project's indexed documents sorted so the
// priority categories come first, in the given order.
func (s *ExtractionService) documentsByPriority(ctx context.Context, projectID string, priority []types.DocumentCategory) ([]*types.Document, error) {
	docs, err := s.docRepo.ListIndexedByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	rank := func(doc *types.Document) int {
		for i, c := range priority {
			if doc.Category == c {
				return i
			}
		}
		return len(priority)
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return rank(docs[i]) < rank(docs[j])
	})
	return docs, nil
}

func (s *ExtractionService) buildContexts(docs []*types.Document, maxDocs, charBudget int) []prompts.DocContext {
	if len(docs) > maxDocs {
		docs = docs[:maxDocs]
	}
	contexts := make([]prompts.DocContext, 0, len(docs))
	for _, doc := range docs {
		content := doc.ExtractedText
		if len(content) > charBudget {
			content = utils.TruncateBytes(content, charBudget) + "\n...[truncated]..."
		}
		category := string(doc.Category)
		if category == "" {
			category = string(types.CategoryUnknown)
		}
		contexts = append(contexts, prompts.DocContext{
			Filename: doc.Filename,
			Category: category,
			Content:  content,
		})
	}
	return contexts
}

// validateSummary coerces the raw model output into a complete summary map:
// every known field present, confidence bounded, review flags set and date
// fields normalized.
func (s *ExtractionService) validateSummary(raw map[string]json.RawMessage) map[string]types.ExtractionField {
	validated := make(map[string]types.ExtractionField, len(prompts.SummaryFields))

	for _, name := range prompts.SummaryFields {
		field := types.ExtractionField{Evidence: []types.Evidence{}}

		if data, ok := raw[name]; ok {
			var obj struct {
				Value      any              `json:"value"`
				Confidence float64          `json:"confidence"`
				Evidence   []map[string]any `json:"evidence"`
			}
			if err := json.Unmarshal(data, &obj); err == nil {
				field.Value = obj.Value
				field.Confidence = obj.Confidence
				field.Evidence = coerceEvidence(obj.Evidence)
			} else {
				// scalar where an object was expected, keep the value
				var scalar any
				if json.Unmarshal(data, &scalar) == nil && scalar != nil {
					field.Value = scalar
					field.Confidence = 0.5
				}
			}
		}

		field.RequiresReview = field.Confidence < s.reviewThreshold

		if strings.Contains(name, "date") || strings.Contains(name, "deadline") {
			field = parseDateField(field)
		}
		validated[name] = field
	}
	return validated
}

func coerceEvidence(raw []map[string]any) []types.Evidence {
	evidence := make([]types.Evidence, 0, len(raw))
	for _, e := range raw {
		ev := types.Evidence{}
		if doc, ok := e["document"].(string); ok {
			ev.Document = doc
		}
		if snippet, ok := e["snippet"].(string); ok {
			ev.Snippet = snippet
		}
		switch page := e["page"].(type) {
		case string:
			ev.Page = page
		case float64:
			ev.Page = fmt.Sprintf("%d", int(page))
		}
		evidence = append(evidence, ev)
	}
	return evidence
}

// parseDateField normalizes a date-like value to ISO form when one of the
// known layouts matches, and records whether parsing succeeded.
func parseDateField(field types.ExtractionField) types.ExtractionField {
	value, ok := field.Value.(string)
	if !ok || strings.TrimSpace(value) == "" {
		return field
	}

	trimmed := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			field.Value = parsed.Format("2006-01-02T15:04:05")
			field.Parsed = boolPtr(true)
			return field
		}
	}
	field.Parsed = boolPtr(false)
	return field
}

// validateChecklist standardizes the raw requirement objects: unknown
// categories collapse to GENERAL, mandatory defaults to true and every item
// starts open.
func (s *ExtractionService) validateChecklist(raw []json.RawMessage) []types.ChecklistItem {
	validCategories := make(map[string]bool, len(prompts.ChecklistCategories))
	for _, c := range prompts.ChecklistCategories {
		validCategories[c] = true
	}

	validated := make([]types.ChecklistItem, 0, len(raw))
	for i, data := range raw {
		var obj struct {
			ID               *int   `json:"id"`
			Category         string `json:"category"`
			Requirement      string `json:"requirement"`
			Description      string `json:"description"`
			Mandatory        *bool  `json:"mandatory"`
			SourceDocument   string `json:"source_document"`
			SourceReference  string `json:"source_reference"`
			ResponsibleParty string `json:"responsible_party"`
			Deadline         string `json:"deadline"`
			Deliverable      string `json:"deliverable"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			continue
		}

		category := strings.ToUpper(obj.Category)
		if !validCategories[category] {
			category = "GENERAL"
		}
		id := i + 1
		if obj.ID != nil {
			id = *obj.ID
		}
		mandatory := true
		if obj.Mandatory != nil {
			mandatory = *obj.Mandatory
		}

		validated = append(validated, types.ChecklistItem{
			ID:               id,
			Category:         category,
			Requirement:      obj.Requirement,
			Description:      obj.Description,
			Mandatory:        mandatory,
			SourceDocument:   obj.SourceDocument,
			SourceReference:  obj.SourceReference,
			ResponsibleParty: obj.ResponsibleParty,
			Deadline:         obj.Deadline,
			Deliverable:      obj.Deliverable,
			Status:           "open",
		})
	}
	return validated
}

func normalizeCategory(raw string) types.DocumentCategory {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ITT":
		return types.CategoryITT
	case "SPECS":
		return types.CategorySpecs
	case "BOQ":
		return types.CategoryBOQ
	case "DRAWINGS":
		return types.CategoryDrawings
	case "CONTRACT":
		return types.CategoryContract
	case "ADDENDUM":
		return types.CategoryAddendum
	case "CORRESPONDENCE":
		return types.CategoryCorrespondence
	case "SCHEDULE":
		return types.CategorySchedule
	case "HSE":
		return types.CategoryHSE
	default:
		return types.CategoryGeneral
	}
}

func boolPtr(b bool) *bool { return &b }
