package types

// Evidence cites where an extracted value was found.
type Evidence struct {
	Document string `bson:"document" json:"document"`
	Page     string `bson:"page,omitempty" json:"page,omitempty"`
	Snippet  string `bson:"snippet,omitempty" json:"snippet,omitempty"`
}

// ExtractionField is one extracted summary field with its confidence and
// supporting citations. RequiresReview is derived from the review threshold
// at extraction time and persisted with the value.
type ExtractionField struct {
	Value          any        `bson:"value" json:"value"`
	Confidence     float64    `bson:"confidence" json:"confidence"`
	Evidence       []Evidence `bson:"evidence" json:"evidence"`
	RequiresReview bool       `bson:"requires_review" json:"requires_review"`
	// Parsed is set only on date-like fields: true when the value was
	// normalized to ISO form, false when it was left as found.
	Parsed *bool `bson:"parsed,omitempty" json:"parsed,omitempty"`
}

// ChecklistItem is one generated requirement. The surrounding CRUD layer may
// mutate items after generation; every item starts open.
type ChecklistItem struct {
	ID               int    `bson:"id" json:"id"`
	Category         string `bson:"category" json:"category"`
	Requirement      string `bson:"requirement" json:"requirement"`
	Description      string `bson:"description" json:"description"`
	Mandatory        bool   `bson:"mandatory" json:"mandatory"`
	SourceDocument   string `bson:"source_document,omitempty" json:"source_document,omitempty"`
	SourceReference  string `bson:"source_reference,omitempty" json:"source_reference,omitempty"`
	ResponsibleParty string `bson:"responsible_party,omitempty" json:"responsible_party,omitempty"`
	Deadline         string `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Deliverable      string `bson:"deliverable,omitempty" json:"deliverable,omitempty"`
	Status           string `bson:"status" json:"status"`
	Notes            string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Classification is the result of LLM-assisted document classification.
type Classification struct {
	DocumentID string  `json:"document_id"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// KeyDate is one date pulled out of the project documents.
type KeyDate struct {
	Date           string `json:"date"`
	Type           string `json:"type"`
	Context        string `json:"context"`
	SourceDocument string `json:"source_document"`
	SourcePage     int    `json:"source_page,omitempty"`
}

// AnswerSource cites one retrieved chunk used to ground an answer.
type AnswerSource struct {
	Document string  `json:"document"`
	Page     int     `json:"page,omitempty"`
	Score    float64 `json:"score"`
}

// Answer is a grounded response to a semantic question. Confidence is the
// mean retrieval score of the chunks used.
type Answer struct {
	Answer     string         `json:"answer"`
	Sources    []AnswerSource `json:"sources"`
	Confidence float64        `json:"confidence"`
}

// SearchResult is a raw vector-store hit.
type SearchResult struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// DocumentSearchResult is a search hit resolved to its document context.
type DocumentSearchResult struct {
	DocumentID string         `json:"document_id"`
	Filename   string         `json:"filename"`
	ChunkText  string         `json:"chunk_text"`
	PageNumber int            `json:"page_number,omitempty"`
	Score      float64        `json:"score"`
	Metadata   map[string]any `json:"metadata"`
}

// IngestError records one file that failed during a batch run.
type IngestError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// IngestStats summarizes a batch ingestion run. It is always returned, even
// when every file failed.
type IngestStats struct {
	TotalFiles int           `json:"total_files"`
	Processed  int           `json:"processed"`
	Indexed    int           `json:"indexed"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Errors     []IngestError `json:"errors"`
}

// IngestProgress is reported to the caller-supplied callback after each file.
type IngestProgress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	File    string `json:"file"`
	Status  string `json:"status"`
}

// ProgressFunc receives incremental ingestion progress.
type ProgressFunc func(IngestProgress)
