package types

// DocumentStatus tracks a document through the ingestion pipeline.
type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusIndexed    DocumentStatus = "indexed"
	StatusFailed     DocumentStatus = "failed"
	StatusSkipped    DocumentStatus = "skipped"
)

// DocumentCategory classifies a tender document.
type DocumentCategory string

const (
	CategoryITT            DocumentCategory = "itt"
	CategorySpecs          DocumentCategory = "specs"
	CategoryBOQ            DocumentCategory = "boq"
	CategoryDrawings       DocumentCategory = "drawings"
	CategoryContract       DocumentCategory = "contract"
	CategoryAddendum       DocumentCategory = "addendum"
	CategoryCorrespondence DocumentCategory = "correspondence"
	CategorySchedule       DocumentCategory = "schedule"
	CategoryHSE            DocumentCategory = "hse"
	CategoryGeneral        DocumentCategory = "general"
	CategoryUnknown        DocumentCategory = "unknown"
)

// Document is a parsed and indexed source file belonging to a project.
type Document struct {
	ID                 string           `bson:"_id" json:"id"`
	ProjectID          string           `bson:"project_id" json:"project_id"`
	Filename           string           `bson:"filename" json:"filename"`
	FilePath           string           `bson:"file_path" json:"file_path"`
	FileType           string           `bson:"file_type" json:"file_type"`
	FileSize           int64            `bson:"file_size" json:"file_size"`
	ContentHash        string           `bson:"content_hash" json:"content_hash"`
	Status             DocumentStatus   `bson:"status" json:"status"`
	ErrorMessage       string           `bson:"error_message,omitempty" json:"error_message,omitempty"`
	ProcessingTimeMs   int64            `bson:"processing_time_ms,omitempty" json:"processing_time_ms,omitempty"`
	ExtractedText      string           `bson:"extracted_text,omitempty" json:"extracted_text,omitempty"`
	PageCount          int              `bson:"page_count,omitempty" json:"page_count,omitempty"`
	Metadata           map[string]any   `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Category           DocumentCategory `bson:"category" json:"category"`
	CategoryConfidence float64          `bson:"category_confidence,omitempty" json:"category_confidence,omitempty"`
	Language           string           `bson:"language,omitempty" json:"language,omitempty"`
	Version            int              `bson:"version" json:"version"`
	IsSuperseded       bool             `bson:"is_superseded" json:"is_superseded"`
	SupersededByID     string           `bson:"superseded_by_id,omitempty" json:"superseded_by_id,omitempty"`
	VectorIDs          []string         `bson:"vector_ids,omitempty" json:"vector_ids,omitempty"`
	IndexedAt          int64            `bson:"indexed_at,omitempty" json:"indexed_at,omitempty"`
	CreatedAt          int64            `bson:"created_at" json:"created_at"`
	UpdatedAt          int64            `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// DocumentChunk is the unit of embedding and retrieval. Offsets index into
// the owning document's extracted text.
type DocumentChunk struct {
	ID         string        `bson:"_id" json:"id"`
	DocumentID string        `bson:"document_id" json:"document_id"`
	ChunkIndex int           `bson:"chunk_index" json:"chunk_index"`
	ChunkText  string        `bson:"chunk_text" json:"chunk_text"`
	CharStart  int           `bson:"char_start" json:"char_start"`
	CharEnd    int           `bson:"char_end" json:"char_end"`
	PageNumber int           `bson:"page_number,omitempty" json:"page_number,omitempty"`
	VectorID   string        `bson:"vector_id,omitempty" json:"vector_id,omitempty"`
	Metadata   ChunkMetadata `bson:"metadata" json:"metadata"`
}

// ChunkMetadata travels with the chunk into the vector store and back out
// with every search hit.
type ChunkMetadata struct {
	DocumentID string `bson:"document_id" json:"document_id"`
	ProjectID  string `bson:"project_id" json:"project_id"`
	Filename   string `bson:"filename" json:"filename"`
	ChunkIndex int    `bson:"chunk_index" json:"chunk_index"`
	PageNumber int    `bson:"page_number,omitempty" json:"page_number,omitempty"`
	Category   string `bson:"category,omitempty" json:"category,omitempty"`
}

// ProjectStatus tracks a project through its lifecycle. Only the states the
// ingestion and extraction pipeline touches are modeled here.
type ProjectStatus string

const (
	ProjectDraft     ProjectStatus = "draft"
	ProjectIngesting ProjectStatus = "ingesting"
	ProjectReady     ProjectStatus = "ready"
)

// Project owns a folder of tender documents plus the extracted artifacts.
type Project struct {
	ID               string                     `bson:"_id" json:"id"`
	Name             string                     `bson:"name" json:"name"`
	FolderPath       string                     `bson:"folder_path" json:"folder_path"`
	Status           ProjectStatus              `bson:"status" json:"status"`
	TotalDocuments   int                        `bson:"total_documents" json:"total_documents"`
	IndexedDocuments int                        `bson:"indexed_documents" json:"indexed_documents"`
	FailedDocuments  int                        `bson:"failed_documents" json:"failed_documents"`
	Summary          map[string]ExtractionField `bson:"summary,omitempty" json:"summary,omitempty"`
	Checklist        []ChecklistItem            `bson:"checklist,omitempty" json:"checklist,omitempty"`
	CreatedAt        int64                      `bson:"created_at" json:"created_at"`
	UpdatedAt        int64                      `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}
