package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	MongoURI            string              `mapstructure:"MONGODB_URI"`
	MongoDatabase       string              `mapstructure:"mongo_database"`
	StoragePath         string              `mapstructure:"storage_path"`
	WeaviateStoreConfig WeaviateStoreConfig `mapstructure:"weaviate_store_config"`
	LLM                 LLMConfig           `mapstructure:"llm"`
	Embedding           EmbeddingConfig     `mapstructure:"embedding"`
	Processing          ProcessingConfig    `mapstructure:"processing"`
}

type WeaviateStoreConfig struct {
	Host      string `mapstructure:"host"`
	APIKey    string `mapstructure:"WEAVIATE_APIKEY"` // Changed to match env var
	ClassName string `mapstructure:"class_name"`
}

type LLMConfig struct {
	GoogleAPIKey    string  `mapstructure:"GOOGLE_API_KEY"`
	FlashModel      string  `mapstructure:"flash_model"`
	ProModel        string  `mapstructure:"pro_model"`
	ReviewThreshold float64 `mapstructure:"review_threshold"`
}

type EmbeddingConfig struct {
	OpenAIAPIKey string `mapstructure:"OPENAI_API_KEY"`
	BaseURL      string `mapstructure:"base_url"`
	Model        string `mapstructure:"model"`
	Dimensions   int    `mapstructure:"dimensions"`
}

type ProcessingConfig struct {
	ChunkSize           int     `mapstructure:"chunk_size"`
	ChunkOverlap        int     `mapstructure:"chunk_overlap"`
	TesseractLang       string  `mapstructure:"tesseract_lang"`
	OCRMinChars         int     `mapstructure:"ocr_min_chars"`
	ODAConverterPath    string  `mapstructure:"oda_converter_path"`
	ConvertTimeoutSec   int     `mapstructure:"convert_timeout_sec"`
	DefaultMinScore     float64 `mapstructure:"default_min_score"`
	DefaultSearchLimit  int     `mapstructure:"default_search_limit"`
	SummaryDocLimit     int     `mapstructure:"summary_doc_limit"`
	ChecklistDocLimit   int     `mapstructure:"checklist_doc_limit"`
	SummaryCharBudget   int     `mapstructure:"summary_char_budget"`
	ChecklistCharBudget int     `mapstructure:"checklist_char_budget"`
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set up Viper to read from config file
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Set up Viper to read from environment variables
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Bind environment variables
	v.BindEnv("MONGODB_URI")
	v.BindEnv("GOOGLE_API_KEY")
	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("WEAVIATE_APIKEY")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mongo_database", "bidops")
	v.SetDefault("storage_path", "storage/projects")
	v.SetDefault("weaviate_store_config.class_name", "TenderChunk")
	v.SetDefault("llm.flash_model", "gemini-2.5-flash-latest")
	v.SetDefault("llm.pro_model", "gemini-2.5-pro")
	v.SetDefault("llm.review_threshold", 0.5)
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.dimensions", 1536)
	v.SetDefault("processing.chunk_size", 1000)
	v.SetDefault("processing.chunk_overlap", 200)
	v.SetDefault("processing.tesseract_lang", "eng+ara")
	v.SetDefault("processing.ocr_min_chars", 100)
	v.SetDefault("processing.convert_timeout_sec", 120)
	v.SetDefault("processing.default_min_score", 0.5)
	v.SetDefault("processing.default_search_limit", 10)
	v.SetDefault("processing.summary_doc_limit", 10)
	v.SetDefault("processing.checklist_doc_limit", 8)
	v.SetDefault("processing.summary_char_budget", 8000)
	v.SetDefault("processing.checklist_char_budget", 6000)
}
