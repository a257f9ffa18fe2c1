package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Vector store backends
const (
	VectorStoreLocal    = "local"
	VectorStoreMongo    = "mongo"
	VectorStorePostgres = "postgres"
)

// Provider names
const (
	EmbeddingsGoogle = "google"
	EmbeddingsOpenAI = "openai"
	LLMGemini        = "gemini"
	LLMTogether      = "together"
)

type Config struct {
	Port               string
	GinMode            string
	CORSOrigins        []string
	UploadDir          string
	StorageDir         string
	MaxFileSize        int64
	UploadChunkSize    int
	MaxMultipartMemory int64

	// Retrieval and splitting
	TopK                 int
	SplitterBufferSize   int
	BreakpointPercentile float64

	// Vector store
	VectorStore         string
	MongoURI            string
	DBName              string
	VectorSearchEnabled bool
	VectorIndexName     string
	PostgresDSN         string

	// Redis embedding cache (disabled when RedisURL is empty)
	RedisURL          string
	RedisPassword     string
	RedisDB           int
	EmbeddingCacheTTL time.Duration

	// Embeddings configuration
	EmbeddingsProvider    string // "google" (default), "openai"
	GoogleEmbeddingsModel string // e.g., "text-embedding-004"
	OpenAIAPIKey          string
	OpenAIAPIBase         string
	OpenAIEmbeddingsModel string

	// Completion provider
	LLMProvider          string // "gemini" (default), "together"
	GeminiAPIKey         string
	GeminiModel          string
	TogetherAPIKey       string
	TogetherAPIBase      string
	TogetherModel        string
	LLMRequestsPerMinute int

	// Telemetry
	OTLPEndpoint    string
	OTelSampleRatio float64
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8000"),
		GinMode:            getEnv("GIN_MODE", "debug"),
		CORSOrigins:        strings.Split(getEnv("CORS_ORIGINS", "http://localhost:5173"), ","),
		UploadDir:          getEnv("UPLOAD_DIR", "tmp/uploads"),
		StorageDir:         getEnv("STORAGE_DIR", "vector_storage"),
		MaxFileSize:        getEnvInt64("MAX_FILE_SIZE", 104857600), // 100MB
		UploadChunkSize:    getEnvInt("UPLOAD_CHUNK_SIZE", 1<<20),
		MaxMultipartMemory: getEnvInt64("MAX_MULTIPART_MEMORY", 8<<20),

		TopK:                 getEnvInt("TOP_K", 2),
		SplitterBufferSize:   getEnvInt("SPLITTER_BUFFER_SIZE", 1),
		BreakpointPercentile: getEnvFloat64("SPLITTER_BREAKPOINT_PERCENTILE", 95),

		VectorStore:         getEnv("VECTOR_STORE", VectorStoreLocal),
		MongoURI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:              getEnv("DB_NAME", "pdf_chatbot"),
		VectorSearchEnabled: getEnvBool("MONGODB_VECTOR_ENABLED", false),
		VectorIndexName:     getEnv("MONGODB_VECTOR_INDEX", "chunk_vector"),
		PostgresDSN:         getEnv("POSTGRES_DSN", "postgres://localhost:5432/pdf_chatbot?sslmode=disable"),

		RedisURL:          getEnv("REDIS_URL", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		EmbeddingCacheTTL: getEnvDuration("EMBEDDING_CACHE_TTL", 24*time.Hour),

		EmbeddingsProvider:    getEnv("EMBEDDINGS_PROVIDER", EmbeddingsGoogle),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIAPIBase:         getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
		OpenAIEmbeddingsModel: getEnv("OPENAI_EMBEDDINGS_MODEL", "text-embedding-3-small"),

		LLMProvider:          getEnv("LLM_PROVIDER", LLMGemini),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GeminiModel:          getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		TogetherAPIKey:       getEnv("TOGETHER_API_KEY", ""),
		TogetherAPIBase:      getEnv("TOGETHER_API_BASE", "https://api.together.xyz/v1"),
		TogetherModel:        getEnv("TOGETHER_MODEL", "meta-llama/Llama-3.3-70B-Instruct-Turbo-Free"),
		LLMRequestsPerMinute: getEnvInt("LLM_RPM", 60),

		OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTelSampleRatio: getEnvFloat64("OTEL_SAMPLE_RATIO", 0.1),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the selected providers have their credentials.
func (c *Config) Validate() error {
	switch c.VectorStore {
	case VectorStoreLocal, VectorStoreMongo, VectorStorePostgres:
	default:
		return fmt.Errorf("unknown VECTOR_STORE: %s", c.VectorStore)
	}

	switch c.EmbeddingsProvider {
	case EmbeddingsGoogle, "":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for google embeddings - set it in .env file")
		}
	case EmbeddingsOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for openai embeddings - set it in .env file")
		}
	default:
		return fmt.Errorf("unknown EMBEDDINGS_PROVIDER: %s", c.EmbeddingsProvider)
	}

	switch c.LLMProvider {
	case LLMGemini, "":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
		}
	case LLMTogether:
		if c.TogetherAPIKey == "" {
			return fmt.Errorf("TOGETHER_API_KEY is required - set it in .env file")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER: %s", c.LLMProvider)
	}

	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive, got %d", c.TopK)
	}
	if c.BreakpointPercentile <= 0 || c.BreakpointPercentile > 100 {
		return fmt.Errorf("SPLITTER_BREAKPOINT_PERCENTILE must be in (0, 100], got %v", c.BreakpointPercentile)
	}
	if c.UploadChunkSize <= 0 {
		return fmt.Errorf("UPLOAD_CHUNK_SIZE must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
