package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	RAG      RAGConfig      `yaml:"rag"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
}

// LLMConfig describes one model endpoint. Provider is one of "openai"
// (any OpenAI-compatible server, e.g. Groq or OpenRouter), "ollama" or
// "openai-jsonschema".
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Key         string  `yaml:"key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type RAGConfig struct {
	ChunkSize      int    `yaml:"chunk_size"`
	ChunkOverlap   int    `yaml:"chunk_overlap"`
	VectorStore    string `yaml:"vector_store"` // chromem | pgvector
	DBPath         string `yaml:"db_path"`
	CollectionName string `yaml:"collection_name"`
	InMemory       bool   `yaml:"in_memory"`
	Compress       bool   `yaml:"compress"`
	EncryptionKey  string `yaml:"encryption_key"`
	UploadDir      string `yaml:"upload_dir"`
	EmbedBatchSize int    `yaml:"embed_batch_size"`
}

type DatabaseConfig struct {
	URL    string `yaml:"url"`
	Driver string `yaml:"driver"` // pgdriver | postgres
	Debug  bool   `yaml:"debug"`
}

type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	RedisAddr  string `yaml:"redis_addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
}

const (
	defaultAddr           = ":8000"
	defaultMaxUploadMB    = 25
	defaultChunkSize      = 1000
	defaultChunkOverlap   = 200
	defaultVectorStore    = "chromem"
	defaultDBPath         = "./vector_store"
	defaultCollectionName = "document_chunks"
	defaultUploadDir      = "./uploads"
	defaultEmbedBatchSize = 32
	defaultProvider       = "openai"
	defaultDriver         = "pgdriver"
	defaultCacheTTL       = 24 * 60
)

// LoadConfig reads the yaml file at path, falling back to defaults when the
// file does not exist, and overlays secrets from the environment (and .env).
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := firstEnv("LLM_API_KEY", "GROQ_API_KEY"); v != "" {
		cfg.LLM.Key = v
	}
	if v := os.Getenv("EMBED_API_KEY"); v != "" {
		cfg.EmbedLLM.Key = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	cfg.LLM.Key = strings.TrimPrefix(cfg.LLM.Key, "Bearer ")
	cfg.EmbedLLM.Key = strings.TrimPrefix(cfg.EmbedLLM.Key, "Bearer ")
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultAddr
	}
	if cfg.Server.MaxUploadMB <= 0 {
		cfg.Server.MaxUploadMB = defaultMaxUploadMB
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = defaultProvider
	}
	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = defaultProvider
	}
	if cfg.RAG.ChunkSize <= 0 || cfg.RAG.ChunkOverlap < 0 {
		cfg.RAG.ChunkSize = defaultChunkSize
		cfg.RAG.ChunkOverlap = defaultChunkOverlap
	}
	if cfg.RAG.VectorStore == "" {
		cfg.RAG.VectorStore = defaultVectorStore
	}
	if cfg.RAG.DBPath == "" {
		cfg.RAG.DBPath = defaultDBPath
	}
	if cfg.RAG.CollectionName == "" {
		cfg.RAG.CollectionName = defaultCollectionName
	}
	if cfg.RAG.UploadDir == "" {
		cfg.RAG.UploadDir = defaultUploadDir
	}
	if cfg.RAG.EmbedBatchSize <= 0 {
		cfg.RAG.EmbedBatchSize = defaultEmbedBatchSize
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = defaultDriver
	}
	if cfg.Cache.TTLMinutes <= 0 {
		cfg.Cache.TTLMinutes = defaultCacheTTL
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
