package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"document-qg/internal/cache"
	"document-qg/internal/chromemdb"
	"document-qg/internal/config"
	"document-qg/internal/db"
	"document-qg/internal/embedding"
	"document-qg/internal/helper"
	"document-qg/internal/ingest"
	"document-qg/internal/llmservice"
	"document-qg/internal/metrics"
	"document-qg/internal/models"
	"document-qg/internal/rag"
	"document-qg/internal/retriever"
	"document-qg/internal/server"
)

const (
	configFilePath = "./configs/config.yaml"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	serve := flag.Bool("serve", false, "Run the HTTP API")
	filePath := flag.String("file", "", "Path to a document to ingest (pdf, docx, pptx, xlsx, ods, md, txt)")
	topic := flag.String("topic", "", "Topic to generate content about")
	contentType := flag.String("type", "", "Content to generate: MCQ, FillInTheBlank or Summary")
	numQuestions := flag.Int("num", 0, "Number of questions to generate")
	contextChunks := flag.Int("chunks", 0, "Number of chunks to retrieve")
	flag.Parse()

	opts := options{
		configPath: *configPath,
		serve:      *serve,
		filePath:   *filePath,
		request: models.GenerationRequest{
			Topic:         *topic,
			ContentType:   models.ContentType(*contentType),
			NumQuestions:  *numQuestions,
			ContextChunks: *contextChunks,
		},
	}
	if err := run(opts); err != nil {
		log.Fatal().Err(err).Msg("Exiting")
	}
}

type options struct {
	configPath string
	serve      bool
	filePath   string
	request    models.GenerationRequest
}

// run returns instead of exiting so deferred cleanup always happens.
func run(opts options) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	setupLogger(&cfg.Log)
	log.Debug().Interface("rag", cfg.RAG).Str("llm_provider", cfg.LLM.Provider).Msg("Loaded config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return fmt.Errorf("error initializing application: %w", err)
	}
	defer a.Close()

	switch {
	case opts.filePath != "":
		res, err := a.ingest.IngestPath(ctx, opts.filePath)
		if err != nil {
			return fmt.Errorf("error ingesting document: %w", err)
		}
		helper.PrettyPrint(res)
	case opts.request.ContentType != "":
		out, err := a.generation.RunGeneration(ctx, opts.request)
		if err != nil {
			return fmt.Errorf("error generating content: %w", err)
		}
		helper.PrettyPrint(out)
	case opts.serve:
		if err := a.server.Run(ctx); err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	default:
		return errors.New("please provide -serve, a document to ingest with -file, or a content type with -type")
	}
	return nil
}

func setupLogger(cfg *config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()
	}
	if level > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
}

type app struct {
	accessor   *retriever.Accessor
	redis      *redis.Client
	ingest     *ingest.Service
	generation *rag.Service
	server     *server.Server
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Enabled {
		a.redis = cache.NewRedis(&cfg.Cache)
		ttl := time.Duration(cfg.Cache.TTLMinutes) * time.Minute
		embedder = cache.NewCachedEmbedder(embedder, a.redis, cfg.EmbedLLM.Model, ttl)
		log.Info().Str("addr", cfg.Cache.RedisAddr).Dur("ttl", ttl).Msg("Query embedding cache enabled")
	}

	llm, err := llmservice.NewGenerator(&cfg.LLM)
	if err != nil {
		return nil, err
	}

	a.accessor = retriever.NewAccessor(openStore(cfg, embedder))
	a.ingest = ingest.NewService(cfg, embedder, a.accessor)
	a.generation = rag.NewService(rag.NewGraph(a.accessor, llm))
	a.server = server.New(&cfg.Server, a.generation, a.ingest, metrics.New())
	return a, nil
}

// openStore picks the chunk store backend. The store is opened on first use.
func openStore(cfg *config.Config, embedder embeddings.Embedder) retriever.OpenFunc {
	switch cfg.RAG.VectorStore {
	case "pgvector":
		return func(ctx context.Context) (retriever.Store, error) {
			sqldb, err := db.ConnectDB(&cfg.Database)
			if err != nil {
				return nil, err
			}
			if err := sqldb.PingContext(ctx); err != nil {
				sqldb.Close()
				return nil, err
			}
			return db.NewStore(db.NewDB(sqldb, cfg.Database.Debug), embedder), nil
		}
	case "chromem":
		return func(context.Context) (retriever.Store, error) {
			if err := helper.CreateFolder(cfg.RAG.DBPath); err != nil {
				return nil, err
			}
			m, err := chromemdb.NewVectorDBManager(
				cfg.RAG.DBPath,
				cfg.RAG.CollectionName,
				cfg.RAG.InMemory,
				cfg.RAG.Compress,
				cfg.RAG.EncryptionKey,
				embedder,
			)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	default:
		return func(context.Context) (retriever.Store, error) {
			return nil, errors.New("unknown vector store " + cfg.RAG.VectorStore)
		}
	}
}

func (a *app) Close() {
	if err := a.accessor.Close(); err != nil {
		log.Warn().Err(err).Msg("Error closing vector store")
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing redis")
		}
	}
}
