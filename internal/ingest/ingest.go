package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"document-qg/internal/config"
	"document-qg/internal/embedding"
	"document-qg/internal/helper"
	"document-qg/internal/models"
	"document-qg/internal/parser"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
)

var (
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrNoText          = errors.New("no text could be extracted from the document")
)

// Indexer receives the embedded chunks of a freshly ingested document.
type Indexer interface {
	Rebuild(ctx context.Context, chunks []models.ChunkEmbedding) error
}

type Service struct {
	cfg      *config.Config
	embedder embeddings.Embedder
	index    Indexer
}

func NewService(cfg *config.Config, embedder embeddings.Embedder, index Indexer) *Service {
	return &Service{cfg: cfg, embedder: embedder, index: index}
}

// IngestPDF stores an uploaded PDF under the upload directory and indexes it.
func (s *Service) IngestPDF(ctx context.Context, filename string, r io.Reader) (*models.IngestResult, error) {
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: missing file name", ErrUnsupportedFile)
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name += ".pdf"
	}

	if err := helper.CreateFolder(s.cfg.RAG.UploadDir); err != nil {
		return nil, err
	}
	path := filepath.Join(s.cfg.RAG.UploadDir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}
	log.Info().Str("file", path).Msg("Saved upload")

	return s.IngestPath(ctx, path)
}

// IngestPath parses, embeds and indexes the file at path, replacing whatever
// was indexed before.
func (s *Service) IngestPath(ctx context.Context, path string) (*models.IngestResult, error) {
	chunks, err := parser.ParseDocument(path, s.cfg)
	if err != nil {
		if errors.Is(err, parser.ErrUnsupportedFormat) {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedFile, err)
		}
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if len(chunks) == 0 {
		return nil, ErrNoText
	}
	log.Info().Str("file", path).Int("chunks", len(chunks)).Msg("Parsed document")

	toc, err := parser.TableOfContents(path)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("Could not extract table of contents")
	}
	if toc == nil {
		toc = []string{}
	}

	filename := filepath.Base(path)
	vectors, err := embedding.GenerateEmbedding(ctx, s.embedder, filename, chunks, s.cfg.RAG.EmbedBatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %s: %w", filename, err)
	}
	if err := s.index.Rebuild(ctx, vectors); err != nil {
		return nil, fmt.Errorf("failed to index %s: %w", filename, err)
	}

	return &models.IngestResult{
		Message:         fmt.Sprintf("File '%s' processed successfully.", filename),
		TableOfContents: toc,
	}, nil
}
