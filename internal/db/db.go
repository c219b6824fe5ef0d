package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"document-qg/internal/config"
	"document-qg/internal/models"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

const undefinedTable = "42P01"

type Document struct {
	bun.BaseModel  `bun:"table:documents,alias:d"`
	ID             int64           `bun:"id,pk,autoincrement"`
	Content        string          `bun:"content,notnull"`
	Embedding      pgvector.Vector `bun:"embedding,type:vector"`
	SourceFilename string          `bun:"source_filename"`
	PageNumber     int             `bun:"page_number,notnull"`
	ChunkID        int             `bun:"chunk_id"`
}

// ConnectDB opens the database with the configured driver: bun's pgdriver
// (default) or lib/pq ("postgres").
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, errors.New("database url is required")
	}
	switch cfg.Driver {
	case "postgres":
		return sql.Open("postgres", cfg.URL)
	case "pgdriver", "":
		return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.URL))), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func InitDB(ctx context.Context, db bun.IDB) error {
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to enable pgvector: %w", err)
	}
	_, err := db.NewCreateTable().Model((*Document)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Store is a chunk store backed by a pgvector table.
type Store struct {
	db       *bun.DB
	embedder embeddings.Embedder
}

func NewStore(db *bun.DB, embedder embeddings.Embedder) *Store {
	return &Store{db: db, embedder: embedder}
}

// Exists reports whether the documents table holds any rows. A missing
// table means nothing was ingested yet.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	n, err := s.db.NewSelect().Model((*Document)(nil)).Count(ctx)
	if err != nil {
		if isUndefinedTable(err) {
			return false, nil
		}
		return false, err
	}
	return n > 0, nil
}

// Search returns the k chunks closest to query by cosine distance.
func (s *Store) Search(ctx context.Context, query string, k int) ([]models.Chunk, error) {
	if k <= 0 {
		return nil, nil
	}
	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var docs []Document
	err = s.db.NewSelect().
		Model(&docs).
		Column("id", "content", "page_number", "chunk_id").
		OrderExpr("embedding <=> ?", pgvector.NewVector(vec)).
		Limit(k).
		Scan(ctx)
	if err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, err
	}

	chunks := make([]models.Chunk, 0, len(docs))
	for _, d := range docs {
		chunks = append(chunks, models.Chunk{Content: d.Content, PageNumber: d.PageNumber, ChunkID: d.ChunkID})
	}
	return chunks, nil
}

// Replace swaps the table contents for chunks in one transaction.
func (s *Store) Replace(ctx context.Context, chunks []models.ChunkEmbedding) error {
	docs := make([]Document, 0, len(chunks))
	for _, ch := range chunks {
		docs = append(docs, Document{
			Content:        ch.Content,
			Embedding:      pgvector.NewVector(ch.Embedding),
			SourceFilename: ch.SourceFilename,
			PageNumber:     ch.PageNumber,
			ChunkID:        ch.ChunkID,
		})
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := InitDB(ctx, tx); err != nil {
			return err
		}
		if _, err := tx.NewTruncateTable().Model((*Document)(nil)).Exec(ctx); err != nil {
			return fmt.Errorf("failed to clear documents: %w", err)
		}
		if len(docs) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&docs).Exec(ctx); err != nil {
			return fmt.Errorf("failed to store documents: %w", err)
		}
		log.Info().Int("documents", len(docs)).Msg("Stored documents")
		return nil
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}

func isUndefinedTable(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == undefinedTable {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == undefinedTable
}
