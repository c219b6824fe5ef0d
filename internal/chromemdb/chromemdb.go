package chromemdb

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"

	"document-qg/internal/helper"
	"document-qg/internal/models"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
)

// metadata keys stored with every chunk
const (
	metaSource  = "source"
	metaPage    = "page"
	metaChunkID = "chunk_id"
)

// VectorDBManager is a chunk store on top of a chromem-go database. In
// persistent mode every write lands under dbPath. In memory mode with an
// encryption key the collection is snapshotted to an encrypted file after
// each rebuild and restored from it on open.
type VectorDBManager struct {
	db             *chromem.DB
	embed          chromem.EmbeddingFunc
	dbPath         string
	collectionName string
	inMemory       bool
	compress       bool
	encryptionKey  string
	filePath       string
}

// NewVectorDBManager opens (or creates) the database.
func NewVectorDBManager(dbPath, collectionName string, inMemory, compress bool, encryptionKey string, embedder embeddings.Embedder) (*VectorDBManager, error) {
	m := &VectorDBManager{
		embed:          embeddingFunc(embedder),
		dbPath:         dbPath,
		collectionName: collectionName,
		inMemory:       inMemory,
		compress:       compress,
		encryptionKey:  encryptionKey,
		filePath:       filepath.Join(dbPath, collectionName+".chromem"),
	}

	if inMemory {
		m.db = chromem.NewDB()
		if m.snapshotting() && helper.PathExists(m.filePath) {
			if err := m.Import(); err != nil {
				return nil, err
			}
		}
		return m, nil
	}

	db, err := chromem.NewPersistentDB(dbPath, compress)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	m.db = db
	return m, nil
}

func embeddingFunc(embedder embeddings.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}
}

func (m *VectorDBManager) snapshotting() bool {
	return m.inMemory && m.encryptionKey != ""
}

func (m *VectorDBManager) collection() *chromem.Collection {
	return m.db.GetCollection(m.collectionName, m.embed)
}

// Exists reports whether the collection holds at least one chunk.
func (m *VectorDBManager) Exists(_ context.Context) (bool, error) {
	c := m.collection()
	return c != nil && c.Count() > 0, nil
}

// Search returns up to k chunks most similar to query, best first.
func (m *VectorDBManager) Search(ctx context.Context, query string, k int) ([]models.Chunk, error) {
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	c := m.collection()
	if c == nil {
		return nil, nil
	}
	n := min(k, c.Count())
	if n <= 0 {
		return nil, nil
	}

	results, err := c.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	chunks := make([]models.Chunk, 0, len(results))
	for _, r := range results {
		chunks = append(chunks, models.Chunk{
			Content:    r.Content,
			PageNumber: metaInt(r.Metadata, metaPage, models.UnknownPage),
			ChunkID:    metaInt(r.Metadata, metaChunkID, 0),
		})
	}
	return chunks, nil
}

func metaInt(meta map[string]string, key string, fallback int) int {
	v, ok := meta[key]
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Replace drops the collection and fills it with chunks.
func (m *VectorDBManager) Replace(ctx context.Context, chunks []models.ChunkEmbedding) error {
	if err := m.db.DeleteCollection(m.collectionName); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	c, err := m.db.GetOrCreateCollection(m.collectionName, nil, m.embed)
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %w", err)
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for i, ch := range chunks {
		docs = append(docs, chromem.Document{
			ID:      fmt.Sprintf("chunk-%d", i),
			Content: ch.Content,
			Metadata: map[string]string{
				metaSource:  ch.SourceFilename,
				metaPage:    strconv.Itoa(ch.PageNumber),
				metaChunkID: strconv.Itoa(ch.ChunkID),
			},
			Embedding: ch.Embedding,
		})
	}
	if len(docs) > 0 {
		if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return fmt.Errorf("failed to add documents: %w", err)
		}
	}
	log.Info().Int("documents", len(docs)).Str("collection", m.collectionName).Msg("Rebuilt vector collection")

	if m.snapshotting() {
		return m.Export()
	}
	return nil
}

// Export writes the collection to an encrypted snapshot file.
func (m *VectorDBManager) Export() error {
	if m.encryptionKey == "" {
		return fmt.Errorf("encryption key is required")
	}
	if err := helper.CreateFolder(m.dbPath); err != nil {
		return err
	}
	log.Debug().Str("file", m.filePath).Bool("compress", m.compress).Msg("Exporting collection")
	if err := m.db.ExportToFile(m.filePath, m.compress, m.encryptionKey, m.collectionName); err != nil {
		return fmt.Errorf("failed to export database: %w", err)
	}
	return nil
}

// Import restores the collection from the snapshot file.
func (m *VectorDBManager) Import() error {
	if err := m.db.ImportFromFile(m.filePath, m.encryptionKey, m.collectionName); err != nil {
		return fmt.Errorf("failed to import database: %w", err)
	}
	return nil
}

func (m *VectorDBManager) Close() error {
	return nil
}
