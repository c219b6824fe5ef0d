package retriever

import (
	"context"
	"fmt"
	"sync"

	"document-qg/internal/models"

	"github.com/rs/zerolog/log"
)

// Store is a similarity index over document chunks.
type Store interface {
	Exists(ctx context.Context) (bool, error)
	Search(ctx context.Context, query string, k int) ([]models.Chunk, error)
	Replace(ctx context.Context, chunks []models.ChunkEmbedding) error
	Close() error
}

type OpenFunc func(ctx context.Context) (Store, error)

// Accessor hands out one lazily opened Store shared by all requests.
// Searches run concurrently; Rebuild excludes them while it swaps the
// index contents.
type Accessor struct {
	open OpenFunc

	openMu sync.Mutex
	store  Store

	mu sync.RWMutex
}

func NewAccessor(open OpenFunc) *Accessor {
	return &Accessor{open: open}
}

func (a *Accessor) get(ctx context.Context) (Store, error) {
	a.openMu.Lock()
	defer a.openMu.Unlock()
	if a.store != nil {
		return a.store, nil
	}
	s, err := a.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}
	log.Info().Msg("Vector store opened")
	a.store = s
	return s, nil
}

// Initialized reports whether the store has been opened.
func (a *Accessor) Initialized() bool {
	a.openMu.Lock()
	defer a.openMu.Unlock()
	return a.store != nil
}

func (a *Accessor) Exists(ctx context.Context) (bool, error) {
	s, err := a.get(ctx)
	if err != nil {
		return false, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return s.Exists(ctx)
}

func (a *Accessor) Search(ctx context.Context, query string, k int) ([]models.Chunk, error) {
	s, err := a.get(ctx)
	if err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return s.Search(ctx, query, k)
}

// Rebuild replaces the index contents with chunks.
func (a *Accessor) Rebuild(ctx context.Context, chunks []models.ChunkEmbedding) error {
	s, err := a.get(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return s.Replace(ctx, chunks)
}

func (a *Accessor) Close() error {
	a.openMu.Lock()
	defer a.openMu.Unlock()
	if a.store == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.store.Close()
	a.store = nil
	return err
}
