package rag

import (
	"context"
	"fmt"

	"document-qg/internal/models"

	"github.com/rs/zerolog/log"
)

// Service is the entry point for content generation.
type Service struct {
	graph *Graph
}

func NewService(graph *Graph) *Service {
	return &Service{graph: graph}
}

// RunGeneration fills request defaults, validates bounds and runs the graph.
func (s *Service) RunGeneration(ctx context.Context, req models.GenerationRequest) (*models.GeneratedContent, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	st, err := s.graph.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	if st.Output.IsEmpty() {
		return nil, ErrEmptyResult
	}

	log.Info().
		Str("content_type", string(req.ContentType)).
		Str("topic", req.Topic).
		Int("items", st.Output.ItemCount()).
		Ints("pages", st.Pages).
		Msg("Generated content")
	return &st.Output, nil
}
