package rag

import (
	"context"
	"fmt"

	"document-qg/internal/llmservice"
	"document-qg/internal/models"

	"github.com/rs/zerolog/log"
)

type State string

const (
	StateStart      State = "start"
	StateRetrieving State = "retrieving"
	StateRouting    State = "routing"
	StateGenerating State = "generating"
	StateValidating State = "validating"
	StateDone       State = "done"
)

// RunState is the scratch space of one graph run.
type RunState struct {
	Request models.GenerationRequest
	Chunks  []models.Chunk
	Pages   []int
	Route   models.ContentType
	Output  models.GeneratedContent
	Visited []State
}

// Searcher is the read side of the chunk store.
type Searcher interface {
	Exists(ctx context.Context) (bool, error)
	Search(ctx context.Context, query string, k int) ([]models.Chunk, error)
}

// Graph wires retrieval, routing, generation and validation. It holds no
// per-run state and is safe for concurrent use.
type Graph struct {
	retriever      Searcher
	mcq            Strategy
	fillInTheBlank Strategy
	summary        Strategy
}

func NewGraph(retriever Searcher, llm llmservice.Generator) *Graph {
	return &Graph{
		retriever:      retriever,
		mcq:            NewMCQStrategy(llm),
		fillInTheBlank: NewFillInTheBlankStrategy(llm),
		summary:        NewSummaryStrategy(llm),
	}
}

// Run executes the pipeline for an already validated request.
func (g *Graph) Run(ctx context.Context, req models.GenerationRequest) (*RunState, error) {
	st := &RunState{Request: req}
	state := StateStart
	for state != StateDone {
		st.Visited = append(st.Visited, state)
		next, err := g.step(ctx, state, st)
		if err != nil {
			log.Debug().Err(err).Str("state", string(state)).Msg("Generation run failed")
			return st, err
		}
		log.Debug().Str("from", string(state)).Str("to", string(next)).Msg("Graph transition")
		state = next
	}
	st.Visited = append(st.Visited, StateDone)
	return st, nil
}

func (g *Graph) step(ctx context.Context, state State, st *RunState) (State, error) {
	switch state {
	case StateStart:
		return StateRetrieving, nil
	case StateRetrieving:
		if err := g.retrieve(ctx, st); err != nil {
			return "", err
		}
		return StateRouting, nil
	case StateRouting:
		if _, err := g.strategyFor(st.Request.ContentType); err != nil {
			return "", err
		}
		st.Route = st.Request.ContentType
		return StateGenerating, nil
	case StateGenerating:
		return g.generate(ctx, st)
	case StateValidating:
		st.Output = truncate(Validate(st.Output, st.Request.Topic, st.Pages), st.Request.NumQuestions)
		return StateDone, nil
	}
	return "", fmt.Errorf("unknown graph state %q", state)
}

func (g *Graph) retrieve(ctx context.Context, st *RunState) error {
	exists, err := g.retriever.Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check vector store: %w", err)
	}
	if !exists {
		return ErrNotIngested
	}

	k := st.Request.ContextChunks
	query := st.Request.Topic
	if query == "" {
		query = models.GeneralOverviewQuery
	}
	chunks, err := g.retriever.Search(ctx, query, k)
	if err != nil {
		return fmt.Errorf("failed to retrieve chunks: %w", err)
	}
	if len(chunks) > k {
		chunks = chunks[:k]
	}

	st.Chunks = chunks
	st.Pages = SourcePages(chunks)
	log.Debug().Str("query", query).Int("chunks", len(chunks)).Ints("pages", st.Pages).Msg("Retrieved context")
	return nil
}

func (g *Graph) strategyFor(ct models.ContentType) (Strategy, error) {
	switch ct {
	case models.ContentTypeMCQ:
		return g.mcq, nil
	case models.ContentTypeFillInTheBlank:
		return g.fillInTheBlank, nil
	case models.ContentTypeSummary:
		return g.summary, nil
	}
	return nil, fmt.Errorf("%w: unknown content type %q", ErrInvalidInput, ct)
}

func (g *Graph) generate(ctx context.Context, st *RunState) (State, error) {
	strategy, err := g.strategyFor(st.Route)
	if err != nil {
		return "", err
	}
	out, err := strategy.Generate(ctx, StrategyInput{
		Context:      FormatContext(st.Chunks),
		Topic:        st.Request.Topic,
		NumQuestions: st.Request.NumQuestions,
	})
	if err != nil {
		return "", err
	}
	st.Output = out

	if st.Route == models.ContentTypeSummary {
		if st.Output.Summary == nil {
			st.Output.Summary = &models.Summary{}
		}
		st.Output.Summary.SourcePages = append([]int{}, st.Pages...)
		return StateDone, nil
	}
	return StateValidating, nil
}
