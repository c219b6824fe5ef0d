package rag

import (
	"context"
	"fmt"

	"document-qg/internal/llmservice"
	"document-qg/internal/models"

	"github.com/rs/zerolog/log"
)

type StrategyInput struct {
	Context      string
	Topic        string
	NumQuestions int
}

// Strategy turns a formatted context into one content variant.
type Strategy interface {
	Generate(ctx context.Context, in StrategyInput) (models.GeneratedContent, error)
}

func topicLabel(topic string) string {
	if topic == "" {
		return models.DefaultTopicLabel
	}
	return topic
}

func generate(ctx context.Context, llm llmservice.Generator, prompt string, shape models.Shape, out any) error {
	log.Debug().Str("shape", shape.Name).Int("prompt_len", len(prompt)).Msg("Requesting structured output")
	if err := llm.GenerateStructured(ctx, prompt, shape, out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrGenerationFailed, shape.Name, err)
	}
	return nil
}

type MCQStrategy struct {
	llm llmservice.Generator
}

func NewMCQStrategy(llm llmservice.Generator) *MCQStrategy {
	return &MCQStrategy{llm: llm}
}

func (s *MCQStrategy) Generate(ctx context.Context, in StrategyInput) (models.GeneratedContent, error) {
	prompt := fmt.Sprintf(models.MCQPromptTemplate, in.NumQuestions, topicLabel(in.Topic), in.NumQuestions, in.Context)
	var set models.MCQSet
	if err := generate(ctx, s.llm, prompt, models.MCQSetShape, &set); err != nil {
		return models.GeneratedContent{}, err
	}
	return models.GeneratedContent{Type: models.ContentTypeMCQ, MCQ: &set}, nil
}

type FillInTheBlankStrategy struct {
	llm llmservice.Generator
}

func NewFillInTheBlankStrategy(llm llmservice.Generator) *FillInTheBlankStrategy {
	return &FillInTheBlankStrategy{llm: llm}
}

func (s *FillInTheBlankStrategy) Generate(ctx context.Context, in StrategyInput) (models.GeneratedContent, error) {
	prompt := fmt.Sprintf(models.FillInTheBlankPromptTemplate, in.NumQuestions, topicLabel(in.Topic), in.NumQuestions, in.Context)
	var set models.FillInTheBlankSet
	if err := generate(ctx, s.llm, prompt, models.FillInTheBlankSetShape, &set); err != nil {
		return models.GeneratedContent{}, err
	}
	return models.GeneratedContent{Type: models.ContentTypeFillInTheBlank, FillInTheBlank: &set}, nil
}

// SummaryStrategy ignores NumQuestions. The model's source_pages are
// replaced by the graph.
type SummaryStrategy struct {
	llm llmservice.Generator
}

func NewSummaryStrategy(llm llmservice.Generator) *SummaryStrategy {
	return &SummaryStrategy{llm: llm}
}

func (s *SummaryStrategy) Generate(ctx context.Context, in StrategyInput) (models.GeneratedContent, error) {
	scope := ""
	if in.Topic != "" {
		scope = fmt.Sprintf(" about the topic '%s'", in.Topic)
	}
	prompt := fmt.Sprintf(models.SummaryPromptTemplate, scope, in.Context)
	var summary models.Summary
	if err := generate(ctx, s.llm, prompt, models.SummaryShape, &summary); err != nil {
		return models.GeneratedContent{}, err
	}
	return models.GeneratedContent{Type: models.ContentTypeSummary, Summary: &summary}, nil
}
