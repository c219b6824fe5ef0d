package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

type ContentType string

const (
	ContentTypeMCQ            ContentType = "MCQ"
	ContentTypeFillInTheBlank ContentType = "FillInTheBlank"
	ContentTypeSummary        ContentType = "Summary"
)

// ParseContentType accepts only the three known variants.
func ParseContentType(s string) (ContentType, error) {
	switch ct := ContentType(s); ct {
	case ContentTypeMCQ, ContentTypeFillInTheBlank, ContentTypeSummary:
		return ct, nil
	}
	return "", fmt.Errorf("content_type must be one of MCQ, FillInTheBlank, Summary, got %q", s)
}

func (c ContentType) IsQuestionType() bool {
	return c == ContentTypeMCQ || c == ContentTypeFillInTheBlank
}

const (
	DefaultNumQuestions  = 3
	MaxNumQuestions      = 10
	DefaultContextChunks = 5
	MaxContextChunks     = 15
)

// GenerationRequest carries caller parameters. An empty Topic means
// untargeted content.
type GenerationRequest struct {
	Topic         string      `json:"topic,omitempty"`
	ContentType   ContentType `json:"content_type"`
	NumQuestions  int         `json:"num_questions"`
	ContextChunks int         `json:"context_chunks"`
}

// WithDefaults fills zero counts and trims the topic.
func (r GenerationRequest) WithDefaults() GenerationRequest {
	r.Topic = strings.TrimSpace(r.Topic)
	if r.NumQuestions == 0 {
		r.NumQuestions = DefaultNumQuestions
	}
	if r.ContextChunks == 0 {
		r.ContextChunks = DefaultContextChunks
	}
	return r
}

func (r GenerationRequest) Validate() error {
	if _, err := ParseContentType(string(r.ContentType)); err != nil {
		return err
	}
	if r.NumQuestions < 1 || r.NumQuestions > MaxNumQuestions {
		return fmt.Errorf("num_questions must be between 1 and %d, got %d", MaxNumQuestions, r.NumQuestions)
	}
	if r.ContextChunks < 1 || r.ContextChunks > MaxContextChunks {
		return fmt.Errorf("context_chunks must be between 1 and %d, got %d", MaxContextChunks, r.ContextChunks)
	}
	return nil
}

type MCQ struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	SourcePage    int      `json:"source_page"`
}

type MCQSet struct {
	Questions []MCQ `json:"questions"`
}

type FillInTheBlank struct {
	Sentence      string `json:"sentence"`
	CorrectAnswer string `json:"correct_answer"`
	SourcePage    int    `json:"source_page"`
}

type FillInTheBlankSet struct {
	Questions []FillInTheBlank `json:"questions"`
}

type Summary struct {
	SummaryText string `json:"summary_text"`
	SourcePages []int  `json:"source_pages"`
}

// GeneratedContent holds exactly one variant, selected by Type.
type GeneratedContent struct {
	Type           ContentType
	MCQ            *MCQSet
	FillInTheBlank *FillInTheBlankSet
	Summary        *Summary
}

// ItemCount is the number of questions, or 1 for a non-blank summary.
func (g GeneratedContent) ItemCount() int {
	switch g.Type {
	case ContentTypeMCQ:
		if g.MCQ != nil {
			return len(g.MCQ.Questions)
		}
	case ContentTypeFillInTheBlank:
		if g.FillInTheBlank != nil {
			return len(g.FillInTheBlank.Questions)
		}
	case ContentTypeSummary:
		if g.Summary != nil && strings.TrimSpace(g.Summary.SummaryText) != "" {
			return 1
		}
	}
	return 0
}

func (g GeneratedContent) IsEmpty() bool {
	return g.ItemCount() == 0
}

// MarshalJSON emits only the active variant.
func (g GeneratedContent) MarshalJSON() ([]byte, error) {
	switch g.Type {
	case ContentTypeMCQ:
		set := MCQSet{Questions: []MCQ{}}
		if g.MCQ != nil && g.MCQ.Questions != nil {
			set = *g.MCQ
		}
		return json.Marshal(set)
	case ContentTypeFillInTheBlank:
		set := FillInTheBlankSet{Questions: []FillInTheBlank{}}
		if g.FillInTheBlank != nil && g.FillInTheBlank.Questions != nil {
			set = *g.FillInTheBlank
		}
		return json.Marshal(set)
	case ContentTypeSummary:
		s := Summary{SourcePages: []int{}}
		if g.Summary != nil {
			s = *g.Summary
			if s.SourcePages == nil {
				s.SourcePages = []int{}
			}
		}
		return json.Marshal(s)
	}
	return nil, fmt.Errorf("unknown content type %q", g.Type)
}
