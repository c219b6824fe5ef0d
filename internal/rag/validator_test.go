package rag

import (
	"testing"

	"document-qg/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fib(sentence, answer string, page int) models.FillInTheBlank {
	return models.FillInTheBlank{Sentence: sentence, CorrectAnswer: answer, SourcePage: page}
}

func fibContent(items ...models.FillInTheBlank) models.GeneratedContent {
	return models.GeneratedContent{Type: models.ContentTypeFillInTheBlank, FillInTheBlank: &models.FillInTheBlankSet{Questions: items}}
}

func TestValidate_FillInTheBlankRules(t *testing.T) {
	tests := []struct {
		name  string
		item  models.FillInTheBlank
		topic string
		pages []int
		keep  bool
	}{
		{"topic word blanked out", fib("A linear _________ has degree one.", "equation", 1), "Linear Equations", []int{1}, false},
		{"valid plural", fib("Linear equations use an _________ sign.", "equal", 1), "Linear Equations", []int{1}, true},
		{"missing blank", fib("Linear equations have degree one.", "one", 1), "", nil, false},
		{"blank answer", fib("Equations use an _________ sign.", "  ", 1), "", nil, false},
		{"off topic", fib("A radical is the _________ of a power.", "inverse", 1), "exponents", nil, false},
		{"no topic keeps", fib("A radical is the _________ of a power.", "inverse", 1), "", nil, true},
		{"case insensitive", fib("EXPONENTS count _________.", "multiplication", 2), "Exponents", nil, true},
		{"ungrounded", fib("Exponents count _________.", "multiplication", 7), "", []int{1, 2}, false},
		{"grounded", fib("Exponents count _________.", "multiplication", 2), "", []int{1, 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Validate(fibContent(tt.item), tt.topic, tt.pages)
			require.NotNil(t, out.FillInTheBlank)
			if tt.keep {
				assert.Len(t, out.FillInTheBlank.Questions, 1)
			} else {
				assert.Empty(t, out.FillInTheBlank.Questions)
			}
		})
	}
}

func TestValidate_MCQRules(t *testing.T) {
	good := models.MCQ{
		Question:      "What does an exponent indicate?",
		Options:       []string{"Repeated multiplication", "Repeated addition"},
		CorrectAnswer: "Repeated multiplication",
		Explanation:   "The context defines exponents as repeated multiplication.",
		SourcePage:    1,
	}
	notAnOption := good
	notAnOption.CorrectAnswer = "Division"
	offTopic := good
	offTopic.Question = "What is a radical?"
	offTopic.Explanation = "Radicals undo powers."

	content := models.GeneratedContent{Type: models.ContentTypeMCQ, MCQ: &models.MCQSet{
		Questions: []models.MCQ{notAnOption, good, offTopic},
	}}
	out := Validate(content, "Laws of Exponents", []int{1})
	require.Len(t, out.MCQ.Questions, 1)
	assert.Equal(t, good, out.MCQ.Questions[0])
}

func TestValidate_MCQRelevanceAcrossFields(t *testing.T) {
	q := models.MCQ{
		Question:      "Which method solves linear equa",
		Options:       []string{"Substitution", "Factoring"},
		CorrectAnswer: "Substitution",
		Explanation:   "tions by replacing one variable.",
		SourcePage:    2,
	}
	content := models.GeneratedContent{Type: models.ContentTypeMCQ, MCQ: &models.MCQSet{Questions: []models.MCQ{q}}}

	out := Validate(content, "Linear Equations", []int{2})
	require.Len(t, out.MCQ.Questions, 1)
	assert.Equal(t, q, out.MCQ.Questions[0])
}

func TestValidate_TopicRelevanceProperty(t *testing.T) {
	content := fibContent(
		fib("Linear equations have one _________.", "solution", 1),
		fib("A linear function graphs as a _________.", "line", 1),
		fib("Solving _________ means isolating the variable.", "equations", 2),
		fib("Two equations form a _________.", "system", 3),
	)
	out := Validate(content, "Linear Equations", []int{1, 2, 3})
	require.Len(t, out.FillInTheBlank.Questions, 2)
	for _, q := range out.FillInTheBlank.Questions {
		assert.Contains(t, q.Sentence, "equations")
	}
	assert.Equal(t, "solution", out.FillInTheBlank.Questions[0].CorrectAnswer)
	assert.Equal(t, "system", out.FillInTheBlank.Questions[1].CorrectAnswer)
}

func TestValidate_Idempotent(t *testing.T) {
	content := fibContent(
		fib("Exponents show repeated _________.", "multiplication", 1),
		fib("no marker about exponents", "x", 1),
		fib("Exponents on page _________.", "nine", 9),
		fib("Exponents _________ fast.", "grow", 2),
	)
	pages := []int{1, 2}
	once := Validate(content, "exponents", pages)
	twice := Validate(once, "exponents", pages)
	assert.Equal(t, once, twice)
	assert.Len(t, once.FillInTheBlank.Questions, 2)
}

func TestValidate_SummaryPassesThrough(t *testing.T) {
	content := models.GeneratedContent{Type: models.ContentTypeSummary, Summary: &models.Summary{SummaryText: "unrelated", SourcePages: []int{5}}}
	assert.Equal(t, content, Validate(content, "exponents", []int{1}))
}

func TestValidate_NilSet(t *testing.T) {
	out := Validate(models.GeneratedContent{Type: models.ContentTypeMCQ}, "", nil)
	require.NotNil(t, out.MCQ)
	assert.Empty(t, out.MCQ.Questions)
	assert.True(t, out.IsEmpty())
}

func TestRelevanceToken(t *testing.T) {
	assert.Equal(t, "equations", relevanceToken("Linear Equations"))
	assert.Equal(t, "exponents", relevanceToken("  exponents\t"))
	assert.Equal(t, "", relevanceToken("   "))
}

func TestTruncate(t *testing.T) {
	content := fibContent(fib("a _________", "a", 1), fib("b _________", "b", 1), fib("c _________", "c", 1))
	out := truncate(content, 2)
	assert.Len(t, out.FillInTheBlank.Questions, 2)
	assert.Len(t, content.FillInTheBlank.Questions, 3)
	assert.Len(t, truncate(content, 5).FillInTheBlank.Questions, 3)
}
