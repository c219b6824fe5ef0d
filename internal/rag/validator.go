package rag

import (
	"slices"
	"strings"

	"document-qg/internal/models"
)

// Validate filters question items, keeping in order those that pass every
// rule:
//
//  1. fill-in-the-blank sentences contain the blank marker
//  2. correct_answer is not blank
//  3. with a topic, the topic's last word (lower-cased) occurs in the item text
//  4. with pages, source_page is one of them
//  5. an MCQ answer is one of its options
//
// Summaries pass through. A nil pages slice disables rule 4.
func Validate(content models.GeneratedContent, topic string, pages []int) models.GeneratedContent {
	token := relevanceToken(topic)

	switch content.Type {
	case models.ContentTypeMCQ:
		kept := []models.MCQ{}
		if content.MCQ != nil {
			for _, q := range content.MCQ.Questions {
				if !answered(q.CorrectAnswer) ||
					!relevant(token, q.Question, q.Explanation) ||
					!grounded(pages, q.SourcePage) ||
					!slices.Contains(q.Options, q.CorrectAnswer) {
					continue
				}
				kept = append(kept, q)
			}
		}
		content.MCQ = &models.MCQSet{Questions: kept}
	case models.ContentTypeFillInTheBlank:
		kept := []models.FillInTheBlank{}
		if content.FillInTheBlank != nil {
			for _, q := range content.FillInTheBlank.Questions {
				if !strings.Contains(q.Sentence, models.BlankMarker) ||
					!answered(q.CorrectAnswer) ||
					!relevant(token, q.Sentence) ||
					!grounded(pages, q.SourcePage) {
					continue
				}
				kept = append(kept, q)
			}
		}
		content.FillInTheBlank = &models.FillInTheBlankSet{Questions: kept}
	}
	return content
}

// relevanceToken is the last whitespace-delimited word of topic, lower-cased.
// "Linear Equations" yields "equations".
func relevanceToken(topic string) string {
	words := strings.Fields(topic)
	if len(words) == 0 {
		return ""
	}
	return strings.ToLower(words[len(words)-1])
}

func answered(answer string) bool {
	return strings.TrimSpace(answer) != ""
}

// relevant matches token against the fields concatenated without a separator.
func relevant(token string, fields ...string) bool {
	if token == "" {
		return true
	}
	return strings.Contains(strings.ToLower(strings.Join(fields, "")), token)
}

func grounded(pages []int, page int) bool {
	if pages == nil {
		return true
	}
	return slices.Contains(pages, page)
}

// truncate caps the question list at n.
func truncate(content models.GeneratedContent, n int) models.GeneratedContent {
	switch content.Type {
	case models.ContentTypeMCQ:
		if content.MCQ != nil && len(content.MCQ.Questions) > n {
			content.MCQ = &models.MCQSet{Questions: content.MCQ.Questions[:n]}
		}
	case models.ContentTypeFillInTheBlank:
		if content.FillInTheBlank != nil && len(content.FillInTheBlank.Questions) > n {
			content.FillInTheBlank = &models.FillInTheBlankSet{Questions: content.FillInTheBlank.Questions[:n]}
		}
	}
	return content
}
