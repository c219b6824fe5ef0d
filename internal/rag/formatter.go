package rag

import (
	"fmt"
	"slices"
	"strings"

	"document-qg/internal/models"
)

// FormatContext renders chunks as citation-annotated blocks, in retrieval
// order, separated by a blank line.
func FormatContext(chunks []models.Chunk) string {
	blocks := make([]string, 0, len(chunks))
	for _, c := range chunks {
		page := "N/A"
		if c.PageNumber >= 0 {
			page = fmt.Sprint(c.PageNumber)
		}
		blocks = append(blocks, fmt.Sprintf("Source Page: %s\nContent: %s", page, c.Content))
	}
	return strings.Join(blocks, models.ContextSeparator)
}

// SourcePages returns the sorted distinct pages of chunks. Unknown pages
// count as 0. The result is never nil.
func SourcePages(chunks []models.Chunk) []int {
	pages := make([]int, 0, len(chunks))
	for _, c := range chunks {
		pages = append(pages, max(c.PageNumber, 0))
	}
	slices.Sort(pages)
	return slices.Compact(pages)
}
