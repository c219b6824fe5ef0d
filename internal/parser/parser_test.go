package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"document-qg/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestChunkContent(t *testing.T) {
	assert.Nil(t, chunkContent("   ", 10, 2))
	assert.Nil(t, chunkContent("abc", 0, 0))
	assert.Equal(t, []string{"short"}, chunkContent(" short ", 10, 2))

	content := strings.Repeat("abcdefghij", 2) + "klmno"
	chunks := chunkContent(content, 10, 2)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 10)
	}
	assert.Equal(t, chunks[0][8:], chunks[1][:2])
	assert.True(t, strings.HasSuffix(content, chunks[2]))
}

func TestChunkContent_OverlapLargerThanChunk(t *testing.T) {
	chunks := chunkContent(strings.Repeat("x", 40), 10, 50)
	assert.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 10)
	}
}

func TestChunkContent_MultiByteRunes(t *testing.T) {
	content := strings.Repeat("€", 1500)
	chunks := chunkContent(content, 1000, 200)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c))
		assert.LessOrEqual(t, len(c), 1000)
	}
	assert.True(t, strings.HasSuffix(content, chunks[len(chunks)-1]))

	assert.Equal(t, []string{"€", "€", "€"}, chunkContent("€€€", 2, 0))
}

func TestParseDocument_Text(t *testing.T) {
	path := writeFile(t, "notes.txt", strings.Repeat("Exponents describe repeated multiplication. ", 10))
	cfg := &config.Config{RAG: config.RAGConfig{ChunkSize: 100, ChunkOverlap: 10}}

	chunks, err := ParseDocument(path, cfg)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.Equal(t, 1, c.PageNumber)
		assert.Equal(t, i+1, c.ChunkID)
		assert.NotEmpty(t, c.Content)
	}
}

func TestParseDocument_EmptyText(t *testing.T) {
	path := writeFile(t, "empty.txt", " \n\t\n")
	chunks, err := ParseDocument(path, nil)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestParseDocument_Markdown(t *testing.T) {
	src := "# Exponents\n\nSome *important* rules.\n\n<div>ignored</div>\n\n```\nx^2 * x^3 = x^5\n```\n"
	path := writeFile(t, "doc.md", src)

	chunks, err := ParseDocument(path, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Content, "Exponents")
	assert.Contains(t, chunks[0].Content, "Some important rules.")
	assert.Contains(t, chunks[0].Content, "x^2 * x^3 = x^5")
	assert.NotContains(t, chunks[0].Content, "ignored")
	assert.NotContains(t, chunks[0].Content, "#")
}

func TestParseDocument_UnsupportedFormat(t *testing.T) {
	_, err := ParseDocument("table.csv", nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestTableOfContents(t *testing.T) {
	path := writeFile(t, "toc.txt", "Algebra Basics\n1. Exponents\n2. Radicals\nIntroduction text 3. not a heading\n10. Logarithms\n")

	toc, err := TableOfContents(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"1. Exponents", "2. Radicals", "10. Logarithms"}, toc)
}

func TestTableOfContents_NoHeadings(t *testing.T) {
	path := writeFile(t, "plain.txt", "nothing numbered here")

	toc, err := TableOfContents(path)
	require.NoError(t, err)
	assert.NotNil(t, toc)
	assert.Empty(t, toc)
}

func TestExtractTextFromXML(t *testing.T) {
	xml := `<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve">A &amp; B</w:t></w:r></w:p>`
	assert.Equal(t, "Hello A & B ", extractTextFromXML(xml, "w:t"))
}
