package parser

import (
	"archive/zip"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"document-qg/internal/config"
	"document-qg/internal/models"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

type ParserConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

const (
	defaultChunkSize    = 1000 // bytes
	defaultChunkOverlap = 200  // bytes
	defaultPageNumber   = 1
)

var (
	tocRe       = regexp.MustCompile(models.TOCLineRegex)
	textCleaner = strings.NewReplacer(
		"\u0000", "",
		"�", "",
		"\r", "",
		"\f", "\n",
	)
)

// ParseDocument extracts page-tagged chunks from the file at filePath.
func ParseDocument(filePath string, cfg *config.Config) ([]models.Chunk, error) {
	p := ParserConfig{ChunkSize: defaultChunkSize, ChunkOverlap: defaultChunkOverlap}
	if cfg != nil && cfg.RAG.ChunkSize > 0 && cfg.RAG.ChunkOverlap >= 0 {
		p.ChunkSize = cfg.RAG.ChunkSize
		p.ChunkOverlap = cfg.RAG.ChunkOverlap
	}

	pages, err := extractPages(filePath)
	if err != nil {
		return nil, err
	}

	var chunks []models.Chunk
	for _, pg := range pages {
		chunks = append(chunks, p.getChunks(pg.text, pg.number)...)
	}
	return chunks, nil
}

// TableOfContents returns the first-page lines that look like numbered
// section headings ("1. Exponents").
func TableOfContents(filePath string) ([]string, error) {
	lines, err := firstPageLines(filePath)
	if err != nil {
		return nil, err
	}
	toc := []string{}
	for _, line := range lines {
		if tocRe.MatchString(line) {
			toc = append(toc, strings.TrimSpace(line))
		}
	}
	return toc, nil
}

type pageText struct {
	number int
	text   string
}

func extractPages(filePath string) ([]pageText, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return parsePDF(filePath)
	case ".docx":
		return parseDOCX(filePath)
	case ".pptx":
		return parsePPTX(filePath)
	case ".xlsx":
		return parseXLSX(filePath)
	case ".ods":
		return parseODS(filePath)
	case ".md", ".markdown":
		return parseMarkdown(filePath)
	case ".txt":
		return parseText(filePath)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func openPDF(filePath string) (*os.File, *pdf.Reader, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, nil, err
	}

	// Get file size for reader initialization
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to read pdf: %w", err)
	}
	return f, reader, nil
}

func parsePDF(filePath string) ([]pageText, error) {
	f, reader, err := openPDF(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []pageText
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if text = normalizeText(text); text != "" {
			pages = append(pages, pageText{number: i, text: text})
		}
	}
	return pages, nil
}

func firstPageLines(filePath string) ([]string, error) {
	if strings.ToLower(filepath.Ext(filePath)) != ".pdf" {
		pages, err := extractPages(filePath)
		if err != nil || len(pages) == 0 {
			return nil, err
		}
		return strings.Split(pages[0].text, "\n"), nil
	}

	f, reader, err := openPDF(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if reader.NumPage() == 0 {
		return nil, nil
	}
	rows, err := reader.Page(1).GetTextByRow()
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var line strings.Builder
		for _, word := range row.Content {
			line.WriteString(word.S)
		}
		lines = append(lines, line.String())
	}
	return lines, nil
}

func parseDOCX(filePath string) ([]pageText, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	// DOCX has no page numbers
	content := normalizeText(extractTextFromXML(r.Editable().GetContent(), "w:t"))
	if content == "" {
		return nil, nil
	}
	return []pageText{{number: defaultPageNumber, text: content}}, nil
}

func parsePPTX(filePath string) ([]pageText, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []pageText
	slideNum := 0
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		slideNum++
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		// slides act as pages
		if text := normalizeText(extractTextFromXML(string(data), "a:t")); text != "" {
			pages = append(pages, pageText{number: slideNum, text: text})
		}
	}
	return pages, nil
}

func parseXLSX(filePath string) ([]pageText, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, err
	}

	var pages []pageText
	for sheetNum, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		if content := normalizeText(text.String()); content != "" {
			pages = append(pages, pageText{number: sheetNum + 1, text: content})
		}
	}
	return pages, nil
}

func parseODS(filePath string) ([]pageText, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []pageText
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			text.WriteString(strings.Join(row, "\t"))
			text.WriteString("\n")
		}
		if content := normalizeText(text.String()); content != "" {
			pages = append(pages, pageText{number: sheetNum + 1, text: content})
		}
	}
	return pages, nil
}

func parseMarkdown(filePath string) ([]pageText, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	content := normalizeText(markdownToText(data))
	if content == "" {
		return nil, nil
	}
	return []pageText{{number: defaultPageNumber, text: content}}, nil
}

func parseText(filePath string) ([]pageText, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	content := normalizeText(string(data))
	if content == "" {
		return nil, nil
	}
	return []pageText{{number: defaultPageNumber, text: content}}, nil
}

func normalizeText(text string) string {
	text = textCleaner.Replace(text)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func extractTextFromXML(xmlContent, tag string) string {
	re := regexp.MustCompile(`<` + regexp.QuoteMeta(tag) + `(?:\s[^>]*)?>([^<]*)</` + regexp.QuoteMeta(tag) + `>`)
	var text strings.Builder
	for _, m := range re.FindAllStringSubmatch(xmlContent, -1) {
		text.WriteString(html.UnescapeString(m[1]) + " ")
	}
	return text.String()
}

// chunk content into chunks with maxChars and overlapChars
func chunkContent(content string, maxChars, overlapChars int) []string {
	// Handle edge cases
	if maxChars <= 0 {
		return nil
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}

	content = strings.TrimSpace(content)
	contentLen := len(content)
	if contentLen == 0 {
		return nil
	}

	// If content is shorter than maxChars, return it as a single chunk
	if contentLen <= maxChars {
		return []string{content}
	}

	var chunks []string
	start := 0
	for start < contentLen {
		end := min(start+maxChars, contentLen)
		// never split a multi-byte character
		for end > start && end < contentLen && !utf8.RuneStart(content[end]) {
			end--
		}
		if end == start {
			_, size := utf8.DecodeRuneInString(content[start:])
			end = start + size
		}

		// Find a clean break point (e.g., end of a word or sentence) if possible
		if end < contentLen {
			// Look for a space or punctuation within the last 10% of the chunk
			lookBack := min(maxChars/10, end-start)
			for i := end - 1; i >= end-lookBack && i > start; i-- {
				if content[i] == ' ' || content[i] == '\n' || content[i] == '.' {
					end = i + 1
					break
				}
			}
		}

		chunk := strings.TrimSpace(content[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= contentLen {
			break
		}

		// Move start forward, accounting for overlap
		next := end - overlapChars
		for next > start && !utf8.RuneStart(content[next]) {
			next--
		}
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// get chunks from content and page number
func (p *ParserConfig) getChunks(content string, pageNumber int) []models.Chunk {
	var chunks []models.Chunk
	for i, chunkString := range chunkContent(content, p.ChunkSize, p.ChunkOverlap) {
		chunks = append(chunks, models.Chunk{
			Content:    chunkString,
			PageNumber: pageNumber,
			ChunkID:    i + 1,
		})
	}
	return chunks
}
