package models

// UnknownPage marks a chunk whose source page could not be determined.
const UnknownPage = -1

// Chunk represents a parsed chunk with metadata
type Chunk struct {
	Content    string
	PageNumber int
	ChunkID    int
}

// ChunkEmbedding is a chunk ready to be written into the index
type ChunkEmbedding struct {
	Content        string
	Embedding      []float32
	SourceFilename string
	PageNumber     int
	ChunkID        int
}

type IngestResult struct {
	Message         string   `json:"message"`
	TableOfContents []string `json:"table_of_contents"`
}
