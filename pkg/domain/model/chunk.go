package model

import "fmt"

// EmbeddingDimension is the dimension of the embedding vector
const EmbeddingDimension = 768

// Chunk is a bounded substring of a source document, the unit of
// retrieval. Chunks are produced once during indexing and are immutable;
// (DocID, Index) identifies a chunk.
type Chunk struct {
	DocID    string `json:"doc_id"`
	DocTitle string `json:"doc_title"`
	Index    int    `json:"chunk_index"`
	Text     string `json:"text"`
}

// Citation returns the citation string for this chunk, in the exact form
// the agent must echo back when grounding a decision in it.
func (c Chunk) Citation() string {
	return fmt.Sprintf("%s#%d (%s)", c.DocID, c.Index, c.DocTitle)
}
