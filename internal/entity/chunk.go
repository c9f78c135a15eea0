package entity

// Chunk is a window of consecutive sentences taken from one cleaned document.
type Chunk struct {
	SourceFile    string   `json:"source_file"`
	Category      Category `json:"category"`
	ChunkIndex    int      `json:"chunk_index"`
	ChunkText     string   `json:"chunk_text"`
	CharLen       int      `json:"char_len"`
	SentenceCount int      `json:"sentence_count"`
}

// RetrievalHit is one ranked search result for a (question, category) pair.
// Index is the position of the matched row in the category metadata.
type RetrievalHit struct {
	Rank          int      `json:"rank"`
	Index         int      `json:"index"`
	Score         float32  `json:"score"`
	Category      Category `json:"category,omitempty"`
	ChunkText     string   `json:"chunk_text"`
	SourceFile    string   `json:"source_file"`
	CharLen       int      `json:"char_len"`
	SentenceCount int      `json:"sentence_count"`
}

// ExpandedHit is a RetrievalHit grown with surrounding document text.
type ExpandedHit struct {
	RetrievalHit
	ExpandedText string `json:"expanded_text"`
}

// Text returns the text a prompt should cite for this hit.
func (h ExpandedHit) Text() string {
	if h.ExpandedText != "" {
		return h.ExpandedText
	}
	return h.ChunkText
}
