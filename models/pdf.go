package models

// Document is the text of a single PDF page. It only lives for the duration
// of an upload request.
type Document struct {
	Text string `json:"text"`
	Page int    `json:"page"` // 1-based
}

// ChunkMetadata is the provenance attached to every stored chunk.
type ChunkMetadata struct {
	Source string `bson:"source" json:"source"` // original filename
	UUID   string `bson:"uuid" json:"uuid"`     // owner identifier
	Page   int    `bson:"page" json:"page"`
}

// Chunk is the unit that is embedded, stored and retrieved.
type Chunk struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	Metadata  ChunkMetadata `json:"metadata"`
	Embedding []float32     `json:"embedding,omitempty"`
}

// ScoredChunk is a retrieval hit. Higher scores are more similar.
type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}

// UploadRequest is bound from the multipart upload form.
type UploadRequest struct {
	UUID string `form:"uuid"`
}

// UploadResponse represents the response after successful upload
type UploadResponse struct {
	Message    string `json:"message"`
	Filename   string `json:"filename"`
	PageCount  int    `json:"page_count"`
	ChunkCount int    `json:"chunk_count"`
	Status     string `json:"status"`
}

// Upload status values
const (
	StatusSuccess = "success"
)
