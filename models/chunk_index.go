package models

import "time"

// ChunkRecord is the document shape of a chunk in a per-owner MongoDB
// collection. The vector field backs Atlas $vectorSearch when enabled.
type ChunkRecord struct {
	ID        string        `bson:"_id"`
	Text      string        `bson:"text"`
	Metadata  ChunkMetadata `bson:"metadata"`
	Vector    []float32     `bson:"vector"`
	CreatedAt time.Time     `bson:"created_at"`
}

// ToChunk converts the stored record back to the domain chunk.
func (r ChunkRecord) ToChunk() Chunk {
	return Chunk{
		ID:        r.ID,
		Text:      r.Text,
		Metadata:  r.Metadata,
		Embedding: r.Vector,
	}
}

// NewChunkRecord builds the stored form of a chunk.
func NewChunkRecord(c Chunk, now time.Time) ChunkRecord {
	return ChunkRecord{
		ID:        c.ID,
		Text:      c.Text,
		Metadata:  c.Metadata,
		Vector:    c.Embedding,
		CreatedAt: now,
	}
}
