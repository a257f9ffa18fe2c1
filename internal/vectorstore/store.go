package vectorstore

import (
	"context"
	"errors"
	"regexp"
	"sort"

	"github.com/viterin/vek/vek32"

	"pdfqa/models"
)

// ErrDimensionMismatch is returned when a vector does not match the
// dimension already stored in a collection.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// ErrInvalidOwner is returned for owner ids that cannot name a collection.
var ErrInvalidOwner = errors.New("owner id must be 1-64 letters, digits, '-' or '_'")

// Owner ids become file names, Mongo collection names and Postgres tables.
var ownerPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateOwner reports whether owner is usable as a collection key.
func ValidateOwner(owner string) error {
	if !ownerPattern.MatchString(owner) {
		return ErrInvalidOwner
	}
	return nil
}

// Filter restricts a query to chunks whose metadata matches exactly.
type Filter struct {
	UUID string
}

func (f Filter) match(m models.ChunkMetadata) bool {
	return f.UUID == "" || m.UUID == f.UUID
}

// Collection is a named set of embedded chunks.
type Collection interface {
	Name() string
	Add(ctx context.Context, chunks []models.Chunk) error
	Query(ctx context.Context, vector []float32, filter Filter, topK int) ([]models.ScoredChunk, error)
	Count(ctx context.Context) (int, error)
}

// Store is a vector store backend. GetOrCreateCollection must be idempotent.
type Store interface {
	Backend() string
	GetOrCreateCollection(ctx context.Context, name string) (Collection, error)
	Close(ctx context.Context) error
}

// CollectionName is the collection that holds an owner's chunks.
func CollectionName(owner string) string {
	return "user_" + owner
}

// rank scores candidates by cosine similarity and returns the best topK.
func rank(vector []float32, candidates []models.Chunk, filter Filter, topK int) ([]models.ScoredChunk, error) {
	scored := make([]models.ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		if !filter.match(c.Metadata) {
			continue
		}
		if len(c.Embedding) != len(vector) {
			return nil, ErrDimensionMismatch
		}
		scored = append(scored, models.ScoredChunk{
			Chunk: c,
			Score: float64(vek32.CosineSimilarity(vector, c.Embedding)),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}
