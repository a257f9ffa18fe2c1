// Package cache stores computed embeddings in Redis so that re-indexing the
// same text does not call the provider again.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"pdfqa/internal/ai"
	"pdfqa/internal/logger"
)

// EmbeddingCache wraps an embedder with a Redis read-through cache. Cache
// failures are logged and fall through to the provider.
type EmbeddingCache struct {
	next  ai.Embedder
	redis *redis.Client
	ttl   time.Duration
}

func NewEmbeddingCache(next ai.Embedder, client *redis.Client, ttl time.Duration) *EmbeddingCache {
	return &EmbeddingCache{next: next, redis: client, ttl: ttl}
}

func (c *EmbeddingCache) Name() string { return c.next.Name() }

func (c *EmbeddingCache) key(kind, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("emb:%s:%s:%s", c.next.Name(), kind, hex.EncodeToString(sum[:]))
}

func (c *EmbeddingCache) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = c.key("doc", t)
	}

	vectors := make([][]float32, len(texts))
	cached, err := c.redis.MGet(ctx, keys...).Result()
	if err != nil {
		logger.Warn("embedding cache read failed", "error", err)
		cached = nil
	}

	var missIdx []int
	var missTexts []string
	for i := range texts {
		if i < len(cached) {
			if s, ok := cached[i].(string); ok {
				if v, err := decodeVector([]byte(s)); err == nil {
					vectors[i] = v
					continue
				}
			}
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, texts[i])
	}
	if len(missTexts) == 0 {
		return vectors, nil
	}

	fresh, err := c.next.EmbedDocuments(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	pipe := c.redis.Pipeline()
	for j, i := range missIdx {
		vectors[i] = fresh[j]
		pipe.Set(ctx, keys[i], encodeVector(fresh[j]), c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("embedding cache write failed", "error", err)
	}
	return vectors, nil
}

func (c *EmbeddingCache) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := c.key("query", text)
	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if v, decErr := decodeVector(data); decErr == nil {
			return v, nil
		}
	case !errors.Is(err, redis.Nil):
		logger.Warn("embedding cache read failed", "error", err)
	}

	v, err := c.next.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.redis.Set(ctx, key, encodeVector(v), c.ttl).Err(); err != nil {
		logger.Warn("embedding cache write failed", "error", err)
	}
	return v, nil
}

// Close releases the wrapped provider if it holds resources.
func (c *EmbeddingCache) Close() error {
	if cl, ok := c.next.(ai.Closer); ok {
		return cl.Close()
	}
	return nil
}

// encodeVector packs v as little-endian float32s.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid cached vector length %d", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
