package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pdfqa/models"
)

// codeNamespaceExists is returned by create when the collection is already there.
const codeNamespaceExists = 48

// MongoStore keeps one MongoDB collection per owner. With vectorSearch set,
// queries use an Atlas $vectorSearch stage on indexName; otherwise the
// owner's chunks are loaded and ranked in process.
type MongoStore struct {
	client       *mongo.Client
	db           *mongo.Database
	vectorSearch bool
	indexName    string
}

func NewMongoStore(client *mongo.Client, dbName string, vectorSearch bool, indexName string) *MongoStore {
	return &MongoStore{
		client:       client,
		db:           client.Database(dbName),
		vectorSearch: vectorSearch,
		indexName:    indexName,
	}
}

func (s *MongoStore) Backend() string { return "mongo" }

func (s *MongoStore) GetOrCreateCollection(ctx context.Context, name string) (Collection, error) {
	err := s.db.CreateCollection(ctx, name)
	var cmdErr mongo.CommandError
	if err != nil && !(errors.As(err, &cmdErr) && cmdErr.Code == codeNamespaceExists) {
		return nil, fmt.Errorf("create collection %s: %w", name, err)
	}

	coll := s.db.Collection(name)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "metadata.uuid", Value: 1}},
		Options: options.Index().SetName("metadata_uuid"),
	})
	if err != nil {
		return nil, fmt.Errorf("create owner index on %s: %w", name, err)
	}

	return &mongoCollection{store: s, coll: coll}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type mongoCollection struct {
	store *MongoStore
	coll  *mongo.Collection
}

func (c *mongoCollection) Name() string { return c.coll.Name() }

func (c *mongoCollection) Add(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	now := time.Now()
	docs := make([]interface{}, len(chunks))
	for i, ch := range chunks {
		docs[i] = models.NewChunkRecord(ch, now)
	}
	if _, err := c.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert chunks into %s: %w", c.Name(), err)
	}
	return nil
}

func (c *mongoCollection) Query(ctx context.Context, vector []float32, filter Filter, topK int) ([]models.ScoredChunk, error) {
	if c.store.vectorSearch && topK > 0 {
		return c.vectorSearch(ctx, vector, filter, topK)
	}

	query := bson.M{}
	if filter.UUID != "" {
		query["metadata.uuid"] = filter.UUID
	}
	cursor, err := c.coll.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find chunks in %s: %w", c.Name(), err)
	}
	defer cursor.Close(ctx)

	var records []models.ChunkRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode chunks from %s: %w", c.Name(), err)
	}

	candidates := make([]models.Chunk, len(records))
	for i, r := range records {
		candidates[i] = r.ToChunk()
	}
	return rank(vector, candidates, filter, topK)
}

func (c *mongoCollection) vectorSearch(ctx context.Context, vector []float32, filter Filter, topK int) ([]models.ScoredChunk, error) {
	stage := bson.M{
		"index":         c.store.indexName,
		"path":          "vector",
		"queryVector":   vector,
		"numCandidates": topK * 20,
		"limit":         topK,
	}
	if filter.UUID != "" {
		stage["filter"] = bson.M{"metadata.uuid": bson.M{"$eq": filter.UUID}}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: stage}},
		{{Key: "$addFields", Value: bson.M{"score": bson.M{"$meta": "vectorSearchScore"}}}},
	}
	cursor, err := c.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search on %s: %w", c.Name(), err)
	}
	defer cursor.Close(ctx)

	var hits []struct {
		models.ChunkRecord `bson:",inline"`
		Score              float64 `bson:"score"`
	}
	if err := cursor.All(ctx, &hits); err != nil {
		return nil, fmt.Errorf("decode vector search results: %w", err)
	}

	results := make([]models.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		// the index filter is advisory on some cluster tiers; recheck
		if !filter.match(h.Metadata) {
			continue
		}
		results = append(results, models.ScoredChunk{Chunk: h.ToChunk(), Score: h.Score})
	}
	return results, nil
}

func (c *mongoCollection) Count(ctx context.Context) (int, error) {
	n, err := c.coll.CountDocuments(ctx, bson.M{})
	return int(n), err
}
