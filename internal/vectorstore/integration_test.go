package vectorstore

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pdfqa/models"
)

// exerciseStore checks owner isolation and ranking against a live backend.
func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()
	owner := uuid.NewString()

	coll, err := store.GetOrCreateCollection(ctx, CollectionName(owner))
	require.NoError(t, err)
	again, err := store.GetOrCreateCollection(ctx, CollectionName(owner))
	require.NoError(t, err)
	assert.Equal(t, coll.Name(), again.Name())

	require.NoError(t, coll.Add(ctx, []models.Chunk{
		chunk(uuid.NewString(), owner, 1, 1, 0, 0),
		chunk(uuid.NewString(), owner, 2, 0, 1, 0),
		chunk(uuid.NewString(), "someone-else", 3, 1, 0, 0),
	}))

	hits, err := coll.Query(ctx, []float32{1, 0, 0}, Filter{UUID: owner}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 1, hits[0].Metadata.Page)
	for _, h := range hits {
		assert.Equal(t, owner, h.Metadata.UUID)
	}
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	require.NoError(t, err)

	store := NewMongoStore(client, "pdfqa_test", false, "")
	defer store.Close(context.Background())
	exerciseStore(t, store)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`)
	require.NoError(t, err)

	store := NewPostgresStore(db)
	defer store.Close(context.Background())
	exerciseStore(t, store)
}
