package mongodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/quillworks/quill/pkg/storage"
)

func TestCastIDRoundTripsHex(t *testing.T) {
	oid, err := castID("64a0a2f4b3e4c5d6e7f80912")
	require.NoError(t, err)
	assert.Equal(t, "64a0a2f4b3e4c5d6e7f80912", oid.Hex())
}

func TestCastIDRejectsNonHexKeys(t *testing.T) {
	_, err := castID("not-an-object-id")
	assert.Error(t, err)
}

func TestTranslateMapsDriverSentinels(t *testing.T) {
	assert.ErrorIs(t, translate(mongo.ErrNoDocuments), storage.ErrNotFound)
}

func TestUpdateEmptyPatchReadsInsteadOfWriting(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("empty patch", func(mt *mtest.T) {
		adapter := NewWithDatabase(mt.DB, nil)
		oid := primitive.NewObjectID()

		// Only a find response is queued: an update command would fail.
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "quill.notes", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: oid}, {Key: "title", Value: "unchanged"}}))

		rec, err := adapter.Update(context.Background(), "notes", oid.Hex(), storage.Record{})
		require.NoError(mt, err)
		assert.Equal(mt, "unchanged", rec["title"])
	})
}
