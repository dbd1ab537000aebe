// Package mongodb implements the storage.Adapter contract for MongoDB.
// Documents are keyed by ObjectID; the external string form is the
// ObjectID hex. Uniqueness is emulated with unique indexes declared by
// the schema. Result ordering has no insertion-order guarantee, so
// queries sort by _id to stay stable within one query.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/quillworks/quill/pkg/storage"
)

// namespaceExists is the server error code for creating a collection
// that is already there.
const namespaceExists = 48

// Adapter talks to one MongoDB database through the driver's pooled
// client.
type Adapter struct {
	uri      string
	database string
	client   *mongo.Client
	db       *mongo.Database
	log      *slog.Logger
}

// New returns an unconnected adapter for the given connection URI and
// database name.
func New(uri, database string, log *slog.Logger) *Adapter {
	return &Adapter{uri: uri, database: database, log: log}
}

// NewWithDatabase wraps an existing database handle, mainly for tests.
func NewWithDatabase(db *mongo.Database, log *slog.Logger) *Adapter {
	return &Adapter{database: db.Name(), client: db.Client(), db: db, log: log}
}

func (a *Adapter) Kind() storage.Backend { return storage.MongoDB }

func (a *Adapter) Connect(ctx context.Context) error {
	if a.client != nil {
		return nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(a.uri))
	if err != nil {
		return storage.ConnectionError(err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return storage.ConnectionError(err)
	}

	a.client = client
	a.db = client.Database(a.database)
	return nil
}

func (a *Adapter) Close(ctx context.Context) error {
	if a.client == nil {
		return nil
	}
	err := a.client.Disconnect(ctx)
	a.client = nil
	a.db = nil
	return err
}

func (a *Adapter) Ping(ctx context.Context) error {
	if err := a.client.Ping(ctx, readpref.Primary()); err != nil {
		return storage.ConnectionError(err)
	}
	return nil
}

// EnsureStorage creates the collection and its unique indexes.
// Creating an existing collection or an index that already exists is
// not an error.
func (a *Adapter) EnsureStorage(ctx context.Context, schema storage.Schema) error {
	if err := a.db.CreateCollection(ctx, schema.Collection()); err != nil {
		var cmdErr mongo.CommandError
		if !errors.As(err, &cmdErr) || cmdErr.Code != namespaceExists {
			return fmt.Errorf("create collection %s: %w", schema.Collection(), err)
		}
	}

	coll := a.db.Collection(schema.Collection())
	for _, field := range schema.UniqueIndexes() {
		_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("create index on %s.%s: %w", schema.Collection(), field, err)
		}
	}
	return nil
}

func (a *Adapter) Create(ctx context.Context, collection string, rec storage.Record) (storage.Record, error) {
	doc := bson.M(rec.Clone())

	res, err := a.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return nil, translate(err)
	}

	id := doc["_id"]
	if id == nil {
		id = res.InsertedID
	}
	return a.readByKey(ctx, collection, id)
}

func (a *Adapter) Read(ctx context.Context, collection, id string) (storage.Record, error) {
	oid, err := castID(id)
	if err != nil {
		return nil, storage.ErrNotFound
	}
	return a.readByKey(ctx, collection, oid)
}

func (a *Adapter) readByKey(ctx context.Context, collection string, key any) (storage.Record, error) {
	var doc bson.M
	err := a.db.Collection(collection).FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		return nil, translate(err)
	}
	return storage.Record(doc), nil
}

func (a *Adapter) Update(ctx context.Context, collection, id string, patch storage.Record) (storage.Record, error) {
	oid, err := castID(id)
	if err != nil {
		return nil, storage.ErrNotFound
	}

	// The server rejects an empty $set document; an empty patch is an
	// existence check plus read, same as the SQL adapters.
	if len(patch) == 0 {
		return a.readByKey(ctx, collection, oid)
	}

	res, err := a.db.Collection(collection).UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M(patch)},
	)
	if err != nil {
		return nil, translate(err)
	}
	if res.MatchedCount == 0 {
		return nil, storage.ErrNotFound
	}
	return a.readByKey(ctx, collection, oid)
}

func (a *Adapter) Delete(ctx context.Context, collection, id string) (bool, error) {
	oid, err := castID(id)
	if err != nil {
		return false, nil
	}

	res, err := a.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, translate(err)
	}
	return res.DeletedCount > 0, nil
}

func (a *Adapter) List(ctx context.Context, collection string, filter storage.Record, skip, limit int) ([]storage.Record, error) {
	query := bson.M{}
	for field, value := range filter {
		if field == "id" || field == "_id" {
			s, _ := value.(string)
			oid, err := castID(s)
			if err != nil {
				return []storage.Record{}, nil
			}
			query["_id"] = oid
			continue
		}
		query[field] = value
	}

	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := a.db.Collection(collection).Find(ctx, query, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var out []storage.Record
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, storage.Record(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, translate(err)
	}
	if out == nil {
		out = []storage.Record{}
	}
	return out, nil
}

// castID converts the external string id to the store's native object
// reference.
func castID(id string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(id)
}

func translate(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return storage.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", storage.ErrConstraintViolation, err)
	default:
		return err
	}
}
