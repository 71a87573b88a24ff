package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ncobase/searchsync/search"
)

// MongoRepository reads a model from a MongoDB collection. ObjectIDs are
// exposed as hex strings.
type MongoRepository struct {
	coll *mongo.Collection
	spec *ModelSpec
}

// NewMongoRepository creates a repository on the collection named by the
// model table.
func NewMongoRepository(db *mongo.Database, spec *ModelSpec) *MongoRepository {
	return &MongoRepository{coll: db.Collection(spec.Table), spec: spec}
}

func (r *MongoRepository) Spec() *ModelSpec { return r.spec }

func (r *MongoRepository) projection() bson.D {
	if len(r.spec.Fields) == 0 {
		return nil
	}
	p := bson.D{{Key: r.spec.KeyField, Value: 1}}
	for _, f := range append(append([]string{}, r.spec.Fields...), r.spec.SearchableField, r.spec.SoftDeleteField) {
		if f != "" && f != r.spec.KeyField {
			p = append(p, bson.E{Key: f, Value: 1})
		}
	}
	return p
}

// FindByKeys loads the documents whose keyField is among keys in one query.
func (r *MongoRepository) FindByKeys(ctx context.Context, keyField string, keys []any) ([]search.Searchable, error) {
	if len(keys) == 0 {
		return []search.Searchable{}, nil
	}
	if keyField == "" {
		keyField = r.spec.KeyField
	}
	values := make(bson.A, 0, len(keys))
	for _, k := range keys {
		values = append(values, mongoKey(keyField, k))
	}

	opts := options.Find()
	if p := r.projection(); p != nil {
		opts.SetProjection(p)
	}
	cursor, err := r.coll.Find(ctx, bson.M{keyField: bson.M{"$in": values}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s by %s: %w", r.spec.Name, keyField, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("read %s: %w", r.spec.Name, err)
	}
	out := make([]search.Searchable, 0, len(docs))
	for _, d := range docs {
		out = append(out, r.spec.NewRecord(normalizeDoc(d)))
	}
	return out, nil
}

// Find loads one document by the model key.
func (r *MongoRepository) Find(ctx context.Context, key any) (*Record, error) {
	return findOne(ctx, r, r.spec, key)
}

// Chunk walks the collection in key order.
func (r *MongoRepository) Chunk(ctx context.Context, size int, fn func([]search.Searchable) error) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", search.ErrInvalidArgument)
	}
	key := r.spec.KeyField
	var last any
	for {
		filter := bson.M{}
		if last != nil {
			filter[key] = bson.M{"$gt": last}
		}
		opts := options.Find().SetSort(bson.D{{Key: key, Value: 1}}).SetLimit(int64(size))
		if p := r.projection(); p != nil {
			opts.SetProjection(p)
		}

		cursor, err := r.coll.Find(ctx, filter, opts)
		if err != nil {
			return fmt.Errorf("chunk %s: %w", r.spec.Name, err)
		}
		var docs []bson.M
		err = cursor.All(ctx, &docs)
		cursor.Close(ctx)
		if err != nil {
			return fmt.Errorf("chunk %s: %w", r.spec.Name, err)
		}
		if len(docs) == 0 {
			return nil
		}

		recs := make([]search.Searchable, 0, len(docs))
		for _, d := range docs {
			recs = append(recs, r.spec.NewRecord(normalizeDoc(d)))
		}
		if err := fn(recs); err != nil {
			return err
		}
		if len(docs) < size {
			return nil
		}
		last = docs[len(docs)-1][key]
	}
}

// mongoKey converts a hex string back into an ObjectID for _id lookups.
func mongoKey(field string, v any) any {
	if s, ok := v.(string); ok && field == "_id" {
		if oid, err := primitive.ObjectIDFromHex(s); err == nil {
			return oid
		}
		return s
	}
	return normalizeKey(v)
}

func normalizeDoc(d bson.M) map[string]any {
	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339Nano)
	case primitive.Decimal128:
		return t.String()
	case bson.M:
		return normalizeDoc(t)
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalizeValue(e.Value)
		}
		return m
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}

var _ Repository = (*MongoRepository)(nil)
