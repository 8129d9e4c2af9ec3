package loader

import (
	"context"
	"fmt"
	"io"
	"sort"

	gojson "github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoSource yields documents from one or more MongoDB collections.
// BSON documents are normalized through relaxed Extended JSON so the
// profiler sees plain tree values; BSON-specific types (ObjectId, dates,
// binary) surface as their Extended JSON representations.
type MongoSource struct {
	client *mongo.Client
	db     string
	colls  []string
	idx    int
	cur    *mongo.Cursor
}

// OpenMongo connects to a MongoDB deployment and prepares to read every
// document from the named collections in order. With no collections
// named, all collections in the database are read, sorted by name.
func OpenMongo(ctx context.Context, uri, db string, collections ...string) (*MongoSource, error) {
	if db == "" {
		return nil, fmt.Errorf("loader: mongo database name is required")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("loader: connect %s: %w", uri, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("loader: ping %s: %w", uri, err)
	}

	if len(collections) == 0 {
		collections, err = client.Database(db).ListCollectionNames(ctx, bson.D{})
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("loader: list collections in %s: %w", db, err)
		}
		sort.Strings(collections)
	}

	return &MongoSource{client: client, db: db, colls: collections}, nil
}

func (s *MongoSource) Next(ctx context.Context) (any, error) {
	for {
		if s.cur == nil {
			if s.idx >= len(s.colls) {
				return nil, io.EOF
			}
			coll := s.client.Database(s.db).Collection(s.colls[s.idx])
			cur, err := coll.Find(ctx, bson.D{})
			if err != nil {
				return nil, fmt.Errorf("loader: find %s.%s: %w", s.db, s.colls[s.idx], err)
			}
			s.cur = cur
		}

		if s.cur.Next(ctx) {
			doc, err := normalizeBSON(s.cur.Current)
			if err != nil {
				return nil, &DecodeError{
					Source: s.db + "." + s.colls[s.idx],
					Err:    err,
				}
			}
			return doc, nil
		}

		err := s.cur.Err()
		_ = s.cur.Close(ctx)
		s.cur = nil
		s.idx++
		if err != nil {
			return nil, fmt.Errorf("loader: cursor %s.%s: %w", s.db, s.colls[s.idx-1], err)
		}
	}
}

func (s *MongoSource) Close() error {
	if s.cur != nil {
		_ = s.cur.Close(context.Background())
		s.cur = nil
	}
	return s.client.Disconnect(context.Background())
}

func normalizeBSON(raw bson.Raw) (any, error) {
	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := gojson.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
