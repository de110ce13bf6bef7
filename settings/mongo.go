package settings

import (
	"context"
	"errors"
	"github.com/xyths/opensea-floor-monitor/alert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollSettings = "settings"
	keySettings  = "settings"
)

// MongoStore reads the settings document the dashboard writes.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

type record struct {
	Key   string   `bson:"key"`
	Value Document `bson:"value"`
}

// Settings loads the document on every call. A missing document means nothing is configured.
func (s *MongoStore) Settings(ctx context.Context) (alert.Settings, error) {
	doc, err := s.Load(ctx)
	if err != nil {
		return alert.Settings{}, err
	}
	return doc.Snapshot(), nil
}

func (s *MongoStore) Load(ctx context.Context) (Document, error) {
	coll := s.db.Collection(CollSettings)
	var r record
	if err := coll.FindOne(ctx, bson.D{{Key: "key", Value: keySettings}}).Decode(&r); err == nil {
		return r.Value, nil
	} else if errors.Is(err, mongo.ErrNoDocuments) {
		return Document{}, nil
	} else {
		return Document{}, err
	}
}

func (s *MongoStore) Save(ctx context.Context, doc Document) error {
	coll := s.db.Collection(CollSettings)
	_, err := coll.UpdateOne(
		ctx,
		bson.D{
			{Key: "key", Value: keySettings},
		},
		bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "value", Value: doc},
			}},
			{Key: "$currentDate", Value: bson.D{
				{Key: "lastModified", Value: true},
			}},
		},
		options.Update().SetUpsert(true),
	)
	return err
}
