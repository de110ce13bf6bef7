package monitor

import (
	"context"
	"github.com/google/uuid"
	"github.com/xyths/opensea-floor-monitor/alert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"time"
)

const (
	CollEvent       = "events"
	expireIndexName = "eventExpireIndex"
)

// Record is one alert event shown by the dashboard.
type Record struct {
	Id         string    `json:"id" bson:"id"`
	Type       string    `json:"type" bson:"type"`
	Message    string    `json:"message" bson:"message"`
	Collection string    `json:"collection" bson:"collection"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

func toRecord(in alert.Intent) Record {
	return Record{
		Id:         uuid.NewString(),
		Type:       string(in.Kind),
		Message:    in.Message(),
		Collection: in.Collection,
		CreatedAt:  time.Now(),
	}
}

// Sink receives every alert event.
type Sink interface {
	Record(ctx context.Context, r Record) error
}

type LogSink struct {
	Sugar *zap.SugaredLogger
}

func (s LogSink) Record(_ context.Context, r Record) error {
	if r.Type == string(alert.KindListing) {
		s.Sugar.Debugf("[%s] %s: %s", r.Type, r.Collection, r.Message)
		return nil
	}
	s.Sugar.Infof("[%s] %s: %s", r.Type, r.Collection, r.Message)
	return nil
}

// MongoSink keeps recent alert events in a collection with a TTL index.
type MongoSink struct {
	db     *mongo.Database
	expire time.Duration
}

func NewMongoSink(db *mongo.Database, expire time.Duration) *MongoSink {
	return &MongoSink{db: db, expire: expire}
}

func (s *MongoSink) Record(ctx context.Context, r Record) error {
	_, err := s.db.Collection(CollEvent).InsertOne(ctx, r)
	return err
}

// initIndex creates the TTL index once.
func (s *MongoSink) initIndex(ctx context.Context) (string, error) {
	// list index first
	coll := s.db.Collection(CollEvent)
	indexView := coll.Indexes()
	cursor, err := indexView.List(ctx, options.ListIndexes().SetMaxTime(time.Second*2))
	if err != nil {
		return "", err
	}
	var indexes []bson.M
	if err = cursor.All(ctx, &indexes); err != nil {
		return "", err
	}
	for _, index := range indexes {
		if index["name"] == expireIndexName {
			return "", nil
		}
	}
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(s.expire.Seconds())).SetName(expireIndexName),
	}
	return indexView.CreateOne(ctx, index)
}
