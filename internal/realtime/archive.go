package realtime

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const eventRetention = 24 * time.Hour

// Archive keeps recently published events so a resubscribing client can
// catch up on what it missed.
type Archive interface {
	Save(ctx context.Context, evt *Event) error
	Since(ctx context.Context, channel string, since time.Time, limit int) ([]Event, error)
}

type archivedEvent struct {
	ID        string    `bson:"_id"`
	Channel   string    `bson:"channel"`
	Event     string    `bson:"event"`
	Data      string    `bson:"data"`
	CreatedAt time.Time `bson:"created_at"`
}

// MongoArchive implements Archive on a MongoDB collection with a TTL index
type MongoArchive struct {
	collection *mongo.Collection
}

// NewMongoArchive creates a MongoArchive and ensures its indexes
func NewMongoArchive(ctx context.Context, db *mongo.Database) (*MongoArchive, error) {
	coll := db.Collection("realtime_events")
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "channel", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(int32(eventRetention.Seconds()))},
	})
	if err != nil {
		return nil, err
	}
	return &MongoArchive{collection: coll}, nil
}

// Save stores evt
func (a *MongoArchive) Save(ctx context.Context, evt *Event) error {
	_, err := a.collection.InsertOne(ctx, archivedEvent{
		ID:        evt.ID,
		Channel:   evt.Channel,
		Event:     evt.Event,
		Data:      string(evt.Data),
		CreatedAt: evt.At,
	})
	return err
}

// Since returns up to limit events on channel published after since, oldest first
func (a *MongoArchive) Since(ctx context.Context, channel string, since time.Time, limit int) ([]Event, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))
	cursor, err := a.collection.Find(ctx, bson.M{
		"channel":    channel,
		"created_at": bson.M{"$gt": since},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []archivedEvent
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, Event{
			ID:      r.ID,
			Event:   r.Event,
			Channel: r.Channel,
			Data:    []byte(r.Data),
			At:      r.CreatedAt.UTC(),
		})
	}
	return events, nil
}
