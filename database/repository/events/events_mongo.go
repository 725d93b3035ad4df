package eventsRepo

import (
	"context"
	"fmt"
	"time"

	"selftape/database/repository"
	"selftape/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MongoEventJournal implements repository.EventJournal using MongoDB.
// The Stripe event id is the document _id, so a redelivery fails the insert.
type MongoEventJournal struct {
	coll *mongo.Collection
}

// NewMongoEventJournal creates the journal on the "webhook_events" collection.
func NewMongoEventJournal(client *mongo.Client, dbName string, logger *zap.Logger) *MongoEventJournal {
	coll := client.Database(dbName).Collection("webhook_events")
	repo := &MongoEventJournal{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		logger.Warn("failed to create webhook event indexes", zap.Error(err))
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

func (r *MongoEventJournal) Record(ctx context.Context, ev models.WebhookEvent) (bool, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, ev); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return r.reclaim(ctx, ev)
		}
		return false, fmt.Errorf("record webhook event: %w", err)
	}
	return true, nil
}

// reclaim takes over an entry whose handler died before marking an outcome.
func (r *MongoEventJournal) reclaim(ctx context.Context, ev models.WebhookEvent) (bool, error) {
	filter := bson.M{
		"_id":        ev.ID,
		"outcome":    bson.M{"$exists": false},
		"receivedAt": bson.M{"$lte": ev.ReceivedAt.Add(-repository.PendingEventLease)},
	}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"receivedAt": ev.ReceivedAt}})
	if err != nil {
		return false, fmt.Errorf("reclaim webhook event: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoEventJournal) MarkOutcome(ctx context.Context, id, outcome string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"outcome": outcome}})
	if err != nil {
		return fmt.Errorf("mark webhook event: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MongoEventJournal) Forget(ctx context.Context, id string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("forget webhook event: %w", err)
	}
	return nil
}
