package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/terang55/rainbow-rich-auth-server/internal/subscription"
)

const mongoCollectionPrefix = "subscriptions_"

// MongoStore keeps one collection per product scope and one document per
// subject, keyed by _id.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (r *MongoStore) col(scope string) *mongo.Collection {
	return r.db.Collection(mongoCollectionPrefix + scope)
}

func (r *MongoStore) Get(ctx context.Context, scope, subjectID string) (*subscription.Record, error) {
	var rec subscription.Record
	err := r.col(scope).FindOne(ctx, bson.M{"_id": subjectID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, unavailable("get", err)
	}
	return &rec, nil
}

func (r *MongoStore) Put(ctx context.Context, scope, subjectID string, rec *subscription.Record) error {
	doc := *rec
	doc.SubjectID = subjectID

	_, err := r.col(scope).ReplaceOne(ctx,
		bson.M{"_id": subjectID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return unavailable("put", err)
	}
	return nil
}

func (r *MongoStore) Patch(ctx context.Context, scope, subjectID string, p subscription.Patch) error {
	fields := p.Fields()
	if len(fields) == 0 {
		rec, err := r.Get(ctx, scope, subjectID)
		if err != nil {
			return err
		}
		if rec == nil {
			return subscription.ErrNotFound
		}
		return nil
	}

	res, err := r.col(scope).UpdateOne(ctx, bson.M{"_id": subjectID}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return unavailable("patch", err)
	}
	if res.MatchedCount == 0 {
		return subscription.ErrNotFound
	}
	return nil
}

func (r *MongoStore) Delete(ctx context.Context, scope, subjectID string) error {
	res, err := r.col(scope).DeleteOne(ctx, bson.M{"_id": subjectID})
	if err != nil {
		return unavailable("delete", err)
	}
	if res.DeletedCount == 0 {
		return subscription.ErrNotFound
	}
	return nil
}

func (r *MongoStore) List(ctx context.Context, scope string) ([]subscription.Record, error) {
	cursor, err := r.col(scope).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, unavailable("list", err)
	}
	defer cursor.Close(ctx)

	records := []subscription.Record{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, unavailable("list", err)
	}
	return records, nil
}
