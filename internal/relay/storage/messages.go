package storage

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a message id does not exist or the caller
// is not a party to it.
var ErrNotFound = errors.New("message not found")

// Message is the stored form of an envelope. Envelopes are immutable;
// deletion is the Deleted tombstone flag, never a mutation of the
// ciphertext fields.
type Message struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	From         string             `bson:"from"`
	To           string             `bson:"to"`
	Kind         string             `bson:"kind"`
	Ciphertext   string             `bson:"ciphertext"`
	SenderKey    string             `bson:"sender_key"`
	RecipientKey string             `bson:"recipient_key"`
	Nonce        string             `bson:"nonce"`
	Timestamp    int64              `bson:"timestamp"`
	Deleted      bool               `bson:"deleted"`
}

// MessageRepo persists envelopes in the messages collection.
type MessageRepo struct {
	collection *mongo.Collection
}

// NewMessageRepo returns a MessageRepo over db's messages collection.
func NewMessageRepo(db *mongo.Database) *MessageRepo {
	return &MessageRepo{collection: db.Collection("messages")}
}

// Insert stores a new envelope and returns its hex id.
func (r *MessageRepo) Insert(ctx context.Context, m *Message) (string, error) {
	res, err := r.collection.InsertOne(ctx, m)
	if err != nil {
		return "", err
	}
	id := res.InsertedID.(primitive.ObjectID)
	m.ID = id
	return id.Hex(), nil
}

// ListBetween returns non-tombstoned envelopes exchanged between a and b,
// oldest first. limit <= 0 means no limit.
func (r *MessageRepo) ListBetween(ctx context.Context, a, b string, limit int64) ([]*Message, error) {
	filter := bson.M{
		"deleted": false,
		"$or": bson.A{
			bson.M{"from": a, "to": b},
			bson.M{"from": b, "to": a},
		},
	}
	opts := options.Find().SetSort(bson.M{"timestamp": 1})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListForUser returns all non-tombstoned envelopes the user sent or
// received, oldest first. The conversation summary is folded from this.
func (r *MessageRepo) ListForUser(ctx context.Context, username string) ([]*Message, error) {
	filter := bson.M{
		"deleted": false,
		"$or": bson.A{
			bson.M{"from": username},
			bson.M{"to": username},
		},
	}
	cur, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.M{"timestamp": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Tombstone marks a message deleted. Only a party to the message may do
// so; anyone else gets ErrNotFound, same as a missing id.
func (r *MessageRepo) Tombstone(ctx context.Context, id, requester string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.collection.UpdateOne(
		ctx,
		bson.M{
			"_id": oid,
			"$or": bson.A{
				bson.M{"from": requester},
				bson.M{"to": requester},
			},
		},
		bson.M{"$set": bson.M{"deleted": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
