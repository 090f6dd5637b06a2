package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// User is the relay's account record. PasswordHash is bcrypt;
// WrappedPrivateKey is the client-sealed escrow blob, opaque to the relay.
type User struct {
	Username          string `bson:"username" json:"username"`
	PasswordHash      []byte `bson:"password_hash" json:"-"`
	PublicKey         string `bson:"public_key" json:"public_key"`
	WrappedPrivateKey string `bson:"wrapped_private_key" json:"-"`
	CreatedAt         int64  `bson:"created_at" json:"created_at"`
}

// UserRepo persists accounts in the users collection.
type UserRepo struct {
	collection *mongo.Collection
}

// NewUserRepo returns a UserRepo over db's users collection.
func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{collection: db.Collection("users")}
}

// Create inserts a new account record.
func (r *UserRepo) Create(ctx context.Context, u *User) error {
	if u.CreatedAt == 0 {
		u.CreatedAt = time.Now().Unix()
	}
	_, err := r.collection.InsertOne(ctx, u)
	return err
}

// GetByUsername returns the account or nil when it does not exist.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	filter := bson.M{"username": username}

	var u User
	err := r.collection.FindOne(ctx, filter).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdatePasswordHash replaces the stored bcrypt hash, used by recovery.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, username string, hash []byte) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"username": username},
		bson.M{"$set": bson.M{"password_hash": hash}},
	)
	return err
}
