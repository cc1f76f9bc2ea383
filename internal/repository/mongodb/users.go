package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/packhouse/internal/domain/models"
)

// UserByEmail loads an account by its lower-cased email.
func (r *MongoDBRepository) UserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findUser(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

// UserByID loads an account by id.
func (r *MongoDBRepository) UserByID(ctx context.Context, id string) (models.User, error) {
	return r.findUser(ctx, bson.M{"id": id})
}

// CreateUser stores a new account.
func (r *MongoDBRepository) CreateUser(ctx context.Context, user models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if _, err := r.db.Collection(usersCollection).InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s: %w", user.Email, ErrDuplicateKey)
		}
		return models.Remote("insert user", err)
	}
	return nil
}

func (r *MongoDBRepository) findUser(ctx context.Context, filter bson.M) (models.User, error) {
	var user models.User
	err := r.db.Collection(usersCollection).FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, models.ErrNotFound
	}
	if err != nil {
		return models.User{}, models.Remote("find user", err)
	}
	return user, nil
}
