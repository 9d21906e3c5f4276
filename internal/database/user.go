package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"CrewChat/entity"
)

func (m *MongoDB) UpsertUser(ctx context.Context, user entity.User) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	user.LastSeen = time.Now()

	collection := connection.Database(m.database).Collection(usersCollection)
	filter := bson.D{{Key: "_id", Value: user.ID}}
	update := bson.M{"$set": user}

	_, err = collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongodb upsert user: %w", err)
	}
	return nil
}

// GetUserByID returns the user or (nil, nil) when unknown.
func (m *MongoDB) GetUserByID(ctx context.Context, id string) (*entity.User, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(usersCollection)

	var user entity.User
	err = collection.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&user)
	if err != nil {
		return nil, m.findError(err)
	}
	return &user, nil
}

// ListUsers returns all non-blocked users.
func (m *MongoDB) ListUsers(ctx context.Context) ([]entity.User, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(usersCollection)

	cursor, err := collection.Find(ctx, bson.D{{Key: "blocked", Value: bson.D{{Key: "$ne", Value: true}}}})
	if err != nil {
		return nil, fmt.Errorf("mongodb find users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []entity.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("mongodb decode users: %w", err)
	}
	return users, nil
}
