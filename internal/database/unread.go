package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"CrewChat/entity"
)

// IncrementUnread bumps the pending-message counter for every recipient
// except the sender. All increments go in one server-side update; counters
// are never computed client-side.
func (m *MongoDB) IncrementUnread(ctx context.Context, convID string, participants []string, senderID string) error {
	inc := bson.M{}
	for _, p := range participants {
		if p == "" || p == senderID {
			continue
		}
		inc["unread."+p] = 1
	}
	if len(inc) == 0 {
		return nil
	}

	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)

	result, err := collection.UpdateOne(ctx, bson.D{{Key: "_id", Value: convID}}, bson.M{"$inc": inc})
	if err != nil {
		return fmt.Errorf("mongodb increment unread: %w", err)
	}
	if result.MatchedCount == 0 {
		return entity.NotFoundError("conversation %s", convID)
	}
	return nil
}

// ResetUnread sets the user's counter to an absolute zero. Combined with
// increment-only bumps this keeps the counter non-negative under any
// interleaving of reads and sends.
func (m *MongoDB) ResetUnread(ctx context.Context, convID, userID string) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)

	update := bson.M{"$set": bson.M{"unread." + userID: 0}}
	result, err := collection.UpdateOne(ctx, bson.D{{Key: "_id", Value: convID}}, update)
	if err != nil {
		return fmt.Errorf("mongodb reset unread: %w", err)
	}
	if result.MatchedCount == 0 {
		return entity.NotFoundError("conversation %s", convID)
	}
	return nil
}
