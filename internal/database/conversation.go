package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"CrewChat/entity"
)

// EnsureDirectConversation creates the 1:1 thread for the two participants
// if it does not exist yet, and returns the current record either way.
//
// The write is a single conditional upsert keyed by the deterministic pair
// id, so two participants opening the chat simultaneously both land on the
// same document; the loser's $setOnInsert is a no-op.
func (m *MongoDB) EnsureDirectConversation(ctx context.Context, a, b string) (*entity.Conversation, error) {
	if a == "" || b == "" || a == b {
		return nil, entity.ValidationError("direct conversation needs two distinct participants")
	}

	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)
	id := entity.DirectConversationID(a, b)

	filter := bson.D{{Key: "_id", Value: id}}
	update := bson.M{"$setOnInsert": bson.M{
		"participants": []string{a, b},
		"is_group":     false,
		"created_by":   a,
		"unread":       bson.M{},
		"created_at":   time.Now().UTC(),
	}}

	_, err = collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("mongodb ensure conversation: %w", err)
	}

	var conv entity.Conversation
	if err := collection.FindOne(ctx, filter).Decode(&conv); err != nil {
		return nil, fmt.Errorf("mongodb read conversation: %w", err)
	}
	return &conv, nil
}

// GetConversation returns the conversation or (nil, nil) when unknown.
func (m *MongoDB) GetConversation(ctx context.Context, id string) (*entity.Conversation, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)

	var conv entity.Conversation
	err = collection.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&conv)
	if err != nil {
		return nil, m.findError(err)
	}
	return &conv, nil
}

// ConversationsFor returns every conversation the user participates in,
// most recently active first.
func (m *MongoDB) ConversationsFor(ctx context.Context, userID string) ([]entity.Conversation, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)

	filter := bson.D{{Key: "participants", Value: userID}}
	opts := options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find conversations: %w", err)
	}
	defer cursor.Close(ctx)

	var conversations []entity.Conversation
	if err = cursor.All(ctx, &conversations); err != nil {
		return nil, fmt.Errorf("mongodb decode conversations: %w", err)
	}
	return conversations, nil
}

// InsertGroupConversation persists a new group thread.
func (m *MongoDB) InsertGroupConversation(ctx context.Context, conv entity.Conversation) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)
	if _, err := collection.InsertOne(ctx, conv); err != nil {
		return fmt.Errorf("mongodb insert group: %w", err)
	}
	return nil
}

// AddParticipants adds the given users to a group in one atomic update
// (participant set and metadata together).
func (m *MongoDB) AddParticipants(ctx context.Context, convID string, userIDs []string) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)

	update := bson.M{
		"$addToSet": bson.M{"participants": bson.M{"$each": userIDs}},
	}
	result, err := collection.UpdateOne(ctx, bson.D{{Key: "_id", Value: convID}, {Key: "is_group", Value: true}}, update)
	if err != nil {
		return fmt.Errorf("mongodb add participants: %w", err)
	}
	if result.MatchedCount == 0 {
		return entity.NotFoundError("group conversation %s", convID)
	}
	return nil
}

// RemoveParticipant removes a user from a group and drops their unread
// counter in the same atomic update.
func (m *MongoDB) RemoveParticipant(ctx context.Context, convID, userID string) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)

	update := bson.M{
		"$pull":  bson.M{"participants": userID},
		"$unset": bson.M{"unread." + userID: ""},
	}
	result, err := collection.UpdateOne(ctx, bson.D{{Key: "_id", Value: convID}, {Key: "is_group", Value: true}}, update)
	if err != nil {
		return fmt.Errorf("mongodb remove participant: %w", err)
	}
	if result.MatchedCount == 0 {
		return entity.NotFoundError("group conversation %s", convID)
	}
	return nil
}

// DeleteConversation removes the conversation, its messages and its
// sequence counter.
func (m *MongoDB) DeleteConversation(ctx context.Context, convID string) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	db := connection.Database(m.database)

	result, err := db.Collection(conversationsCollection).DeleteOne(ctx, bson.D{{Key: "_id", Value: convID}})
	if err != nil {
		return fmt.Errorf("mongodb delete conversation: %w", err)
	}
	if result.DeletedCount == 0 {
		return entity.NotFoundError("conversation %s", convID)
	}

	if _, err := db.Collection(messagesCollection).DeleteMany(ctx, bson.D{{Key: "conversation_id", Value: convID}}); err != nil {
		return fmt.Errorf("mongodb delete messages: %w", err)
	}
	if _, err := db.Collection(countersCollection).DeleteOne(ctx, bson.D{{Key: "_id", Value: convID}}); err != nil {
		return fmt.Errorf("mongodb delete counter: %w", err)
	}
	return nil
}

// TouchLastMessage records the latest message preview on the conversation.
func (m *MongoDB) TouchLastMessage(ctx context.Context, convID, text string, at time.Time) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)

	update := bson.M{"$set": bson.M{
		"last_message":    text,
		"last_message_at": at,
	}}
	if _, err := collection.UpdateOne(ctx, bson.D{{Key: "_id", Value: convID}}, update); err != nil {
		return fmt.Errorf("mongodb touch conversation: %w", err)
	}
	return nil
}
