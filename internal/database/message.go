package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"CrewChat/entity"
)

// nextSeq atomically advances the per-conversation message sequence.
func (m *MongoDB) nextSeq(ctx context.Context, connection *mongo.Client, convID string) (int64, error) {
	collection := connection.Database(m.database).Collection(countersCollection)

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := collection.FindOneAndUpdate(
		ctx,
		bson.D{{Key: "_id", Value: convID}},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("mongodb next seq: %w", err)
	}
	return counter.Seq, nil
}

// AppendMessage stores a message with a server-assigned timestamp and
// sequence number, and returns the stored record.
func (m *MongoDB) AppendMessage(ctx context.Context, msg entity.Message) (*entity.Message, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	seq, err := m.nextSeq(ctx, connection, msg.ConversationID)
	if err != nil {
		return nil, err
	}
	msg.Seq = seq
	msg.CreatedAt = time.Now().UTC()

	collection := connection.Database(m.database).Collection(messagesCollection)
	result, err := collection.InsertOne(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("mongodb insert message: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		msg.ID = oid
	}

	if m.historyCap > 0 {
		if err := m.trimHistory(ctx, connection, msg.ConversationID); err != nil {
			m.log.Warn("trim history failed", "conversation_id", msg.ConversationID, "error", err.Error())
		}
	}

	return &msg, nil
}

// retentionCutoffSkip returns the newest-first offset of the oldest message
// that survives a trim to capacity, or false when the log is within the
// cap and nothing needs trimming.
func retentionCutoffSkip(count int64, capacity int) (int64, bool) {
	if capacity <= 0 || count <= int64(capacity) {
		return 0, false
	}
	return int64(capacity - 1), true
}

// olderThanFilter matches the messages of a conversation strictly older
// than the (at, seq) cursor. Shared by pagination and retention so both
// apply the same ordering rule.
func olderThanFilter(convID string, at time.Time, seq int64) bson.D {
	return bson.D{
		{Key: "conversation_id", Value: convID},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "created_at", Value: bson.D{{Key: "$lt", Value: at}}}},
			bson.D{{Key: "created_at", Value: at}, {Key: "seq", Value: bson.D{{Key: "$lt", Value: seq}}}},
		}},
	}
}

// trimHistory keeps at most historyCap messages per conversation, dropping
// the oldest beyond the cap.
func (m *MongoDB) trimHistory(ctx context.Context, connection *mongo.Client, convID string) error {
	collection := connection.Database(m.database).Collection(messagesCollection)

	filter := bson.D{{Key: "conversation_id", Value: convID}}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return fmt.Errorf("mongodb count messages: %w", err)
	}
	skip, trim := retentionCutoffSkip(count, m.historyCap)
	if !trim {
		return nil
	}

	// Fetch the cap-th newest message; everything strictly older goes.
	opts := options.FindOne().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "seq", Value: -1}}).
		SetSkip(skip)
	var cutoff entity.Message
	if err := collection.FindOne(ctx, filter, opts).Decode(&cutoff); err != nil {
		return fmt.Errorf("mongodb find cutoff message: %w", err)
	}

	if _, err := collection.DeleteMany(ctx, olderThanFilter(convID, cutoff.CreatedAt, cutoff.Seq)); err != nil {
		return fmt.Errorf("mongodb trim messages: %w", err)
	}
	return nil
}

// LatestMessages returns the newest window of a conversation in ascending
// (created_at, seq) order.
func (m *MongoDB) LatestMessages(ctx context.Context, convID string, window int) ([]entity.Message, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(messagesCollection)

	filter := bson.D{{Key: "conversation_id", Value: convID}}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "seq", Value: -1}}).
		SetLimit(int64(window))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []entity.Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("mongodb decode messages: %w", err)
	}
	reverseMessages(messages)
	return messages, nil
}

// MessagesBefore returns up to limit messages strictly older than the
// (beforeAt, beforeSeq) cursor, ascending.
func (m *MongoDB) MessagesBefore(ctx context.Context, convID string, beforeAt time.Time, beforeSeq int64, limit int) ([]entity.Message, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(messagesCollection)

	filter := olderThanFilter(convID, beforeAt, beforeSeq)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "seq", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find older messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []entity.Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("mongodb decode older messages: %w", err)
	}
	reverseMessages(messages)
	return messages, nil
}

func reverseMessages(messages []entity.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}

// EnsureIndexes creates the indexes backing conversation listing and
// message pagination.
func (m *MongoDB) EnsureIndexes() error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	db := connection.Database(m.database)

	_, err = db.Collection(messagesCollection).Indexes().CreateOne(m.ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "conversation_id", Value: 1},
			{Key: "created_at", Value: -1},
			{Key: "seq", Value: -1},
		},
	})
	if err != nil {
		return fmt.Errorf("mongodb create message index: %w", err)
	}

	_, err = db.Collection(conversationsCollection).Indexes().CreateOne(m.ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "participants", Value: 1},
			{Key: "last_message_at", Value: -1},
		},
	})
	if err != nil {
		return fmt.Errorf("mongodb create conversation index: %w", err)
	}
	return nil
}
