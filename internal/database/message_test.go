package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"CrewChat/entity"
)

func TestRetentionCutoffSkip(t *testing.T) {
	_, trim := retentionCutoffSkip(500, 0)
	assert.False(t, trim, "zero cap disables retention")

	_, trim = retentionCutoffSkip(5, 5)
	assert.False(t, trim, "log at the cap needs no trim")

	_, trim = retentionCutoffSkip(3, 5)
	assert.False(t, trim)

	skip, trim := retentionCutoffSkip(6, 5)
	require.True(t, trim)
	assert.Equal(t, int64(4), skip, "cutoff is the cap-th newest message")
}

// The trim deletes exactly the messages strictly older than the cutoff, so
// the cutoff itself and everything newer, the cap newest messages, survive.
// Ties on created_at are broken by seq, same as pagination.
func TestRetentionKeepsNewestMessages(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	newestFirst := []entity.Message{
		{ConversationID: "c1", Seq: 6, CreatedAt: base.Add(3 * time.Minute)},
		{ConversationID: "c1", Seq: 5, CreatedAt: base.Add(2 * time.Minute)},
		{ConversationID: "c1", Seq: 4, CreatedAt: base.Add(time.Minute)},
		// created_at tie around the cutoff, ordered by seq
		{ConversationID: "c1", Seq: 3, CreatedAt: base},
		{ConversationID: "c1", Seq: 2, CreatedAt: base},
		{ConversationID: "c1", Seq: 1, CreatedAt: base.Add(-time.Minute)},
	}

	const capacity = 3
	skip, trim := retentionCutoffSkip(int64(len(newestFirst)), capacity)
	require.True(t, trim)
	cutoff := newestFirst[skip]

	var survivors, deleted []entity.Message
	for i := range newestFirst {
		if newestFirst[i].Before(&cutoff) {
			deleted = append(deleted, newestFirst[i])
		} else {
			survivors = append(survivors, newestFirst[i])
		}
	}

	require.Len(t, survivors, capacity)
	assert.Equal(t, newestFirst[:capacity], survivors)
	for i := range deleted {
		assert.Less(t, deleted[i].Seq, cutoff.Seq)
	}
}

// Retention and pagination must share one ordering rule: the delete filter
// is the same strictly-older filter MessagesBefore pages with.
func TestOlderThanFilterShape(t *testing.T) {
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	filter := olderThanFilter("c1", at, 7)

	want := bson.D{
		{Key: "conversation_id", Value: "c1"},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "created_at", Value: bson.D{{Key: "$lt", Value: at}}}},
			bson.D{{Key: "created_at", Value: at}, {Key: "seq", Value: bson.D{{Key: "$lt", Value: int64(7)}}}},
		}},
	}
	assert.Equal(t, want, filter)
}
