package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CrewChat/entity"
)

func direct(a, b string, last time.Time, unread map[string]int) entity.Conversation {
	return entity.Conversation{
		ID:            entity.DirectConversationID(a, b),
		Participants:  []string{a, b},
		LastMessageAt: last,
		UnreadCounts:  unread,
	}
}

func TestReconcileThreadAndContactDedupByID(t *testing.T) {
	last := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := Reconcile(ReconcileInput{
		UserID: "me",
		Role:   entity.AdminRole,
		Conversations: []entity.Conversation{
			direct("me", "bob", last, map[string]int{"me": 2}),
		},
		Contacts: []entity.Contact{
			{TargetUserID: "bob", Name: "Bob Ross", Email: "bob@acme.test"},
			{TargetUserID: "carol", Name: "Carol"},
		},
		Users: map[string]entity.User{
			"bob": {ID: "bob", Name: "Bob Ross", Email: "bob@acme.test"},
		},
	})

	require.Len(t, rows, 2)

	// The real thread wins over the virtual contact and keeps its state.
	assert.Equal(t, "bob", rows[0].TargetUserID)
	assert.True(t, rows[0].IsChat)
	assert.Equal(t, 2, rows[0].UnreadCount)
	assert.Equal(t, "Bob Ross", rows[0].Name)

	// The never-messaged contact stays as a startable virtual row.
	assert.Equal(t, "carol", rows[1].TargetUserID)
	assert.False(t, rows[1].IsChat)
}

func TestReconcileDedupByEmailAcrossIdentities(t *testing.T) {
	// The same person under an employee id (with a thread) and a legacy
	// directory id sharing the email. One row must survive.
	last := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	rows := Reconcile(ReconcileInput{
		UserID: "me",
		Role:   entity.AdminRole,
		Conversations: []entity.Conversation{
			direct("me", "emp-7", last, nil),
		},
		Contacts: []entity.Contact{
			{TargetUserID: "legacy-7", Name: "Dana Fox", Email: "dana@acme.test"},
		},
		Users: map[string]entity.User{
			"emp-7": {ID: "emp-7", Email: "dana@acme.test"},
		},
	})

	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsChat)
	assert.Equal(t, "emp-7", rows[0].TargetUserID)
	// Thread peer had no real name; the merged contact repairs it.
	assert.Equal(t, "Dana Fox", rows[0].Name)
	assert.Equal(t, "dana@acme.test", rows[0].Email)
}

func TestReconcilePlaceholderNameRepaired(t *testing.T) {
	rows := Reconcile(ReconcileInput{
		UserID: "me",
		Role:   entity.AdminRole,
		Conversations: []entity.Conversation{
			direct("me", "ghost", time.Now(), nil),
		},
		Contacts: []entity.Contact{
			{TargetUserID: "ghost", Name: "Greta"},
		},
		// no Users entry: the thread row starts as "Unknown User"
	})

	require.Len(t, rows, 1)
	assert.Equal(t, "Greta", rows[0].Name)
	assert.True(t, rows[0].IsChat)
}

func TestReconcileWinnerByRecencyAndAttributeMerge(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)

	merger := newCandidateMerger()
	merger.add(entity.ConversationListEntry{
		TargetUserID: "x", Name: "Xavier", Email: "x@acme.test",
		IsChat: true, LastMessageAt: older, IsOnline: true,
	})
	merger.add(entity.ConversationListEntry{
		TargetUserID: "x", Name: entity.UnknownUserName,
		Avatar: "pic.png", IsChat: true, LastMessageAt: newer,
	})

	rows := merger.entries()
	require.Len(t, rows, 1)
	// the newer thread wins, but usable attributes of the loser survive
	assert.Equal(t, newer, rows[0].LastMessageAt)
	assert.Equal(t, "Xavier", rows[0].Name)
	assert.Equal(t, "x@acme.test", rows[0].Email)
	assert.Equal(t, "pic.png", rows[0].Avatar)
	assert.True(t, rows[0].IsOnline)
}

func TestReconcileSortOrder(t *testing.T) {
	t1 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	rows := Reconcile(ReconcileInput{
		UserID: "me",
		Role:   entity.AdminRole,
		Conversations: []entity.Conversation{
			direct("me", "old", t1, nil),
			direct("me", "new", t2, nil),
			{ID: "g1", IsGroup: true, GroupName: "Team", Participants: []string{"me", "old"}, LastMessageAt: t2.Add(time.Hour)},
		},
		Contacts: []entity.Contact{
			{TargetUserID: "virtual", Name: "V"},
		},
	})

	require.Len(t, rows, 4)
	// real threads first, newest activity on top, virtual contacts last
	assert.Equal(t, "g1", rows[0].ID)
	assert.Equal(t, "new", rows[1].TargetUserID)
	assert.Equal(t, "old", rows[2].TargetUserID)
	assert.Equal(t, "virtual", rows[3].TargetUserID)
	assert.False(t, rows[3].IsChat)
}

func TestReconcileGroupRowNeverOnline(t *testing.T) {
	rows := Reconcile(ReconcileInput{
		UserID: "me",
		Role:   entity.AdminRole,
		Conversations: []entity.Conversation{
			{ID: "g1", IsGroup: true, GroupName: "Ops", Participants: []string{"me", "a"}, UnreadCounts: map[string]int{"me": 3}},
		},
		IsOnline: func(string) bool { return true },
	})

	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsGroup)
	assert.False(t, rows[0].IsOnline)
	assert.Equal(t, 3, rows[0].UnreadCount)
	assert.Equal(t, "Ops", rows[0].Name)
}

func TestReconcileAdminInjectionForEmployee(t *testing.T) {
	rows := Reconcile(ReconcileInput{
		UserID:      "emp",
		Role:        entity.EmployeeRole,
		AdminID:     "boss",
		CompanyName: "Acme Inc",
		Conversations: []entity.Conversation{
			direct("emp", "peer", time.Now(), nil),
		},
	})

	require.NotEmpty(t, rows)
	assert.Equal(t, "boss", rows[0].TargetUserID)
	assert.Equal(t, "Acme Inc", rows[0].Name)
	assert.False(t, rows[0].IsChat)
}

func TestReconcileAdminInjectionFallbackName(t *testing.T) {
	rows := Reconcile(ReconcileInput{
		UserID:  "emp",
		Role:    entity.EmployeeRole,
		AdminID: "boss",
	})

	require.Len(t, rows, 1)
	assert.Equal(t, SupportTeamName, rows[0].Name)
}

func TestReconcileNoInjectionWhenAdminThreadExists(t *testing.T) {
	rows := Reconcile(ReconcileInput{
		UserID:  "emp",
		Role:    entity.EmployeeRole,
		AdminID: "boss",
		Conversations: []entity.Conversation{
			direct("emp", "boss", time.Now(), nil),
		},
	})

	require.Len(t, rows, 1)
	assert.Equal(t, "boss", rows[0].TargetUserID)
	assert.True(t, rows[0].IsChat)
}

func TestReconcileNoInjectionForAdmin(t *testing.T) {
	rows := Reconcile(ReconcileInput{
		UserID:  "boss",
		Role:    entity.AdminRole,
		AdminID: "owner",
	})
	assert.Empty(t, rows)
}

func TestReconcileSkipsMalformedRecords(t *testing.T) {
	rows := Reconcile(ReconcileInput{
		UserID: "me",
		Role:   entity.AdminRole,
		Conversations: []entity.Conversation{
			{}, // no id
			{ID: "solo", Participants: []string{"me"}},        // no peer
			{ID: "empty-peer", Participants: []string{"me", ""}},
			direct("me", "ok", time.Now(), nil),
		},
		Contacts: []entity.Contact{
			{TargetUserID: ""},     // no target
			{TargetUserID: "me"},   // self
			{TargetUserID: "fine"}, // kept
		},
	})

	require.Len(t, rows, 2)
	assert.Equal(t, "ok", rows[0].TargetUserID)
	assert.Equal(t, "fine", rows[1].TargetUserID)
}

func TestReconcileVisibilityFilter(t *testing.T) {
	rows := Reconcile(ReconcileInput{
		UserID: "me",
		Role:   entity.AdminRole,
		Contacts: []entity.Contact{
			{TargetUserID: "visible"},
			{TargetUserID: "hidden"},
		},
		Visible: func(e entity.ConversationListEntry) bool {
			return e.TargetUserID != "hidden"
		},
	})

	require.Len(t, rows, 1)
	assert.Equal(t, "visible", rows[0].TargetUserID)
}

func TestReconcilePresenceFlag(t *testing.T) {
	rows := Reconcile(ReconcileInput{
		UserID: "me",
		Role:   entity.AdminRole,
		Conversations: []entity.Conversation{
			direct("me", "on", time.Now(), nil),
			direct("me", "off", time.Now().Add(-time.Hour), nil),
		},
		IsOnline: func(id string) bool { return id == "on" },
	})

	require.Len(t, rows, 2)
	assert.True(t, rows[0].IsOnline)
	assert.False(t, rows[1].IsOnline)
}
