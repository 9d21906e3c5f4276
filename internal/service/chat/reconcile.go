package chat

import (
	"sort"

	"CrewChat/entity"
)

// SupportTeamName labels the synthetic admin row when no company name is
// configured.
const SupportTeamName = "Support Team"

// ReconcileInput is everything a single conversation-list recompute needs.
// All fields are snapshots; Reconcile never mutates them.
type ReconcileInput struct {
	UserID        string
	Role          string
	AdminID       string // designated admin for non-admin users
	CompanyName   string
	Conversations []entity.Conversation
	Contacts      []entity.Contact
	Users         map[string]entity.User // participant display lookup
	IsOnline      func(userID string) bool
	Visible       func(entity.ConversationListEntry) bool // nil = show all
}

// Reconcile merges the user's real threads and virtual contacts into one
// deduplicated, display-ready conversation list.
//
// The same physical person can surface under two identifiers (an employee
// id and a legacy user id sharing an email), so candidates are indexed by
// target user id with a secondary email index. On collision a winner is
// chosen (real thread first, then recency) and the loser's usable
// attributes are folded into it. Malformed records are skipped, never
// fatal: this runs on every live update.
func Reconcile(in ReconcileInput) []entity.ConversationListEntry {
	online := in.IsOnline
	if online == nil {
		online = func(string) bool { return false }
	}

	var groups []entity.ConversationListEntry
	merger := newCandidateMerger()

	for _, conv := range in.Conversations {
		if conv.ID == "" {
			continue
		}
		if conv.IsGroup {
			groups = append(groups, groupEntry(conv, in.UserID))
			continue
		}
		peer := conv.Peer(in.UserID)
		if peer == "" {
			continue
		}
		merger.add(threadEntry(conv, in.UserID, peer, in.Users, online))
	}

	for _, contact := range in.Contacts {
		if contact.TargetUserID == "" || contact.TargetUserID == in.UserID {
			continue
		}
		merger.add(entity.ConversationListEntry{
			TargetUserID: contact.TargetUserID,
			Name:         contact.Name,
			Email:        contact.Email,
			Avatar:       contact.Avatar,
			IsOnline:     online(contact.TargetUserID),
		})
	}

	rows := append(groups, merger.entries()...)

	if in.Visible != nil {
		visible := rows[:0]
		for _, row := range rows {
			if in.Visible(row) {
				visible = append(visible, row)
			}
		}
		rows = visible
	}

	sortEntries(rows)

	if in.Role != entity.AdminRole && in.AdminID != "" && !targets(rows, in.AdminID) {
		name := in.CompanyName
		if name == "" {
			name = SupportTeamName
		}
		rows = append([]entity.ConversationListEntry{{
			TargetUserID: in.AdminID,
			Name:         name,
			IsOnline:     online(in.AdminID),
		}}, rows...)
	}

	return rows
}

func groupEntry(conv entity.Conversation, userID string) entity.ConversationListEntry {
	return entity.ConversationListEntry{
		ID:            conv.ID,
		Name:          conv.GroupName,
		LastMessage:   conv.LastMessageText,
		LastMessageAt: conv.LastMessageAt,
		UnreadCount:   conv.UnreadFor(userID),
		IsGroup:       true,
		IsChat:        true,
		// group rows are never marked online
	}
}

func threadEntry(conv entity.Conversation, userID, peer string, users map[string]entity.User, online func(string) bool) entity.ConversationListEntry {
	entry := entity.ConversationListEntry{
		ID:            conv.ID,
		TargetUserID:  peer,
		Name:          entity.UnknownUserName,
		LastMessage:   conv.LastMessageText,
		LastMessageAt: conv.LastMessageAt,
		UnreadCount:   conv.UnreadFor(userID),
		IsOnline:      online(peer),
		IsChat:        true,
	}
	if u, ok := users[peer]; ok {
		entry.Name = u.DisplayName()
		entry.Email = u.Email
		entry.Avatar = u.Avatar
	}
	return entry
}

// candidateMerger deduplicates 1:1 rows by target user id, with a
// secondary email index catching identity splits.
type candidateMerger struct {
	order   []string
	byID    map[string]*entity.ConversationListEntry
	byEmail map[string]string // email -> target user id
}

func newCandidateMerger() *candidateMerger {
	return &candidateMerger{
		byID:    make(map[string]*entity.ConversationListEntry),
		byEmail: make(map[string]string),
	}
}

func (m *candidateMerger) add(candidate entity.ConversationListEntry) {
	existing := m.byID[candidate.TargetUserID]
	if existing == nil && candidate.Email != "" {
		if id, ok := m.byEmail[candidate.Email]; ok {
			existing = m.byID[id]
		}
	}

	if existing == nil {
		entry := candidate
		m.byID[entry.TargetUserID] = &entry
		if entry.Email != "" {
			m.byEmail[entry.Email] = entry.TargetUserID
		}
		m.order = append(m.order, entry.TargetUserID)
		return
	}

	winner, loser := pickWinner(*existing, candidate)
	merged := mergeAttributes(winner, loser)

	// Re-index both identifiers at the final winner so later candidates
	// for either identity land on the same row.
	delete(m.byID, existing.TargetUserID)
	m.byID[merged.TargetUserID] = &merged
	if merged.Email != "" {
		m.byEmail[merged.Email] = merged.TargetUserID
	}
	if loser.Email != "" {
		m.byEmail[loser.Email] = merged.TargetUserID
	}
	m.byID[loser.TargetUserID] = &merged
	if existing.TargetUserID != merged.TargetUserID {
		for i, id := range m.order {
			if id == existing.TargetUserID {
				m.order[i] = merged.TargetUserID
				break
			}
		}
	}
}

func (m *candidateMerger) entries() []entity.ConversationListEntry {
	seen := make(map[string]bool, len(m.order))
	result := make([]entity.ConversationListEntry, 0, len(m.order))
	for _, id := range m.order {
		entry := m.byID[id]
		if entry == nil || seen[entry.TargetUserID] {
			continue
		}
		seen[entry.TargetUserID] = true
		result = append(result, *entry)
	}
	return result
}

// pickWinner prefers a real thread over a virtual contact, then the more
// recent activity (missing timestamps compare as zero).
func pickWinner(a, b entity.ConversationListEntry) (winner, loser entity.ConversationListEntry) {
	if a.IsChat != b.IsChat {
		if a.IsChat {
			return a, b
		}
		return b, a
	}
	if b.LastMessageAt.After(a.LastMessageAt) {
		return b, a
	}
	return a, b
}

// mergeAttributes folds the loser's non-discriminating attributes into the
// winner before the loser is discarded.
func mergeAttributes(winner, loser entity.ConversationListEntry) entity.ConversationListEntry {
	winner.IsOnline = winner.IsOnline || loser.IsOnline

	if placeholderName(winner.Name, winner.Email) && !placeholderName(loser.Name, loser.Email) {
		winner.Name = loser.Name
	}
	if winner.Email == "" && loser.Email != "" {
		winner.Email = loser.Email
	}
	if winner.Avatar == "" && loser.Avatar != "" {
		winner.Avatar = loser.Avatar
	}
	return winner
}

// placeholderName reports whether the name carries no real display value:
// empty, the email used as a name, or the literal unknown-user fallback.
func placeholderName(name, email string) bool {
	return name == "" || name == email || name == entity.UnknownUserName
}

// sortEntries orders real threads before virtual contacts, each partition
// by descending last activity (absent treated as the zero time).
func sortEntries(rows []entity.ConversationListEntry) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].IsChat != rows[j].IsChat {
			return rows[i].IsChat
		}
		return rows[i].LastMessageAt.After(rows[j].LastMessageAt)
	})
}

func targets(rows []entity.ConversationListEntry, userID string) bool {
	for _, row := range rows {
		if row.TargetUserID == userID {
			return true
		}
	}
	return false
}
