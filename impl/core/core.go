// Package core is the application facade: it implements the HTTP handler
// interfaces and the websocket message handler on top of the chat,
// directory and presence services.
package core

import (
	"log/slog"
	"sync"
	"time"

	"CrewChat/entity"
	repository "CrewChat/internal/database"
	"CrewChat/internal/lib/sl"
	"CrewChat/internal/service/chat"
	"CrewChat/internal/service/directory"
)

type Core struct {
	log         *slog.Logger
	repository  *repository.MongoDB
	chat        *chat.Service
	directory   directory.Directory
	broadcaster chat.Broadcaster
	fileSecret  string
	fileTTL     time.Duration

	hiddenAccounts map[string]bool

	sessionsMu sync.Mutex
	sessions   map[string]*session
}

func New(log *slog.Logger) *Core {
	return &Core{
		log:            log.With(sl.Module("core")),
		hiddenAccounts: make(map[string]bool),
		sessions:       make(map[string]*session),
	}
}

func (c *Core) SetRepository(repo *repository.MongoDB) {
	c.repository = repo
}

func (c *Core) SetChatService(svc *chat.Service) {
	c.chat = svc
}

func (c *Core) SetDirectory(dir directory.Directory) {
	c.directory = dir
}

func (c *Core) SetBroadcaster(b chat.Broadcaster) {
	c.broadcaster = b
}

func (c *Core) SetFileSigning(secret string, ttl time.Duration) {
	c.fileSecret = secret
	c.fileTTL = ttl
}

// SetHiddenAccounts configures system accounts that non-admin users never
// see in their conversation list.
func (c *Core) SetHiddenAccounts(ids []string) {
	c.hiddenAccounts = make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			c.hiddenAccounts[id] = true
		}
	}
}

// Init installs the visibility filter and bootstraps store indexes.
func (c *Core) Init() {
	if c.chat != nil {
		c.chat.SetVisibilityFilter(c.visible)
		c.chat.Init()
	}
	if c.repository != nil {
		if err := c.repository.EnsureIndexes(); err != nil {
			c.log.Error("ensure indexes", sl.Err(err))
		}
	}
}

// visible hides configured system accounts from non-admin viewers.
func (c *Core) visible(viewer entity.UserAuth, entry entity.ConversationListEntry) bool {
	if viewer.IsAdmin() {
		return true
	}
	if entry.TargetUserID != "" && c.hiddenAccounts[entry.TargetUserID] {
		return false
	}
	return true
}

// GenerateApiKey issues (or returns) the api key for a user.
func (c *Core) GenerateApiKey(userID string) (string, error) {
	if c.repository == nil {
		return "", entity.TransientError("repository not configured")
	}
	return c.repository.GenerateApiKey(userID)
}
