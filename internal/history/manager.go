// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/echo-history/internal/export"
	"github.com/jeranaias/echo-history/internal/model"
	"github.com/jeranaias/echo-history/internal/storage"
)

// =============================================================================
// MANAGER
// =============================================================================

// Options configures a Manager.
type Options struct {
	// Repository persists the collection. Required.
	Repository storage.Repository

	// Clock returns the current time. Default: time.Now.
	Clock func() time.Time

	// Logger receives warnings. Default: discard.
	Logger *slog.Logger

	// Export configures ExportConversation.
	Export export.Options

	// OnPersistError is called, outside the lock, whenever a save fails.
	OnPersistError func(err *PersistError)
}

// Manager is the single owner of a session's conversation list.
// It is safe for concurrent use; operations apply in the order they
// acquire the lock.
type Manager struct {
	mu sync.Mutex

	repo      storage.Repository
	clock     func() time.Time
	logger    *slog.Logger
	exportOpt export.Options
	onPersist func(err *PersistError)

	// conversations is kept ordered by UpdatedAt descending.
	conversations []model.Conversation
	currentID     string
	query         string
	dirty         bool
	closed        bool
}

// New creates a Manager. Call LoadConversations to read persisted state.
func New(opts Options) *Manager {
	if opts.Repository == nil {
		panic("history: Options.Repository is required")
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		repo:          opts.Repository,
		clock:         opts.Clock,
		logger:        opts.Logger.With("component", "history"),
		exportOpt:     opts.Export,
		onPersist:     opts.OnPersistError,
		conversations: []model.Conversation{},
	}
}

// now strips the monotonic reading so stored times compare equal after a
// JSON round trip.
func (m *Manager) now() time.Time {
	return m.clock().UTC().Round(0)
}

// =============================================================================
// LOADING AND SELECTION
// =============================================================================

// LoadConversations replaces the in-memory list with the persisted one and
// returns it, most recently updated first. Corrupt or missing data loads as
// an empty list. A closed manager stays empty.
func (m *Manager) LoadConversations() []model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return []model.Conversation{}
	}
	m.conversations = m.repo.Load()
	storage.SortByRecent(m.conversations)
	m.dirty = false
	if m.indexLocked(m.currentID) < 0 {
		m.currentID = ""
	}
	return cloneAll(m.conversations)
}

// SetCurrentConversation selects id. An unknown id clears the selection.
func (m *Manager) SetCurrentConversation(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexLocked(id) < 0 {
		m.currentID = ""
		return
	}
	m.currentID = id
}

// SearchConversations sets the live filter and returns the filtered view.
// An empty query removes the filter.
func (m *Manager) SearchConversations(query string) []model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.query = query
	return cloneAll(Filter(m.conversations, m.query))
}

// =============================================================================
// MUTATIONS
// =============================================================================

// CreateConversation starts a conversation with settings and makes it the
// active one. A blank title becomes model.DefaultTitle until the first user
// message provides one.
func (m *Manager) CreateConversation(settings model.Settings, title string) (model.Conversation, error) {
	settings = settings.WithDefaults()
	if err := settings.Validate(); err != nil {
		return model.Conversation{}, fmt.Errorf("invalid settings: %w", err)
	}

	var created model.Conversation
	err := m.commit(func() (bool, error) {
		conv := model.NewConversation(settings, title, m.now())
		m.conversations = append(m.conversations, *conv)
		storage.SortByRecent(m.conversations)
		m.currentID = conv.ID
		created = conv.Clone()
		return true, nil
	})
	return created, err
}

// AppendMessage adds msg to the end of conversation id.
func (m *Manager) AppendMessage(id string, msg model.Message) error {
	if msg == nil {
		return fmt.Errorf("%w: nil message", model.ErrInvalidMessage)
	}
	return m.update(id, func(c *model.Conversation, now time.Time) bool {
		c.Append(msg, now)
		return true
	})
}

// ClearMessages removes every message of conversation id.
func (m *Manager) ClearMessages(id string) error {
	return m.update(id, func(c *model.Conversation, now time.Time) bool {
		if len(c.Messages) == 0 {
			return false
		}
		c.ClearMessages(now)
		return true
	})
}

// RenameConversation sets the title of conversation id.
func (m *Manager) RenameConversation(id, title string) error {
	return m.update(id, func(c *model.Conversation, now time.Time) bool {
		c.Rename(title, now)
		return true
	})
}

// AddTag adds tag to conversation id. It reports whether the tag was new.
func (m *Manager) AddTag(id, tag string) (bool, error) {
	var added bool
	err := m.update(id, func(c *model.Conversation, now time.Time) bool {
		added = c.AddTag(tag, now)
		return added
	})
	return added, err
}

// RemoveTag removes tag from conversation id. It reports whether the tag
// was present.
func (m *Manager) RemoveTag(id, tag string) (bool, error) {
	var removed bool
	err := m.update(id, func(c *model.Conversation, now time.Time) bool {
		removed = c.RemoveTag(tag, now)
		return removed
	})
	return removed, err
}

// ToggleBookmark flips the bookmark flag of id and returns the new value.
// found is false, and nothing changes, when id does not exist.
func (m *Manager) ToggleBookmark(id string) (bookmarked, found bool, err error) {
	err = m.commit(func() (bool, error) {
		i := m.indexLocked(id)
		if i < 0 {
			return false, nil
		}
		found = true
		bookmarked = m.conversations[i].ToggleBookmark(m.now())
		storage.SortByRecent(m.conversations)
		return true, nil
	})
	return bookmarked, found, err
}

// DeleteConversation removes id and clears the selection if it was active.
// Deleting an unknown id is a no-op.
func (m *Manager) DeleteConversation(id string) error {
	return m.commit(func() (bool, error) {
		i := m.indexLocked(id)
		if i < 0 {
			return false, nil
		}
		m.conversations = append(m.conversations[:i:i], m.conversations[i+1:]...)
		if m.currentID == id {
			m.currentID = ""
		}
		return true, nil
	})
}

// ClearAllConversations empties the list and clears the selection.
func (m *Manager) ClearAllConversations() error {
	return m.commit(func() (bool, error) {
		m.conversations = []model.Conversation{}
		m.currentID = ""
		return true, nil
	})
}

// Flush retries a save that previously failed. It does nothing when the
// state is clean.
func (m *Manager) Flush() error {
	m.mu.Lock()
	if m.closed || !m.dirty {
		m.mu.Unlock()
		return nil
	}
	perr := m.persistLocked()
	m.mu.Unlock()
	return m.report(perr)
}

// Dirty reports whether in-memory state has unsaved changes.
func (m *Manager) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// Close flushes pending changes and releases the repository. The manager
// must not be used afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	var perr *PersistError
	if m.dirty {
		perr = m.persistLocked()
	}
	m.closed = true
	m.dirty = false
	m.conversations = []model.Conversation{}
	m.currentID = ""
	m.query = ""
	closeErr := m.repo.Close()
	m.mu.Unlock()

	if err := m.report(perr); err != nil {
		return err
	}
	if closeErr != nil {
		return fmt.Errorf("close repository: %w", closeErr)
	}
	return nil
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportConversation renders id in format. ok is false when id does not
// exist. format must be one of export.Formats.
func (m *Manager) ExportConversation(id string, format export.Format) (string, bool) {
	conv, ok := m.Get(id)
	if !ok {
		return "", false
	}
	return export.Render(&conv, format, m.exportOpt), true
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Conversations returns a copy of the full list, most recent first.
func (m *Manager) Conversations() []model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAll(m.conversations)
}

// Filtered returns the list filtered by the current query.
func (m *Manager) Filtered() []model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAll(Filter(m.conversations, m.query))
}

// Bookmarked returns bookmarked conversations, most recent first.
func (m *Manager) Bookmarked() []model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Conversation
	for i := range m.conversations {
		if m.conversations[i].IsBookmarked {
			out = append(out, m.conversations[i].Clone())
		}
	}
	return out
}

// Query returns the current search query.
func (m *Manager) Query() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.query
}

// CurrentID returns the active conversation id, or "" for no selection.
func (m *Manager) CurrentID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentID
}

// Current returns the active conversation.
func (m *Manager) Current() (model.Conversation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(m.currentID)
}

// Get returns a copy of conversation id.
func (m *Manager) Get(id string) (model.Conversation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(id)
}

// ResolveID maps a full id or a unique id prefix to a full id.
func (m *Manager) ResolveID(prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("%w: empty id", ErrNotFound)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexLocked(prefix) >= 0 {
		return prefix, nil
	}
	var match string
	for i := range m.conversations {
		if strings.HasPrefix(m.conversations[i].ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("%w: %s", ErrAmbiguousID, prefix)
			}
			match = m.conversations[i].ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, prefix)
	}
	return match, nil
}

// Stats summarizes the collection.
type Stats struct {
	Conversations int
	Messages      int
	Bookmarked    int
	Tags          int
}

// Stats returns counts over the current list.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var s Stats
	tags := make(map[string]bool)
	s.Conversations = len(m.conversations)
	for i := range m.conversations {
		c := &m.conversations[i]
		s.Messages += len(c.Messages)
		if c.IsBookmarked {
			s.Bookmarked++
		}
		for _, t := range c.Tags {
			tags[strings.ToLower(t)] = true
		}
	}
	s.Tags = len(tags)
	return s
}

// =============================================================================
// INTERNALS
// =============================================================================

// update applies fn to conversation id and persists if fn reports a change.
func (m *Manager) update(id string, fn func(c *model.Conversation, now time.Time) bool) error {
	return m.commit(func() (bool, error) {
		i := m.indexLocked(id)
		if i < 0 {
			return false, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if !fn(&m.conversations[i], m.now()) {
			return false, nil
		}
		storage.SortByRecent(m.conversations)
		return true, nil
	})
}

// commit runs fn under the lock and saves when it reports a change. A save
// failure is reported after the lock is released.
func (m *Manager) commit(fn func() (changed bool, err error)) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	changed, err := fn()
	if err != nil || !changed {
		m.mu.Unlock()
		return err
	}
	m.dirty = true
	perr := m.persistLocked()
	m.mu.Unlock()
	return m.report(perr)
}

// persistLocked saves the full list and clears the dirty flag on success.
func (m *Manager) persistLocked() *PersistError {
	if err := m.repo.Save(m.conversations); err != nil {
		m.logger.Warn("failed to persist conversations", "error", err, "count", len(m.conversations))
		return &PersistError{Err: err}
	}
	m.dirty = false
	return nil
}

// report delivers a save failure to the callback and converts it to error.
func (m *Manager) report(perr *PersistError) error {
	if perr == nil {
		return nil
	}
	if m.onPersist != nil {
		m.onPersist(perr)
	}
	return perr
}

func (m *Manager) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range m.conversations {
		if m.conversations[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) getLocked(id string) (model.Conversation, bool) {
	i := m.indexLocked(id)
	if i < 0 {
		return model.Conversation{}, false
	}
	return m.conversations[i].Clone(), true
}

func cloneAll(convs []model.Conversation) []model.Conversation {
	out := make([]model.Conversation, len(convs))
	for i := range convs {
		out[i] = convs[i].Clone()
	}
	return out
}
