// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/echo-history/internal/history"
	"github.com/jeranaias/echo-history/internal/model"
	"github.com/jeranaias/echo-history/internal/storage"
)

// manualClock only moves when advanced.
type manualClock struct {
	t time.Time
}

func (c *manualClock) Now() time.Time          { return c.t }
func (c *manualClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// toggleRepo fails saves while fail is set.
type toggleRepo struct {
	*storage.Store
	fail   bool
	closed bool
}

func (r *toggleRepo) Save(convs []model.Conversation) error {
	if r.fail {
		return errors.New("disk full")
	}
	return r.Store.Save(convs)
}

func (r *toggleRepo) Close() error {
	r.closed = true
	return r.Store.Close()
}

func newTestSession(t *testing.T, cfg Config) (*Manager, *manualClock, *toggleRepo, storage.Backend) {
	t.Helper()
	clock := &manualClock{t: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	backend := storage.NewMemoryBackend()
	repo := &toggleRepo{Store: storage.NewStore(backend, "", nil)}
	hist := history.New(history.Options{Repository: repo, Clock: clock.Now})
	cfg.Clock = clock.Now
	return NewManager(cfg, hist), clock, repo, backend
}

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Timeout != 30*time.Minute {
		t.Errorf("Default Timeout = %v, want 30m", cfg.Timeout)
	}
	if cfg.WarningBefore != time.Minute {
		t.Errorf("Default WarningBefore = %v, want 1m", cfg.WarningBefore)
	}
	if !cfg.AutoSaveEnabled {
		t.Error("Default AutoSaveEnabled should be true")
	}
	if cfg.AutoSaveInterval != 30*time.Second {
		t.Errorf("Default AutoSaveInterval = %v, want 30s", cfg.AutoSaveInterval)
	}
}

// =============================================================================
// MANAGER CREATION TESTS
// =============================================================================

func TestNewManager_LoadsHistory(t *testing.T) {
	clock := &manualClock{t: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	backend := storage.NewMemoryBackend()

	// Seed the backend through a first session.
	first := history.New(history.Options{Repository: storage.NewStore(backend, "", nil), Clock: clock.Now})
	first.LoadConversations()
	if _, err := first.CreateConversation(model.DefaultSettings(), "Seed"); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	hist := history.New(history.Options{Repository: storage.NewStore(backend, "", nil), Clock: clock.Now})
	m := NewManager(Config{Clock: clock.Now}, hist)

	h, err := m.History()
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if got := len(h.Conversations()); got != 1 {
		t.Errorf("loaded %d conversations, want 1", got)
	}
	if !strings.HasPrefix(m.SessionID(), "sess_") {
		t.Errorf("SessionID should start with 'sess_', got %q", m.SessionID())
	}
	if !m.StartTime().Equal(clock.t) {
		t.Errorf("StartTime = %v, want %v", m.StartTime(), clock.t)
	}
}

// =============================================================================
// ACTIVITY TESTS
// =============================================================================

func TestManager_ActivityResetsIdle(t *testing.T) {
	m, clock, _, _ := newTestSession(t, Config{Timeout: 10 * time.Minute})

	clock.Advance(4 * time.Minute)
	if got := m.IdleTime(); got != 4*time.Minute {
		t.Errorf("IdleTime = %v, want 4m", got)
	}
	if got := m.RemainingTime(); got != 6*time.Minute {
		t.Errorf("RemainingTime = %v, want 6m", got)
	}

	m.RecordActivity()
	if got := m.IdleTime(); got != 0 {
		t.Errorf("IdleTime after activity = %v, want 0", got)
	}
	if got := m.Duration(); got != 4*time.Minute {
		t.Errorf("Duration = %v, want 4m", got)
	}
}

// =============================================================================
// TIMEOUT TESTS
// =============================================================================

func TestManager_WarningThenTimeout(t *testing.T) {
	m, clock, repo, _ := newTestSession(t, Config{Timeout: 10 * time.Minute, WarningBefore: 2 * time.Minute})

	var warned time.Duration
	timedOut := false
	m.SetWarningCallback(func(remaining time.Duration) { warned = remaining })
	m.SetTimeoutCallback(func() { timedOut = true })

	clock.Advance(9 * time.Minute)
	if !m.Check() {
		t.Fatal("session should still be valid at 9m")
	}
	if warned != time.Minute {
		t.Errorf("warning remaining = %v, want 1m", warned)
	}
	if m.ShouldShowWarning() {
		t.Error("warning should only be shown once")
	}

	clock.Advance(time.Minute)
	if m.Check() {
		t.Fatal("session should be expired at 10m")
	}
	if !timedOut {
		t.Error("timeout callback not called")
	}
	if !m.Ended() {
		t.Error("expired session should be ended")
	}
	if !repo.closed {
		t.Error("expiry should close the repository")
	}
	if _, err := m.History(); !errors.Is(err, ErrEnded) {
		t.Errorf("History after expiry: err = %v, want ErrEnded", err)
	}
}

func TestManager_ZeroTimeoutNeverExpires(t *testing.T) {
	m, clock, _, _ := newTestSession(t, Config{})

	clock.Advance(1000 * time.Hour)
	if m.IsExpired() {
		t.Error("zero timeout should disable expiry")
	}
	if !m.Check() {
		t.Error("Check should report valid")
	}
}

// =============================================================================
// AUTOSAVE TESTS
// =============================================================================

func TestManager_AutoSaveFlushesDirtyHistory(t *testing.T) {
	m, clock, repo, backend := newTestSession(t, Config{AutoSaveEnabled: true, AutoSaveInterval: 30 * time.Second})
	h, _ := m.History()

	var saveErr error
	m.SetSaveFailureCallback(func(err error) { saveErr = err })

	repo.fail = true
	if _, err := h.CreateConversation(model.DefaultSettings(), "Pending"); !history.IsPersistError(err) {
		t.Fatalf("expected PersistError, got %v", err)
	}
	if !m.IsDirty() {
		t.Fatal("history should be dirty after failed save")
	}

	// Not due yet.
	if m.ShouldAutoSave() {
		t.Error("autosave should wait for the interval")
	}

	clock.Advance(31 * time.Second)
	m.Check()
	if saveErr == nil {
		t.Error("failed autosave should be reported")
	}

	repo.fail = false
	clock.Advance(31 * time.Second)
	m.Check()
	if m.IsDirty() {
		t.Error("autosave should clear dirty state")
	}

	convs := storage.NewStore(backend, "", nil).Load()
	if len(convs) != 1 || convs[0].Title != "Pending" {
		t.Errorf("persisted = %+v, want one conversation titled Pending", convs)
	}
}

func TestManager_AutoSaveDisabled(t *testing.T) {
	m, clock, repo, _ := newTestSession(t, Config{AutoSaveEnabled: false, AutoSaveInterval: time.Second})
	h, _ := m.History()

	repo.fail = true
	_, _ = h.CreateConversation(model.DefaultSettings(), "x")
	clock.Advance(time.Minute)

	if m.ShouldAutoSave() {
		t.Error("autosave disabled but ShouldAutoSave returned true")
	}
}

// =============================================================================
// LOGOUT TESTS
// =============================================================================

func TestManager_LogoutFlushesAndCloses(t *testing.T) {
	m, _, repo, backend := newTestSession(t, DefaultConfig())
	h, _ := m.History()

	repo.fail = true
	_, _ = h.CreateConversation(model.DefaultSettings(), "Last words")
	repo.fail = false

	if err := m.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := m.Logout(); err != nil {
		t.Errorf("second Logout: %v", err)
	}
	if !repo.closed {
		t.Error("Logout should close the repository")
	}
	if got := len(storage.NewStore(backend, "", nil).Load()); got != 1 {
		t.Errorf("persisted %d conversations, want 1", got)
	}
	if m.Check() {
		t.Error("Check after logout should return false")
	}
	if m.HandleTick() != nil {
		t.Error("HandleTick after logout should stop ticking")
	}
}

// =============================================================================
// BUBBLE TEA TESTS
// =============================================================================

func TestManager_HandleTickTimeout(t *testing.T) {
	m, clock, _, _ := newTestSession(t, Config{Timeout: time.Minute})

	clock.Advance(2 * time.Minute)
	cmd := m.HandleTick()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(TimeoutMsg); !ok {
		t.Error("expected TimeoutMsg")
	}
	if !m.Ended() {
		t.Error("timeout tick should end the session")
	}
}

func TestGetStatus(t *testing.T) {
	m, clock, _, _ := newTestSession(t, Config{Timeout: 5 * time.Minute})
	clock.Advance(time.Minute)

	s := m.GetStatus()
	if s.IdleTime != time.Minute || s.RemainingTime != 4*time.Minute {
		t.Errorf("status = %+v", s)
	}
	if s.IsExpired || s.Ended || s.IsDirty {
		t.Errorf("unexpected flags in %+v", s)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{2 * time.Minute, "2m"},
		{2*time.Minute + 5*time.Second, "2m 5s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
