// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/echo-history/internal/history"
)

// ErrEnded is returned by History after Logout or expiry.
var ErrEnded = errors.New("session has ended")

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager tracks one session and owns its conversation history.
type Manager struct {
	mu sync.Mutex

	hist  *history.Manager
	clock func() time.Time

	// Session tracking
	sessionID    string
	startTime    time.Time
	lastActivity time.Time
	ended        bool

	// Timeout configuration
	timeout       time.Duration
	warningBefore time.Duration
	warningShown  bool

	// Auto-save configuration
	autoSaveEnabled  bool
	autoSaveInterval time.Duration
	lastAutoSave     time.Time

	// Callbacks
	onTimeout  func()
	onWarning  func(remaining time.Duration)
	onSaveFail func(err error)
}

// Config holds configuration for the session manager.
type Config struct {
	// Timeout ends the session after this much inactivity. Zero disables it.
	Timeout time.Duration

	// WarningBefore is how long before timeout to warn (default: 1 minute)
	WarningBefore time.Duration

	// AutoSaveEnabled retries unsaved history changes periodically
	AutoSaveEnabled bool

	// AutoSaveInterval is how often to auto-save (default: 30 seconds)
	AutoSaveInterval time.Duration

	// Clock returns the current time. Default: time.Now
	Clock func() time.Time
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:          30 * time.Minute,
		WarningBefore:    time.Minute,
		AutoSaveEnabled:  true,
		AutoSaveInterval: 30 * time.Second,
	}
}

// NewManager starts a session around hist and loads its conversations.
func NewManager(cfg Config, hist *history.Manager) *Manager {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	now := cfg.Clock()
	hist.LoadConversations()
	return &Manager{
		hist:             hist,
		clock:            cfg.Clock,
		sessionID:        generateSessionID(now),
		startTime:        now,
		lastActivity:     now,
		timeout:          cfg.Timeout,
		warningBefore:    cfg.WarningBefore,
		autoSaveEnabled:  cfg.AutoSaveEnabled,
		autoSaveInterval: cfg.AutoSaveInterval,
		lastAutoSave:     now,
	}
}

// =============================================================================
// SESSION STATE
// =============================================================================

// History returns the session's history manager, or ErrEnded.
func (m *Manager) History() (*history.Manager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ended {
		return nil, ErrEnded
	}
	return m.hist, nil
}

// SessionID returns the current session ID.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// StartTime returns when the session started.
func (m *Manager) StartTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startTime
}

// Duration returns how long the session has been active.
func (m *Manager) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clock().Sub(m.startTime)
}

// IdleTime returns how long since last activity.
func (m *Manager) IdleTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clock().Sub(m.lastActivity)
}

// RemainingTime returns time until session timeout.
func (m *Manager) RemainingTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remainingLocked(m.clock())
}

func (m *Manager) remainingLocked(now time.Time) time.Duration {
	if m.timeout <= 0 {
		return 0
	}
	remaining := m.timeout - now.Sub(m.lastActivity)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (m *Manager) expiredLocked(now time.Time) bool {
	return m.timeout > 0 && now.Sub(m.lastActivity) >= m.timeout
}

// Ended reports whether the session has been torn down.
func (m *Manager) Ended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ended
}

// =============================================================================
// ACTIVITY TRACKING
// =============================================================================

// RecordActivity updates the last activity timestamp.
// This should be called on user input or other activity.
func (m *Manager) RecordActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActivity = m.clock()
	m.warningShown = false
}

// IsDirty returns whether the history has unsaved changes.
func (m *Manager) IsDirty() bool {
	if m.Ended() {
		return false
	}
	return m.hist.Dirty()
}

// =============================================================================
// CALLBACKS
// =============================================================================

// SetTimeoutCallback sets the function called when session times out.
func (m *Manager) SetTimeoutCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onTimeout = fn
}

// SetWarningCallback sets the function called when approaching timeout.
func (m *Manager) SetWarningCallback(fn func(remaining time.Duration)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onWarning = fn
}

// SetSaveFailureCallback sets the function called when an autosave fails.
func (m *Manager) SetSaveFailureCallback(fn func(err error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSaveFail = fn
}

// =============================================================================
// TIMEOUT CHECKING
// =============================================================================

// IsExpired returns true if the session has timed out.
func (m *Manager) IsExpired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiredLocked(m.clock())
}

// ShouldShowWarning returns true if timeout warning should be shown.
func (m *Manager) ShouldShowWarning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shouldWarnLocked(m.clock())
}

func (m *Manager) shouldWarnLocked(now time.Time) bool {
	if m.warningShown || m.timeout <= 0 || m.ended {
		return false
	}
	idle := now.Sub(m.lastActivity)
	threshold := m.timeout - m.warningBefore
	return idle >= threshold && idle < m.timeout
}

// ShouldAutoSave returns true if auto-save should trigger.
func (m *Manager) ShouldAutoSave() bool {
	m.mu.Lock()
	due := m.autoSaveEnabled && !m.ended && m.clock().Sub(m.lastAutoSave) >= m.autoSaveInterval
	m.mu.Unlock()
	return due && m.hist.Dirty()
}

// AutoSave flushes unsaved history changes.
func (m *Manager) AutoSave() error {
	hist, err := m.History()
	if err != nil {
		return err
	}
	err = hist.Flush()

	m.mu.Lock()
	m.lastAutoSave = m.clock()
	onSaveFail := m.onSaveFail
	m.mu.Unlock()

	if err != nil && onSaveFail != nil {
		onSaveFail(err)
	}
	return err
}

// Check evaluates session state and triggers appropriate callbacks.
// Returns true if session is still valid, false if expired or ended.
func (m *Manager) Check() bool {
	m.mu.Lock()
	if m.ended {
		m.mu.Unlock()
		return false
	}
	now := m.clock()
	expired := m.expiredLocked(now)

	// Check for warning
	shouldWarn := !expired && m.shouldWarnLocked(now)
	remaining := m.remainingLocked(now)
	if shouldWarn {
		m.warningShown = true
	}

	// Get callbacks
	onTimeout := m.onTimeout
	onWarning := m.onWarning
	m.mu.Unlock()

	// Execute callbacks outside lock
	if shouldWarn && onWarning != nil {
		onWarning(remaining)
	}

	if !expired && m.ShouldAutoSave() {
		_ = m.AutoSave()
	}

	if expired {
		_ = m.Logout()
		if onTimeout != nil {
			onTimeout()
		}
	}

	return !expired
}

// Logout flushes and closes the history. Further calls are no-ops.
func (m *Manager) Logout() error {
	m.mu.Lock()
	if m.ended {
		m.mu.Unlock()
		return nil
	}
	m.ended = true
	hist := m.hist
	m.mu.Unlock()

	if err := hist.Close(); err != nil {
		return fmt.Errorf("close history: %w", err)
	}
	return nil
}

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// TickMsg is sent periodically to check session state.
type TickMsg struct {
	Time time.Time
}

// TimeoutWarningMsg indicates session is about to timeout.
type TimeoutWarningMsg struct {
	Remaining time.Duration
}

// TimeoutMsg indicates session has timed out.
type TimeoutMsg struct{}

// AutoSaveMsg reports the result of an autosave.
type AutoSaveMsg struct {
	Err error
}

// TickCmd returns a command that ticks periodically.
func TickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// HandleTick processes a tick and returns appropriate messages.
func (m *Manager) HandleTick() tea.Cmd {
	if m.Ended() {
		return nil
	}

	var cmds []tea.Cmd

	// Check for timeout warning
	m.mu.Lock()
	now := m.clock()
	if m.shouldWarnLocked(now) {
		remaining := m.remainingLocked(now)
		m.warningShown = true
		cmds = append(cmds, func() tea.Msg {
			return TimeoutWarningMsg{Remaining: remaining}
		})
	}
	expired := m.expiredLocked(now)
	m.mu.Unlock()

	// Check for timeout
	if expired {
		_ = m.Logout()
		return func() tea.Msg { return TimeoutMsg{} }
	}

	// Check for auto-save
	if m.ShouldAutoSave() {
		cmds = append(cmds, func() tea.Msg {
			return AutoSaveMsg{Err: m.AutoSave()}
		})
	}

	// Continue ticking
	cmds = append(cmds, TickCmd())

	return tea.Batch(cmds...)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateSessionID creates a unique session ID.
func generateSessionID(t time.Time) string {
	return "sess_" + t.Format("20060102_150405.000")
}

// =============================================================================
// SESSION STATUS
// =============================================================================

// Status represents the current session status.
type Status struct {
	SessionID     string
	StartTime     time.Time
	Duration      time.Duration
	IdleTime      time.Duration
	RemainingTime time.Duration
	IsDirty       bool
	IsExpired     bool
	Ended         bool
}

// GetStatus returns the current session status.
func (m *Manager) GetStatus() Status {
	dirty := m.IsDirty()

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	return Status{
		SessionID:     m.sessionID,
		StartTime:     m.startTime,
		Duration:      now.Sub(m.startTime),
		IdleTime:      now.Sub(m.lastActivity),
		RemainingTime: m.remainingLocked(now),
		IsDirty:       dirty,
		IsExpired:     m.expiredLocked(now),
		Ended:         m.ended,
	}
}

// FormatDuration returns a human-readable duration string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dm %ds", mins, secs)
}
