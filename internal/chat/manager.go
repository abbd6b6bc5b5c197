// Package chat implements the client-side session manager of the
// streaming-chat pipeline: it owns the set of conversations, appends user
// input, merges streamed assistant text, and keeps the persistence store in
// sync with every committed change.
package chat

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/qmuntal/stateless"

	"github.com/nexusagent/nexus/internal/logger"
	"github.com/nexusagent/nexus/internal/stream"
)

// FSM states for the submission lifecycle. Committed and Failed are
// transient: both resolve back to Idle within the same transition.
var (
	StateIdle      = stateless.State("Idle")
	StateAwaiting  = stateless.State("AwaitingResponse")
	StateStreaming = stateless.State("Streaming")
)

// FSM triggers.
var (
	triggerSubmit     = stateless.Trigger("Submit")
	triggerFirstChunk = stateless.Trigger("FirstChunk")
	triggerComplete   = stateless.Trigger("Complete")
	triggerFail       = stateless.Trigger("Fail")
)

// ErrorNotice is the content of the synthetic assistant message appended when
// a completion fails.
const ErrorNotice = "Something went wrong. Please check your network connection or API key."

// titleMaxRunes is the fixed short length session titles are truncated to.
const titleMaxRunes = 10

// Store persists the session collection. Load fails soft: implementations
// return an empty collection when the underlying storage is unavailable.
type Store interface {
	Load(ctx context.Context) []Session
	Save(ctx context.Context, sessions []Session) error
}

// Manager is the in-memory session state machine. It is not safe for
// concurrent use: all methods must be called from one event loop, and each
// runs to completion before the next event. Only Submit suspends, while
// awaiting network chunks.
type Manager struct {
	store     Store
	completer Completer
	listener  Listener

	fsm      *stateless.StateMachine
	sessions []*Session // insertion order = recency, most recent first
	activeID string
}

// NewManager loads persisted sessions and returns a ready manager. When no
// sessions exist (first run, or storage unavailable) a fresh session is
// synthesized so input can always be accepted. listener may be nil.
func NewManager(ctx context.Context, store Store, completer Completer, listener Listener) *Manager {
	if listener == nil {
		listener = nopListener{}
	}
	m := &Manager{
		store:     store,
		completer: completer,
		listener:  listener,
	}

	fsm := stateless.NewStateMachine(StateIdle)
	fsm.Configure(StateIdle).
		Permit(triggerSubmit, StateAwaiting)
	fsm.Configure(StateAwaiting).
		Permit(triggerFirstChunk, StateStreaming).
		Permit(triggerComplete, StateIdle).
		Permit(triggerFail, StateIdle)
	fsm.Configure(StateStreaming).
		Permit(triggerComplete, StateIdle).
		Permit(triggerFail, StateIdle)
	m.fsm = fsm

	for _, sess := range store.Load(ctx) {
		cp := sess
		m.sessions = append(m.sessions, &cp)
	}
	if len(m.sessions) == 0 {
		m.createSession(ctx)
	} else {
		m.activeID = m.sessions[0].ID
	}
	m.listener.SessionsChanged(m.Sessions())
	m.listener.ActiveChanged(m.activeID)
	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() stateless.State {
	return m.fsm.MustState()
}

// Sessions returns a copy of the session collection, most recent first.
func (m *Manager) Sessions() []Session {
	out := make([]Session, len(m.sessions))
	for i, s := range m.sessions {
		cp := *s
		cp.Messages = append([]Message(nil), s.Messages...)
		out[i] = cp
	}
	return out
}

// ActiveID returns the id of the active session.
func (m *Manager) ActiveID() string {
	return m.activeID
}

// Active returns a copy of the active session.
func (m *Manager) Active() (Session, bool) {
	sess := m.active()
	if sess == nil {
		return Session{}, false
	}
	cp := *sess
	cp.Messages = append([]Message(nil), sess.Messages...)
	return cp, true
}

func (m *Manager) active() *Session {
	for _, s := range m.sessions {
		if s.ID == m.activeID {
			return s
		}
	}
	return nil
}

// NewChat creates a fresh session and makes it active. Rejected with ErrBusy
// while a completion is in flight.
func (m *Manager) NewChat(ctx context.Context) (Session, error) {
	if m.State() != StateIdle {
		return Session{}, ErrBusy
	}
	sess := m.createSession(ctx)
	m.listener.SessionsChanged(m.Sessions())
	m.listener.ActiveChanged(m.activeID)
	cp := *sess
	cp.Messages = append([]Message(nil), sess.Messages...)
	return cp, nil
}

// createSession creates a session, prepends it, activates it and persists.
func (m *Manager) createSession(ctx context.Context) *Session {
	sess := NewSession()
	m.sessions = append([]*Session{sess}, m.sessions...)
	m.activeID = sess.ID
	m.persist(ctx)
	return sess
}

// SwitchTo makes the given session active. Rejected with ErrBusy while a
// completion is in flight.
func (m *Manager) SwitchTo(id string) error {
	if m.State() != StateIdle {
		return ErrBusy
	}
	for _, s := range m.sessions {
		if s.ID == id {
			m.activeID = id
			m.listener.ActiveChanged(id)
			return nil
		}
	}
	return ErrSessionNotFound
}

// Delete removes a session. Deleting the active session promotes the most
// recent remaining one; deleting the last session synthesizes a fresh one so
// the manager never holds an empty collection.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if m.State() != StateIdle {
		return ErrBusy
	}
	idx := -1
	for i, s := range m.sessions {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrSessionNotFound
	}
	m.sessions = append(m.sessions[:idx], m.sessions[idx+1:]...)

	if m.activeID == id {
		if len(m.sessions) > 0 {
			m.activeID = m.sessions[0].ID
		} else {
			m.createSession(ctx)
		}
		m.listener.ActiveChanged(m.activeID)
	}
	m.persist(ctx)
	m.listener.SessionsChanged(m.Sessions())
	return nil
}

// Submit appends the user's input to the active session, requests a
// completion, and merges streamed increments into an assistant placeholder
// message. It blocks until the stream finishes or fails.
//
// Completion failures are not returned: they are converted to a synthetic
// assistant error message in the conversation, and the manager returns to
// Idle. Submit only errors on caller misuse (empty input, or a completion
// already in flight). Cancelling ctx mid-stream tears the stream down and
// takes the failure path.
func (m *Manager) Submit(ctx context.Context, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return ErrEmptyInput
	}
	if m.State() != StateIdle {
		return ErrBusy
	}

	sess := m.active()
	if sess == nil {
		// Invariant repair: a non-empty manager always has an active session.
		sess = m.createSession(ctx)
	}

	// The user message is persisted up front so it survives any failure.
	userMsg := Message{ID: uuid.NewString(), Role: RoleUser, Content: input}
	sess.Messages = append(sess.Messages, userMsg)
	m.deriveTitle(sess, input)
	m.persist(ctx)
	m.listener.MessageAppended(sess.ID, userMsg)

	m.fire(triggerSubmit)
	m.listener.InputEnabled(false)
	defer m.listener.InputEnabled(true)

	body, err := m.completer.Complete(ctx, append([]Message(nil), sess.Messages...))
	if err != nil {
		m.fail(ctx, sess, false, err)
		return nil
	}
	defer body.Close()

	placeholder := false
	err = stream.Consume(ctx, body, func(text string) error {
		if !placeholder {
			msg := Message{ID: uuid.NewString(), Role: RoleAI}
			sess.Messages = append(sess.Messages, msg)
			placeholder = true
			m.fire(triggerFirstChunk)
			m.listener.MessageAppended(sess.ID, msg)
		}
		last := &sess.Messages[len(sess.Messages)-1]
		last.Content += text // accumulate, never overwrite
		m.listener.MessageUpdated(sess.ID, *last)
		return nil
	})
	if err != nil {
		m.fail(ctx, sess, placeholder, err)
		return nil
	}

	if !placeholder {
		// Stream closed without a single increment; treat as a failure so
		// the user gets a response either way.
		m.fail(ctx, sess, false, stream.ErrInterrupted)
		return nil
	}

	// Commit the finished assistant message.
	m.persist(ctx)
	m.fire(triggerComplete)
	return nil
}

// fail converts a completion failure into a synthetic assistant message and
// returns the manager to Idle. An uncommitted placeholder is discarded so
// each submission yields exactly one assistant message.
func (m *Manager) fail(ctx context.Context, sess *Session, placeholder bool, err error) {
	logger.L.Warn("completion failed", "session_id", sess.ID, "error", err)
	if placeholder {
		sess.Messages = sess.Messages[:len(sess.Messages)-1]
	}
	errMsg := Message{ID: uuid.NewString(), Role: RoleAI, Content: ErrorNotice}
	sess.Messages = append(sess.Messages, errMsg)
	m.persist(ctx)
	m.fire(triggerFail)
	m.listener.MessageAppended(sess.ID, errMsg)
}

// deriveTitle sets the session title from its first user message, once.
func (m *Manager) deriveTitle(sess *Session, content string) {
	for _, msg := range sess.Messages[:len(sess.Messages)-1] {
		if msg.Role == RoleUser {
			return // already derived from an earlier user message
		}
	}
	sess.Title = truncateTitle(content)
	m.listener.SessionsChanged(m.Sessions())
}

// truncateTitle shortens content to titleMaxRunes runes, counting runes so
// multi-byte input is never cut mid-character.
func truncateTitle(content string) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= titleMaxRunes {
		return content
	}
	return string(runes[:titleMaxRunes]) + "..."
}

// persist saves the whole collection. Save failures are logged and swallowed;
// in-memory state stays authoritative for the current run.
func (m *Manager) persist(ctx context.Context) {
	if err := m.store.Save(ctx, m.Sessions()); err != nil {
		logger.L.Warn("failed to persist sessions", "error", err)
	}
}

func (m *Manager) fire(trigger stateless.Trigger) {
	if err := m.fsm.Fire(trigger); err != nil {
		logger.L.Warn("state machine fire error", "trigger", trigger, "error", err)
	}
}
