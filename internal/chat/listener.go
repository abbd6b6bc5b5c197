package chat

// Listener receives render instructions from the session manager. The
// presentation layer implements it; the manager never reaches into the UI
// directly. All callbacks run synchronously on the manager's event loop, so
// implementations must not block.
type Listener interface {
	// SessionsChanged reports that the session list (membership, order, or
	// a title) changed.
	SessionsChanged(sessions []Session)

	// ActiveChanged reports a new active session.
	ActiveChanged(sessionID string)

	// MessageAppended reports a message newly added to a session.
	MessageAppended(sessionID string, msg Message)

	// MessageUpdated reports new content on the streaming placeholder.
	MessageUpdated(sessionID string, msg Message)

	// InputEnabled reports whether the input surface should accept
	// submissions.
	InputEnabled(enabled bool)
}

type nopListener struct{}

func (nopListener) SessionsChanged([]Session)       {}
func (nopListener) ActiveChanged(string)            {}
func (nopListener) MessageAppended(string, Message) {}
func (nopListener) MessageUpdated(string, Message)  {}
func (nopListener) InputEnabled(bool)               {}
