package usecase

import "time"

// defaultErrorTTL is how long a surfaced error stays visible before it
// auto-clears.
const defaultErrorTTL = 3 * time.Second

// transientNote is a user-facing error message that expires on its own.
// Errors are surfaced transiently rather than persisted: reading the note
// after its TTL returns the empty string.
type transientNote struct {
	message   string
	expiresAt time.Time
}

func (n *transientNote) set(msg string, now time.Time, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultErrorTTL
	}
	n.message = msg
	n.expiresAt = now.Add(ttl)
}

func (n *transientNote) clear() {
	n.message = ""
	n.expiresAt = time.Time{}
}

func (n *transientNote) get(now time.Time) string {
	if n.message == "" || now.After(n.expiresAt) {
		return ""
	}
	return n.message
}
