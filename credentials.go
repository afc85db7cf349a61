package amqp091core

// Credentials holds a SASL PLAIN username/password pair. A Connection
// consumes them exactly once, when it builds the connection.start-ok
// response; TakeFrom returns them and clears the stored copy so they do not
// linger in memory for the lifetime of a long-running connection.
type Credentials struct {
	set      bool
	username string
	password string
}

// NewCredentials returns a Credentials holding username and password.
func NewCredentials(username, password string) Credentials {
	return Credentials{set: true, username: username, password: password}
}

// PlainResponse renders the SASL PLAIN response: an initial NUL, the
// username, another NUL, then the password, per RFC 4616.
func (c Credentials) PlainResponse() []byte {
	buf := make([]byte, 0, len(c.username)+len(c.password)+2)
	buf = append(buf, 0)
	buf = append(buf, c.username...)
	buf = append(buf, 0)
	buf = append(buf, c.password...)
	return buf
}

// Take returns the credentials and reports whether any were set. It does
// not mutate c; callers that need consume-once semantics hold a
// *Credentials and call TakeFrom instead.
func (c Credentials) Take() (Credentials, bool) {
	return c, c.set
}

// TakeFrom returns *slot and clears it, so the password is retained in
// memory for as short a time as possible.
func TakeFrom(slot *Credentials) (Credentials, bool) {
	if slot == nil || !slot.set {
		return Credentials{}, false
	}
	out := *slot
	*slot = Credentials{}
	return out, true
}
