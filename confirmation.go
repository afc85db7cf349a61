package amqp091core

import "sync"

// Confirmation is a one-shot, multi-subscriber result cell. Resolve may be
// called at most once; Subscribe after resolution fires immediately
// instead of being queued. Notifiers run outside the internal lock so a
// subscriber may call back into the Confirmation without deadlocking.
type Confirmation[T any] struct {
	mu        sync.Mutex
	resolved  bool
	value     T
	err       error
	bornError error
	waiters   []func()
}

// NewConfirmation returns a pending Confirmation.
func NewConfirmation[T any]() *Confirmation[T] {
	return &Confirmation[T]{}
}

// NewResolvedConfirmation returns a Confirmation that is already resolved
// with value v and no error.
func NewResolvedConfirmation[T any](v T) *Confirmation[T] {
	return &Confirmation[T]{resolved: true, value: v}
}

// NewErrorConfirmation returns a Confirmation that was born in error: the
// operation was never attempted because the connection or channel was
// already unusable. IntoResult distinguishes this from a live Confirmation
// that later resolves with an error (e.g. a broker nack).
func NewErrorConfirmation[T any](err error) *Confirmation[T] {
	return &Confirmation[T]{resolved: true, err: err, bornError: err}
}

// Subscribe registers notify to be called once Resolve runs. If the
// Confirmation is already resolved, notify is called synchronously and
// immediately, before Subscribe returns.
func (c *Confirmation[T]) Subscribe(notify func()) {
	c.mu.Lock()
	if c.resolved {
		c.mu.Unlock()
		notify()
		return
	}
	c.waiters = append(c.waiters, notify)
	c.mu.Unlock()
}

// TryWait returns the resolved value and error without blocking. ok is
// false if the Confirmation is still pending, in which case value and err
// are the zero value and nil respectively.
func (c *Confirmation[T]) TryWait() (value T, err error, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.resolved {
		var zero T
		return zero, nil, false
	}
	return c.value, c.err, true
}

// Resolve sets the Confirmation's final value and error and wakes every
// subscriber. Calling Resolve on an already-resolved Confirmation returns
// ErrAlreadyResolved and has no other effect.
func (c *Confirmation[T]) Resolve(value T, err error) error {
	c.mu.Lock()
	if c.resolved {
		c.mu.Unlock()
		return ErrAlreadyResolved
	}
	c.resolved = true
	c.value = value
	c.err = err
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()

	for _, notify := range waiters {
		notify()
	}
	return nil
}

// IntoResult reports whether this Confirmation was born in error. A
// Confirmation born in error never represents a real in-flight operation;
// callers should surface the error immediately rather than treat it as a
// delivery they can still subscribe to or poll.
func (c *Confirmation[T]) IntoResult() (*Confirmation[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bornError != nil {
		return nil, c.bornError
	}
	return c, nil
}
