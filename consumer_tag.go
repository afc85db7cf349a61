package amqp091core

import uuid "github.com/satori/go.uuid"

// newConsumerTag generates a client-side consumer tag when BasicConsume is
// called with an empty tag.
func newConsumerTag() string {
	return "ctag-" + uuid.NewV4().String()
}
