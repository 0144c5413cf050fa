package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdvanceStatus(t *testing.T) {
	assert := assert.New(t)

	t.Run("Forward", func(t *testing.T) {
		next, changed := AdvanceStatus(MessageStatusSent, MessageStatusDelivered)
		assert.Equal(MessageStatusDelivered, next)
		assert.True(changed)

		next, changed = AdvanceStatus(MessageStatusDelivered, MessageStatusRead)
		assert.Equal(MessageStatusRead, next)
		assert.True(changed)

		// read can be requested straight from sent (receiver opened the
		// conversation before the delivery ack arrived)
		next, changed = AdvanceStatus(MessageStatusSent, MessageStatusRead)
		assert.Equal(MessageStatusRead, next)
		assert.True(changed)
	})

	t.Run("NeverRegresses", func(t *testing.T) {
		next, changed := AdvanceStatus(MessageStatusRead, MessageStatusDelivered)
		assert.Equal(MessageStatusRead, next)
		assert.False(changed)

		next, changed = AdvanceStatus(MessageStatusDelivered, MessageStatusSent)
		assert.Equal(MessageStatusDelivered, next)
		assert.False(changed)
	})

	t.Run("Idempotent", func(t *testing.T) {
		for _, s := range []MessageStatus{MessageStatusSent, MessageStatusDelivered, MessageStatusRead} {
			next, changed := AdvanceStatus(s, s)
			assert.Equal(s, next)
			assert.False(changed)
		}
	})

	t.Run("UnknownRequested", func(t *testing.T) {
		next, changed := AdvanceStatus(MessageStatusDelivered, MessageStatus("bogus"))
		assert.Equal(MessageStatusDelivered, next)
		assert.False(changed)
	})

	t.Run("UnknownCurrent", func(t *testing.T) {
		// Documents written before the status field existed advance normally.
		next, changed := AdvanceStatus(MessageStatus(""), MessageStatusDelivered)
		assert.Equal(MessageStatusDelivered, next)
		assert.True(changed)
	})
}

func TestMessageIsDirect(t *testing.T) {
	assert.True(t, (&Message{ReceiverID: "u2"}).IsDirect())
	assert.False(t, (&Message{GroupID: "g1"}).IsDirect())
	assert.False(t, (&Message{}).IsDirect())
}
