package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClientEvent(t *testing.T) {
	t.Run("SendMessage", func(t *testing.T) {
		evt, err := DecodeClientEvent([]byte(`{"event":"send_message","data":{"receiver_id":"u2","content":"hi"}}`))
		require.NoError(t, err)
		payload := evt.Payload.(*SendMessagePayload)
		assert.Equal(t, "u2", payload.ReceiverID)
	})

	t.Run("JoinRoomNoPayload", func(t *testing.T) {
		evt, err := DecodeClientEvent([]byte(`{"event":"join_room"}`))
		require.NoError(t, err)
		assert.Nil(t, evt.Payload)
	})

	t.Run("CallUser", func(t *testing.T) {
		evt, err := DecodeClientEvent([]byte(`{"event":"call_user","data":{"target_id":"u2","call_type":"video","signal":{"sdp":"x"}}}`))
		require.NoError(t, err)
		payload := evt.Payload.(*CallSignalPayload)
		assert.Equal(t, "video", payload.CallType)
		assert.NotEmpty(t, payload.Signal)
	})
}

func TestDecodeClientEventRejects(t *testing.T) {
	cases := map[string]string{
		"NotJSON":            `{"event":`,
		"MissingName":        `{"data":{}}`,
		"UnknownEvent":       `{"event":"reboot_server"}`,
		"NoTarget":           `{"event":"send_message","data":{"content":"hi"}}`,
		"BothTargets":        `{"event":"send_message","data":{"receiver_id":"a","group_id":"b","content":"hi"}}`,
		"EmptyMessage":       `{"event":"send_message","data":{"receiver_id":"a"}}`,
		"AckWithoutID":       `{"event":"message_delivered","data":{}}`,
		"CandidateMissing":   `{"event":"ice_candidate","data":{"target_id":"a"}}`,
		"CallWithoutTarget":  `{"event":"call_user","data":{"call_type":"audio"}}`,
		"EditWithoutContent": `{"event":"edit_message","data":{"message_id":"m1"}}`,
	}
	for name, frame := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeClientEvent([]byte(frame))
			assert.ErrorIs(t, err, ErrMalformedEvent)
		})
	}
}
