package server

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvent_WireFormat(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{name: "message", event: Message("alice", "hi"), want: `{"username":"alice","message":"hi"}`},
		{name: "joined", event: Joined("alice"), want: `{"username":"alice","left":false}`},
		{name: "left", event: Left("alice"), want: `{"username":"alice","left":true}`},
		{name: "escaping", event: Message("bob", `say "hi" <b>`), want: `{"username":"bob","message":"say \"hi\" <b>"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.event.Encode()
			require.NoError(t, err)
			require.JSONEq(t, tt.want, string(data))

			decoded, err := DecodeEvent(data)
			require.NoError(t, err)
			require.Equal(t, tt.event, decoded)
		})
	}
}

func TestEvent_EncodeUnknownKind(t *testing.T) {
	_, err := Event{Username: "alice"}.Encode()
	require.ErrorIs(t, err, ErrMalformedEvent)
}

func TestDecodeEvent_Malformed(t *testing.T) {
	for name, payload := range map[string]string{
		"not json":         `alice: hi`,
		"missing username": `{"message":"hi"}`,
		"neither field":    `{"username":"alice"}`,
		"both fields":      `{"username":"alice","message":"hi","left":true}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeEvent([]byte(payload))
			require.ErrorIs(t, err, ErrMalformedEvent)
		})
	}
}

func TestEventKind_String(t *testing.T) {
	require.Equal(t, "joined", EventJoined.String())
	require.Equal(t, "message", EventMessage.String())
	require.Equal(t, "left", EventLeft.String())
	require.Equal(t, "EventKind(0)", EventKind(0).String())
}
