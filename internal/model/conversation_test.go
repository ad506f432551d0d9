package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestConversationID_IsSymmetric(t *testing.T) {
	req := require.New(t)
	for i := 0; i < 50; i++ {
		a, b := uuid.NewString(), uuid.NewString()
		req.Equal(ConversationID(a, b), ConversationID(b, a))
	}
	req.Equal("U1_U2", ConversationID("U2", "U1"))
}

func TestParseConversationID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		a, b    string
		wantErr bool
	}{
		{"sorted pair", "U1_U2", "U1", "U2", false},
		{"unsorted pair", "U2_U1", "", "", true},
		{"single part", "U1", "", "", true},
		{"empty side", "_U1", "", "", true},
		{"three parts", "U1_U2_U3", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			a, b, err := ParseConversationID(tt.id)
			if tt.wantErr {
				req.ErrorIs(err, ErrInvalidConversation)
				return
			}
			req.NoError(err)
			req.Equal(tt.a, a)
			req.Equal(tt.b, b)
		})
	}
}

func TestOtherParticipant(t *testing.T) {
	req := require.New(t)
	conv := ConversationID("U1", "U2")

	other, err := OtherParticipant(conv, "U1")
	req.NoError(err)
	req.Equal("U2", other)

	other, err = OtherParticipant(conv, "U2")
	req.NoError(err)
	req.Equal("U1", other)

	_, err = OtherParticipant(conv, "U3")
	req.ErrorIs(err, ErrNotParticipant)
}
