// Package model defines data structures for the messaging core.
package model

import (
	"errors"
	"sort"
	"strings"
)

// ConversationSeparator joins the two participant identities of a conversation id.
const ConversationSeparator = "_"

var (
	// ErrInvalidConversation is returned for ids that do not name exactly two participants.
	ErrInvalidConversation = errors.New("invalid conversation id")
	// ErrNotParticipant is returned when an identity is not part of a conversation.
	ErrNotParticipant = errors.New("identity is not a participant of the conversation")
)

// ConversationID derives the id of the direct conversation between a and b.
// The result does not depend on argument order.
func ConversationID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, ConversationSeparator)
}

// ParseConversationID splits a conversation id into its two participants.
func ParseConversationID(id string) (string, string, error) {
	parts := strings.Split(id, ConversationSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrInvalidConversation
	}
	if ConversationID(parts[0], parts[1]) != id {
		return "", "", ErrInvalidConversation
	}
	return parts[0], parts[1], nil
}

// OtherParticipant returns the participant of id that is not self.
func OtherParticipant(id, self string) (string, error) {
	a, b, err := ParseConversationID(id)
	if err != nil {
		return "", err
	}
	switch self {
	case a:
		return b, nil
	case b:
		return a, nil
	default:
		return "", ErrNotParticipant
	}
}
