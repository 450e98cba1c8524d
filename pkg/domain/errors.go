package domain

import "errors"

// ErrConversationNotFound is returned when a conversation ID cannot be found
// in the store.
var ErrConversationNotFound = errors.New("conversation not found")
