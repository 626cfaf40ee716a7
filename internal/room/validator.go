package room

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

const (
	MaxChatBytes = 4096 // 4KB max message size
	MaxChatChars = 2000 // max character count
)

// ErrEmptyMessage is returned when a chat message is empty after trimming.
var ErrEmptyMessage = errors.New("room: chat message is empty")

// ValidateChatText checks that a trimmed chat message meets content
// requirements before it is posted to a room.
func ValidateChatText(text string) error {
	if len(text) == 0 {
		return ErrEmptyMessage
	}
	if len(text) > MaxChatBytes {
		return fmt.Errorf("room: message exceeds %d byte limit", MaxChatBytes)
	}
	if utf8.RuneCountInString(text) > MaxChatChars {
		return fmt.Errorf("room: message exceeds %d character limit", MaxChatChars)
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("room: message contains invalid UTF-8")
	}
	return nil
}
