package middleware

import (
	"errors"
	"strconv"
	"unicode/utf8"

	"github.com/replyflow/inbox/internal/model"
)

// ParseID parses a positive integer path parameter.
func ParseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid ID format")
	}
	return id, nil
}

// ValidateMessageContent validates message content.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > 10000 {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateSender validates a message sender.
func ValidateSender(sender string) error {
	if sender == "" {
		return errors.New("sender cannot be empty")
	}
	if len(sender) > 128 {
		return errors.New("sender exceeds maximum length")
	}
	return nil
}

// ValidateStatus validates a conversation status.
func ValidateStatus(status model.Status) error {
	if !status.Valid() {
		return errors.New("status must be open, pending or resolved")
	}
	return nil
}

// ValidatePlatform validates a platform name.
func ValidatePlatform(platform model.Platform) error {
	if !platform.Valid() {
		return errors.New("unknown platform")
	}
	return nil
}

// ValidateTitle validates a template title.
func ValidateTitle(title string) error {
	if len(title) == 0 {
		return errors.New("title cannot be empty")
	}
	if len(title) > 256 {
		return errors.New("title exceeds maximum length")
	}
	if !utf8.ValidString(title) {
		return errors.New("title must be valid UTF-8")
	}
	return nil
}

// ValidateCustomerName validates a customer display name.
func ValidateCustomerName(name string) error {
	if len(name) == 0 {
		return errors.New("customer name cannot be empty")
	}
	if len(name) > 256 {
		return errors.New("customer name exceeds maximum length")
	}
	return nil
}
