package middleware

import (
	"errors"
	"unicode/utf8"
)

// ValidateMessageContent validates outbound message text.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > 100000 {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidatePhoneNumber validates a WhatsApp recipient number: digits
// only, up to E.164's fifteen, with an optional leading plus.
func ValidatePhoneNumber(phone string) error {
	if phone == "" {
		return errors.New("phone number cannot be empty")
	}
	digits := phone
	if digits[0] == '+' {
		digits = digits[1:]
	}
	if len(digits) == 0 || len(digits) > 15 {
		return errors.New("phone number must have 1 to 15 digits")
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return errors.New("phone number must contain only digits")
		}
	}
	return nil
}
