package security

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

var (
	ErrTextTooLong       = errors.New("text exceeds maximum length")
	ErrInvalidEncoding   = errors.New("text is not valid UTF-8")
	ErrControlCharacter  = errors.New("control character in text")
	ErrRepetitiveContent = errors.New("excessive repetition detected")
)

// TextValidator bounds the short free-text fields of the medicine catalog
type TextValidator struct {
	MaxRunes      int
	MaxRepetition int
}

func NewTextValidator() *TextValidator {
	return &TextValidator{
		MaxRunes:      120,
		MaxRepetition: 20,
	}
}

func (v *TextValidator) Validate(input string) error {
	if !utf8.ValidString(input) {
		return ErrInvalidEncoding
	}

	if v.MaxRunes > 0 && utf8.RuneCountInString(input) > v.MaxRunes {
		return ErrTextTooLong
	}

	for _, r := range input {
		if unicode.IsControl(r) {
			return ErrControlCharacter
		}
	}

	if v.MaxRepetition > 0 && hasExcessiveRepetition(input, v.MaxRepetition) {
		return ErrRepetitiveContent
	}

	return nil
}

func hasExcessiveRepetition(input string, maxLen int) bool {
	if len(input) <= maxLen {
		return false
	}

	var prev rune
	consecutive := 0
	for i, r := range input {
		if i > 0 && r == prev {
			consecutive++
			if consecutive > maxLen {
				return true
			}
		} else {
			consecutive = 1
		}
		prev = r
	}

	return false
}

// ValidateText checks input against the default limits
func ValidateText(input string) error {
	return NewTextValidator().Validate(input)
}
