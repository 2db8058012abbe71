package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextValidator_Valid(t *testing.T) {
	validator := NewTextValidator()
	validInputs := []string{
		"Aspirin",
		"1 tablet",
		"Vitamin D3 (1000 IU)",
		"½ tablet",
		"Paracétamol 500 mg",
		strings.Repeat("ab", 50),
	}

	for _, input := range validInputs {
		assert.NoError(t, validator.Validate(input), input)
	}
}

func TestTextValidator_TooLong(t *testing.T) {
	validator := NewTextValidator()
	validator.MaxRunes = 10

	assert.ErrorIs(t, validator.Validate(strings.Repeat("ab", 6)), ErrTextTooLong)
	assert.NoError(t, validator.Validate("ééééééééé"))
}

func TestTextValidator_ControlCharacters(t *testing.T) {
	validator := NewTextValidator()

	for _, input := range []string{"Aspi\x00rin", "line\nbreak", "tab\there", "bell\a"} {
		assert.ErrorIs(t, validator.Validate(input), ErrControlCharacter, "%q", input)
	}
}

func TestTextValidator_InvalidEncoding(t *testing.T) {
	assert.ErrorIs(t, ValidateText("bad\xffbyte"), ErrInvalidEncoding)
}

func TestTextValidator_Repetition(t *testing.T) {
	validator := NewTextValidator()

	assert.ErrorIs(t, validator.Validate(strings.Repeat("a", 21)), ErrRepetitiveContent)
	assert.NoError(t, validator.Validate(strings.Repeat("a", 20)))
}

func BenchmarkValidateText(b *testing.B) {
	input := "Metformin extended release 500 mg"
	for i := 0; i < b.N; i++ {
		ValidateText(input)
	}
}
