package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email string `validate:"required,email"`
	Start string `validate:"required,clock"`
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(sample{Email: "a@b.co", Start: "09:30"}))

	errs := Validate(sample{Email: "nope", Start: "25:00"})
	assert.Equal(t, "email", errs["Email"])
	assert.Equal(t, "clock", errs["Start"])
}

func TestFieldsNonValidationError(t *testing.T) {
	errs := Fields(errors.New("unexpected EOF"))
	assert.Equal(t, "unexpected EOF", errs["body"])
}

func TestIsClock(t *testing.T) {
	assert.True(t, IsClock("00:00"))
	assert.True(t, IsClock("23:59"))
	assert.False(t, IsClock("9:00"))
	assert.False(t, IsClock("24:00"))
}
