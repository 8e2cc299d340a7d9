package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidationError_FieldMap(t *testing.T) {
	vErr := ValidationError{
		Err: errors.New("validation failed"),
		Fields: []FieldError{
			{Field: "email", Error: "a user with this email already exists"},
			{Field: "capacity", Error: "must be greater than 0"},
		},
	}
	assert.Equal(t, map[string]string{
		"email":    "a user with this email already exists",
		"capacity": "must be greater than 0",
	}, vErr.FieldMap())

	assert.Nil(t, ValidationError{Err: errors.New("nope")}.FieldMap())
}
