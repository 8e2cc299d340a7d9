package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Dr. Sunita Patel", CleanString("  Dr. Sunita Patel "))
	assert.Equal(t, "asha@example.com", CleanString(" Asha@Example.COM ", true))
}

func TestCleanStrings(t *testing.T) {
	title, trainer := " Flood Response Basics ", "\tDr. Sunita Patel\n"
	CleanStrings(&title, &trainer)
	assert.Equal(t, "Flood Response Basics", title)
	assert.Equal(t, "Dr. Sunita Patel", trainer)
}
