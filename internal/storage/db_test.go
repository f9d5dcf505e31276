package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeUTF8(t *testing.T) {
	assert.Equal(t, "", SanitizeUTF8(""))
	assert.Equal(t, "clean text", SanitizeUTF8("clean text"))
	assert.Equal(t, "café", SanitizeUTF8("café"))
	assert.Equal(t, "broken", SanitizeUTF8("bro\xffken"))
}
