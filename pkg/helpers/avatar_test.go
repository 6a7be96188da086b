package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGravatarURLNormalizesEmail(t *testing.T) {
	a := GravatarURL("  Jane@Example.com ")
	b := GravatarURL("jane@example.com")
	assert.Equal(t, a, b)
	assert.Contains(t, a, "https://www.gravatar.com/avatar/")
	assert.Contains(t, a, "d=mm")
}
