package helpers

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// GravatarURL returns the default avatar for an email: 200px, PG rated, "mystery person" fallback.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?s=200&r=pg&d=mm"
}
