package main

import (
	"strings"

	"github.com/google/uuid"
)

const maxNameLength = 32

// newSessionToken mints an opaque session identity. The token is the
// only credential a client holds; presenting the same token after a
// network drop resumes the same logical player.
func newSessionToken() string {
	return uuid.NewString()
}

// sanitizeName trims and truncates a display name. Callers treat an
// empty result as "drop the change".
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	runes := []rune(name)
	if len(runes) > maxNameLength {
		name = string(runes[:maxNameLength])
	}
	return name
}
