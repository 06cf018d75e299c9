package types

import (
	"fmt"
	"strings"
)

// NormalizeEmail lowercases and trims an email natural key.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeName trims a name natural key. Names keep their case; comparison
// happens on the trimmed form.
func NormalizeName(s string) string {
	return strings.TrimSpace(s)
}

// ActionKey is the composite natural key of an action: a numeric id plus an
// optional sub-id. The empty sub-id means "main action" and is stored as an
// empty string, deliberately distinct from NULL so the pair can carry a
// primary-key constraint.
type ActionKey struct {
	ID    int
	SubID string
}

// String renders the key for log and report output.
func (k ActionKey) String() string {
	if k.SubID == "" {
		return fmt.Sprintf("%d", k.ID)
	}
	return fmt.Sprintf("%d/%s", k.ID, k.SubID)
}
