package storage

import (
	"strings"

	"github.com/google/uuid"
)

func newID() string {
	return uuid.NewString()
}

// isUniqueConstraintError performs a cheap check across supported drivers.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(
		err.Error(),
		// sqlite
		"UNIQUE constraint failed",
		// mysql
		"Duplicate entry", "Error 1062",
		// postgres
		"duplicate key value", "violates unique constraint",
	)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
