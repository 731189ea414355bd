package adminapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesAnyFoldsPaths(t *testing.T) {
	prefixes := DefaultGateConf.APIPrefixes
	tests := map[string]bool{
		"/api/stats":           true,
		"/API/STATS":           true,
		"/api/Scripts/x":       true,
		"//api//stats":         true,
		"/public/../api/stats": true,
		"/api/stats/":          true,
		"/api/statsfoo":        false,
		"/api/run/1":           false,
		"/":                    false,
		"":                     false,
	}
	for p, want := range tests {
		assert.Equal(t, want, matchesAny(p, prefixes), p)
	}
}
