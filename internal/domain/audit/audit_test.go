package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	oldState := map[string]any{"name": "Main", "address": "1 High St", "gone": true}
	newState := map[string]any{"name": "Central", "address": "1 High St", "phone": "555"}

	changes := Diff(oldState, newState)

	assert.Len(t, changes, 3)
	assert.Equal(t, map[string]any{"old": "Main", "new": "Central"}, changes["name"])
	assert.Equal(t, map[string]any{"old": nil, "new": "555"}, changes["phone"])
	assert.Equal(t, map[string]any{"old": true, "new": nil}, changes["gone"])
	assert.NotContains(t, changes, "address")
}
