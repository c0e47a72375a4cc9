package typeid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixedIDs(t *testing.T) {
	id := NewSnapshotID()
	assert.True(t, strings.HasPrefix(id, PrefixSnapshot+"_"))
	assert.NoError(t, Validate(id, PrefixSnapshot))
	assert.Error(t, Validate(id, PrefixSession))
	assert.NotEqual(t, id, NewSnapshotID())
}

func TestValidateRejectsGarbage(t *testing.T) {
	assert.Error(t, Validate("not-a-typeid", PrefixSession))
}
