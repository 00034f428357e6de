package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDs(t *testing.T) {
	g := NewSequentialIDs("")
	assert.Equal(t, "evt-0001", g.Generate())
	assert.Equal(t, "evt-0002", g.Generate())

	other := NewSequentialIDs("run")
	assert.Equal(t, "run-0001", other.Generate())
}
