package ids_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/econsim-go/pkg/ids"
)

func TestShortHash_Deterministic(t *testing.T) {
	a := ids.ShortHash("alice", "bob", "10")
	b := ids.ShortHash("alice", "bob", "10")
	assert.Equal(t, a, b)
	assert.Len(t, a, 8)
}

func TestShortHash_FieldBoundarySensitive(t *testing.T) {
	// "ab","c" must hash differently from "a","bc" despite naive
	// concatenation producing the same string.
	a := ids.ShortHash("ab", "c")
	b := ids.ShortHash("a", "bc")
	assert.NotEqual(t, a, b)
}

func TestNewShortUUID_Unique(t *testing.T) {
	a := ids.NewShortUUID()
	b := ids.NewShortUUID()
	assert.Len(t, a, 8)
	assert.NotEqual(t, a, b)
}

func TestLabeledID(t *testing.T) {
	id := ids.LabeledID("contract")
	assert.Regexp(t, `^contract-[0-9a-f]{8}$`, id)
}
