package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testMetadata describes one function at position 100 taking
// ([String], Int, Passive) where Passive holds a single String field.
func testMetadata() *Metadata {
	return &Metadata{
		TypeNames:       []string{"main::Passive"},
		TypeSizes:       []int{1},
		TypePointerMaps: [][]int{{0}},

		// kind 0 is [Int], kind 1 is [String]
		ListItemSizes:   []int{1, 1},
		ListPointerMaps: [][]int{{}, {0}},

		FuncNames:       []string{"main::receiver"},
		FuncArgsSizes:   []int{3},
		FuncReturnSizes: []int{0},
		FuncPointerMaps: [][]int{{0, 2}},

		FunctionPositions: map[int]int{100: 0},
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	meta := testMetadata()

	sender := &Heap{}
	first := sender.NewString("alpha")
	second := sender.NewString("beta")
	listRef, _ := sender.AllocateList(1, 1, 2, []uint64{first, second})

	inner := sender.NewString("inner")
	objectRef, object := sender.AllocateCustom(0, 1)
	object.Data[0] = inner

	args := []uint64{listRef, 42, objectRef}
	chunk := SerializeFunctionArgs(100, args, sender, meta)
	assert.Equal(t, uint64(100), chunk[0])

	// the receiving side reconstructs a structurally equal graph
	receiver := &Heap{}
	stack := make([]uint64, 64)
	sp := 0
	DeserializeFunctionArgs(chunk, stack, &sp, receiver, meta)
	require.Equal(t, 3, sp)

	assert.Equal(t, uint64(42), stack[1])

	list := receiver.GetList(stack[0])
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "alpha", receiver.GetString(list.Data[0]).Value)
	assert.Equal(t, "beta", receiver.GetString(list.Data[1]).Value)

	custom := receiver.GetCustom(stack[2])
	assert.Equal(t, "inner", receiver.GetString(custom.Data[0]).Value)
}

func TestSerializationSharedReference(t *testing.T) {
	meta := testMetadata()

	sender := &Heap{}
	shared := sender.NewString("shared")
	listRef, _ := sender.AllocateList(1, 1, 2, []uint64{shared, shared})

	chunk := SerializeFunctionArgs(100, []uint64{listRef, 0, 0}, sender, meta)

	receiver := &Heap{}
	stack := make([]uint64, 64)
	sp := 0
	DeserializeFunctionArgs(chunk, stack, &sp, receiver, meta)

	list := receiver.GetList(stack[0])
	// both items point at the same reconstructed object
	assert.Equal(t, list.Data[0], list.Data[1])
	assert.Equal(t, "shared", receiver.GetString(list.Data[0]).Value)
}

func TestSerializationNilReferences(t *testing.T) {
	meta := testMetadata()
	sender := &Heap{}

	// nil list and nil object pass through as zero words
	chunk := SerializeFunctionArgs(100, []uint64{0, 7, 0}, sender, meta)
	assert.Equal(t, []uint64{100, 0, 7, 0}, chunk)

	receiver := &Heap{}
	stack := make([]uint64, 64)
	sp := 0
	DeserializeFunctionArgs(chunk, stack, &sp, receiver, meta)
	assert.Equal(t, uint64(0), stack[0])
	assert.Equal(t, uint64(7), stack[1])
	assert.Equal(t, uint64(0), stack[2])
}
