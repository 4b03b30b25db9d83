package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapAllocations(t *testing.T) {
	heap := &Heap{}

	stringRef := heap.NewString("hello")
	assert.NotZero(t, stringRef)
	assert.Equal(t, "hello", heap.GetString(stringRef).Value)

	customRef, custom := heap.AllocateCustom(2, 3)
	assert.Len(t, custom.Data, 3)
	assert.Equal(t, 2, heap.GetCustom(customRef).TypeIndex)

	listRef, list := heap.AllocateList(0, 1, 3, []uint64{10, 20, 30})
	assert.Equal(t, 3, list.Count)
	assert.Equal(t, []uint64{10, 20, 30}, heap.GetList(listRef).Data)

	// references are stable and distinct
	assert.NotEqual(t, stringRef, customRef)
	assert.NotEqual(t, customRef, listRef)
}

func TestHeapTypeMismatchFails(t *testing.T) {
	heap := &Heap{}
	ref := heap.NewString("text")

	assert.PanicsWithValue(t,
		RuntimeError{Message: "reference 1 does not hold a list"},
		func() { heap.GetList(ref) })
}

func TestNilReferenceFails(t *testing.T) {
	heap := &Heap{}
	assert.Panics(t, func() { heap.Get(0) })
}

func TestNormalizeIndex(t *testing.T) {
	list := &ListObject{ItemSize: 1, Count: 10, Data: make([]uint64, 10)}

	assert.Equal(t, 0, list.NormalizeIndex(0))
	assert.Equal(t, 1, list.NormalizeIndex(1))
	assert.Equal(t, 9, list.NormalizeIndex(-1))
	assert.Equal(t, 0, list.NormalizeIndex(-10))
}

func TestNormalizeIndexOutOfBounds(t *testing.T) {
	list := &ListObject{ItemSize: 1, Count: 10, Data: make([]uint64, 10)}

	require.Panics(t, func() { list.NormalizeIndex(10) })
	require.Panics(t, func() { list.NormalizeIndex(-11) })
}
