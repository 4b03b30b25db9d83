package vm

// The heap is private to one worker. References are stable 64-bit values
// (slot index + 1, so 0 stays the nil reference) that only cross worker
// boundaries through the message serializer.

// HeapObject is anything a heap slot can hold.
type HeapObject interface {
	heapObject()
}

// StringObject is an owned character sequence. The gc flag byte is
// reserved for a future collector.
type StringObject struct {
	gcFlag bool
	Value  string
}

// ListObject is a growable sequence of fixed-size items.
type ListObject struct {
	gcFlag   bool
	Kind     int
	ItemSize int
	Count    int
	Data     []uint64
}

// CustomObject is the field memory of one class instance.
type CustomObject struct {
	gcFlag    bool
	TypeIndex int
	Data      []uint64
}

func (*StringObject) heapObject() {}
func (*ListObject) heapObject()   {}
func (*CustomObject) heapObject() {}

// Heap allocates objects and hands out stable references.
type Heap struct {
	objects []HeapObject
}

func (h *Heap) insert(obj HeapObject) uint64 {
	h.objects = append(h.objects, obj)
	return uint64(len(h.objects))
}

// NewString moves a string onto the heap.
func (h *Heap) NewString(s string) uint64 {
	return h.insert(&StringObject{Value: s})
}

// AllocateCustom allocates the zeroed field memory of a custom type.
func (h *Heap) AllocateCustom(typeIndex int, size int) (uint64, *CustomObject) {
	obj := &CustomObject{TypeIndex: typeIndex, Data: make([]uint64, size)}
	return h.insert(obj), obj
}

// AllocateList allocates a list of the given kind holding count items,
// copying the item memory from copyFrom when provided.
func (h *Heap) AllocateList(kind, itemSize, count int, copyFrom []uint64) (uint64, *ListObject) {
	data := make([]uint64, itemSize*count)
	copy(data, copyFrom)
	obj := &ListObject{Kind: kind, ItemSize: itemSize, Count: count, Data: data}
	return h.insert(obj), obj
}

// Get dereferences a heap reference.
func (h *Heap) Get(ref uint64) HeapObject {
	if ref == 0 || ref > uint64(len(h.objects)) {
		runtimeFail("invalid heap reference %d", ref)
	}
	return h.objects[ref-1]
}

// GetString dereferences a reference known to hold a string.
func (h *Heap) GetString(ref uint64) *StringObject {
	s, ok := h.Get(ref).(*StringObject)
	if !ok {
		runtimeFail("reference %d does not hold a string", ref)
	}
	return s
}

// GetList dereferences a reference known to hold a list.
func (h *Heap) GetList(ref uint64) *ListObject {
	l, ok := h.Get(ref).(*ListObject)
	if !ok {
		runtimeFail("reference %d does not hold a list", ref)
	}
	return l
}

// GetCustom dereferences a reference known to hold a custom object.
func (h *Heap) GetCustom(ref uint64) *CustomObject {
	c, ok := h.Get(ref).(*CustomObject)
	if !ok {
		runtimeFail("reference %d does not hold an object", ref)
	}
	return c
}

// ItemMem returns the memory of item `index`.
func (l *ListObject) ItemMem(index int) []uint64 {
	return l.Data[index*l.ItemSize:]
}

// NormalizeIndex folds Python-style negative indexes from the end and
// aborts the worker when the index is out of range.
func (l *ListObject) NormalizeIndex(index int64) int {
	if index < 0 {
		if -index > int64(l.Count) {
			runtimeFail("negative out of bounds: list of size %d but %d requested", l.Count, index)
		}
		return int(int64(l.Count) + index)
	}
	if index >= int64(l.Count) {
		runtimeFail("out of bounds: list of size %d but %d requested", l.Count, index)
	}
	return int(index)
}
