package vm

// Message payloads are flat word vectors: the target function position,
// the argument words with heap references rewritten to small indexes, then
// every reachable heap object in breadth-first discovery order. Active
// object references are registry indexes and pass through by identity.

const (
	StringFlag       uint64 = 1 << 56
	ListFlag         uint64 = 2 << 56
	CustomObjectFlag uint64 = 4 << 56
)

const listKindShift = 32

// serializePacker assigns every visited heap object an index 1..N.
type serializePacker struct {
	indexes map[uint64]int
	order   []uint64
}

func (p *serializePacker) indexFor(ref uint64) uint64 {
	if index, seen := p.indexes[ref]; seen {
		return uint64(index)
	}
	index := len(p.indexes) + 1
	p.indexes[ref] = index
	p.order = append(p.order, ref)
	return uint64(index)
}

func serializeHeapObjectHeader(obj HeapObject) uint64 {
	switch o := obj.(type) {
	case *StringObject:
		return uint64(len([]rune(o.Value))) | StringFlag
	case *ListObject:
		return uint64(o.Kind)<<listKindShift | uint64(o.Count) | ListFlag
	case *CustomObject:
		return uint64(o.TypeIndex) | CustomObjectFlag
	}
	panic("unreachable")
}

// SerializeFunctionArgs flattens the argument window of a call to the
// function at funcPos into a self-contained chunk.
func SerializeFunctionArgs(funcPos int, args []uint64, heap *Heap, meta *Metadata) []uint64 {
	funcIndex := meta.FunctionPositions[funcPos]

	chunk := make([]uint64, 0, len(args)+1)
	chunk = append(chunk, uint64(funcPos))
	chunk = append(chunk, args...)

	packer := &serializePacker{indexes: map[uint64]int{}}

	// rewrite the stack-level references first; everything after this loop
	// is pure heap-graph packing
	for _, pointerIndex := range meta.FuncPointerMaps[funcIndex] {
		if chunk[pointerIndex+1] == 0 {
			continue
		}
		chunk[pointerIndex+1] = packer.indexFor(chunk[pointerIndex+1])
	}

	processed := 0
	for processed < len(packer.order) {
		ref := packer.order[processed]
		processed++

		obj := heap.Get(ref)
		chunk = append(chunk, serializeHeapObjectHeader(obj))
		objectStart := len(chunk)

		var pointerMap []int
		switch o := obj.(type) {
		case *StringObject:
			for _, char := range o.Value {
				chunk = append(chunk, uint64(char))
			}
		case *ListObject:
			chunk = append(chunk, o.Data...)
			itemMap := meta.ListPointerMaps[o.Kind]
			for i := 0; i < o.Count; i++ {
				for _, pos := range itemMap {
					pointerMap = append(pointerMap, pos+o.ItemSize*i)
				}
			}
		case *CustomObject:
			chunk = append(chunk, o.Data...)
			pointerMap = meta.TypePointerMaps[o.TypeIndex]
		}

		for _, offset := range pointerMap {
			position := objectStart + offset
			if chunk[position] == 0 {
				continue
			}
			chunk[position] = packer.indexFor(chunk[position])
		}
	}
	return chunk
}

// DeserializeFunctionArgs unpacks a chunk produced by
// SerializeFunctionArgs into the receiving worker's stack (at *sp) and
// heap, reconstructing the object graph and re-linking every reference.
func DeserializeFunctionArgs(chunk []uint64, stack []uint64, sp *int, heap *Heap, meta *Metadata) {
	funcPos := int(chunk[0])
	funcIndex := meta.FunctionPositions[funcPos]
	argsSize := meta.FuncArgsSizes[funcIndex]

	argsStart := *sp
	for i := 0; i < argsSize; i++ {
		stack[argsStart+i] = chunk[i+1]
	}
	*sp += argsSize

	// objects rebuilt in order; their chunk indexes map to new references
	objectRefs := map[uint64]uint64{}
	type pendingLinks struct {
		ref      uint64
		pointers []int
	}
	var toLink []pendingLinks

	current := argsSize + 1
	for current < len(chunk) {
		header := chunk[current]
		switch {
		case header&StringFlag != 0:
			length := int(header & ^StringFlag)
			runes := make([]rune, length)
			for i := 0; i < length; i++ {
				runes[i] = rune(chunk[current+1+i])
			}
			ref := heap.NewString(string(runes))
			objectRefs[uint64(len(objectRefs)+1)] = ref
			current += 1 + length

		case header&ListFlag != 0:
			raw := header & ^ListFlag
			kind := int(raw >> listKindShift)
			count := int(raw & (1<<listKindShift - 1))
			itemSize := meta.ListItemSizes[kind]

			ref, list := heap.AllocateList(kind, itemSize, count, chunk[current+1:])
			objectRefs[uint64(len(objectRefs)+1)] = ref
			current += 1 + len(list.Data)

			itemMap := meta.ListPointerMaps[kind]
			var pointers []int
			for i := 0; i < count; i++ {
				for _, pos := range itemMap {
					pointers = append(pointers, pos+itemSize*i)
				}
			}
			toLink = append(toLink, pendingLinks{ref: ref, pointers: pointers})

		case header&CustomObjectFlag != 0:
			typeIndex := int(header & ^CustomObjectFlag)
			ref, obj := heap.AllocateCustom(typeIndex, meta.TypeSizes[typeIndex])
			copy(obj.Data, chunk[current+1:])
			objectRefs[uint64(len(objectRefs)+1)] = ref
			current += 1 + len(obj.Data)

			toLink = append(toLink, pendingLinks{ref: ref, pointers: meta.TypePointerMaps[typeIndex]})

		default:
			runtimeFail("unknown serialization flag in header %x", header)
		}
	}

	// re-link the stack references first, then the heap ones
	for _, pointerIndex := range meta.FuncPointerMaps[funcIndex] {
		if value := stack[argsStart+pointerIndex]; value != 0 {
			stack[argsStart+pointerIndex] = objectRefs[value]
		}
	}
	for _, pending := range toLink {
		switch obj := heap.Get(pending.ref).(type) {
		case *ListObject:
			for _, pos := range pending.pointers {
				if value := obj.Data[pos]; value != 0 {
					obj.Data[pos] = objectRefs[value]
				}
			}
		case *CustomObject:
			for _, pos := range pending.pointers {
				if value := obj.Data[pos]; value != 0 {
					obj.Data[pos] = objectRefs[value]
				}
			}
		}
	}
}
