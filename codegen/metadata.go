package codegen

import (
	"frisbee/semantics"
	"frisbee/stdlib"
	"frisbee/symbols"
	"frisbee/types"
)

// TypeMeta is the layout of one custom type: its total size, per-field
// offsets/sizes/types, and the word offsets within its memory that hold
// heap references.
type TypeMeta struct {
	Name           symbols.SymbolType
	IsActive       bool
	Size           int
	FieldOffsets   map[string]int
	FieldSizes     map[string]int
	FieldTypes     map[string]types.Type
	PointerMapping []int
}

// TypesTable indexes every custom type in aggregate insertion order.
type TypesTable struct {
	indexes  map[symbols.SymbolType]int
	Metadata []TypeMeta
}

// NewTypesTable lays out every type of the aggregate.
func NewTypesTable(aggregate *semantics.ProgramAggregate) *TypesTable {
	isActive := func(name string) bool {
		return aggregate.Types[symbols.SymbolType(name)].IsActive
	}

	table := &TypesTable{indexes: map[symbols.SymbolType]int{}}
	for _, typename := range aggregate.TypeOrder {
		definition := aggregate.Types[typename]

		meta := TypeMeta{
			Name:         typename,
			IsActive:     definition.IsActive,
			FieldOffsets: map[string]int{},
			FieldSizes:   map[string]int{},
			FieldTypes:   map[string]types.Type{},
		}
		offset := 0
		for i, fieldName := range definition.Fields.Names() {
			fieldType := definition.Fields.Types()[i]
			size := TypeSize(fieldType)
			meta.FieldOffsets[fieldName] = offset
			meta.FieldSizes[fieldName] = size
			meta.FieldTypes[fieldName] = fieldType
			offset += size
		}
		meta.Size = offset
		meta.PointerMapping = PointersMapForSequence(definition.Fields.Types(), isActive)

		table.indexes[typename] = len(table.Metadata)
		table.Metadata = append(table.Metadata, meta)
	}
	return table
}

// Get returns the layout of a custom type.
func (t *TypesTable) Get(typename symbols.SymbolType) *TypeMeta {
	return &t.Metadata[t.indexes[typename]]
}

// Index returns the metadata index of a custom type.
func (t *TypesTable) Index(typename symbols.SymbolType) int {
	return t.indexes[typename]
}

// ListKindMeta is the layout of one list kind: the element type, its size
// and the heap-reference offsets within a single element.
type ListKindMeta struct {
	ItemType       types.Type
	ItemSize       int
	PointerMapping []int
}

// ListKindsTable assigns every distinct list element type a small index,
// with List(Int) fixed at index 0.
type ListKindsTable struct {
	indexes  map[string]int
	Metadata []ListKindMeta
	isActive func(name string) bool
}

func NewListKindsTable(aggregate *semantics.ProgramAggregate) *ListKindsTable {
	isActive := func(name string) bool {
		return aggregate.Types[symbols.SymbolType(name)].IsActive
	}
	table := &ListKindsTable{indexes: map[string]int{}, isActive: isActive}
	if table.GetOrInsert(types.Int) != stdlib.ListOfIntsKind {
		panic("list kinds table must start with [Int]")
	}
	return table
}

// GetOrInsert returns the kind index for the element type, registering it
// on first use.
func (t *ListKindsTable) GetOrInsert(itemType types.Type) int {
	key := itemType.String()
	if index, ok := t.indexes[key]; ok {
		return index
	}
	index := len(t.Metadata)
	t.indexes[key] = index
	t.Metadata = append(t.Metadata, ListKindMeta{
		ItemType:       itemType,
		ItemSize:       TypeSize(itemType),
		PointerMapping: PointersMapForType(itemType, t.isActive),
	})
	return index
}

// FuncMeta is the call layout of one function: the argument-area size, the
// return-value size and the heap-reference offsets within the argument
// area. The message serializer walks arguments through this map.
type FuncMeta struct {
	Name           symbols.SymbolFunc
	ArgsSize       int
	ReturnSize     int
	PointerMapping []int
}

// NewFuncMeta lays out one function's call interface.
func NewFuncMeta(fn *semantics.RawFunction, aggregate *semantics.ProgramAggregate) FuncMeta {
	isActive := func(name string) bool {
		return aggregate.Types[symbols.SymbolType(name)].IsActive
	}
	argsSize := 0
	for _, t := range fn.Args.Types() {
		argsSize += TypeSize(t)
	}
	return FuncMeta{
		Name:           fn.Name,
		ArgsSize:       argsSize,
		ReturnSize:     TypeSize(fn.ReturnType),
		PointerMapping: PointersMapForSequence(fn.Args.Types(), isActive),
	}
}
