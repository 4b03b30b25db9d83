package codegen

import (
	"encoding/binary"
	"sort"

	"frisbee/opcode"
	"frisbee/semantics"
	"frisbee/symbols"
)

func header() []byte {
	return []byte{opcode.HeaderByte, opcode.HeaderByte}
}

// serializeMetadataBlock emits one metadata block: a count byte, then per
// entry the debug name, a 2-byte flag and the pointer map.
func serializeMetadataBlock(entries []metadataEntry) []byte {
	res := []byte{byte(len(entries))}
	for _, entry := range entries {
		res = binary.BigEndian.AppendUint16(res, uint16(len(entry.name)))
		res = append(res, []byte(entry.name)...)
		res = binary.BigEndian.AppendUint16(res, entry.flag)
		res = append(res, byte(len(entry.pointers)))
		for _, pointer := range entry.pointers {
			res = append(res, byte(pointer))
		}
	}
	return res
}

type metadataEntry struct {
	name     string
	flag     uint16
	pointers []int
}

func typeEntries(typesMeta *TypesTable) []metadataEntry {
	entries := make([]metadataEntry, 0, len(typesMeta.Metadata))
	for _, meta := range typesMeta.Metadata {
		entries = append(entries, metadataEntry{
			name:     string(meta.Name),
			flag:     uint16(meta.Size),
			pointers: meta.PointerMapping,
		})
	}
	return entries
}

func listEntries(listKinds *ListKindsTable) []metadataEntry {
	entries := make([]metadataEntry, 0, len(listKinds.Metadata))
	for _, meta := range listKinds.Metadata {
		entries = append(entries, metadataEntry{
			name:     meta.ItemType.String(),
			flag:     uint16(meta.ItemSize),
			pointers: meta.PointerMapping,
		})
	}
	return entries
}

// funcEntries packs the argument-area size and the return size into the
// flag word: args in the high byte, return in the low one.
func funcEntries(funcMetas []FuncMeta) []metadataEntry {
	entries := make([]metadataEntry, 0, len(funcMetas))
	for _, meta := range funcMetas {
		entries = append(entries, metadataEntry{
			name:     string(meta.Name),
			flag:     uint16(meta.ArgsSize)<<8 | uint16(meta.ReturnSize),
			pointers: meta.PointerMapping,
		})
	}
	return entries
}

// Assemble lays out the final image: magic, constants, the three metadata
// blocks, the function-position table, the entry offset, then every
// function's instruction stream back-to-back in sorted-name order, with
// all call placeholders patched to absolute positions.
func Assemble(
	constants []byte,
	functions map[symbols.SymbolFunc]FunctionBytecode,
	funcMetasByName map[symbols.SymbolFunc]FuncMeta,
	typesMeta *TypesTable,
	listKinds *ListKindsTable,
	entry symbols.SymbolFunc,
) []byte {
	names := make([]symbols.SymbolFunc, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	funcMetas := make([]FuncMeta, 0, len(names))
	for _, name := range names {
		funcMetas = append(funcMetas, funcMetasByName[name])
	}

	typesBlock := serializeMetadataBlock(typeEntries(typesMeta))
	listsBlock := serializeMetadataBlock(listEntries(listKinds))
	funcsBlock := serializeMetadataBlock(funcEntries(funcMetas))

	// The prefix length is fixed once the block sizes are known, so the
	// absolute position of every function can be computed up front.
	positionsTableLen := 1 + 2*len(names)
	prefixLen := 2 + len(constants) + 2 +
		len(typesBlock) + 2 +
		len(listsBlock) + 2 +
		len(funcsBlock) + 2 +
		positionsTableLen + 2 +
		2 + 2

	functionStarts := map[symbols.SymbolFunc]int{}
	shift := prefixLen
	for _, name := range names {
		functionStarts[name] = shift
		shift += len(functions[name].Bytecode)
	}

	// fixup pass: patch every reserved call target
	for name := range functions {
		fb := functions[name]
		for _, placeholder := range fb.CallPlaceholders {
			binary.BigEndian.PutUint16(
				fb.Bytecode[placeholder.Position:],
				uint16(functionStarts[placeholder.Target]),
			)
		}
	}

	var image []byte
	image = append(image, header()...)
	image = append(image, constants...)
	image = append(image, header()...)
	image = append(image, typesBlock...)
	image = append(image, header()...)
	image = append(image, listsBlock...)
	image = append(image, header()...)
	image = append(image, funcsBlock...)
	image = append(image, header()...)

	image = append(image, byte(len(names)))
	for _, name := range names {
		image = binary.BigEndian.AppendUint16(image, uint16(functionStarts[name]))
	}
	image = append(image, header()...)

	image = binary.BigEndian.AppendUint16(image, uint16(functionStarts[entry]))
	image = append(image, header()...)

	for _, name := range names {
		image = append(image, functions[name].Bytecode...)
	}
	return image
}

// Generate compiles the verified aggregate into the bytecode image.
func Generate(aggregate *semantics.ProgramAggregate) []byte {
	constants := NewConstantsTable()
	typesMeta := NewTypesTable(aggregate)
	listKinds := NewListKindsTable(aggregate)

	names := make([]symbols.SymbolFunc, 0, len(aggregate.Functions))
	for name := range aggregate.Functions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	functions := map[symbols.SymbolFunc]FunctionBytecode{}
	funcMetas := map[symbols.SymbolFunc]FuncMeta{}
	for _, name := range names {
		fn := aggregate.Functions[name]
		generator := NewBytecodeGenerator(typesMeta, listKinds, constants, fn)
		functions[name] = generator.Generate(fn)
		funcMetas[name] = NewFuncMeta(fn, aggregate)
	}

	return Assemble(constants.Serialize(), functions, funcMetas, typesMeta, listKinds, aggregate.Entry)
}
