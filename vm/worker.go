package vm

import (
	"encoding/binary"

	"frisbee/opcode"
)

// stackSize is the fixed per-worker value stack, in words.
const stackSize = 512

// callFrame is one activation record. The frame's memory starts at
// stackStart: the return slot first, then arguments, then locals.
type callFrame struct {
	returnIP   int
	stackStart int
	returnSize int
}

// activeObject is the state of the active object a worker runs: its
// registry id and its field memory.
type activeObject struct {
	id        uint64
	typeIndex int
	data      []uint64
}

// Worker executes the opcodes of one active object (or of the entry
// function). It owns its value stack and a private heap; the only things
// it shares with other workers are the read-only program and metadata.
type Worker struct {
	machine   *Machine
	heap      *Heap
	constants []uint64

	active *activeObject

	ip     int
	stack  [stackSize]uint64
	sp     int
	frames []callFrame
}

func newWorker(machine *Machine) *Worker {
	heap := &Heap{}
	return &Worker{
		machine:   machine,
		heap:      heap,
		constants: machine.internConstants(heap),
	}
}

func (w *Worker) push(value uint64) {
	if w.sp >= stackSize {
		runtimeFail("stack overflow")
	}
	w.stack[w.sp] = value
	w.sp++
}

func (w *Worker) pop() uint64 {
	w.sp--
	return w.stack[w.sp]
}

func (w *Worker) readOpcode() byte {
	b := w.machine.Program[w.ip]
	w.ip++
	return b
}

func (w *Worker) readU16() uint16 {
	v := binary.BigEndian.Uint16(w.machine.Program[w.ip:])
	w.ip += 2
	return v
}

func (w *Worker) currentFrame() *callFrame {
	return &w.frames[len(w.frames)-1]
}

// callOp pushes a frame for the function at funcPos. The callee's return
// size comes from the function metadata, so the frame start covers the
// reserved return slot below the arguments.
func (w *Worker) callOp(funcPos, argsSize int) {
	funcIndex, known := w.machine.Metadata.FunctionPositions[funcPos]
	if !known {
		runtimeFail("call to unknown function position %04x", funcPos)
	}
	returnSize := w.machine.Metadata.FuncReturnSizes[funcIndex]
	w.frames = append(w.frames, callFrame{
		returnIP:   w.ip,
		stackStart: w.sp - argsSize - returnSize,
		returnSize: returnSize,
	})
	w.ip = funcPos
}

// callStd runs a native runner on the argument window; it consumes the
// arguments and leaves the return value in place.
func (w *Worker) callStd(stdIndex, argsSize int) {
	if stdIndex >= len(w.machine.runners) {
		runtimeFail("undefined std function index %d", stdIndex)
	}
	start := w.sp - argsSize
	result := w.machine.runners[stdIndex](w, w.stack[start:w.sp])
	w.sp = start
	for _, word := range result {
		w.push(word)
	}
}

func (w *Worker) returnOp() (finished bool) {
	frame := w.frames[len(w.frames)-1]
	w.frames = w.frames[:len(w.frames)-1]
	w.ip = frame.returnIP
	w.sp = frame.stackStart + frame.returnSize
	return len(w.frames) == 0
}

func (w *Worker) execBinaryInt(op func(a, b int64) int64) {
	b := int64(w.pop())
	a := int64(w.pop())
	w.push(uint64(op(a, b)))
}

func (w *Worker) execBinaryFloat(op func(a, b float64) float64) {
	b := floatFromBits(w.pop())
	a := floatFromBits(w.pop())
	w.push(floatBits(op(a, b)))
}

func (w *Worker) execBinary(op func(a, b uint64) uint64) {
	b := w.pop()
	a := w.pop()
	w.push(op(a, b))
}

func boolWord(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}

// RunEntry runs the program's entry function on this worker.
func (w *Worker) RunEntry(entryPos int) (failure error) {
	defer recoverRuntime(&failure)
	w.invoke(entryPos, nil)
	return nil
}

// RunMessage processes one serialized message: the method position in the
// first word, then the packed arguments.
func (w *Worker) RunMessage(message []uint64) (failure error) {
	defer recoverRuntime(&failure)
	w.invoke(int(message[0]), message)
	return nil
}

func recoverRuntime(failure *error) {
	if r := recover(); r != nil {
		if rte, isRuntime := r.(RuntimeError); isRuntime {
			*failure = rte
			return
		}
		panic(r)
	}
}

// invoke sets up the initial frame for the function at funcPos, unpacks
// the message arguments if any, and drives the instruction loop until the
// outermost frame unwinds.
func (w *Worker) invoke(funcPos int, message []uint64) {
	funcIndex, known := w.machine.Metadata.FunctionPositions[funcPos]
	if !known {
		runtimeFail("message for unknown function position %04x", funcPos)
	}
	returnSize := w.machine.Metadata.FuncReturnSizes[funcIndex]

	w.sp = 0
	w.frames = w.frames[:0]
	for i := 0; i < returnSize; i++ {
		w.push(0)
	}
	if message != nil {
		DeserializeFunctionArgs(message, w.stack[:], &w.sp, w.heap, &w.machine.Metadata)
	}

	w.frames = append(w.frames, callFrame{
		returnIP:   len(w.machine.Program),
		stackStart: 0,
		returnSize: returnSize,
	})
	w.ip = funcPos
	w.run()
}

// run is the instruction loop; it exits when the outermost frame returns.
func (w *Worker) run() {
	for w.ip < len(w.machine.Program) {
		op := w.readOpcode()
		switch op {
		case opcode.LOAD_CONST:
			index := w.readOpcode()
			w.push(w.constants[index])
		case opcode.LOAD_SMALL_INT:
			w.push(uint64(w.readOpcode()))
		case opcode.LOAD_TRUE:
			w.push(1)
		case opcode.LOAD_FALSE:
			w.push(0)

		case opcode.NEGATE_INT:
			w.push(uint64(-int64(w.pop())))
		case opcode.ADD_INT:
			w.execBinaryInt(func(a, b int64) int64 { return a + b })
		case opcode.SUB_INT:
			w.execBinaryInt(func(a, b int64) int64 { return a - b })
		case opcode.MUL_INT:
			w.execBinaryInt(func(a, b int64) int64 { return a * b })
		case opcode.DIV_INT:
			w.execBinaryInt(func(a, b int64) int64 {
				if b == 0 {
					runtimeFail("division by zero")
				}
				return a / b
			})
		case opcode.GREATER_INT:
			w.execBinary(func(a, b uint64) uint64 { return boolWord(int64(a) > int64(b)) })
		case opcode.LESS_INT:
			w.execBinary(func(a, b uint64) uint64 { return boolWord(int64(a) < int64(b)) })
		case opcode.EQ_INT:
			w.execBinary(func(a, b uint64) uint64 { return boolWord(int64(a) == int64(b)) })

		case opcode.NEGATE_FLOAT:
			w.push(floatBits(-floatFromBits(w.pop())))
		case opcode.ADD_FLOAT:
			w.execBinaryFloat(func(a, b float64) float64 { return a + b })
		case opcode.SUB_FLOAT:
			w.execBinaryFloat(func(a, b float64) float64 { return a - b })
		case opcode.MUL_FLOAT:
			w.execBinaryFloat(func(a, b float64) float64 { return a * b })
		case opcode.DIV_FLOAT:
			w.execBinaryFloat(func(a, b float64) float64 {
				if b == 0 {
					runtimeFail("division by zero")
				}
				return a / b
			})
		case opcode.GREATER_FLOAT:
			w.execBinary(func(a, b uint64) uint64 {
				return boolWord(floatFromBits(a) > floatFromBits(b))
			})
		case opcode.LESS_FLOAT:
			w.execBinary(func(a, b uint64) uint64 {
				return boolWord(floatFromBits(a) < floatFromBits(b))
			})
		case opcode.EQ_FLOAT:
			w.execBinary(func(a, b uint64) uint64 {
				return boolWord(floatFromBits(a) == floatFromBits(b))
			})

		case opcode.NEGATE_BOOL:
			w.push(w.pop() ^ 1)
		case opcode.AND_BOOL:
			w.execBinary(func(a, b uint64) uint64 { return a & b })
		case opcode.OR_BOOL:
			w.execBinary(func(a, b uint64) uint64 { return a | b })
		case opcode.EQ_BOOL:
			w.execBinary(func(a, b uint64) uint64 { return (a ^ b) ^ 1 })

		case opcode.ADD_STRINGS:
			b, a := w.pop(), w.pop()
			concatenated := w.heap.GetString(a).Value + w.heap.GetString(b).Value
			w.push(w.heap.NewString(concatenated))
		case opcode.EQ_STRINGS:
			// contents are compared: interning identical constants is an
			// optimization, never the contract
			b, a := w.pop(), w.pop()
			w.push(boolWord(w.heap.GetString(a).Value == w.heap.GetString(b).Value))

		case opcode.GET_LOCAL:
			offset := int(w.readOpcode())
			size := int(w.readOpcode())
			start := w.currentFrame().stackStart + offset
			for i := 0; i < size; i++ {
				w.push(w.stack[start+i])
			}
		case opcode.SET_LOCAL:
			offset := int(w.readOpcode())
			size := int(w.readOpcode())
			start := w.currentFrame().stackStart + offset
			// pop returns words in reverse order, so fill backwards
			for i := 0; i < size; i++ {
				w.stack[start+size-i-1] = w.pop()
			}

		case opcode.GET_OBJ_FIELD:
			pointer := w.pop()
			offset := int(w.readOpcode())
			size := int(w.readOpcode())
			object := w.heap.GetCustom(pointer)
			for i := 0; i < size; i++ {
				w.push(object.Data[offset+i])
			}
		case opcode.SET_OBJ_FIELD:
			pointer := w.pop()
			offset := int(w.readOpcode())
			size := int(w.readOpcode())
			object := w.heap.GetCustom(pointer)
			w.sp -= size
			copy(object.Data[offset:offset+size], w.stack[w.sp:w.sp+size])

		case opcode.GET_LIST_ITEM:
			listPointer := w.pop()
			index := int64(w.pop())
			list := w.heap.GetList(listPointer)
			itemMem := list.ItemMem(list.NormalizeIndex(index))
			for i := 0; i < list.ItemSize; i++ {
				w.push(itemMem[i])
			}
		case opcode.SET_LIST_ITEM:
			innerOffset := int(w.readOpcode())
			size := int(w.readOpcode())
			listPointer := w.pop()
			index := int64(w.pop())
			list := w.heap.GetList(listPointer)
			itemMem := list.ItemMem(list.NormalizeIndex(index))
			w.sp -= size
			copy(itemMem[innerOffset:innerOffset+size], w.stack[w.sp:w.sp+size])

		case opcode.GET_TUPLE_ITEM:
			tupleSize := int(w.readOpcode())
			offset := int(w.readOpcode())
			size := int(w.readOpcode())
			w.sp -= tupleSize
			for i := 0; i < size; i++ {
				w.stack[w.sp-size+i] = w.stack[w.sp+offset+i]
			}

		case opcode.ALLOCATE:
			typeIndex := int(w.readOpcode())
			ref, _ := w.heap.AllocateCustom(typeIndex, w.machine.Metadata.TypeSizes[typeIndex])
			w.push(ref)

		case opcode.ALLOCATE_LIST:
			kind := int(w.readOpcode())
			count := int(w.readOpcode())
			itemSize := w.machine.Metadata.ListItemSizes[kind]
			w.sp -= itemSize * count
			ref, _ := w.heap.AllocateList(kind, itemSize, count, w.stack[w.sp:w.sp+itemSize*count])
			w.push(ref)

		case opcode.RESERVE:
			count := int(w.readOpcode())
			if w.sp+count > stackSize {
				runtimeFail("stack overflow")
			}
			for i := 0; i < count; i++ {
				w.stack[w.sp+i] = 0
			}
			w.sp += count

		case opcode.POP:
			w.sp -= int(w.readOpcode())

		case opcode.CALL:
			argsSize := int(w.readOpcode())
			funcPos := int(w.readU16())
			w.callOp(funcPos, argsSize)
		case opcode.CALL_STD:
			argsSize := int(w.readOpcode())
			w.readOpcode() // reserved zero byte
			stdIndex := int(w.readOpcode())
			w.callStd(stdIndex, argsSize)

		case opcode.RETURN:
			if w.returnOp() {
				return
			}

		case opcode.JUMP:
			delta := int(w.readU16())
			w.ip += delta
		case opcode.JUMP_BACK:
			delta := int(w.readU16())
			w.ip -= delta
		case opcode.JUMP_IF_FALSE:
			condition := w.pop()
			delta := int(w.readU16())
			if condition == 0 {
				w.ip += delta
			}

		case opcode.SPAWN:
			typeIndex := int(w.readOpcode())
			constructorPos := int(w.readU16())
			funcIndex := w.machine.Metadata.FunctionPositions[constructorPos]
			argsSize := w.machine.Metadata.FuncArgsSizes[funcIndex]
			chunk := SerializeFunctionArgs(constructorPos, w.stack[w.sp-argsSize:w.sp], w.heap, &w.machine.Metadata)
			w.sp -= argsSize
			// the result lands in the slot reserved below the arguments
			w.stack[w.sp-1] = w.machine.SpawnActive(typeIndex, chunk)

		case opcode.SEND:
			argsSize := int(w.readOpcode())
			methodPos := int(w.readU16())
			chunk := SerializeFunctionArgs(methodPos, w.stack[w.sp-argsSize:w.sp], w.heap, &w.machine.Metadata)
			w.sp -= argsSize
			target := w.pop()
			w.machine.send(target, chunk)

		case opcode.CURRENT_ACTIVE:
			w.push(w.active.id)
		case opcode.GET_CURRENT_ACTIVE_FIELD:
			offset := int(w.readOpcode())
			size := int(w.readOpcode())
			for i := 0; i < size; i++ {
				w.push(w.active.data[offset+i])
			}
		case opcode.SET_CURRENT_ACTIVE_FIELD:
			offset := int(w.readOpcode())
			size := int(w.readOpcode())
			w.sp -= size
			copy(w.active.data[offset:offset+size], w.stack[w.sp:w.sp+size])

		default:
			runtimeFail("unknown opcode: %d", op)
		}
	}
}
