package vm

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"frisbee/opcode"
)

// idleTimeout is how long the router waits on an empty central channel
// before probing for quiescence.
const idleTimeout = time.Second

// Metadata is the decoded form of the image's three metadata blocks plus
// the function-position table.
type Metadata struct {
	TypeNames       []string
	TypeSizes       []int
	TypePointerMaps [][]int

	ListItemSizes   []int
	ListPointerMaps [][]int

	FuncNames       []string
	FuncArgsSizes   []int
	FuncReturnSizes []int
	FuncPointerMaps [][]int

	// image position of a function -> its metadata index
	FunctionPositions map[int]int
}

// constantValue is one loaded constant; strings are interned into each
// worker's private heap, so the shared pool keeps the text itself.
type constantValue struct {
	isString bool
	raw      uint64
	str      string
}

// routedMessage is one (target, payload) pair travelling through the
// central channel.
type routedMessage struct {
	target  uint64
	payload []uint64
}

// storedActive is one registry entry of a spawned active object.
type storedActive struct {
	inbox   chan []uint64
	running *atomic.Bool
}

// Machine holds the loaded image shared read-only by every worker, plus
// the router state: the active-object registry and the central channel.
type Machine struct {
	Program   []byte
	Metadata  Metadata
	Entry     int
	constants []constantValue

	// Input supplies one line for std::get_input.
	Input func() (string, error)

	output     io.Writer
	outputLock sync.Mutex

	runners []stdRunner

	central      chan routedMessage
	registryLock sync.RWMutex
	registry     []*storedActive

	loadPos int
}

// Load parses a bytecode image and prepares a machine writing its output
// to the given writer.
func Load(program []byte, output io.Writer) (*Machine, error) {
	m := &Machine{
		Program: program,
		output:  output,
		central: make(chan routedMessage, 4096),
		Input:   func() (string, error) { return "", fmt.Errorf("no input source attached") },
	}
	m.Metadata.FunctionPositions = map[int]int{}

	if err := m.load(); err != nil {
		return nil, err
	}
	m.runners = buildRunners()
	return m, nil
}

func (m *Machine) readByte() (byte, error) {
	if m.loadPos >= len(m.Program) {
		return 0, fmt.Errorf("unexpected end of bytecode")
	}
	b := m.Program[m.loadPos]
	m.loadPos++
	return b, nil
}

func (m *Machine) readU16() (uint16, error) {
	if m.loadPos+2 > len(m.Program) {
		return 0, fmt.Errorf("unexpected end of bytecode")
	}
	v := binary.BigEndian.Uint16(m.Program[m.loadPos:])
	m.loadPos += 2
	return v, nil
}

func (m *Machine) readBytes(n int) ([]byte, error) {
	if m.loadPos+n > len(m.Program) {
		return nil, fmt.Errorf("unexpected end of bytecode")
	}
	bytes := m.Program[m.loadPos : m.loadPos+n]
	m.loadPos += n
	return bytes, nil
}

func (m *Machine) checkHeader(section string) error {
	header, err := m.readBytes(2)
	if err != nil {
		return err
	}
	if header[0] != opcode.HeaderByte || header[1] != opcode.HeaderByte {
		return fmt.Errorf("cannot find header: %s", section)
	}
	return nil
}

func (m *Machine) loadConstants() error {
	for {
		flag, err := m.readByte()
		if err != nil {
			return err
		}
		switch flag {
		case opcode.CONST_INT_FLAG:
			payload, err := m.readBytes(8)
			if err != nil {
				return err
			}
			m.constants = append(m.constants, constantValue{raw: binary.BigEndian.Uint64(payload)})
		case opcode.CONST_FLOAT_FLAG:
			payload, err := m.readBytes(8)
			if err != nil {
				return err
			}
			m.constants = append(m.constants, constantValue{raw: binary.BigEndian.Uint64(payload)})
		case opcode.CONST_STRING_FLAG:
			length, err := m.readU16()
			if err != nil {
				return err
			}
			payload, err := m.readBytes(int(length))
			if err != nil {
				return err
			}
			m.constants = append(m.constants, constantValue{isString: true, str: string(payload)})
		case opcode.CONST_END_FLAG:
			return m.checkHeader("end of constants table")
		default:
			return fmt.Errorf("unknown const flag: %02x", flag)
		}
	}
}

type metadataBlock struct {
	names    []string
	flags    []uint16
	pointers [][]int
}

func (m *Machine) readMetadataBlock(section string) (metadataBlock, error) {
	var block metadataBlock

	count, err := m.readByte()
	if err != nil {
		return block, err
	}
	for i := 0; i < int(count); i++ {
		nameLen, err := m.readU16()
		if err != nil {
			return block, err
		}
		name, err := m.readBytes(int(nameLen))
		if err != nil {
			return block, err
		}
		flag, err := m.readU16()
		if err != nil {
			return block, err
		}
		pointersCount, err := m.readByte()
		if err != nil {
			return block, err
		}
		rawPointers, err := m.readBytes(int(pointersCount))
		if err != nil {
			return block, err
		}
		pointers := make([]int, len(rawPointers))
		for pi, p := range rawPointers {
			pointers[pi] = int(p)
		}

		block.names = append(block.names, string(name))
		block.flags = append(block.flags, flag)
		block.pointers = append(block.pointers, pointers)
	}
	return block, m.checkHeader(section)
}

func (m *Machine) load() error {
	if err := m.checkHeader("initial header"); err != nil {
		return err
	}
	if err := m.loadConstants(); err != nil {
		return err
	}

	typesBlock, err := m.readMetadataBlock("types metadata")
	if err != nil {
		return err
	}
	m.Metadata.TypeNames = typesBlock.names
	for i := range typesBlock.names {
		m.Metadata.TypeSizes = append(m.Metadata.TypeSizes, int(typesBlock.flags[i]))
		m.Metadata.TypePointerMaps = append(m.Metadata.TypePointerMaps, typesBlock.pointers[i])
	}

	listsBlock, err := m.readMetadataBlock("lists metadata")
	if err != nil {
		return err
	}
	for i := range listsBlock.names {
		m.Metadata.ListItemSizes = append(m.Metadata.ListItemSizes, int(listsBlock.flags[i]))
		m.Metadata.ListPointerMaps = append(m.Metadata.ListPointerMaps, listsBlock.pointers[i])
	}

	funcsBlock, err := m.readMetadataBlock("functions metadata")
	if err != nil {
		return err
	}
	m.Metadata.FuncNames = funcsBlock.names
	for i := range funcsBlock.names {
		flag := funcsBlock.flags[i]
		m.Metadata.FuncArgsSizes = append(m.Metadata.FuncArgsSizes, int(flag>>8))
		m.Metadata.FuncReturnSizes = append(m.Metadata.FuncReturnSizes, int(flag&0xFF))
		m.Metadata.FuncPointerMaps = append(m.Metadata.FuncPointerMaps, funcsBlock.pointers[i])
	}

	positionsCount, err := m.readByte()
	if err != nil {
		return err
	}
	for i := 0; i < int(positionsCount); i++ {
		pos, err := m.readU16()
		if err != nil {
			return err
		}
		m.Metadata.FunctionPositions[int(pos)] = i
	}
	if err := m.checkHeader("end of function positions"); err != nil {
		return err
	}

	entry, err := m.readU16()
	if err != nil {
		return err
	}
	m.Entry = int(entry)
	return m.checkHeader("entry loaded, start of functions")
}

// internConstants materializes the constant pool for one worker, moving
// string constants into its private heap.
func (m *Machine) internConstants(heap *Heap) []uint64 {
	constants := make([]uint64, len(m.constants))
	for i, c := range m.constants {
		if c.isString {
			constants[i] = heap.NewString(c.str)
		} else {
			constants[i] = c.raw
		}
	}
	return constants
}

func (m *Machine) printf(format string, args ...any) {
	m.outputLock.Lock()
	defer m.outputLock.Unlock()
	fmt.Fprintf(m.output, format, args...)
}

func (m *Machine) reportWorkerFailure(err error) {
	m.printf("%v\n", err)
}

// SpawnActive registers a new active object, starts its worker task and
// queues the constructor invocation. Returns the registry index used as
// the active-object reference.
func (m *Machine) SpawnActive(typeIndex int, constructorChunk []uint64) uint64 {
	running := &atomic.Bool{}
	running.Store(true)
	entry := &storedActive{
		inbox:   make(chan []uint64, 256),
		running: running,
	}

	m.registryLock.Lock()
	index := uint64(len(m.registry))
	m.registry = append(m.registry, entry)
	m.registryLock.Unlock()

	go m.runActiveObject(entry, typeIndex, index)
	entry.inbox <- constructorChunk
	return index
}

// runActiveObject is one active object's task: read one message at a time
// from the inbox and process it to completion. A runtime error terminates
// the worker but leaves the system able to reach quiescence.
func (m *Machine) runActiveObject(entry *storedActive, typeIndex int, id uint64) {
	worker := newWorker(m)
	worker.active = &activeObject{
		id:        id,
		typeIndex: typeIndex,
		data:      make([]uint64, m.Metadata.TypeSizes[typeIndex]),
	}

	failed := false
	for message := range entry.inbox {
		if !failed {
			entry.running.Store(true)
			if err := worker.RunMessage(message); err != nil {
				// later messages are discarded so the system can still
				// reach quiescence
				m.reportWorkerFailure(err)
				failed = true
			}
		}
		if len(entry.inbox) == 0 {
			entry.running.Store(false)
		}
	}
}

// send hands a routed message to the central channel.
func (m *Machine) send(target uint64, payload []uint64) {
	m.central <- routedMessage{target: target, payload: payload}
}

// Run executes the entry function to completion, then routes messages
// between active objects until the system is quiescent: the central
// channel stayed idle and no worker is running.
func (m *Machine) Run() error {
	entryWorker := newWorker(m)
	if err := entryWorker.RunEntry(m.Entry); err != nil {
		return err
	}

	timer := time.NewTimer(idleTimeout)
	defer timer.Stop()
	for {
		timer.Reset(idleTimeout)
		select {
		case message := <-m.central:
			m.registryLock.RLock()
			target := m.registry[message.target]
			m.registryLock.RUnlock()
			target.inbox <- message.payload
		case <-timer.C:
			if m.isQuiescent() {
				return nil
			}
		}
	}
}

func (m *Machine) isQuiescent() bool {
	m.registryLock.RLock()
	defer m.registryLock.RUnlock()
	for _, entry := range m.registry {
		if entry.running.Load() || len(entry.inbox) > 0 {
			return false
		}
	}
	return len(m.central) == 0
}

func floatBits(f float64) uint64 {
	return math.Float64bits(f)
}

func floatFromBits(bits uint64) float64 {
	return math.Float64frombits(bits)
}
