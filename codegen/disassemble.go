package codegen

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"frisbee/opcode"
)

// Disassembler renders a bytecode image in a human-readable form: the
// constants pool, the metadata blocks, and every function's instruction
// listing with resolved names.
type Disassembler struct {
	program []byte
	pos     int
	out     strings.Builder

	functionNames map[int]string
}

func NewDisassembler(program []byte) *Disassembler {
	return &Disassembler{program: program, functionNames: map[int]string{}}
}

func (d *Disassembler) readByte() byte {
	b := d.program[d.pos]
	d.pos++
	return b
}

func (d *Disassembler) readU16() uint16 {
	v := binary.BigEndian.Uint16(d.program[d.pos:])
	d.pos += 2
	return v
}

func (d *Disassembler) readBytes(n int) []byte {
	bytes := d.program[d.pos : d.pos+n]
	d.pos += n
	return bytes
}

func (d *Disassembler) checkHeader(section string) error {
	if d.readByte() != opcode.HeaderByte || d.readByte() != opcode.HeaderByte {
		return fmt.Errorf("cannot find header: %s", section)
	}
	return nil
}

func (d *Disassembler) disassembleConstants() error {
	fmt.Fprintf(&d.out, "; constants\n")
	index := 0
	for {
		switch flag := d.readByte(); flag {
		case opcode.CONST_INT_FLAG:
			value := int64(binary.BigEndian.Uint64(d.readBytes(8)))
			fmt.Fprintf(&d.out, ";   %d: int %d\n", index, value)
		case opcode.CONST_FLOAT_FLAG:
			value := math.Float64frombits(binary.BigEndian.Uint64(d.readBytes(8)))
			fmt.Fprintf(&d.out, ";   %d: float %v\n", index, value)
		case opcode.CONST_STRING_FLAG:
			length := int(d.readU16())
			fmt.Fprintf(&d.out, ";   %d: string %q\n", index, string(d.readBytes(length)))
		case opcode.CONST_END_FLAG:
			return d.checkHeader("end of constants")
		default:
			return fmt.Errorf("unknown const flag: %02x", flag)
		}
		index++
	}
}

func (d *Disassembler) disassembleMetadataBlock(section string) ([]string, error) {
	fmt.Fprintf(&d.out, "; %s\n", section)
	count := int(d.readByte())
	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		nameLen := int(d.readU16())
		name := string(d.readBytes(nameLen))
		flag := d.readU16()
		pointersCount := int(d.readByte())
		pointers := d.readBytes(pointersCount)
		fmt.Fprintf(&d.out, ";   %d: %s flag=%d pointers=%v\n", i, name, flag, pointers)
		names = append(names, name)
	}
	return names, d.checkHeader("end of " + section)
}

// Disassemble renders the whole image or fails on a malformed one.
func (d *Disassembler) Disassemble() (string, error) {
	if err := d.checkHeader("initial header"); err != nil {
		return "", err
	}
	if err := d.disassembleConstants(); err != nil {
		return "", err
	}
	if _, err := d.disassembleMetadataBlock("types metadata"); err != nil {
		return "", err
	}
	if _, err := d.disassembleMetadataBlock("lists metadata"); err != nil {
		return "", err
	}
	functionNames, err := d.disassembleMetadataBlock("functions metadata")
	if err != nil {
		return "", err
	}

	count := int(d.readByte())
	for i := 0; i < count; i++ {
		pos := int(d.readU16())
		if i < len(functionNames) {
			d.functionNames[pos] = functionNames[i]
		}
	}
	if err := d.checkHeader("end of function positions"); err != nil {
		return "", err
	}

	entry := int(d.readU16())
	fmt.Fprintf(&d.out, "; entry: %04x (%s)\n", entry, d.functionNames[entry])
	if err := d.checkHeader("entry"); err != nil {
		return "", err
	}

	for d.pos < len(d.program) {
		if name, isStart := d.functionNames[d.pos]; isStart {
			fmt.Fprintf(&d.out, "\n%s:\n", name)
		}
		if err := d.disassembleInstruction(); err != nil {
			return "", err
		}
	}
	return d.out.String(), nil
}

func (d *Disassembler) disassembleInstruction() error {
	position := d.pos
	op := d.readByte()
	if !opcode.IsKnown(op) {
		return fmt.Errorf("unknown opcode %d at position %04x", op, position)
	}

	args := make([]string, 0, 2)
	switch op {
	case opcode.JUMP, opcode.JUMP_BACK, opcode.JUMP_IF_FALSE:
		args = append(args, fmt.Sprintf("%d", d.readU16()))
	case opcode.CALL, opcode.SEND:
		args = append(args, fmt.Sprintf("%d", d.readByte()))
		target := int(d.readU16())
		args = append(args, fmt.Sprintf("%04x (%s)", target, d.functionNames[target]))
	case opcode.SPAWN:
		args = append(args, fmt.Sprintf("%d", d.readByte()))
		target := int(d.readU16())
		args = append(args, fmt.Sprintf("%04x (%s)", target, d.functionNames[target]))
	default:
		for i := 0; i < opcode.ArgsCount(op); i++ {
			args = append(args, fmt.Sprintf("%d", d.readByte()))
		}
	}

	fmt.Fprintf(&d.out, "  %04x: %s %s\n", position, opcode.Name(op), strings.Join(args, " "))
	return nil
}

// Disassemble renders a compiled image as text.
func Disassemble(program []byte) (string, error) {
	return NewDisassembler(program).Disassemble()
}
