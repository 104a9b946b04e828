package chip8

import (
	"fmt"

	chip8cpu "github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// kind identifies one of the supported instruction forms.
type kind uint8

const (
	opUnknown kind = iota
	opNop          // 0000
	opCls          // 00E0
	opRet          // 00EE
	opJp           // 1NNN
	opCall         // 2NNN
	opSeByte       // 3XNN
	opSneByte      // 4XNN
	opSeReg        // 5XY0
	opLdByte       // 6XNN
	opAddByte      // 7XNN
	opLdReg        // 8XY0
	opOr           // 8XY1
	opAnd          // 8XY2
	opXor          // 8XY3
	opAddReg       // 8XY4
	opSub          // 8XY5
	opShr          // 8XY6
	opSubn         // 8XY7
	opShl          // 8XYE
	opSneReg       // 9XY0
	opLdI          // ANNN
	opJpV0         // BNNN
	opRnd          // CXNN
	opDrw          // DXYN
	opSkp          // EX9E
	opSknp         // EXA1
	opLdVxDT       // FX07
	opLdVxK        // FX0A
	opLdDTVx       // FX15
	opLdSTVx       // FX18
	opAddIVx       // FX1E
	opLdFVx        // FX29
	opLdBVx        // FX33
	opLdIVx        // FX55
	opLdVxI        // FX65
)

// mnemonics maps the instruction forms to the catalogue instructions that
// name them. Forms missing from the map have no mnemonic in the catalogue.
var mnemonics = map[kind]*chip8cpu.Instruction{
	opCls:     chip8cpu.Cls,
	opRet:     chip8cpu.Ret,
	opJp:      chip8cpu.Jp,
	opCall:    chip8cpu.Call,
	opSeByte:  chip8cpu.Se,
	opSneByte: chip8cpu.Sne,
	opSeReg:   chip8cpu.Se,
	opLdByte:  chip8cpu.Ld,
	opAddByte: chip8cpu.Add,
	opLdReg:   chip8cpu.Ld,
	opOr:      chip8cpu.Or,
	opAnd:     chip8cpu.And,
	opXor:     chip8cpu.Xor,
	opAddReg:  chip8cpu.Add,
	opSub:     chip8cpu.Sub,
	opShr:     chip8cpu.Shr,
	opSubn:    chip8cpu.Subn,
	opShl:     chip8cpu.Shl,
	opSneReg:  chip8cpu.Sne,
	opLdI:     chip8cpu.Ld,
	opJpV0:    chip8cpu.Jp,
	opRnd:     chip8cpu.Rnd,
	opDrw:     chip8cpu.Drw,
	opSkp:     chip8cpu.Skp,
	opSknp:    chip8cpu.Sknp,
	opLdVxDT:  chip8cpu.Ld,
	opLdVxK:   chip8cpu.Ld,
	opLdDTVx:  chip8cpu.Ld,
	opLdSTVx:  chip8cpu.Ld,
	opAddIVx:  chip8cpu.Add,
	opLdFVx:   chip8cpu.Ld,
	opLdBVx:   chip8cpu.Ld,
	opLdIVx:   chip8cpu.Ld,
	opLdVxI:   chip8cpu.Ld,
}

// Instruction is a decoded 16-bit instruction word.
type Instruction struct {
	Opcode uint16
	kind   kind
}

// Decode decodes an instruction word. Words that match no supported form
// decode to an instruction for which Known returns false.
func Decode(opcode uint16) Instruction {
	ins := Instruction{Opcode: opcode}
	n1, _, n3, n4 := ins.Nibbles()

	switch n1 {
	case 0x0:
		switch {
		case opcode == 0x0000:
			ins.kind = opNop
		case opcode == 0x00E0:
			ins.kind = opCls
		case opcode == 0x00EE:
			ins.kind = opRet
		}

	case 0x1:
		ins.kind = opJp
	case 0x2:
		ins.kind = opCall
	case 0x3:
		ins.kind = opSeByte
	case 0x4:
		ins.kind = opSneByte
	case 0x5:
		if n4 == 0 {
			ins.kind = opSeReg
		}
	case 0x6:
		ins.kind = opLdByte
	case 0x7:
		ins.kind = opAddByte
	case 0x8:
		ins.kind = decodeALU(n4)
	case 0x9:
		if n4 == 0 {
			ins.kind = opSneReg
		}
	case 0xA:
		ins.kind = opLdI
	case 0xB:
		ins.kind = opJpV0
	case 0xC:
		ins.kind = opRnd
	case 0xD:
		ins.kind = opDrw

	case 0xE:
		switch {
		case n3 == 0x9 && n4 == 0xE:
			ins.kind = opSkp
		case n3 == 0xA && n4 == 0x1:
			ins.kind = opSknp
		}

	case 0xF:
		ins.kind = decodeMisc(opcode & 0x00FF)
	}

	return ins
}

// decodeALU decodes the register arithmetic forms 8XYN.
func decodeALU(n4 uint8) kind {
	switch n4 {
	case 0x0:
		return opLdReg
	case 0x1:
		return opOr
	case 0x2:
		return opAnd
	case 0x3:
		return opXor
	case 0x4:
		return opAddReg
	case 0x5:
		return opSub
	case 0x6:
		return opShr
	case 0x7:
		return opSubn
	case 0xE:
		return opShl
	default:
		return opUnknown
	}
}

// decodeMisc decodes the timer, keypad and memory forms FXNN.
func decodeMisc(nn uint16) kind {
	switch nn {
	case 0x07:
		return opLdVxDT
	case 0x0A:
		return opLdVxK
	case 0x15:
		return opLdDTVx
	case 0x18:
		return opLdSTVx
	case 0x1E:
		return opAddIVx
	case 0x29:
		return opLdFVx
	case 0x33:
		return opLdBVx
	case 0x55:
		return opLdIVx
	case 0x65:
		return opLdVxI
	default:
		return opUnknown
	}
}

// Nibbles returns the four 4-bit fields of the instruction word, most
// significant first.
func (i Instruction) Nibbles() (uint8, uint8, uint8, uint8) {
	return uint8(i.Opcode >> 12), uint8(i.Opcode>>8) & 0xF, uint8(i.Opcode>>4) & 0xF, uint8(i.Opcode) & 0xF
}

// X returns the first register operand.
func (i Instruction) X() uint8 {
	return uint8(i.Opcode>>8) & 0xF
}

// Y returns the second register operand.
func (i Instruction) Y() uint8 {
	return uint8(i.Opcode>>4) & 0xF
}

// N returns the lowest nibble, the sprite height of DXYN.
func (i Instruction) N() uint8 {
	return uint8(i.Opcode) & 0xF
}

// NN returns the 8-bit immediate.
func (i Instruction) NN() uint8 {
	return uint8(i.Opcode)
}

// NNN returns the 12-bit address.
func (i Instruction) NNN() uint16 {
	return i.Opcode & 0x0FFF
}

// Known returns whether the instruction word matches a supported form.
func (i Instruction) Known() bool {
	return i.kind != opUnknown
}

// Name returns the mnemonic of the instruction.
func (i Instruction) Name() string {
	switch i.kind {
	case opUnknown:
		return ""
	case opNop:
		return "nop"
	}
	if ins := mnemonics[i.kind]; ins != nil {
		return ins.Name
	}
	return ""
}

// String returns the instruction in assembly notation, for example "jp $234".
func (i Instruction) String() string {
	if i.kind == opUnknown {
		return fmt.Sprintf(".word $%04X", i.Opcode)
	}
	name := i.Name()
	if params := i.params(); params != "" {
		return fmt.Sprintf("%s %s", name, params)
	}
	return name
}

// params formats the operands of the instruction.
func (i Instruction) params() string {
	x, y := i.X(), i.Y()

	switch i.kind {
	case opJp, opCall:
		return fmt.Sprintf("$%03X", i.NNN())
	case opJpV0:
		return fmt.Sprintf("V0, $%03X", i.NNN())
	case opLdI:
		return fmt.Sprintf("I, $%03X", i.NNN())
	case opSeByte, opSneByte, opLdByte, opAddByte, opRnd:
		return fmt.Sprintf("V%X, $%02X", x, i.NN())
	case opSeReg, opSneReg, opLdReg, opOr, opAnd, opXor, opAddReg, opSub, opSubn, opShr, opShl:
		return fmt.Sprintf("V%X, V%X", x, y)
	case opSkp, opSknp:
		return fmt.Sprintf("V%X", x)
	case opDrw:
		return fmt.Sprintf("V%X, V%X, $%X", x, y, i.N())
	case opLdVxDT:
		return fmt.Sprintf("V%X, DT", x)
	case opLdVxK:
		return fmt.Sprintf("V%X, K", x)
	case opLdDTVx:
		return fmt.Sprintf("DT, V%X", x)
	case opLdSTVx:
		return fmt.Sprintf("ST, V%X", x)
	case opAddIVx:
		return fmt.Sprintf("I, V%X", x)
	case opLdFVx:
		return fmt.Sprintf("F, V%X", x)
	case opLdBVx:
		return fmt.Sprintf("B, V%X", x)
	case opLdIVx:
		return fmt.Sprintf("[I], V%X", x)
	case opLdVxI:
		return fmt.Sprintf("V%X, [I]", x)
	}
	return ""
}

// IsJump returns whether the instruction is an unconditional jump to NNN.
func (i Instruction) IsJump() bool {
	return i.kind == opJp
}

// IsIndirectJump returns whether the instruction is a jump whose target
// depends on V0.
func (i Instruction) IsIndirectJump() bool {
	return i.kind == opJpV0
}

// IsCall returns whether the instruction is a subroutine call.
func (i Instruction) IsCall() bool {
	return i.kind == opCall
}

// IsReturn returns whether the instruction returns from a subroutine.
func (i Instruction) IsReturn() bool {
	return i.kind == opRet
}

// IsSkip returns whether the instruction conditionally skips the next one.
func (i Instruction) IsSkip() bool {
	ins := mnemonics[i.kind]
	if ins == nil {
		return false
	}
	return chip8cpu.SkipInstructions.Contains(ins.Name)
}

// IsDataReference returns whether the instruction loads an address into the
// index register.
func (i Instruction) IsDataReference() bool {
	return i.kind == opLdI
}
