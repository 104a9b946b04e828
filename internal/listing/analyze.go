// Package listing writes an assembly listing of a CHIP-8 program.
// Code is separated from data by following the control flow of the program
// from its entry point, every byte that is not reached is listed as data.
package listing

import (
	"fmt"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
)

type offsetType uint8

const (
	dataOffset offsetType = iota
	codeOffset
	codeOperand // second byte of an instruction
)

type offset struct {
	typ         offsetType
	instruction chip8.Instruction
	label       string
}

// Program is an analyzed program image.
type Program struct {
	logger  *log.Logger
	data    []byte
	offsets []offset

	addressesToParse []uint16
	parsed           set.Set[uint16]
	jumpTargets      set.Set[uint16]
	callTargets      set.Set[uint16]
	dataReferences   set.Set[uint16]
}

// Analyze follows the control flow of the program image, loaded at
// chip8.ProgramStart, and marks all reachable instructions as code.
func Analyze(logger *log.Logger, data []byte) *Program {
	p := &Program{
		logger:         logger,
		data:           data,
		offsets:        make([]offset, len(data)),
		parsed:         set.New[uint16](),
		jumpTargets:    set.New[uint16](),
		callTargets:    set.New[uint16](),
		dataReferences: set.New[uint16](),
	}

	p.addAddressToParse(chip8.ProgramStart)
	for len(p.addressesToParse) > 0 {
		address := p.addressesToParse[0]
		p.addressesToParse = p.addressesToParse[1:]
		p.processAddress(address)
	}
	p.assignLabels()

	p.logger.Debug("Program analyzed",
		log.Int("size", len(data)),
		log.Int("code_bytes", p.codeBytes()))
	return p
}

func (p *Program) addAddressToParse(address uint16) {
	if p.parsed.Contains(address) {
		return
	}
	p.parsed.Add(address)
	p.addressesToParse = append(p.addressesToParse, address)
}

// index returns the offset index of the address if a complete instruction
// word at the address is part of the program.
func (p *Program) index(address uint16) (int, bool) {
	index := int(address) - chip8.ProgramStart
	if index < 0 || index+1 >= len(p.data) {
		return 0, false
	}
	return index, true
}

func (p *Program) processAddress(address uint16) {
	index, ok := p.index(address)
	if !ok {
		return
	}
	if p.offsets[index].typ != dataOffset || p.offsets[index+1].typ != dataOffset {
		p.logger.Debug("Instruction overlaps code",
			log.String("address", fmt.Sprintf("$%03X", address)))
		return
	}

	ins := chip8.Decode(uint16(p.data[index])<<8 | uint16(p.data[index+1]))
	if !ins.Known() {
		p.logger.Debug("Unknown instruction in code path",
			log.String("address", fmt.Sprintf("$%03X", address)),
			log.String("opcode", fmt.Sprintf("$%04X", ins.Opcode)))
		return
	}

	p.offsets[index].typ = codeOffset
	p.offsets[index].instruction = ins
	p.offsets[index+1].typ = codeOperand

	next := address + 2
	switch {
	case ins.IsJump():
		p.jumpTargets.Add(ins.NNN())
		p.addAddressToParse(ins.NNN())

	case ins.IsCall():
		p.callTargets.Add(ins.NNN())
		p.addAddressToParse(ins.NNN())
		p.addAddressToParse(next)

	case ins.IsSkip():
		p.addAddressToParse(next)
		p.addAddressToParse(next + 2)

	case ins.IsReturn(), ins.IsIndirectJump():

	case ins.IsDataReference():
		p.dataReferences.Add(ins.NNN())
		p.addAddressToParse(next)

	default:
		p.addAddressToParse(next)
	}
}

// assignLabels names all referenced addresses inside the program.
func (p *Program) assignLabels() {
	for index := range p.offsets {
		address := uint16(chip8.ProgramStart + index)
		o := &p.offsets[index]

		switch {
		case address == chip8.ProgramStart:
			o.label = "Start"
		case o.typ == codeOperand:
		case p.callTargets.Contains(address):
			o.label = fmt.Sprintf("func_%03X", address)
		case p.jumpTargets.Contains(address):
			o.label = fmt.Sprintf("label_%03X", address)
		case p.dataReferences.Contains(address):
			o.label = fmt.Sprintf("data_%03X", address)
		}
	}
}

func (p *Program) codeBytes() int {
	count := 0
	for _, o := range p.offsets {
		if o.typ != dataOffset {
			count++
		}
	}
	return count
}

// Code returns whether the byte at the address was identified as part of
// an instruction.
func (p *Program) Code(address uint16) bool {
	index := int(address) - chip8.ProgramStart
	if index < 0 || index >= len(p.offsets) {
		return false
	}
	return p.offsets[index].typ != dataOffset
}

// Label returns the label of the address or an empty string.
func (p *Program) Label(address uint16) string {
	index := int(address) - chip8.ProgramStart
	if index < 0 || index >= len(p.offsets) {
		return ""
	}
	return p.offsets[index].label
}
