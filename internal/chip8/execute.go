package chip8

import (
	"fmt"
)

// Step executes a single instruction.
//
// In AwaitingKey mode Step does not fetch: it either stays stalled, or, if a
// key is pressed, stores the lowest pressed key index in the wait register
// and switches back to Running.
//
// A program fault is returned as *Fault, the program counter is left at the
// faulting instruction. An instruction that moves the program counter past
// the end of memory faults itself and every following Step returns the same fault until
// Reset is called.
func (m *Machine) Step() error {
	if m.fault != nil {
		return m.fault
	}
	if m.mode == AwaitingKey {
		m.resumeOnKey()
		return nil
	}

	address := m.pc
	opcode, err := m.fetch()
	if err != nil {
		return m.raise(address, Instruction{}, err)
	}

	ins := Decode(opcode)
	if err := m.execute(ins); err != nil {
		return m.raise(address, ins, err)
	}
	if m.pc >= MemorySize {
		return m.raise(address, ins,
			fmt.Errorf("%w: next instruction at $%04X", ErrAddressOutOfRange, m.pc))
	}
	m.executed++
	return nil
}

// raise latches a program fault and rewinds the program counter to the
// faulting instruction.
func (m *Machine) raise(address uint16, ins Instruction, err error) error {
	m.pc = address
	m.fault = &Fault{
		Address:     address,
		Instruction: ins,
		Err:         err,
	}
	return m.fault
}

// fetch reads the big endian instruction word at the program counter and
// advances the program counter past it.
func (m *Machine) fetch() (uint16, error) {
	if int(m.pc)+opcodeSize > MemorySize {
		return 0, fmt.Errorf("%w: fetching instruction at $%04X", ErrAddressOutOfRange, m.pc)
	}
	opcode := uint16(m.memory[m.pc])<<8 | uint16(m.memory[m.pc+1])
	m.pc += opcodeSize
	return opcode, nil
}

// resumeOnKey leaves the AwaitingKey mode once any key is pressed.
func (m *Machine) resumeOnKey() {
	for key, pressed := range m.keys {
		if pressed {
			m.v[m.waitTarget] = uint8(key)
			m.mode = Running
			return
		}
	}
}

//nolint:cyclop,funlen // one case per instruction form
func (m *Machine) execute(ins Instruction) error {
	x, y := ins.X(), ins.Y()

	switch ins.kind {
	case opNop:

	case opCls:
		m.display.Clear()

	case opRet:
		address, err := m.pop()
		if err != nil {
			return err
		}
		m.pc = address

	case opJp:
		m.pc = ins.NNN()

	case opCall:
		if err := m.push(m.pc); err != nil {
			return err
		}
		m.pc = ins.NNN()

	case opSeByte:
		m.skipIf(m.v[x] == ins.NN())
	case opSneByte:
		m.skipIf(m.v[x] != ins.NN())
	case opSeReg:
		m.skipIf(m.v[x] == m.v[y])
	case opSneReg:
		m.skipIf(m.v[x] != m.v[y])

	case opLdByte:
		m.v[x] = ins.NN()
	case opAddByte:
		m.v[x] += ins.NN()

	case opLdReg:
		m.v[x] = m.v[y]
	case opOr:
		m.v[x] |= m.v[y]
	case opAnd:
		m.v[x] &= m.v[y]
	case opXor:
		m.v[x] ^= m.v[y]

	case opAddReg:
		sum := uint16(m.v[x]) + uint16(m.v[y])
		m.v[x] = uint8(sum)
		m.v[FlagRegister] = boolToByte(sum > 0xFF)

	case opSub:
		noBorrow := m.v[x] >= m.v[y]
		m.v[x] -= m.v[y]
		m.v[FlagRegister] = boolToByte(noBorrow)

	case opSubn:
		noBorrow := m.v[y] >= m.v[x]
		m.v[x] = m.v[y] - m.v[x]
		m.v[FlagRegister] = boolToByte(noBorrow)

	case opShr:
		dropped := m.v[y] & 0x01
		m.v[x] = m.v[y] >> 1
		m.v[FlagRegister] = dropped

	case opShl:
		dropped := m.v[y] >> 7
		m.v[x] = m.v[y] << 1
		m.v[FlagRegister] = dropped

	case opLdI:
		m.index = ins.NNN()

	case opJpV0:
		target := uint32(ins.NNN()) + uint32(m.v[0])
		if target >= MemorySize {
			return fmt.Errorf("%w: jump target $%04X", ErrAddressOutOfRange, target)
		}
		m.pc = uint16(target)

	case opRnd:
		m.v[x] = uint8(m.random.Uint32()) & ins.NN()

	case opDrw:
		return m.draw(m.v[x], m.v[y], ins.N())

	case opSkp:
		m.skipIf(m.Key(int(m.v[x])))
	case opSknp:
		m.skipIf(!m.Key(int(m.v[x])))

	case opLdVxDT:
		m.v[x] = m.delayTimer
	case opLdVxK:
		m.mode = AwaitingKey
		m.waitTarget = x
	case opLdDTVx:
		m.delayTimer = m.v[x]
	case opLdSTVx:
		m.soundTimer = m.v[x]

	case opAddIVx:
		m.index += uint16(m.v[x])
	case opLdFVx:
		m.index = GlyphAddress(m.v[x])

	case opLdBVx:
		if err := m.checkRange(m.index, 3); err != nil {
			return err
		}
		value := m.v[x]
		m.memory[m.index] = value / 100
		m.memory[m.index+1] = value / 10 % 10
		m.memory[m.index+2] = value % 10

	case opLdIVx:
		count := int(x) + 1
		if err := m.checkRange(m.index, count); err != nil {
			return err
		}
		copy(m.memory[m.index:], m.v[:count])
		m.index += uint16(count)

	case opLdVxI:
		count := int(x) + 1
		if err := m.checkRange(m.index, count); err != nil {
			return err
		}
		copy(m.v[:count], m.memory[m.index:])
		m.index += uint16(count)

	default:
		return ErrUnknownInstruction
	}

	return nil
}

// draw XORs a sprite of the given height, read from memory at the index
// register, onto the display. Every pixel wraps around the screen edges
// independently per axis. VF is set if any lit pixel was turned off.
func (m *Machine) draw(originX, originY, height uint8) error {
	if err := m.checkRange(m.index, int(height)); err != nil {
		return err
	}

	collision := false
	for row := range int(height) {
		sprite := m.memory[int(m.index)+row]
		y := (int(originY) + row) % ScreenHeight

		for bit := range 8 {
			if sprite&(0x80>>bit) == 0 {
				continue
			}
			x := (int(originX) + bit) % ScreenWidth
			if m.display[y][x] {
				collision = true
			}
			m.display[y][x] = !m.display[y][x]
		}
	}

	m.v[FlagRegister] = boolToByte(collision)
	return nil
}

func (m *Machine) skipIf(condition bool) {
	if condition {
		m.pc += opcodeSize
	}
}

func (m *Machine) push(address uint16) error {
	if int(m.sp) >= StackSize {
		return ErrStackOverflow
	}
	m.stack[m.sp] = address
	m.sp++
	return nil
}

func (m *Machine) pop() (uint16, error) {
	if m.sp == 0 {
		return 0, ErrStackUnderflow
	}
	m.sp--
	return m.stack[m.sp], nil
}

// checkRange verifies that length bytes starting at address are inside memory.
func (m *Machine) checkRange(address uint16, length int) error {
	if int(address)+length > MemorySize {
		return fmt.Errorf("%w: %d bytes at $%04X", ErrAddressOutOfRange, length, address)
	}
	return nil
}

func boolToByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
