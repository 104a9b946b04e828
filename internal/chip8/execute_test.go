package chip8

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

// requireFault asserts that err is a *Fault at the given address wrapping target.
func requireFault(t *testing.T, err error, address uint16, target error) {
	t.Helper()

	assert.Error(t, err)
	assert.True(t, errors.Is(err, target))

	var fault *Fault
	assert.True(t, errors.As(err, &fault))
	assert.Equal(t, address, fault.Address)
}

func TestStepAdvancesProgramCounter(t *testing.T) {
	opcodes := []uint16{
		0x0000, // nop
		0x00E0, // cls
		0x3001, // se V0, $01 (not taken)
		0x4000, // sne V0, $00 (not taken)
		0x6012, // ld V0, $12
		0x7001, // add V0, $01
		0x8010, 0x8011, 0x8012, 0x8013, 0x8014, 0x8015, 0x8016, 0x8017, 0x801E,
		0x9010, // sne V0, V1 (not taken)
		0xA123, // ld I, $123
		0xC0FF, // rnd V0, $FF
		0xD015, // drw V0, V1, $5
		0xE09E, // skp V0 (key not pressed)
		0xF007, 0xF015, 0xF018, 0xF01E, 0xF029, 0xF033, 0xF055, 0xF065,
	}

	for _, opcode := range opcodes {
		t.Run(Decode(opcode).String(), func(t *testing.T) {
			m := newTestMachine(t, opcode)
			assert.NoError(t, m.Step())
			assert.Equal(t, uint16(ProgramStart+2), m.PC())
			assert.Equal(t, uint64(1), m.Instructions())
		})
	}
}

func TestArithmetic(t *testing.T) {
	const untouched = 0x55

	tests := []struct {
		name   string
		opcode uint16
		vx, vy uint8
		wantVX uint8
		wantVF uint8
	}{
		{"ld copies", 0x8120, 3, 9, 9, untouched},
		{"or", 0x8121, 0x0F, 0xF0, 0xFF, untouched},
		{"and", 0x8122, 0x3C, 0x0F, 0x0C, untouched},
		{"xor", 0x8123, 0xFF, 0x0F, 0xF0, untouched},
		{"add with carry", 0x8124, 250, 10, 4, 1},
		{"add without carry", 0x8124, 1, 2, 3, 0},
		{"sub with borrow", 0x8125, 5, 10, 251, 0},
		{"sub without borrow", 0x8125, 10, 5, 5, 1},
		{"sub equal", 0x8125, 7, 7, 0, 1},
		{"shr low bit set", 0x8126, 0xAA, 0x05, 0x02, 1},
		{"shr low bit clear", 0x8126, 0xAA, 0x04, 0x02, 0},
		{"subn without borrow", 0x8127, 5, 10, 5, 1},
		{"subn with borrow", 0x8127, 10, 5, 251, 0},
		{"shl high bit set", 0x812E, 0xAA, 0x81, 0x02, 1},
		{"shl high bit clear", 0x812E, 0xAA, 0x40, 0x80, 0},
		{"add byte wraps without flag", 0x71FF, 2, 0, 1, untouched},
		{"ld byte", 0x61AB, 0, 0, 0xAB, untouched},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, tt.opcode)
			m.v[1] = tt.vx
			m.v[2] = tt.vy
			m.v[FlagRegister] = untouched

			assert.NoError(t, m.Step())
			assert.Equal(t, tt.wantVX, m.Register(1))
			assert.Equal(t, tt.wantVF, m.Register(FlagRegister))
			assert.Equal(t, tt.vy, m.Register(2))
		})
	}
}

func TestArithmeticFlagOverridesResultInVF(t *testing.T) {
	m := newTestMachine(t, 0x8F14) // add VF, V1
	m.v[FlagRegister] = 200
	m.v[1] = 100

	assert.NoError(t, m.Step())
	assert.Equal(t, uint8(1), m.Register(FlagRegister))
}

func TestSkip(t *testing.T) {
	tests := []struct {
		name   string
		opcode uint16
		vx, vy uint8
		skip   bool
	}{
		{"se byte equal", 0x3142, 0x42, 0, true},
		{"se byte different", 0x3142, 0x41, 0, false},
		{"sne byte equal", 0x4142, 0x42, 0, false},
		{"sne byte different", 0x4142, 0x41, 0, true},
		{"se reg equal", 0x5120, 9, 9, true},
		{"se reg different", 0x5120, 9, 8, false},
		{"sne reg equal", 0x9120, 9, 9, false},
		{"sne reg different", 0x9120, 9, 8, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, tt.opcode)
			m.v[1] = tt.vx
			m.v[2] = tt.vy

			assert.NoError(t, m.Step())
			expected := uint16(ProgramStart + 2)
			if tt.skip {
				expected += 2
			}
			assert.Equal(t, expected, m.PC())
		})
	}
}

func TestCallAndReturn(t *testing.T) {
	m := newTestMachine(t,
		0x0000, // nop
		0x2300, // call $300
	)
	m.memory[0x300] = 0x00
	m.memory[0x301] = 0xEE // ret

	steps(t, m, 2)
	assert.Equal(t, uint16(0x300), m.PC())
	assert.Equal(t, 1, m.StackDepth())

	steps(t, m, 1)
	assert.Equal(t, uint16(0x204), m.PC())
	assert.Equal(t, 0, m.StackDepth())
}

func TestStackOverflow(t *testing.T) {
	m := newTestMachine(t, 0x2200) // call $200

	steps(t, m, StackSize)
	assert.Equal(t, StackSize, m.StackDepth())

	err := m.Step()
	requireFault(t, err, ProgramStart, ErrStackOverflow)
	assert.Equal(t, uint16(ProgramStart), m.PC())
	assert.Equal(t, StackSize, m.StackDepth())

	// the fault is latched
	assert.Equal(t, err, m.Step())
	assert.Equal(t, err, m.Err())
}

func TestStackUnderflow(t *testing.T) {
	m := newTestMachine(t, 0x00EE)

	err := m.Step()
	requireFault(t, err, ProgramStart, ErrStackUnderflow)
	assert.Equal(t, "fault at $200 executing ret ($00EE): stack underflow", err.Error())
}

func TestUnknownInstruction(t *testing.T) {
	for _, opcode := range []uint16{0x0123, 0x00E1, 0x5121, 0x8128, 0x912F, 0xE19F, 0xF000, 0xFFFF} {
		t.Run(Decode(opcode).String(), func(t *testing.T) {
			m := newTestMachine(t, opcode)
			requireFault(t, m.Step(), ProgramStart, ErrUnknownInstruction)
			assert.Equal(t, uint64(0), m.Instructions())
		})
	}
}

func TestResetClearsFault(t *testing.T) {
	m := newTestMachine(t, 0xFFFF)
	assert.Error(t, m.Step())

	m.Reset()
	assert.NoError(t, m.Err())
	assert.NoError(t, m.Load([]byte{0x60, 0x01}))
	assert.NoError(t, m.Step())
	assert.Equal(t, uint8(1), m.Register(0))
}

func TestJump(t *testing.T) {
	t.Run("absolute", func(t *testing.T) {
		m := newTestMachine(t, 0x1234)
		steps(t, m, 1)
		assert.Equal(t, uint16(0x234), m.PC())
	})

	t.Run("offset by V0", func(t *testing.T) {
		m := newTestMachine(t, 0xB300)
		m.v[0] = 0x10
		steps(t, m, 1)
		assert.Equal(t, uint16(0x310), m.PC())
	})

	t.Run("offset outside memory", func(t *testing.T) {
		m := newTestMachine(t, 0xBFFF)
		m.v[0] = 0x01
		requireFault(t, m.Step(), ProgramStart, ErrAddressOutOfRange)
	})

	t.Run("fetch outside memory", func(t *testing.T) {
		m := newTestMachine(t, 0x1FFF)
		steps(t, m, 1)

		err := m.Step()
		requireFault(t, err, 0xFFF, ErrAddressOutOfRange)
		assert.Equal(t, "fault at $FFF: address out of range: fetching instruction at $0FFF", err.Error())
	})
}

func TestEndOfMemory(t *testing.T) {
	tests := []struct {
		name    string
		address uint16
		opcode  uint16
		fault   bool
		wantPC  uint16
	}{
		{"skip not taken before last word", 0xFFC, 0x3001, false, 0xFFE},
		{"skip taken before last word", 0xFFC, 0x3000, true, 0xFFC},
		{"plain instruction in last word", 0xFFE, 0x6001, true, 0xFFE},
		{"skip taken in last word", 0xFFE, 0x3000, true, 0xFFE},
		{"skip not taken in last word", 0xFFE, 0x3001, true, 0xFFE},
		{"jump in last word", 0xFFE, 0x1200, false, ProgramStart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, 0x1000|tt.address) // jp to the tested address
			m.memory[tt.address] = byte(tt.opcode >> 8)
			m.memory[tt.address+1] = byte(tt.opcode)
			steps(t, m, 1)

			err := m.Step()
			assert.Equal(t, tt.wantPC, m.PC())
			if !tt.fault {
				assert.NoError(t, err)
				return
			}

			requireFault(t, err, tt.address, ErrAddressOutOfRange)
			assert.Equal(t, err, m.Step())
			assert.Equal(t, uint64(1), m.Instructions())
		})
	}
}

func TestDraw(t *testing.T) {
	t.Run("wraps columns and detects collision", func(t *testing.T) {
		m := newTestMachine(t,
			0xA300, // ld I, $300
			0x603C, // ld V0, 60
			0x6100, // ld V1, 0
			0xD011, // drw V0, V1, $1
			0xD011, // drw V0, V1, $1
		)
		m.memory[0x300] = 0xFF

		steps(t, m, 4)
		display := m.Display()
		for _, x := range []int{60, 61, 62, 63, 0, 1, 2, 3} {
			assert.True(t, display.Pixel(x, 0))
		}
		assert.Equal(t, 8, display.Lit())
		assert.Equal(t, uint8(0), m.Register(FlagRegister))

		steps(t, m, 1)
		assert.Equal(t, 0, litPixels(m))
		assert.Equal(t, uint8(1), m.Register(FlagRegister))
	})

	t.Run("wraps rows by screen height", func(t *testing.T) {
		m := newTestMachine(t, 0xD012) // drw V0, V1, $2
		m.index = 0x300
		m.memory[0x300] = 0x80
		m.memory[0x301] = 0x80
		m.v[0] = 130 // column 2
		m.v[1] = 31

		steps(t, m, 1)
		display := m.Display()
		assert.True(t, display.Pixel(2, 31))
		assert.True(t, display.Pixel(2, 0))
		assert.Equal(t, 2, display.Lit())
	})

	t.Run("partial overlap sets collision", func(t *testing.T) {
		m := newTestMachine(t,
			0xD011, // drw V0, V1, $1
			0x6002, // ld V0, 2
			0xD011, // drw V0, V1, $1
		)
		m.index = 0x300
		m.memory[0x300] = 0xF0

		steps(t, m, 3)
		display := m.Display()
		assert.Equal(t, uint8(1), m.Register(FlagRegister))
		assert.False(t, display.Pixel(2, 0))
		assert.False(t, display.Pixel(3, 0))
		assert.True(t, display.Pixel(0, 0))
		assert.True(t, display.Pixel(5, 0))
		assert.Equal(t, 4, display.Lit())
	})

	t.Run("sprite outside memory", func(t *testing.T) {
		m := newTestMachine(t, 0xD015)
		m.index = 0xFFE
		requireFault(t, m.Step(), ProgramStart, ErrAddressOutOfRange)
		assert.Equal(t, 0, litPixels(m))
	})

	t.Run("clear screen", func(t *testing.T) {
		m := newTestMachine(t,
			0xD015, // drw V0, V1, $5
			0x00E0, // cls
		)
		steps(t, m, 1)
		assert.True(t, litPixels(m) > 0)

		steps(t, m, 1)
		assert.Equal(t, 0, litPixels(m))
	})
}

func TestRandom(t *testing.T) {
	m := newTestMachine(t,
		0xC00F, // rnd V0, $0F
		0xC100, // rnd V1, $00
	)
	m.v[1] = 0xFF

	steps(t, m, 2)
	assert.Equal(t, uint8(0), m.Register(0)&0xF0)
	assert.Equal(t, uint8(0), m.Register(1))
}

func TestKeySkip(t *testing.T) {
	tests := []struct {
		name    string
		opcode  uint16
		key     uint8
		pressed bool
		skip    bool
	}{
		{"skp pressed", 0xE19E, 7, true, true},
		{"skp released", 0xE19E, 7, false, false},
		{"sknp pressed", 0xE1A1, 7, true, false},
		{"sknp released", 0xE1A1, 7, false, true},
		{"skp invalid key", 0xE19E, 0x20, true, false},
		{"sknp invalid key", 0xE1A1, 0x20, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, tt.opcode)
			m.v[1] = tt.key
			assert.NoError(t, m.SetKey(7, tt.pressed))

			steps(t, m, 1)
			expected := uint16(ProgramStart + 2)
			if tt.skip {
				expected += 2
			}
			assert.Equal(t, expected, m.PC())
		})
	}
}

func TestWaitForKey(t *testing.T) {
	m := newTestMachine(t,
		0xF30A, // ld V3, K
		0x6101, // ld V1, $01
	)

	steps(t, m, 1)
	assert.Equal(t, AwaitingKey, m.Mode())
	assert.Equal(t, uint8(3), m.WaitRegister())
	assert.Equal(t, uint16(0x202), m.PC())

	for range 3 {
		steps(t, m, 1)
		assert.Equal(t, uint16(0x202), m.PC())
		assert.Equal(t, AwaitingKey, m.Mode())
	}

	assert.NoError(t, m.SetKey(9, true))
	assert.NoError(t, m.SetKey(7, true))

	steps(t, m, 1)
	assert.Equal(t, uint8(7), m.Register(3))
	assert.Equal(t, Running, m.Mode())
	assert.Equal(t, uint16(0x202), m.PC())

	steps(t, m, 1)
	assert.Equal(t, uint8(1), m.Register(1))
	assert.Equal(t, uint16(0x204), m.PC())
}

func TestWaitForKeyKeepsTimersRunning(t *testing.T) {
	m := newTestMachine(t,
		0x6003, // ld V0, $03
		0xF015, // ld DT, V0
		0xF10A, // ld V1, K
	)
	steps(t, m, 3)

	m.TickTimers()
	steps(t, m, 1)
	assert.Equal(t, uint8(2), m.DelayTimer())
	assert.Equal(t, AwaitingKey, m.Mode())
}

func TestIndexRegister(t *testing.T) {
	t.Run("add wraps 16 bit", func(t *testing.T) {
		m := newTestMachine(t, 0xF01E) // add I, V0
		m.index = 0xFFFF
		m.v[0] = 2

		steps(t, m, 1)
		assert.Equal(t, uint16(1), m.Index())
	})

	t.Run("glyph address", func(t *testing.T) {
		m := newTestMachine(t, 0xF029) // ld F, V0
		m.v[0] = 0xA

		steps(t, m, 1)
		assert.Equal(t, uint16(50), m.Index())

		value, err := m.ReadMemory(m.Index())
		assert.NoError(t, err)
		assert.Equal(t, byte(0xF0), value)
	})
}

func TestBCD(t *testing.T) {
	m := newTestMachine(t, 0xF033) // ld B, V0
	m.index = 0x300
	m.v[0] = 254

	steps(t, m, 1)
	assert.Equal(t, byte(2), m.memory[0x300])
	assert.Equal(t, byte(5), m.memory[0x301])
	assert.Equal(t, byte(4), m.memory[0x302])
	assert.Equal(t, uint16(0x300), m.Index())

	m = newTestMachine(t, 0xF033)
	m.index = 0xFFE
	requireFault(t, m.Step(), ProgramStart, ErrAddressOutOfRange)
}

func TestStoreAndLoadRegisters(t *testing.T) {
	m := newTestMachine(t,
		0xA300, // ld I, $300
		0xF355, // ld [I], V3
		0xA300, // ld I, $300
		0xF365, // ld V3, [I]
	)
	m.v = [NumRegisters]uint8{1, 2, 3, 4, 5}

	steps(t, m, 2)
	assert.Equal(t, []byte{1, 2, 3, 4, 0}, m.memory[0x300:0x305])
	assert.Equal(t, uint16(0x304), m.Index())

	m.v = [NumRegisters]uint8{}
	steps(t, m, 2)
	assert.Equal(t, [NumRegisters]uint8{1, 2, 3, 4}, m.Registers())
	assert.Equal(t, uint16(0x304), m.Index())

	m = newTestMachine(t, 0xFF65)
	m.index = 0xFF8
	requireFault(t, m.Step(), ProgramStart, ErrAddressOutOfRange)
}
