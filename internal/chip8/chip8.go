package chip8

import (
	"fmt"
	"math/rand/v2"
)

// CHIP-8 memory layout and hardware constants.
//
// CHIP-8 memory map (4KB total):
//
//	0x000-0x04F: Built-in hex digit glyphs (80 bytes)
//	0x050-0x1FF: Reserved for the interpreter
//	0x200-0xFFF: User program space (3584 bytes)
const (
	// MemorySize is the size of the addressable memory.
	MemorySize = 0x1000

	// ProgramStart is the address programs are loaded to and start executing from.
	ProgramStart = 0x200

	// MaxProgramSize is the largest program image that fits into memory.
	MaxProgramSize = MemorySize - ProgramStart

	ScreenWidth  = 64
	ScreenHeight = 32

	NumRegisters = 16
	StackSize    = 16
	NumKeys      = 16

	// FlagRegister is the index of VF, used as carry, borrow and collision flag.
	FlagRegister = 0xF
)

// opcodeSize is the size of CHIP-8 instructions in bytes.
const opcodeSize = 2

// Mode is the execution mode of a Machine.
type Mode uint8

const (
	// Running executes one instruction per Step.
	Running Mode = iota
	// AwaitingKey stalls the machine until a key is pressed.
	AwaitingKey
)

func (m Mode) String() string {
	switch m {
	case Running:
		return "running"
	case AwaitingKey:
		return "awaiting key"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Random is a source of random numbers for the CXNN instruction.
// *rand.Rand of math/rand/v2 satisfies it.
type Random interface {
	Uint32() uint32
}

// globalRandom uses the top-level functions of math/rand/v2.
type globalRandom struct{}

func (globalRandom) Uint32() uint32 {
	return rand.Uint32()
}

// Option configures a Machine.
type Option func(*Machine)

// WithRandom sets the random number source used by the CXNN instruction.
func WithRandom(random Random) Option {
	return func(m *Machine) {
		m.random = random
	}
}

// Machine is the complete state of a CHIP-8 virtual machine.
// It is not safe for concurrent use, the host has to serialize all calls.
type Machine struct {
	pc     uint16
	index  uint16
	memory [MemorySize]byte
	v      [NumRegisters]uint8

	stack [StackSize]uint16
	sp    uint8 // next free stack slot

	delayTimer uint8
	soundTimer uint8

	display Display
	keys    [NumKeys]bool

	mode       Mode
	waitTarget uint8 // register receiving the key in AwaitingKey mode
	fault      error // latched program fault
	random     Random
	executed   uint64
}

// New returns a new machine in the canonical start state.
func New(options ...Option) *Machine {
	m := &Machine{
		random: globalRandom{},
	}
	for _, option := range options {
		option(m)
	}
	m.Reset()
	return m
}

// Reset puts the machine into the canonical start state: program counter at
// ProgramStart, memory, registers, stack, timers, keys and display cleared
// and the glyph table written to the start of memory.
// The loaded program is cleared as well and has to be loaded again.
func (m *Machine) Reset() {
	m.pc = ProgramStart
	m.index = 0
	m.memory = [MemorySize]byte{}
	m.v = [NumRegisters]uint8{}
	m.stack = [StackSize]uint16{}
	m.sp = 0
	m.delayTimer = 0
	m.soundTimer = 0
	m.display.Clear()
	m.keys = [NumKeys]bool{}
	m.mode = Running
	m.waitTarget = 0
	m.fault = nil
	m.executed = 0

	copy(m.memory[:], glyphs[:])
}

// Load copies a program image into memory starting at ProgramStart and
// points the program counter at it. Memory outside the image is not touched.
func (m *Machine) Load(program []byte) error {
	if len(program) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes exceeds the maximum of %d bytes",
			ErrProgramTooLarge, len(program), MaxProgramSize)
	}
	copy(m.memory[ProgramStart:], program)
	m.pc = ProgramStart
	return nil
}

// SetKey sets the pressed state of a keypad key.
func (m *Machine) SetKey(index int, pressed bool) error {
	if index < 0 || index >= NumKeys {
		return fmt.Errorf("%w: index %d is outside 0-%d", ErrInvalidKey, index, NumKeys-1)
	}
	m.keys[index] = pressed
	return nil
}

// PressKey marks a keypad key as pressed.
func (m *Machine) PressKey(index int) error {
	return m.SetKey(index, true)
}

// ReleaseKey marks a keypad key as released.
func (m *Machine) ReleaseKey(index int) error {
	return m.SetKey(index, false)
}

// Key returns whether the keypad key is pressed. Indexes outside the keypad
// report false.
func (m *Machine) Key(index int) bool {
	if index < 0 || index >= NumKeys {
		return false
	}
	return m.keys[index]
}

// Display returns a copy of the framebuffer.
func (m *Machine) Display() Display {
	return m.display
}

// TickTimers decrements the delay and sound timers if they are non zero.
// The host calls it at a fixed rate of 60 Hz.
func (m *Machine) TickTimers() {
	if m.delayTimer > 0 {
		m.delayTimer--
	}
	if m.soundTimer > 0 {
		m.soundTimer--
	}
}

// DelayTimer returns the current delay timer value.
func (m *Machine) DelayTimer() uint8 {
	return m.delayTimer
}

// SoundTimer returns the current sound timer value.
func (m *Machine) SoundTimer() uint8 {
	return m.soundTimer
}

// SoundActive returns whether the host should currently play the tone.
func (m *Machine) SoundActive() bool {
	return m.soundTimer > 0
}

// PC returns the program counter.
func (m *Machine) PC() uint16 {
	return m.pc
}

// Index returns the index register I.
func (m *Machine) Index() uint16 {
	return m.index
}

// Register returns the value of register V0-VF. Only the low nibble of
// register is used.
func (m *Machine) Register(register uint8) uint8 {
	return m.v[register&0xF]
}

// Registers returns a copy of all V registers.
func (m *Machine) Registers() [NumRegisters]uint8 {
	return m.v
}

// StackDepth returns the number of return addresses on the stack.
func (m *Machine) StackDepth() int {
	return int(m.sp)
}

// ReadMemory returns the byte at the given address.
func (m *Machine) ReadMemory(address uint16) (byte, error) {
	if int(address) >= MemorySize {
		return 0, fmt.Errorf("%w: $%04X", ErrAddressOutOfRange, address)
	}
	return m.memory[address], nil
}

// Mode returns the execution mode.
func (m *Machine) Mode() Mode {
	return m.mode
}

// WaitRegister returns the register that receives the key index while the
// machine is in AwaitingKey mode.
func (m *Machine) WaitRegister() uint8 {
	return m.waitTarget
}

// Err returns the latched program fault or nil.
func (m *Machine) Err() error {
	return m.fault
}

// Instructions returns the number of instructions executed since the last reset.
func (m *Machine) Instructions() uint64 {
	return m.executed
}

// Display is the 64x32 monochrome framebuffer, indexed by row then column.
type Display [ScreenHeight][ScreenWidth]bool

// Pixel returns whether the pixel at column x and row y is lit. Coordinates
// outside the screen report false.
func (d *Display) Pixel(x, y int) bool {
	if x < 0 || x >= ScreenWidth || y < 0 || y >= ScreenHeight {
		return false
	}
	return d[y][x]
}

// Clear turns off all pixels.
func (d *Display) Clear() {
	*d = Display{}
}

// Lit returns the number of lit pixels.
func (d *Display) Lit() int {
	count := 0
	for y := range d {
		for x := range d[y] {
			if d[y][x] {
				count++
			}
		}
	}
	return count
}
