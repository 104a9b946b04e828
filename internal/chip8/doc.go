// Package chip8 implements the CHIP-8 virtual machine.
//
// # Machine Model
//
// A Machine owns all emulated state:
//   - 4KB of memory, the built-in hex glyphs live at 0x000-0x04F
//   - programs are loaded at ProgramStart (0x200) and execution starts there
//   - 16 general purpose 8-bit registers V0-VF, VF doubles as flag register
//   - a 16-bit index register I
//   - a 16 entry return address stack
//   - delay and sound timers, decremented by the host at 60 Hz
//   - a 64x32 monochrome framebuffer
//   - a 16 key hexadecimal keypad
//
// # Host Integration
//
// The package has no knowledge of wall-clock time, windows or audio devices.
// The host drives a Machine through a small surface:
//
//	m := chip8.New()
//	if err := m.Load(rom); err != nil {
//		return fmt.Errorf("loading program: %w", err)
//	}
//	for running {
//		if err := m.Step(); err != nil {
//			return err // program fault, terminal for this run
//		}
//		// at 60 Hz:
//		m.TickTimers()
//	}
//
// Input is forwarded with SetKey, the framebuffer is read with Display and the
// sound state is read with SoundActive.
//
// # Waiting For Keys
//
// The FX0A instruction does not block inside Step. The machine switches to
// the AwaitingKey mode and every following Step returns immediately without
// advancing the program counter until the host reports a pressed key.
//
// # Errors
//
// Program faults (stack overflow or underflow, memory access outside the
// address space, unknown instructions) are returned as *Fault and latched:
// the machine keeps returning the same fault until Reset is called.
// Host misuse (oversized programs, invalid key indexes) is reported by the
// call that caused it and does not affect the machine state.
package chip8
