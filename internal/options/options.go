// Package options contains the program options.
package options

import (
	"errors"
	"fmt"
)

// Default option values.
const (
	DefaultCyclesPerSecond = 700
	DefaultTimerFrequency  = 60
	DefaultScale           = 10
	DefaultToneFrequency   = 440

	// MaxRate is the highest instruction or timer rate, one event per nanosecond.
	MaxRate = 1_000_000_000
)

// Parameters contains file path options.
type Parameters struct {
	Input string // CHIP-8 program file to run
}

// Flags contains behavior options.
type Flags struct {
	Headless bool // run without a window, rendering the display to the terminal
	Mute     bool // do not open an audio device
	List     bool // print an assembly listing of the program instead of running it
	Debug    bool
	Quiet    bool
}

// Timing contains the execution rate options.
type Timing struct {
	CyclesPerSecond int    // instructions executed per second
	TimerFrequency  int    // delay and sound timer ticks per second
	MaxCycles       uint64 // stop after this many instructions, 0 runs until interrupted
}

// Display contains the presentation options.
type Display struct {
	Scale         int // window pixels per CHIP-8 pixel
	ToneFrequency int // frequency of the beep in Hz
}

// Program options of the emulator.
type Program struct {
	Parameters
	Flags
	Timing
	Display
}

// NewProgram returns a new options instance with default options.
func NewProgram() Program {
	return Program{
		Timing: Timing{
			CyclesPerSecond: DefaultCyclesPerSecond,
			TimerFrequency:  DefaultTimerFrequency,
		},
		Display: Display{
			Scale:         DefaultScale,
			ToneFrequency: DefaultToneFrequency,
		},
	}
}

// Validate checks the options for values that can not be used.
func (p Program) Validate() error {
	if p.Input == "" {
		return errors.New("no input file given")
	}
	if p.CyclesPerSecond <= 0 {
		return fmt.Errorf("invalid cycles per second %d: must be positive", p.CyclesPerSecond)
	}
	if p.CyclesPerSecond > MaxRate {
		return fmt.Errorf("invalid cycles per second %d: must be at most %d", p.CyclesPerSecond, MaxRate)
	}
	if p.TimerFrequency <= 0 {
		return fmt.Errorf("invalid timer frequency %d: must be positive", p.TimerFrequency)
	}
	if p.TimerFrequency > MaxRate {
		return fmt.Errorf("invalid timer frequency %d: must be at most %d", p.TimerFrequency, MaxRate)
	}
	if p.Scale <= 0 {
		return fmt.Errorf("invalid scale %d: must be positive", p.Scale)
	}
	if p.ToneFrequency <= 0 {
		return fmt.Errorf("invalid tone frequency %d: must be positive", p.ToneFrequency)
	}
	return nil
}
