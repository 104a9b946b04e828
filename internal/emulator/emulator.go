// Package emulator schedules the execution of a CHIP-8 machine in wall clock time.
package emulator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// FrameRate is the number of frames per second the hosts present.
const FrameRate = 60

// FrameInterval is the wall clock time between two presented frames.
const FrameInterval = time.Second / FrameRate

// Speaker plays the beep of the sound timer.
type Speaker interface {
	SetPlaying(playing bool)
}

// FrameSink receives the display whenever it changed during a frame.
type FrameSink interface {
	Frame(display chip8.Display) error
}

// Option configures an Emulator.
type Option func(*Emulator)

// WithSpeaker sets the speaker that is switched on and off with the sound timer.
func WithSpeaker(speaker Speaker) Option {
	return func(e *Emulator) {
		e.speaker = speaker
	}
}

// WithMachineOptions sets options for the created machine.
func WithMachineOptions(machineOptions ...chip8.Option) Option {
	return func(e *Emulator) {
		e.machineOptions = append(e.machineOptions, machineOptions...)
	}
}

// Emulator drives a machine at the configured instruction and timer rates.
// Like the machine it is not safe for concurrent use.
type Emulator struct {
	logger         *log.Logger
	machine        *chip8.Machine
	machineOptions []chip8.Option
	program        []byte
	speaker        Speaker

	maxCycles  uint64
	stepPeriod time.Duration
	tickPeriod time.Duration

	// time until the next step and timer tick, relative to the end of the
	// last advanced interval
	nextStep time.Duration
	nextTick time.Duration

	cycles   uint64
	ticks    uint64
	sounding bool
	err      error
}

// New creates an emulator for the program. The program is loaded into a new
// machine, an image that does not fit into memory returns an error.
func New(logger *log.Logger, program []byte, timing options.Timing, emulatorOptions ...Option) (*Emulator, error) {
	if timing.CyclesPerSecond <= 0 || timing.TimerFrequency <= 0 ||
		timing.CyclesPerSecond > options.MaxRate || timing.TimerFrequency > options.MaxRate {
		return nil, fmt.Errorf("invalid timing: %d cycles per second, %d Hz timer frequency",
			timing.CyclesPerSecond, timing.TimerFrequency)
	}

	e := &Emulator{
		logger:     logger,
		program:    program,
		maxCycles:  timing.MaxCycles,
		stepPeriod: time.Second / time.Duration(timing.CyclesPerSecond),
		tickPeriod: time.Second / time.Duration(timing.TimerFrequency),
	}
	for _, option := range emulatorOptions {
		option(e)
	}

	e.machine = chip8.New(e.machineOptions...)
	if err := e.machine.Load(program); err != nil {
		return nil, fmt.Errorf("loading program: %w", err)
	}
	e.resetSchedule()
	return e, nil
}

// Reset resets the machine, reloads the program and restarts the schedule.
func (e *Emulator) Reset() error {
	e.machine.Reset()
	if err := e.machine.Load(e.program); err != nil {
		return fmt.Errorf("reloading program: %w", err)
	}
	e.resetSchedule()
	e.cycles = 0
	e.ticks = 0
	e.err = nil
	e.updateSpeaker()

	e.logger.Debug("Emulator reset")
	return nil
}

func (e *Emulator) resetSchedule() {
	e.nextStep = e.stepPeriod
	e.nextTick = e.tickPeriod
}

// Advance runs all instruction steps and timer ticks that are due in the
// elapsed wall clock time. Fractions of a step or tick period are carried
// over to the next call. Steps and ticks are interleaved in the order they
// are due, a tick that is due at the same time as a step runs first.
//
// The first program fault is returned and latched, afterwards Advance
// returns it again without running the machine.
func (e *Emulator) Advance(elapsed time.Duration) error {
	if e.err != nil {
		return e.err
	}
	if elapsed < 0 {
		elapsed = 0
	}

	for {
		stepDue := e.nextStep <= elapsed && !e.Done()
		tickDue := e.nextTick <= elapsed
		if !stepDue && !tickDue {
			break
		}

		if tickDue && (!stepDue || e.nextTick <= e.nextStep) {
			e.machine.TickTimers()
			e.ticks++
			e.nextTick += e.tickPeriod
			e.updateSpeaker()
			continue
		}

		err := e.machine.Step()
		e.cycles++
		e.nextStep += e.stepPeriod
		e.updateSpeaker()
		if err != nil {
			e.fail(err)
			return err
		}
	}

	e.nextStep -= elapsed
	e.nextTick -= elapsed
	return nil
}

func (e *Emulator) fail(err error) {
	e.err = err
	if e.sounding {
		e.sounding = false
		if e.speaker != nil {
			e.speaker.SetPlaying(false)
		}
	}

	var fault *chip8.Fault
	if errors.As(err, &fault) {
		e.logger.Debug("Program fault",
			log.Hex("address", fault.Address),
			log.String("instruction", fault.Instruction.String()),
			log.Err(fault.Err))
	}
}

// updateSpeaker notifies the speaker when the sound state of the machine changed.
func (e *Emulator) updateSpeaker() {
	active := e.machine.SoundActive()
	if active == e.sounding {
		return
	}
	e.sounding = active
	if e.speaker != nil {
		e.speaker.SetPlaying(active)
	}
}

// Run advances the emulator in real time until the context is canceled, a
// program fault occurs or the cycle limit is reached. If a frame sink is
// given it receives the display after every frame in which it changed.
func (e *Emulator) Run(ctx context.Context, sink FrameSink) error {
	ticker := time.NewTicker(FrameInterval)
	defer ticker.Stop()

	var previous chip8.Display
	first := true
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("running emulator: %w", ctx.Err())

		case now := <-ticker.C:
			err := e.Advance(now.Sub(last))
			last = now

			if sink != nil {
				display := e.machine.Display()
				if first || display != previous {
					if sinkErr := sink.Frame(display); sinkErr != nil {
						return fmt.Errorf("presenting frame: %w", sinkErr)
					}
					previous = display
					first = false
				}
			}

			if err != nil {
				return err
			}
			if e.Done() {
				e.logger.Info("Cycle limit reached",
					log.Int("cycles", int(e.cycles)),
					log.Int("instructions", int(e.machine.Instructions())))
				return nil
			}
		}
	}
}

// Done returns whether the configured cycle limit has been reached.
func (e *Emulator) Done() bool {
	return e.maxCycles > 0 && e.cycles >= e.maxCycles
}

// SetKey sets the pressed state of a keypad key.
func (e *Emulator) SetKey(index int, pressed bool) error {
	if err := e.machine.SetKey(index, pressed); err != nil {
		return fmt.Errorf("setting key: %w", err)
	}
	return nil
}

// Machine returns the emulated machine.
func (e *Emulator) Machine() *chip8.Machine {
	return e.machine
}

// Err returns the latched program fault or nil.
func (e *Emulator) Err() error {
	return e.err
}

// Cycles returns the number of scheduled instruction steps since the last
// reset, including steps in which the machine waited for a key.
func (e *Emulator) Cycles() uint64 {
	return e.cycles
}

// Ticks returns the number of timer ticks since the last reset.
func (e *Emulator) Ticks() uint64 {
	return e.ticks
}

// Sounding returns whether the speaker is currently switched on.
func (e *Emulator) Sounding() bool {
	return e.sounding
}
