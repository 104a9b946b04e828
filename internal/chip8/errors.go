package chip8

import (
	"errors"
	"fmt"
)

// Program faults, returned wrapped in a *Fault by Step.
var (
	ErrStackOverflow      = errors.New("stack overflow")
	ErrStackUnderflow     = errors.New("stack underflow")
	ErrAddressOutOfRange  = errors.New("address out of range")
	ErrUnknownInstruction = errors.New("unknown instruction")
)

// Host misuse errors, returned directly by the call that caused them.
var (
	ErrProgramTooLarge = errors.New("program too large")
	ErrInvalidKey      = errors.New("invalid key")
)

// Fault describes a program fault that terminated execution.
type Fault struct {
	Address     uint16      // address of the faulting instruction
	Instruction Instruction // decoded instruction, zero if the fetch itself failed
	Err         error       // one of the program fault sentinel errors
}

func (f *Fault) Error() string {
	if f.Instruction == (Instruction{}) {
		return fmt.Sprintf("fault at $%03X: %v", f.Address, f.Err)
	}
	return fmt.Sprintf("fault at $%03X executing %s ($%04X): %v",
		f.Address, f.Instruction, f.Instruction.Opcode, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}
