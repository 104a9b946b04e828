// Package cli handles command line interface logic
package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/retroenv/retrochip8/internal/options"
)

// ParseFlags parses command line flags and returns the program options.
func ParseFlags() (options.Program, error) {
	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flags.SetOutput(os.Stderr)
	opts := options.NewProgram()
	readOptionFlags(flags, &opts)

	err := flags.Parse(os.Args[1:])
	args := flags.Args()
	if err != nil || (len(args) == 0 && opts.Input == "") {
		return opts, &UsageError{flags: flags}
	}

	if err := validateArgs(args); err != nil {
		return opts, &UsageError{flags: flags, msg: err.Error()}
	}

	if opts.Input == "" {
		opts.Input = args[0]
	}

	if err := opts.Validate(); err != nil {
		return opts, &UsageError{flags: flags, msg: err.Error()}
	}
	return opts, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) ShowUsage() {
	if e.msg != "" {
		fmt.Printf("%s\n\n", e.msg)
	}
	fmt.Printf("usage: retrochip8 [options] <program to run>\n\n")
	e.flags.SetOutput(os.Stdout)
	e.flags.PrintDefaults()
	fmt.Println()
}

// validateArgs checks if arguments are in correct order
func validateArgs(args []string) error {
	if len(args) > 1 {
		for _, arg := range args[1:] {
			if arg != "" && arg[0] == '-' {
				return fmt.Errorf("potential argument %s found after program to run, please pass the program as last argument", arg)
			}
		}
		return fmt.Errorf("unexpected arguments %v, only one program can be run", args[1:])
	}
	return nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.StringVar(&opts.Input, "i", "", "name of the CHIP-8 program file")
	flags.IntVar(&opts.CyclesPerSecond, "cps", opts.CyclesPerSecond, "instructions to execute per second")
	flags.IntVar(&opts.TimerFrequency, "timer", opts.TimerFrequency, "delay and sound timer frequency in Hz")
	flags.Uint64Var(&opts.MaxCycles, "cycles", 0, "stop after executing this many instructions, 0 runs until interrupted")
	flags.IntVar(&opts.Scale, "scale", opts.Scale, "window pixels per CHIP-8 pixel")
	flags.IntVar(&opts.ToneFrequency, "tone", opts.ToneFrequency, "frequency of the sound timer beep in Hz")
	flags.BoolVar(&opts.Headless, "headless", false, "run without a window and print the display to the terminal")
	flags.BoolVar(&opts.Mute, "mute", false, "disable audio output")
	flags.BoolVar(&opts.List, "list", false, "print an assembly listing of the program and exit")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
}
