// Package main implements the main entry point of a CHIP-8 interpreter
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/retroenv/retrochip8/internal/audio"
	"github.com/retroenv/retrochip8/internal/cli"
	"github.com/retroenv/retrochip8/internal/config"
	"github.com/retroenv/retrochip8/internal/emulator"
	"github.com/retroenv/retrochip8/internal/listing"
	"github.com/retroenv/retrochip8/internal/loader"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrochip8/internal/termview"
	"github.com/retroenv/retrochip8/internal/video"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	ctx := app.Context()

	opts, err := cli.ParseFlags()
	if err != nil {
		logger := config.CreateLogger(opts.Flags)
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			printBanner(logger, opts)
			usageErr.ShowUsage()
		} else {
			logger.Fatal(err.Error())
		}
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Flags)
	printBanner(logger, opts)

	if err := run(ctx, logger, opts); err != nil {
		// Handle context cancellation (Ctrl+C) gracefully
		if errors.Is(err, context.Canceled) {
			logger.Info("Operation cancelled")
			return
		}
		logger.Error("Running program failed", log.Err(err))
		os.Exit(1)
	}
}

func printBanner(logger *log.Logger, opts options.Program) {
	if opts.Quiet {
		return
	}
	logger.Info("retrochip8", log.String("version", buildinfo.Version(version, commit, date)))
}

func run(ctx context.Context, logger *log.Logger, opts options.Program) error {
	program, err := loader.New(logger).Load(opts.Input)
	if err != nil {
		return err
	}

	if opts.List {
		if err := listing.Analyze(logger, program).Write(os.Stdout); err != nil {
			return fmt.Errorf("writing listing: %w", err)
		}
		return nil
	}

	var emulatorOptions []emulator.Option
	if !opts.Mute {
		beeper := audio.NewBeeper(opts.ToneFrequency)
		device, err := audio.Open(logger, beeper)
		if err != nil {
			logger.Warn("Audio output is not available", log.Err(err))
		} else {
			defer func() {
				if err := device.Close(); err != nil {
					logger.Error("Closing audio output failed", log.Err(err))
				}
			}()
			emulatorOptions = append(emulatorOptions, emulator.WithSpeaker(beeper))
		}
	}

	emu, err := emulator.New(logger, program, opts.Timing, emulatorOptions...)
	if err != nil {
		return fmt.Errorf("creating emulator: %w", err)
	}

	logger.Info("Running CHIP-8 program",
		log.String("file", opts.Input),
		log.Int("size", len(program)),
		log.Int("cycles_per_second", opts.CyclesPerSecond))

	if opts.Headless {
		return emu.Run(ctx, termview.New(logger, os.Stdout))
	}

	title := "retrochip8 - " + filepath.Base(opts.Input)
	return video.Run(ctx, logger, emu, title, opts.Display)
}
