//go:build headless

package audio

import (
	"github.com/retroenv/retrogolib/log"
)

// Device is the silent audio output of builds without audio support.
type Device struct{}

// Open returns a silent device, the beeper is never read.
func Open(logger *log.Logger, _ *Beeper) (*Device, error) {
	logger.Debug("Audio output is not supported by this build")
	return &Device{}, nil
}

// Close does nothing.
func (d *Device) Close() error {
	return nil
}
