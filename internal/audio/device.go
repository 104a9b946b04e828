//go:build !headless

package audio

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/retroenv/retrogolib/log"
)

// Device plays a beeper on the audio output of the host.
type Device struct {
	logger *log.Logger
	player *oto.Player

	closeOnce sync.Once
}

// Open opens the audio output and starts streaming the samples of the beeper.
func Open(logger *log.Logger, beeper *Beeper) (*Device, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("creating audio context: %w", err)
	}
	<-ready

	player := ctx.NewPlayer(beeper)
	player.Play()

	logger.Debug("Audio output opened", log.Int("sample_rate", SampleRate))
	return &Device{
		logger: logger,
		player: player,
	}, nil
}

// Close stops the audio output.
func (d *Device) Close() error {
	var err error
	d.closeOnce.Do(func() {
		err = d.player.Close()
	})
	if err != nil {
		return fmt.Errorf("closing audio player: %w", err)
	}
	d.logger.Debug("Audio output closed")
	return nil
}
