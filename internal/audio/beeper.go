// Package audio plays the beep of the CHIP-8 sound timer.
package audio

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"
)

// SampleRate is the output sample rate in Hz.
const SampleRate = 44100

// bytesPerSample is the size of a mono 32 bit float sample.
const bytesPerSample = 4

const amplitude = 0.25

// Beeper generates a square wave tone while it is switched on and silence
// otherwise. The samples are read as little endian 32 bit floats, the format
// the audio device is opened with.
type Beeper struct {
	playing atomic.Bool

	mu      sync.Mutex // protects the wave state
	wave    squareWave
	samples []float32
}

// NewBeeper returns a switched off beeper for the given tone frequency in Hz.
func NewBeeper(toneFrequency int) *Beeper {
	return &Beeper{
		wave: squareWave{
			step:      float64(toneFrequency) / SampleRate,
			amplitude: amplitude,
		},
	}
}

// SetPlaying switches the tone on or off.
func (b *Beeper) SetPlaying(playing bool) {
	b.playing.Store(playing)
}

// Playing returns whether the tone is switched on.
func (b *Beeper) Playing() bool {
	return b.playing.Load()
}

// Read fills p with whole samples. It never blocks and never returns an error.
func (b *Beeper) Read(p []byte) (int, error) {
	count := len(p) / bytesPerSample

	b.mu.Lock()
	defer b.mu.Unlock()

	if cap(b.samples) < count {
		b.samples = make([]float32, count)
	}
	samples := b.samples[:count]

	if b.playing.Load() {
		b.wave.fill(samples)
	} else {
		clear(samples)
		b.wave.phase = 0
	}

	for i, sample := range samples {
		binary.LittleEndian.PutUint32(p[i*bytesPerSample:], math.Float32bits(sample))
	}
	return count * bytesPerSample, nil
}

// squareWave is a square wave oscillator with a 50% duty cycle.
type squareWave struct {
	step      float64 // phase increment per sample
	phase     float64 // position in the current period, in [0, 1)
	amplitude float32
}

func (w *squareWave) fill(samples []float32) {
	for i := range samples {
		if w.phase < 0.5 {
			samples[i] = w.amplitude
		} else {
			samples[i] = -w.amplitude
		}

		w.phase += w.step
		if w.phase >= 1 {
			w.phase -= math.Floor(w.phase)
		}
	}
}
