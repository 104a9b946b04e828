package video

import (
	"errors"
	"testing"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrogolib/assert"
)

func TestFillPixels(t *testing.T) {
	var display chip8.Display
	display[0][1] = true
	display[31][63] = true

	pixels := make([]byte, chip8.ScreenWidth*chip8.ScreenHeight*bytesPerPixel)
	fillPixels(pixels, &display)

	assert.Equal(t, []byte{pixelOff.R, pixelOff.G, pixelOff.B, pixelOff.A}, pixels[0:4])
	assert.Equal(t, []byte{pixelOn.R, pixelOn.G, pixelOn.B, pixelOn.A}, pixels[4:8])

	last := len(pixels) - bytesPerPixel
	assert.Equal(t, []byte{pixelOn.R, pixelOn.G, pixelOn.B, pixelOn.A}, pixels[last:])
}

func TestOverlayMessage(t *testing.T) {
	machine := chip8.New()
	assert.Equal(t, "", overlayMessage(machine, nil))

	assert.NoError(t, machine.Load([]byte{0xF3, 0x0A})) // ld V3, K
	assert.NoError(t, machine.Step())
	assert.Equal(t, "waiting for key", overlayMessage(machine, nil))

	err := errors.New("stack underflow")
	assert.Equal(t, "stack underflow (F5 to restart)", overlayMessage(machine, err))
}
