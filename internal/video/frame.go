// Package video shows the CHIP-8 display in a window and reads the keypad
// from the host keyboard.
package video

import (
	"errors"
	"image/color"

	"github.com/retroenv/retrochip8/internal/chip8"
)

// ErrNotSupported is returned by Run in builds without window support.
var ErrNotSupported = errors.New("window output is not supported by this build")

const bytesPerPixel = 4

var (
	pixelOn  = color.RGBA{R: 0xE8, G: 0xE8, B: 0xE0, A: 0xFF}
	pixelOff = color.RGBA{R: 0x18, G: 0x18, B: 0x20, A: 0xFF}
	textFg   = color.RGBA{R: 0xFF, G: 0x60, B: 0x40, A: 0xFF}
)

// fillPixels converts the display to RGBA pixel data, row by row.
func fillPixels(pixels []byte, display *chip8.Display) {
	offset := 0
	for y := range chip8.ScreenHeight {
		for x := range chip8.ScreenWidth {
			c := pixelOff
			if display[y][x] {
				c = pixelOn
			}
			pixels[offset] = c.R
			pixels[offset+1] = c.G
			pixels[offset+2] = c.B
			pixels[offset+3] = c.A
			offset += bytesPerPixel
		}
	}
}

// overlayMessage returns the text shown on top of the display, or an empty
// string if the machine runs normally.
func overlayMessage(machine *chip8.Machine, err error) string {
	switch {
	case err != nil:
		return err.Error() + " (F5 to restart)"
	case machine.Mode() == chip8.AwaitingKey:
		return "waiting for key"
	default:
		return ""
	}
}
