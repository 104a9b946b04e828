// Package termview renders the CHIP-8 display as text, two pixel rows per line.
package termview

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/term"
)

// ANSI control sequences used to redraw a terminal in place.
const (
	clearScreen = "\x1b[2J"
	cursorHome  = "\x1b[H"
)

// Characters for the four combinations of an upper and a lower pixel.
const (
	blockNone  = ' '
	blockUpper = '▀'
	blockLower = '▄'
	blockFull  = '█'
)

// Lines is the number of text lines of a rendered display.
const Lines = chip8.ScreenHeight / 2

// View writes rendered displays to an output. Terminals are redrawn in
// place, other outputs get one rendered display after another.
type View struct {
	out      io.Writer
	terminal bool
	started  bool
	builder  strings.Builder
}

// New returns a view writing to out.
func New(logger *log.Logger, out io.Writer) *View {
	v := &View{
		out: out,
	}

	file, ok := out.(*os.File)
	if !ok {
		return v
	}
	fd := int(file.Fd())
	v.terminal = term.IsTerminal(fd)
	if !v.terminal {
		return v
	}

	width, height, err := term.GetSize(fd)
	if err == nil && (width < chip8.ScreenWidth || height < Lines) {
		logger.Warn("Terminal is smaller than the display",
			log.Int("columns", width),
			log.Int("rows", height))
	}
	return v
}

// Frame writes the display to the output. It implements emulator.FrameSink.
func (v *View) Frame(display chip8.Display) error {
	v.builder.Reset()
	if v.terminal {
		if !v.started {
			v.builder.WriteString(clearScreen)
			v.started = true
		}
		v.builder.WriteString(cursorHome)
	}
	renderTo(&v.builder, &display)

	if _, err := io.WriteString(v.out, v.builder.String()); err != nil {
		return fmt.Errorf("writing display: %w", err)
	}
	return nil
}

// Render returns the display as text.
func Render(display *chip8.Display) string {
	var builder strings.Builder
	renderTo(&builder, display)
	return builder.String()
}

func renderTo(builder *strings.Builder, display *chip8.Display) {
	for y := 0; y < chip8.ScreenHeight; y += 2 {
		for x := range chip8.ScreenWidth {
			builder.WriteRune(block(display.Pixel(x, y), display.Pixel(x, y+1)))
		}
		builder.WriteByte('\n')
	}
}

func block(upper, lower bool) rune {
	switch {
	case upper && lower:
		return blockFull
	case upper:
		return blockUpper
	case lower:
		return blockLower
	default:
		return blockNone
	}
}
